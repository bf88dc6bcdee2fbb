package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FinancialReport is one reconciled spreadsheet row: the amount a
// distributor statement attributes to an (artist, album) pair for a period.
// Rows are append-only; there is no update or delete path in this service.
// Unmatched rows are stored with status 'pending' and NULL user/release ids
// for manual reconciliation later.
type FinancialReport struct {
	ID         int             `gorm:"primary_key" json:"id"`
	JobId      int             `gorm:"index;not null" json:"job_id"`
	Period     string          `gorm:"size:20;not null" json:"period"`
	ArtistName string          `gorm:"size:255;not null" json:"artist_name"`
	AlbumName  string          `gorm:"size:255" json:"album_name"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	UserId     *int            `gorm:"index" json:"user_id"`
	ReleaseId  *int            `gorm:"index" json:"release_id"`
	UploadedBy int             `gorm:"not null" json:"uploaded_by"`
	Status     ReportStatus    `gorm:"type:enum('matched', 'pending');not null;index" json:"status"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

const reportInsertBatchSize = 500

// InsertFinancialReports persists one chunk's report rows. The batch size
// only bounds statement size; the caller's transaction decides atomicity.
func InsertFinancialReports(tx *gorm.DB, reports []*FinancialReport) error {
	if len(reports) == 0 {
		return nil
	}
	return tx.CreateInBatches(reports, reportInsertBatchSize).Error
}

// UserMatchedAmount is one artist's matched total within a job.
type UserMatchedAmount struct {
	UserId int             `json:"user_id"`
	Total  decimal.Decimal `json:"total"`
}

// MatchedAmountsByUser aggregates a job's matched report amounts per artist.
// This is the single source for balance deltas at finalization.
func MatchedAmountsByUser(tx *gorm.DB, jobId int) ([]UserMatchedAmount, error) {
	var totals []UserMatchedAmount
	err := tx.Model(&FinancialReport{}).
		Select("user_id AS user_id, SUM(amount) AS total").
		Where("job_id = ? AND status = ?", jobId, ReportStatusMatched).
		Group("user_id").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}

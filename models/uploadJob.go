package models

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/lumeray/royalty_backend/config"
	"github.com/lumeray/royalty_backend/utils"
)

// FinancialUploadJob tracks one uploaded royalty spreadsheet end to end.
// The raw file bytes live on the row so that any worker invocation can
// resume processing without shared file storage.
type FinancialUploadJob struct {
	ID              int             `gorm:"primary_key" json:"id"`
	UploadedBy      int             `gorm:"index;not null" json:"uploaded_by"`
	Period          string          `gorm:"size:20;not null" json:"period"`
	Filename        string          `gorm:"size:255" json:"filename"`
	FileData        []byte          `gorm:"type:longblob" json:"-"`
	Status          UploadJobStatus `gorm:"type:enum('pending', 'processing', 'completed', 'failed');not null;default:pending;index" json:"status"`
	TotalRows       int             `gorm:"not null;default:0" json:"total_rows"`
	ProcessedRows   int             `gorm:"not null;default:0" json:"processed_rows"`
	MatchedCount    int             `gorm:"not null;default:0" json:"matched_count"`
	UnmatchedCount  int             `gorm:"not null;default:0" json:"unmatched_count"`
	ChunkSize       int             `gorm:"not null;default:0" json:"chunk_size"`
	TotalChunks     int             `gorm:"not null;default:0" json:"total_chunks"`
	CompletedChunks int             `gorm:"not null;default:0" json:"completed_chunks"`
	ErrorMessage    *string         `gorm:"type:text" json:"error_message"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	StartedAt       *time.Time      `json:"started_at"`
	CompletedAt     *time.Time      `json:"completed_at"`
}

// UploadJobView is the job-listing shape polled by the admin console.
type UploadJobView struct {
	ID              int             `json:"id"`
	Period          string          `json:"period"`
	Filename        string          `json:"filename"`
	Status          UploadJobStatus `json:"status"`
	TotalRows       int             `json:"total_rows"`
	ProcessedRows   int             `json:"processed_rows"`
	MatchedCount    int             `json:"matched_count"`
	UnmatchedCount  int             `json:"unmatched_count"`
	TotalChunks     int             `json:"total_chunks"`
	CompletedChunks int             `json:"completed_chunks"`
	ErrorMessage    *string         `json:"error_message"`
	Progress        float64         `json:"progress"`
	CreatedAt       time.Time       `json:"created_at"`
	StartedAt       *time.Time      `json:"started_at"`
	CompletedAt     *time.Time      `json:"completed_at"`
}

const uploadJobListLimit = 20

func uploadJobsCacheKey(uploadedBy int) string {
	return fmt.Sprintf("upload-jobs:%d", uploadedBy)
}

// JOB_LIST_CACHE_TTL_SECONDS (default 15s). The listing is polled for
// progress, so the TTL stays short and writes invalidate the key anyway.
func jobListCacheTTL() time.Duration {
	ttl := 15
	if v := strings.TrimSpace(os.Getenv("JOB_LIST_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

// InvalidateUploadJobsCache drops the uploader's cached job listing. Called
// whenever a job is created or its progress settles.
func InvalidateUploadJobsCache(uploadedBy int) {
	_ = config.RemoveRedisKey(uploadJobsCacheKey(uploadedBy))
}

// ListUploadJobsByUploader returns the uploader's recent jobs, newest first,
// with chunk progress as a percentage. Served from the redis cache when a
// fresh entry exists.
func ListUploadJobsByUploader(ctx context.Context, uploadedBy int) ([]*UploadJobView, error) {
	cacheKey := uploadJobsCacheKey(uploadedBy)
	var cached []*UploadJobView
	if hit, err := config.GetRedisObject(cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	db := config.GetDB()
	var jobs []*FinancialUploadJob
	err := db.WithContext(ctx).
		Omit("file_data").
		Where("uploaded_by = ?", uploadedBy).
		Order("created_at DESC").
		Limit(uploadJobListLimit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}

	views := make([]*UploadJobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, &UploadJobView{
			ID:              job.ID,
			Period:          job.Period,
			Filename:        job.Filename,
			Status:          job.Status,
			TotalRows:       job.TotalRows,
			ProcessedRows:   job.ProcessedRows,
			MatchedCount:    job.MatchedCount,
			UnmatchedCount:  job.UnmatchedCount,
			TotalChunks:     job.TotalChunks,
			CompletedChunks: job.CompletedChunks,
			ErrorMessage:    job.ErrorMessage,
			Progress:        ChunkProgressPercent(job.CompletedChunks, job.TotalChunks),
			CreatedAt:       job.CreatedAt,
			StartedAt:       job.StartedAt,
			CompletedAt:     job.CompletedAt,
		})
	}

	// Best-effort; a cache write failure never fails the listing.
	_ = config.SetRedisObject(cacheKey, views, jobListCacheTTL())
	return views, nil
}

// ChunkProgressPercent rounds completed/total chunks to one decimal place.
func ChunkProgressPercent(completedChunks, totalChunks int) float64 {
	if totalChunks <= 0 {
		return 0
	}
	pct := float64(completedChunks) / float64(totalChunks) * 100
	return math.Round(pct*10) / 10
}

// GetUploadJob loads one job including its file bytes. A missing job comes
// back as utils.ErrorRecordNotFound so callers can 404 without importing gorm.
func GetUploadJob(tx *gorm.DB, jobId int) (*FinancialUploadJob, error) {
	var job FinancialUploadJob
	if err := tx.First(&job, jobId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &job, nil
}

// MarkUploadJobFailed records an unrecoverable job error. Used at creation
// time for structural problems (e.g. missing file bytes); chunk-level errors
// never fail the whole job.
func MarkUploadJobFailed(tx *gorm.DB, jobId int, message string) error {
	now := time.Now().UTC()
	return tx.Model(&FinancialUploadJob{}).
		Where("id = ?", jobId).
		Updates(map[string]interface{}{
			"status":        JobStatusFailed,
			"error_message": message,
			"completed_at":  &now,
		}).Error
}

// MarkUploadJobProcessing flips a pending job to processing when its first
// chunk starts. Conditional so concurrent workers race harmlessly and
// started_at is set once.
func MarkUploadJobProcessing(tx *gorm.DB, jobId int) error {
	now := time.Now().UTC()
	return tx.Model(&FinancialUploadJob{}).
		Where("id = ? AND status = ?", jobId, JobStatusPending).
		Updates(map[string]interface{}{
			"status":     JobStatusProcessing,
			"started_at": &now,
		}).Error
}

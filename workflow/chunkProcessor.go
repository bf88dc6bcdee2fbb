package workflow

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lumeray/royalty_backend/config"
	"github.com/lumeray/royalty_backend/models"
)

// ChunkResult summarizes one processed chunk. BalanceDeltas are accumulated
// in memory only; balances are applied exactly once at job finalization,
// never per chunk.
type ChunkResult struct {
	ProcessedRows int
	MatchedCount  int
	SkippedRows   int
	BalanceDeltas map[int]decimal.Decimal
}

// parseChunkRows walks spreadsheet rows [startRow, endRow] (1-based, header
// excluded) and turns each usable row into a FinancialReport record. Rows
// with fewer than the minimum columns or an empty artist cell are skipped;
// processed + skipped always accounts for every row in the window.
func parseChunkRows(fileBytes []byte, startRow, endRow int, idx *ReleaseIndex, jobId int, period string, uploadedBy int) ([]*models.FinancialReport, *ChunkResult, error) {
	f, sheet, err := openReportSheet(fileBytes)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %v", sheet, err)
	}
	defer rows.Close()

	result := &ChunkResult{BalanceDeltas: make(map[int]decimal.Decimal)}
	reports := make([]*models.FinancialReport, 0, endRow-startRow+1)

	rowIdx := 0
	for rows.Next() {
		rowIdx++
		if rowIdx < startRow {
			continue
		}
		if rowIdx > endRow {
			break
		}

		cols, err := rows.Columns()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read row %d: %v", rowIdx, err)
		}
		if len(cols) < reportMinColumns || cols[reportColArtist] == "" {
			result.SkippedRows++
			continue
		}

		artistName := cols[reportColArtist]
		albumName := cols[reportColAlbum]
		amount := ParseReportAmount(cols[reportColAmount])

		report := &models.FinancialReport{
			JobId:      jobId,
			Period:     period,
			ArtistName: artistName,
			AlbumName:  albumName,
			Amount:     amount,
			UploadedBy: uploadedBy,
			Status:     models.ReportStatusPending,
		}

		if ref, ok := idx.Match(artistName, albumName); ok {
			userId := ref.UserId
			releaseId := ref.ReleaseId
			report.UserId = &userId
			report.ReleaseId = &releaseId
			report.Status = models.ReportStatusMatched

			result.MatchedCount++
			result.BalanceDeltas[userId] = result.BalanceDeltas[userId].Add(amount)
		}

		result.ProcessedRows++
		reports = append(reports, report)
	}
	if err := rows.Error(); err != nil {
		return nil, nil, err
	}

	return reports, result, nil
}

// ProcessChunk parses one claimed chunk and commits its report rows and the
// chunk completion in a single transaction: from the orchestrator's point of
// view a chunk's reports exist entirely or not at all. Any failure marks
// only this chunk failed; sibling chunks are untouched and there is no
// automatic retry.
func ProcessChunk(ctx context.Context, chunk *models.JobChunk, job *models.FinancialUploadJob, idx *ReleaseIndex) (*ChunkResult, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	reports, result, err := parseChunkRows(job.FileData, chunk.StartRow, chunk.EndRow, idx, job.ID, job.Period, job.UploadedBy)
	if err == nil {
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if txErr := models.InsertFinancialReports(tx, reports); txErr != nil {
				return txErr
			}
			return models.MarkChunkCompleted(tx, chunk.ID, result.ProcessedRows, result.MatchedCount)
		})
	}
	if err != nil {
		config.LogError(ctx, logger, "workflow", "ProcessChunk", "chunk processing", map[string]interface{}{
			"job_id":   chunk.JobId,
			"chunk_id": chunk.ID,
		}, err)
		if markErr := models.MarkChunkFailed(db.WithContext(ctx), chunk.ID, err.Error()); markErr != nil {
			config.LogError(ctx, logger, "workflow", "ProcessChunk", "mark chunk failed", chunk.ID, markErr)
		}
		return nil, err
	}

	return result, nil
}

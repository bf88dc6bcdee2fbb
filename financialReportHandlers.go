package main

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/lumeray/royalty_backend/config"
	"github.com/lumeray/royalty_backend/models"
	"github.com/lumeray/royalty_backend/utils"
	"github.com/lumeray/royalty_backend/workflow"
)

type uploadFinancialReportRequest struct {
	File        string `json:"file" binding:"required"`
	Period      string `json:"period" binding:"required"`
	AdminUserId int    `json:"adminUserId" binding:"required"`
	Filename    string `json:"filename"`
}

// POST /api/financial-reports
// Accepts a base64 spreadsheet, creates the upload job + chunk plan and
// returns 202 immediately; matching happens in worker passes.
func uploadFinancialReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		if isAdmin, _ := utils.GetIsAdminFromContext(c.Request.Context()); !isAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}

		var req uploadFinancialReportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			var validationErrors validator.ValidationErrors
			if errors.As(err, &validationErrors) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":  "missing required fields: file, period, adminUserId",
					"fields": utils.ProcessValidationErrors(err),
				})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		fileBytes, err := base64.StdEncoding.DecodeString(req.File)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file must be base64 encoded"})
			return
		}
		if len(fileBytes) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "empty file"})
			return
		}

		filename := req.Filename
		if filename == "" {
			filename = "report.xlsx"
		}

		job, err := workflow.CreateUploadJob(c.Request.Context(), req.AdminUserId, req.Period, filename, fileBytes)
		if err != nil {
			config.LogError(c.Request.Context(), logger, "main", "uploadFinancialReportHandler", "create upload job", req.Filename, err)
			status := http.StatusInternalServerError
			if errors.Is(err, workflow.ErrEmptyReportFile) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"success":      true,
			"job_id":       job.ID,
			"period":       job.Period,
			"total_rows":   job.TotalRows,
			"total_chunks": job.TotalChunks,
		})
	}
}

// GET /api/financial-reports/jobs
// Lists the calling admin's recent upload jobs with chunk progress.
func listUploadJobsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, ok := utils.GetUserIdFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "X-User-Id required"})
			return
		}

		jobs, err := models.ListUploadJobsByUploader(c.Request.Context(), userId)
		if err != nil {
			config.LogError(c.Request.Context(), config.GetLogger(), "main", "listUploadJobsHandler", "list jobs", userId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"jobs": jobs})
	}
}

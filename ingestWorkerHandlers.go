package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumeray/royalty_backend/config"
	"github.com/lumeray/royalty_backend/utils"
	"github.com/lumeray/royalty_backend/workflow"
)

// GET /internal/worker/process-chunks
// One time-boxed worker pass: claims a bounded batch of pending chunks,
// processes them, finalizes any job whose chunks are all done. Designed for
// periodic external triggering; fires a best-effort self-trigger when more
// chunks remain.
func processChunksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "ingest.worker_pass")
		defer span.End()

		result, err := workflow.RunIngestPass(ctx)
		if err != nil {
			config.LogError(ctx, config.GetLogger(), "main", "processChunksHandler", "ingest pass", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if result.HasMore {
			workflow.TriggerWorkerContinuation()
		}

		c.JSON(http.StatusOK, gin.H{
			"processed": result.Processed,
			"jobs":      result.Jobs,
			"has_more":  result.HasMore,
		})
	}
}

type requeueChunksRequest struct {
	JobId int `json:"job_id" binding:"required"`
}

// POST /internal/ops/chunks/requeue
// Ops tooling: reset a stuck job's failed chunks to pending so the next
// worker pass retries them.
func requeueFailedChunksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUserIdFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var req requeueChunksRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "job_id is required"})
			return
		}

		requeued, err := workflow.RequeueFailedChunks(c.Request.Context(), req.JobId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "upload job not found"})
				return
			}
			config.LogError(c.Request.Context(), config.GetLogger(), "main", "requeueFailedChunksHandler", "requeue chunks", req.JobId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"job_id":   req.JobId,
			"requeued": requeued,
		})
	}
}

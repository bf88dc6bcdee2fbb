// requeue-failed-chunks resets a stuck upload job's failed chunks back to
// pending so the next worker pass retries them. The job itself stays in
// processing; it completes once every chunk succeeds.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/requeue-failed-chunks -job 42
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/lumeray/royalty_backend/config"
	"github.com/lumeray/royalty_backend/models"
	"github.com/lumeray/royalty_backend/workflow"
)

func main() {
	jobId := flag.Int("job", 0, "upload job id to requeue")
	flag.Parse()

	if *jobId <= 0 {
		fmt.Fprintln(os.Stderr, "usage: requeue-failed-chunks -job <id>")
		os.Exit(2)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	job, err := models.GetUploadJob(db.WithContext(ctx), *jobId)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load job %d: %v\n", *jobId, err)
		os.Exit(1)
	}

	requeued, err := workflow.RequeueFailedChunks(ctx, job.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to requeue chunks for job %d: %v\n", job.ID, err)
		os.Exit(1)
	}

	fmt.Printf("job %d (%s): requeued %d failed chunks (%d/%d completed)\n",
		job.ID, job.Status, requeued, job.CompletedChunks, job.TotalChunks)
}

package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	defaultChunkSize        = 1000
	defaultWorkerChunkBatch = 5
)

// IngestChunkSize is the number of spreadsheet rows covered by one job chunk.
//
// Set via env:
// - INGEST_CHUNK_SIZE=1000
func IngestChunkSize() int {
	return positiveIntFromEnv("INGEST_CHUNK_SIZE", defaultChunkSize)
}

// WorkerChunkBatchSize bounds how many pending chunks a single worker
// invocation claims. Worker invocations are time-boxed; the batch must stay
// small enough to finish within one.
//
// Set via env:
// - INGEST_WORKER_BATCH=5
func WorkerChunkBatchSize() int {
	return positiveIntFromEnv("INGEST_WORKER_BATCH", defaultWorkerChunkBatch)
}

// WorkerSelfTriggerURL is the worker's own endpoint, used for best-effort
// fire-and-forget continuation when a batch finishes with chunks remaining.
// Empty disables self-triggering; an external scheduler is the backstop.
//
// Set via env:
// - INGEST_WORKER_SELF_URL=https://.../internal/worker/process-chunks
func WorkerSelfTriggerURL() string {
	return strings.TrimSpace(os.Getenv("INGEST_WORKER_SELF_URL"))
}

func positiveIntFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

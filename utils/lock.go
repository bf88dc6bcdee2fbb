package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/lumeray/royalty_backend/config"
)

// JobFinalizeLock serializes finalization attempts for one upload job across
// worker invocations. Best-effort only: the conditional status transition on
// the job row remains the authoritative guard, this just avoids useless
// concurrent aggregation work.
func JobFinalizeLock(ctx context.Context, jobId int, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		// Avoid nil-pointer panics when Redis lock isn't initialized yet.
		config.LogError(ctx, logger, moduleName, functionName, "Redis lock not initialized", jobId, errors.New("redis lock is nil"))
		return nil, errors.New("service not ready (redis lock not initialized)")
	}
	lockKey := fmt.Sprintf("finalize-job:%d", jobId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(ctx, logger, moduleName, functionName, "Could not obtain finalize lock for job", jobId, err)
		return nil, errors.New("could not obtain finalize lock for job")
	} else if err != nil {
		config.LogError(ctx, logger, moduleName, functionName, "Error obtaining finalize lock for job", jobId, err)
		return nil, err
	}

	release := func() {
		_ = lock.Release(ctx)
	}
	return release, nil
}

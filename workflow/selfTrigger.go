package workflow

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lumeray/royalty_backend/config"
)

const selfTriggerTimeout = 3 * time.Second

// TriggerWorkerContinuation fires a best-effort, fire-and-forget request at
// the worker's own endpoint so a batch that finished with chunks remaining
// keeps making progress without waiting for the next scheduler tick.
// Delivery is not guaranteed; periodic external triggering is the backstop.
func TriggerWorkerContinuation() {
	url := config.WorkerSelfTriggerURL()
	if url == "" {
		return
	}

	go func() {
		client := &http.Client{Timeout: selfTriggerTimeout}
		resp, err := client.Get(url)
		if err != nil {
			config.GetLogger().WithFields(logrus.Fields{
				"module": "workflow",
				"url":    url,
			}).Debug("worker self-trigger failed: " + err.Error())
			return
		}
		resp.Body.Close()
	}()
}

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/lumeray/royalty_backend/appctx"
)

func TestLogLevelFromEnv(t *testing.T) {
	cases := []struct {
		env      string
		expected logrus.Level
	}{
		{"", logrus.ErrorLevel},
		{"nonsense", logrus.ErrorLevel},
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"ERROR", logrus.ErrorLevel},
	}
	for _, tc := range cases {
		t.Setenv("LOG_LEVEL", tc.env)
		if got := logLevelFromEnv(); got != tc.expected {
			t.Fatalf("LOG_LEVEL=%q expected %s, got %s", tc.env, tc.expected, got)
		}
	}
}

func TestWithCorrelationId(t *testing.T) {
	ctx := appctx.Set(context.Background(), appctx.ContextKeyCorrelationId, "abc-123")
	fields := WithCorrelationId(ctx, logrus.Fields{"module": "workflow"})
	if fields["correlation_id"] != "abc-123" {
		t.Fatalf("expected correlation_id abc-123, got %v", fields["correlation_id"])
	}
	if fields["module"] != "workflow" {
		t.Fatalf("existing fields must survive, got %v", fields)
	}

	// No id in context: the field stays absent rather than empty.
	fields = WithCorrelationId(context.Background(), logrus.Fields{})
	if _, ok := fields["correlation_id"]; ok {
		t.Fatalf("expected no correlation_id field, got %v", fields)
	}
}

func TestLogErrorCarriesCorrelationId(t *testing.T) {
	logger := logrus.New()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.ErrorLevel)

	ctx := appctx.Set(context.Background(), appctx.ContextKeyCorrelationId, "cid-1")
	LogError(ctx, logger, "models", "GetUploadJob", "load job", 7, errors.New("boom"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["correlation_id"] != "cid-1" {
		t.Fatalf("expected correlation_id cid-1, got %v", entry["correlation_id"])
	}
	if entry["msg"] != "boom" {
		t.Fatalf("expected msg boom, got %v", entry["msg"])
	}
	if entry["module"] != "models" || entry["funcName"] != "GetUploadJob" {
		t.Fatalf("structured fields missing: %v", entry)
	}
	if entry["data"] != float64(7) {
		t.Fatalf("expected data 7, got %v", entry["data"])
	}
}

package models

import (
	"testing"
	"time"
)

func TestChunkProgressPercent(t *testing.T) {
	cases := []struct {
		completed int
		total     int
		expected  float64
	}{
		{0, 0, 0},
		{0, 3, 0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{3, 3, 100},
		{5, 5, 100},
		{1, 8, 12.5},
	}
	for _, tc := range cases {
		if got := ChunkProgressPercent(tc.completed, tc.total); got != tc.expected {
			t.Fatalf("ChunkProgressPercent(%d, %d) expected %v, got %v", tc.completed, tc.total, tc.expected, got)
		}
	}
}

func TestUploadJobsCacheKey(t *testing.T) {
	if got := uploadJobsCacheKey(42); got != "upload-jobs:42" {
		t.Fatalf("expected upload-jobs:42, got %s", got)
	}
	// Per-uploader keys: invalidating one admin's listing never evicts
	// another's.
	if uploadJobsCacheKey(1) == uploadJobsCacheKey(2) {
		t.Fatal("cache keys must differ per uploader")
	}
}

func TestJobListCacheTTL(t *testing.T) {
	t.Setenv("JOB_LIST_CACHE_TTL_SECONDS", "")
	if got := jobListCacheTTL(); got != 15*time.Second {
		t.Fatalf("default TTL expected 15s, got %s", got)
	}
	t.Setenv("JOB_LIST_CACHE_TTL_SECONDS", "60")
	if got := jobListCacheTTL(); got != 60*time.Second {
		t.Fatalf("TTL override expected 60s, got %s", got)
	}
	t.Setenv("JOB_LIST_CACHE_TTL_SECONDS", "-3")
	if got := jobListCacheTTL(); got != 15*time.Second {
		t.Fatalf("invalid TTL must fall back to 15s, got %s", got)
	}
}

package logging

import (
	"strconv"
	"strings"
	"sync"
)

// ProgressSampler reports when a textual percentage such as "45%" enters a
// new bucket, so long polls log a handful of lines instead of one per poll.
type ProgressSampler struct {
	mu         sync.Mutex
	bucketSize int
	lastBucket int
}

// NewProgressSampler builds a sampler. bucketSize <= 0 uses 25.
func NewProgressSampler(bucketSize int) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 25
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// Observe parses progress and reports the percentage and whether it should be logged.
// Unparseable values are never logged.
func (s *ProgressSampler) Observe(progress string) (int, bool) {
	percent, ok := ParsePercent(progress)
	if !ok {
		return 0, false
	}
	if s == nil {
		return percent, true
	}
	bucket := min(percent, 100) / s.bucketSize
	s.mu.Lock()
	defer s.mu.Unlock()
	if bucket <= s.lastBucket {
		return percent, false
	}
	s.lastBucket = bucket
	return percent, true
}

// ParsePercent reads values like "45%", "45" or " 7 % ".
func ParsePercent(value string) (int, bool) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "%"))
	if trimmed == "" {
		return 0, false
	}
	percent, err := strconv.Atoi(trimmed)
	if err != nil || percent < 0 {
		return 0, false
	}
	return percent, true
}

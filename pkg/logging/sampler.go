package logging

import (
	"log/slog"
	"strings"
	"sync"
)

// ErrorSampler thins out repeated failure logs. Failures are counted per key
// of the form "endpoint:outcome" (see Key); a line is written for the first
// failure of a key and then once per interval.
type ErrorSampler struct {
	mu       sync.RWMutex
	counts   map[string]int
	interval int
}

// NewErrorSampler writes every interval-th failure of a key after the first.
// With 10 that is the 1st, 10th, 20th... Values below 1 mean 10.
func NewErrorSampler(interval int) *ErrorSampler {
	if interval < 1 {
		interval = 10
	}
	return &ErrorSampler{
		counts:   make(map[string]int),
		interval: interval,
	}
}

// Key joins an upstream endpoint and a failure outcome, e.g. "stats:network".
func Key(endpoint, outcome string) string {
	return endpoint + ":" + outcome
}

// ShouldLog counts one failure for key and reports whether it is due.
func (s *ErrorSampler) ShouldLog(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[key]++
	n := s.counts[key]
	return n == 1 || n%s.interval == 0
}

// Error logs msg at error level when key is due, with the running count as
// "occurrences". It reports whether a line was written.
func (s *ErrorSampler) Error(logger *slog.Logger, key, msg string, args ...any) bool {
	if !s.ShouldLog(key) {
		return false
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error(msg, append(args, "occurrences", s.GetCount(key))...)
	return true
}

// GetCount returns how many failures have been counted for key.
func (s *ErrorSampler) GetCount(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[key]
}

// Recovered forgets every outcome counted for endpoint, so the next failure
// after a success is logged straight away.
func (s *ErrorSampler) Recovered(endpoint string) {
	prefix := endpoint + ":"
	s.mu.RLock()
	pending := false
	for k := range s.counts {
		if strings.HasPrefix(k, prefix) {
			pending = true
			break
		}
	}
	s.mu.RUnlock()
	if !pending {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.counts {
		if strings.HasPrefix(k, prefix) {
			delete(s.counts, k)
		}
	}
}

package statistics

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Statistics aggregates the outcomes of reduction invocations.
// It is safe for concurrent use by independent invocations.
type Statistics struct {
	Invocations          int64
	Copies               int64
	CompressionSuccesses int64
	ScalingSuccesses     int64
	Fallbacks            int64
	Failures             int64

	Probes        int64
	ProbeFailures int64

	BytesIn  int64
	BytesOut int64

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Errors []StatError

	mutex sync.RWMutex

	FailureKinds map[string]int64
}

// StatError represents an error that occurred during a reduction.
type StatError struct {
	FilePath  string
	Operation string
	Error     string
	Timestamp time.Time
}

// NewStatistics returns a new Statistics instance.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime:    time.Now(),
		FailureKinds: make(map[string]int64),
		Errors:       make([]StatError, 0),
	}
}

// IncrementInvocations increases the count of search invocations by 1.
func (s *Statistics) IncrementInvocations() {
	atomic.AddInt64(&s.Invocations, 1)
}

// IncrementCopies increases the count of verbatim copies by 1.
func (s *Statistics) IncrementCopies() {
	atomic.AddInt64(&s.Copies, 1)
}

// IncrementCompressionSuccesses increases the count of compression successes by 1.
func (s *Statistics) IncrementCompressionSuccesses() {
	atomic.AddInt64(&s.CompressionSuccesses, 1)
}

// IncrementScalingSuccesses increases the count of scaling successes by 1.
func (s *Statistics) IncrementScalingSuccesses() {
	atomic.AddInt64(&s.ScalingSuccesses, 1)
}

// IncrementFallbacks increases the count of compression-to-scaling fallbacks by 1.
func (s *Statistics) IncrementFallbacks() {
	atomic.AddInt64(&s.Fallbacks, 1)
}

// IncrementProbes increases the count of measured probes by 1.
func (s *Statistics) IncrementProbes() {
	atomic.AddInt64(&s.Probes, 1)
}

// IncrementProbeFailures increases the count of probes that broke a search by 1.
func (s *Statistics) IncrementProbeFailures() {
	atomic.AddInt64(&s.ProbeFailures, 1)
}

// AddReduction records the source and resulting sizes of a successful reduction.
func (s *Statistics) AddReduction(in, out int64) {
	atomic.AddInt64(&s.BytesIn, in)
	atomic.AddInt64(&s.BytesOut, out)
}

// AddFailure records a failed invocation under its error kind.
func (s *Statistics) AddFailure(filePath, operation, kind, errorMsg string) {
	atomic.AddInt64(&s.Failures, 1)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.FailureKinds[kind]++
	s.Errors = append(s.Errors, StatError{
		FilePath:  filePath,
		Operation: operation,
		Error:     errorMsg,
		Timestamp: time.Now(),
	})
}

// Finalize calculates the total duration.
func (s *Statistics) Finalize() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// SavedBytes returns the number of bytes saved by successful reductions.
func (s *Statistics) SavedBytes() int64 {
	return atomic.LoadInt64(&s.BytesIn) - atomic.LoadInt64(&s.BytesOut)
}

// GetSummary returns a formatted summary of all statistics.
func (s *Statistics) GetSummary() string {
	s.mutex.RLock()
	duration := s.Duration
	s.mutex.RUnlock()

	return fmt.Sprintf(`Image Reducer Statistics Summary:

Invocations:
		Total: %d
		Copied: %d
		Compressed: %d
		Scaled: %d
		Fallbacks: %d
		Failed: %d

Probes:
		Measured: %d
		Failed: %d

Bytes:
		In: %s
		Out: %s
		Saved: %s

Duration: %v`,
		atomic.LoadInt64(&s.Invocations),
		atomic.LoadInt64(&s.Copies),
		atomic.LoadInt64(&s.CompressionSuccesses),
		atomic.LoadInt64(&s.ScalingSuccesses),
		atomic.LoadInt64(&s.Fallbacks),
		atomic.LoadInt64(&s.Failures),
		atomic.LoadInt64(&s.Probes),
		atomic.LoadInt64(&s.ProbeFailures),
		formatBytes(atomic.LoadInt64(&s.BytesIn)),
		formatBytes(atomic.LoadInt64(&s.BytesOut)),
		formatBytes(s.SavedBytes()),
		duration)
}

// GetFailureBreakdown returns a formatted breakdown of failures by kind.
func (s *Statistics) GetFailureBreakdown() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.FailureKinds) == 0 {
		return "No failures recorded"
	}

	kinds := make([]string, 0, len(s.FailureKinds))
	for kind := range s.FailureKinds {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	result := "Failure Breakdown:\n"
	for _, kind := range kinds {
		result += fmt.Sprintf("  %s: %d\n", kind, s.FailureKinds[kind])
	}
	return result
}

// GetErrorSummary returns a summary of errors that occurred during reductions.
func (s *Statistics) GetErrorSummary() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.Errors) == 0 {
		return "No errors occurred during processing"
	}

	result := fmt.Sprintf("Errors (%d total):\n", len(s.Errors))
	for i, err := range s.Errors {
		if i >= 10 {
			result += fmt.Sprintf("  ... and %d more errors\n", len(s.Errors)-10)
			break
		}
		result += fmt.Sprintf("  [%s] %s: %s - %s\n",
			err.Timestamp.Format("15:04:05"),
			err.Operation,
			err.FilePath,
			err.Error)
	}
	return result
}

// formatBytes returns a human-readable string for a byte count.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < 0 {
		return "-" + formatBytes(-bytes)
	}
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

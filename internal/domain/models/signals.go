package models

import "time"

// ScanReport is a consolidated view of a batch scan across symbols.
// Note: no transport (json/http) concerns here.
type ScanReport struct {
	StartedAt  time.Time
	Duration   time.Duration
	Signals    []*Signal
	Rejections map[string]*Rejection
	Errors     map[string]string
}

// Emitted returns the number of signals produced by the scan.
func (r *ScanReport) Emitted() int { return len(r.Signals) }

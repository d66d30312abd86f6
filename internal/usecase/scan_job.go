package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"FinSignal/pkg/queue"
)

// ScanJobType is the queue message type for batch scans.
const ScanJobType = "scan.symbols"

// ScanJobPayload is the queued batch scan request.
type ScanJobPayload struct {
	Symbols []string `json:"symbols"`
	Workers int      `json:"workers"`
}

// ScanJob runs queued batch scans.
type ScanJob struct {
	scanner *Scanner
}

var _ queue.Job = (*ScanJob)(nil)

func NewScanJob(scanner *Scanner) *ScanJob { return &ScanJob{scanner: scanner} }

func (j *ScanJob) Name() string { return "batch-scan" }

func (j *ScanJob) Type() string { return ScanJobType }

// Handle fails the job only when every symbol errored, so a partly failed
// batch is not rescanned as a whole.
func (j *ScanJob) Handle(ctx context.Context, payload json.RawMessage) error {
	p, err := queue.Decode[ScanJobPayload](payload)
	if err != nil {
		return err
	}
	if len(p.Symbols) == 0 {
		return nil
	}
	report := j.scanner.Scan(ctx, p.Symbols, p.Workers)
	if len(report.Errors) == len(p.Symbols) {
		return fmt.Errorf("batch scan: all %d symbols failed", len(p.Symbols))
	}
	return nil
}

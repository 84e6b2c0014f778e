package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/quantbench/stratbot/internal/domain"
	"github.com/quantbench/stratbot/internal/report"
)

// ArchiveWriter is the narrow upload surface the archiver needs. The equity
// curve can grow large on long ranges, so it goes through the multipart path.
type ArchiveWriter interface {
	domain.BlobWriter
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// Archiver implements domain.ResultsArchiver by rendering a run's artifacts
// (equity curve, trade log, report) and uploading them under runs/{id}/.
type Archiver struct {
	writer ArchiveWriter
}

// NewArchiver creates a new Archiver.
func NewArchiver(writer ArchiveWriter) *Archiver {
	return &Archiver{writer: writer}
}

// ArchiveRun uploads equity.csv, trades.csv, and report.json for the run.
func (a *Archiver) ArchiveRun(ctx context.Context, run domain.BacktestRun, equity domain.EquityCurve, trades []domain.Trade) error {
	prefix := "runs/" + run.ID + "/"

	var equityBuf bytes.Buffer
	if err := report.WriteEquityCSV(&equityBuf, equity); err != nil {
		return fmt.Errorf("s3blob: archive run %s: %w", run.ID, err)
	}
	if err := a.writer.PutMultipart(ctx, prefix+"equity.csv", &equityBuf, minPartSize); err != nil {
		return fmt.Errorf("s3blob: archive run %s equity: %w", run.ID, err)
	}

	var tradesBuf bytes.Buffer
	if err := report.WriteTradesCSV(&tradesBuf, trades); err != nil {
		return fmt.Errorf("s3blob: archive run %s: %w", run.ID, err)
	}
	if err := a.writer.Put(ctx, prefix+"trades.csv", &tradesBuf, "text/csv"); err != nil {
		return fmt.Errorf("s3blob: archive run %s trades: %w", run.ID, err)
	}

	reportJSON, err := report.MarshalRunJSON(run)
	if err != nil {
		return fmt.Errorf("s3blob: archive run %s: %w", run.ID, err)
	}
	if err := a.writer.Put(ctx, prefix+"report.json", bytes.NewReader(reportJSON), "application/json"); err != nil {
		return fmt.Errorf("s3blob: archive run %s report: %w", run.ID, err)
	}

	return nil
}

// Compile-time interface check.
var _ domain.ResultsArchiver = (*Archiver)(nil)

package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/case-analyzer/internal/entity"
)

// RecordLister is the read side of the case store.
type RecordLister interface {
	ListRecords(ctx context.Context) ([]entity.AnalysisRecord, error)
}

// Service produces XLSX bytes for case exports.
type Service struct {
	records RecordLister
	logger  *slog.Logger
}

func NewService(records RecordLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, logger: logger}
}

const sheet = "Cases"

var headers = []string{
	"Case ID",
	"Title",
	"Case Number",
	"Court Level",
	"Tier",
	"Date of Order",
	"Success Probability",
	"Recommendation",
	"Key Issues",
	"Statutory Provisions",
	"Reasoning",
	"Analyzed At",
	"Document",
}

// ExportCasesXLSX returns an XLSX workbook (as bytes) of stored case analyses.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> every record.
// Dates compare against the analysis timestamp, date-only in UTC.
func (s *Service) ExportCasesXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	recs, err := s.records.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	recs = filterWindow(recs, from, to)

	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, err
	}
	_ = f.DeleteSheet("Sheet1")
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, r.CaseID)
		write(2, r.Title)
		write(3, r.CaseNumber)
		write(4, r.CourtLevel)
		write(5, int(r.CaseTier()))
		write(6, r.DateOfOrder)
		write(7, r.SuccessProbability)
		write(8, string(r.Recommendation))
		write(9, strings.Join(r.KeyIssues, "; "))
		write(10, strings.Join(r.StatutoryProvisions, "; "))
		write(11, truncate(r.Reasoning, 500))
		write(12, r.AnalysisTimestamp)
		write(13, r.OriginalPath)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 28) // id
	_ = f.SetColWidth(sheet, "B", "B", 40) // title
	_ = f.SetColWidth(sheet, "C", "F", 18)
	_ = f.SetColWidth(sheet, "G", "H", 14)
	_ = f.SetColWidth(sheet, "I", "J", 40)
	_ = f.SetColWidth(sheet, "K", "K", 80) // reasoning
	_ = f.SetColWidth(sheet, "L", "L", 26)
	_ = f.SetColWidth(sheet, "M", "M", 60) // path

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func filterWindow(recs []entity.AnalysisRecord, from, to *time.Time) []entity.AnalysisRecord {
	if from == nil && to == nil {
		return recs
	}
	day := func(t time.Time) time.Time {
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	var lo, hi time.Time
	if from != nil {
		lo = day(*from)
		hi = day(time.Now())
	}
	if to != nil {
		hi = day(*to)
	}

	out := make([]entity.AnalysisRecord, 0, len(recs))
	for _, r := range recs {
		ts, err := time.Parse(time.RFC3339, r.AnalysisTimestamp)
		if err != nil {
			continue
		}
		d := day(ts)
		if (from != nil && d.Before(lo)) || d.After(hi) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

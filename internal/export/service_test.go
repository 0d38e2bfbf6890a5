package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/case-analyzer/constants"
	"github.com/joseph-ayodele/case-analyzer/internal/entity"
)

type staticLister struct {
	recs []entity.AnalysisRecord
	err  error
}

func (s staticLister) ListRecords(context.Context) ([]entity.AnalysisRecord, error) {
	return s.recs, s.err
}

func rec(id, ts, court string) entity.AnalysisRecord {
	return entity.AnalysisRecord{
		CaseID:             id,
		Title:              "Title " + id,
		CourtLevel:         court,
		KeyIssues:          []string{"penalty", "limitation"},
		SuccessProbability: 65,
		Recommendation:     constants.RecommendAppeal,
		AnalysisTimestamp:  ts,
	}
}

func openBook(t *testing.T, b []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestExportCasesXLSX(t *testing.T) {
	svc := NewService(staticLister{recs: []entity.AnalysisRecord{
		rec("CASE-1-a", "2024-05-02T09:00:00.000Z", "High Court of Delhi"),
		rec("CASE-2-b", "2024-04-01T09:00:00.000Z", "ITAT"),
	}}, nil)

	b, err := svc.ExportCasesXLSX(context.Background(), nil, nil)
	require.NoError(t, err)
	rows := openBook(t, b)
	require.Len(t, rows, 3)
	assert.Equal(t, headers[:len(rows[0])], rows[0])
	assert.Equal(t, "CASE-1-a", rows[1][0])
	assert.Equal(t, "3", rows[1][4])
	assert.Equal(t, "penalty; limitation", rows[1][8])
	assert.Equal(t, "2", rows[2][4])
}

func TestExportCasesXLSXWindow(t *testing.T) {
	svc := NewService(staticLister{recs: []entity.AnalysisRecord{
		rec("CASE-1-a", "2024-05-02T09:00:00.000Z", ""),
		rec("CASE-2-b", "2024-04-01T23:59:00.000Z", ""),
		rec("CASE-3-c", "not-a-time", ""),
	}}, nil)

	to := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	b, err := svc.ExportCasesXLSX(context.Background(), nil, &to)
	require.NoError(t, err)
	rows := openBook(t, b)
	require.Len(t, rows, 2)
	assert.Equal(t, "CASE-2-b", rows[1][0])

	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	b, err = svc.ExportCasesXLSX(context.Background(), &from, nil)
	require.NoError(t, err)
	rows = openBook(t, b)
	require.Len(t, rows, 2)
	assert.Equal(t, "CASE-1-a", rows[1][0])
}

func TestExportCasesXLSXListError(t *testing.T) {
	svc := NewService(staticLister{err: errors.New("boom")}, nil)
	_, err := svc.ExportCasesXLSX(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "धा…", truncate("धारा", 3))
}

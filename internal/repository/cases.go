package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/case-analyzer/internal/common"
	"github.com/joseph-ayodele/case-analyzer/internal/entity"
)

// CaseStore keeps one <caseId>.json record and one <caseId><ext> document per case.
type CaseStore interface {
	SaveRecord(ctx context.Context, rec entity.AnalysisRecord) error
	// GetRecord returns an error wrapping common.ErrNotFound when no record exists.
	GetRecord(ctx context.Context, caseID string) (entity.AnalysisRecord, error)
	ListRecords(ctx context.Context) ([]entity.AnalysisRecord, error)
	// PutDocument moves the local file at srcPath into the store as <caseId><ext>
	// and returns its storage location.
	PutDocument(ctx context.Context, caseID, srcPath string) (string, error)
	// FindDocument returns the stored document name for caseID, or ErrNotFound.
	FindDocument(ctx context.Context, caseID string) (string, error)
}

// NewCaseStore picks the backend named by cfg.Type.
func NewCaseStore(ctx context.Context, cfg common.StorageConfig, logger *slog.Logger) (CaseStore, error) {
	switch cfg.Type {
	case "", common.StorageLocal:
		return NewLocalStore(cfg.LocalPath, logger)
	case common.StorageS3:
		return NewS3Store(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

const recordExt = ".json"

func recordName(caseID string) string { return caseID + recordExt }

func documentName(caseID, srcPath string) string {
	return caseID + strings.ToLower(filepath.Ext(srcPath))
}

var reSafeID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

func checkID(caseID string) error {
	if !reSafeID.MatchString(caseID) {
		return common.NewAppError("INVALID_CASE_ID", fmt.Sprintf("invalid case id %q", caseID), common.ErrInvalidInput)
	}
	return nil
}

func notFound(what, caseID string) error {
	return common.NewAppError("NOT_FOUND", fmt.Sprintf("%s for case %s not found", what, caseID), common.ErrNotFound)
}

func encodeRecord(rec entity.AnalysisRecord) ([]byte, error) {
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode record %s: %w", rec.CaseID, err)
	}
	return b, nil
}

func decodeRecord(caseID string, b []byte) (entity.AnalysisRecord, error) {
	var rec entity.AnalysisRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return rec, fmt.Errorf("decode record %s: %w", caseID, err)
	}
	if rec.KeyIssues == nil {
		rec.KeyIssues = []string{}
	}
	if rec.StatutoryProvisions == nil {
		rec.StatutoryProvisions = []string{}
	}
	if rec.SimilarCases == nil {
		rec.SimilarCases = []string{}
	}
	return rec, nil
}

// newest first; case ids embed the creation millis so timestamps decide.
func sortRecords(recs []entity.AnalysisRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].AnalysisTimestamp != recs[j].AnalysisTimestamp {
			return recs[i].AnalysisTimestamp > recs[j].AnalysisTimestamp
		}
		return recs[i].CaseID > recs[j].CaseID
	})
}

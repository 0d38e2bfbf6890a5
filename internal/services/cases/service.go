package cases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/case-analyzer/constants"
	"github.com/joseph-ayodele/case-analyzer/internal/common"
	"github.com/joseph-ayodele/case-analyzer/internal/entity"
	"github.com/joseph-ayodele/case-analyzer/internal/repository"
)

// SimilarCaseLimit is how many sample cases accompany each analysis.
const SimilarCaseLimit = 2

// FallbackReasoning is shown when a document exists but its record does not.
const FallbackReasoning = "Analysis data not found. Please reanalyze this document."

type CaseAnalyzer interface {
	AnalyzeCase(ctx context.Context, path string) (entity.AnalysisRecord, error)
}

type SimilarFinder interface {
	Find(ctx context.Context, tier constants.Tier, limit int) []string
}

type Exporter interface {
	ExportCasesXLSX(ctx context.Context, from, to *time.Time) ([]byte, error)
}

// Service handles case analysis business logic.
type Service struct {
	analyzer  CaseAnalyzer
	similar   SimilarFinder
	store     repository.CaseStore
	exporter  Exporter
	uploadDir string
	maxBytes  int64
	now       func() time.Time
	logger    *slog.Logger
}

type Config struct {
	UploadDir      string
	MaxUploadBytes int64
}

// NewService creates a new case service.
func NewService(cfg Config, an CaseAnalyzer, sim SimilarFinder, store repository.CaseStore, exp Exporter, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "./uploads"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = constants.MaxUploadBytes
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Service{
		analyzer:  an,
		similar:   sim,
		store:     store,
		exporter:  exp,
		uploadDir: cfg.UploadDir,
		maxBytes:  cfg.MaxUploadBytes,
		now:       time.Now,
		logger:    logger,
	}, nil
}

// Upload is one document received from a client.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Validate applies the upload rules: a name, at most MaxUploadBytes, and a
// pdf/txt/doc/docx extension or matching MIME type.
func (s *Service) Validate(u Upload) error {
	v := common.NewValidator().
		Field("document", u.FileName, common.Required).
		Field("size", u.Size, common.MaxBytes(s.maxBytes))
	if _, ok := constants.AllowedMimeTypes[strings.ToLower(mimeBase(u.ContentType))]; !ok {
		v.Field("document", u.FileName, common.AllowedDocument)
	}
	return v.Err()
}

// AnalyzeUpload saves the upload, analyzes it, attaches similar cases and
// persists the record with the document. The saved upload is removed on failure.
func (s *Service) AnalyzeUpload(ctx context.Context, u Upload) (entity.AnalysisRecord, error) {
	logger := common.LoggerFrom(ctx, s.logger)
	if err := s.Validate(u); err != nil {
		logger.Warn("cases.upload.rejected", "file", u.FileName, "size", u.Size, "err", err)
		return entity.AnalysisRecord{}, err
	}

	path, err := s.saveUpload(u)
	if err != nil {
		return entity.AnalysisRecord{}, err
	}
	logger.Info("cases.upload.saved", "path", path)

	rec, err := s.analyzer.AnalyzeCase(ctx, path)
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.Error("cases.upload.cleanup_failed", "path", path, "err", rmErr)
		}
		return entity.AnalysisRecord{}, err
	}
	ctx = common.WithCaseID(ctx, rec.CaseID)
	logger = common.LoggerFrom(ctx, s.logger)
	rec.SimilarCases = s.similarCases(ctx, rec)

	// storage trouble is logged, the analysis itself is still returned
	loc, err := s.store.PutDocument(ctx, rec.CaseID, path)
	if err != nil {
		logger.Error("cases.document.store_failed", "path", path, "err", err)
		loc = path
	}
	rec.OriginalPath = loc
	if err := s.store.SaveRecord(ctx, rec); err != nil {
		logger.Error("cases.record.store_failed", "err", err)
	}

	logger.Info("cases.analyze.ok", "tier", int(rec.CaseTier()), "similar", len(rec.SimilarCases))
	return rec, nil
}

// AnalyzeFile analyzes a document already on disk and persists the record.
// The file stays where it is.
func (s *Service) AnalyzeFile(ctx context.Context, path string) (entity.AnalysisRecord, error) {
	rec, err := s.analyzer.AnalyzeCase(ctx, path)
	if err != nil {
		return entity.AnalysisRecord{}, err
	}
	rec.SimilarCases = s.similarCases(ctx, rec)
	if abs, err := filepath.Abs(path); err == nil {
		rec.OriginalPath = abs
	} else {
		rec.OriginalPath = path
	}
	if err := s.store.SaveRecord(ctx, rec); err != nil {
		return rec, fmt.Errorf("save record %s: %w", rec.CaseID, err)
	}
	return rec, nil
}

// Get returns the stored record for caseID. When only the document survives,
// a placeholder record asks the user to reanalyze it.
func (s *Service) Get(ctx context.Context, caseID string) (entity.AnalysisRecord, error) {
	caseID = strings.TrimSpace(caseID)
	if err := common.NewValidator().Field("id", caseID, common.Required, common.CaseID).Err(); err != nil {
		return entity.AnalysisRecord{}, err
	}

	rec, err := s.store.GetRecord(ctx, caseID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return entity.AnalysisRecord{}, err
	}

	doc, derr := s.store.FindDocument(ctx, caseID)
	if derr != nil {
		if errors.Is(derr, common.ErrNotFound) {
			return entity.AnalysisRecord{}, common.NewAppError("CASE_NOT_FOUND", "Case not found", common.ErrNotFound)
		}
		return entity.AnalysisRecord{}, derr
	}
	common.LoggerFrom(common.WithCaseID(ctx, caseID), s.logger).Warn("cases.record.missing", "document", doc)
	return FallbackRecord(caseID, doc, s.now()), nil
}

// FallbackRecord stands in for a case whose analysis was lost.
func FallbackRecord(caseID, document string, now time.Time) entity.AnalysisRecord {
	title := strings.TrimSuffix(document, filepath.Ext(document))
	return entity.AnalysisRecord{
		CaseID:              caseID,
		FileName:            document,
		Title:               title,
		CaseTitle:           title,
		CaseNumber:          "N/A",
		CourtLevel:          "N/A",
		DateOfOrder:         "N/A",
		KeyIssues:           []string{},
		StatutoryProvisions: []string{},
		SuccessProbability:  50,
		Recommendation:      constants.RecommendReview,
		Reasoning:           FallbackReasoning,
		AnalysisTimestamp:   now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		SimilarCases:        []string{},
	}
}

func (s *Service) List(ctx context.Context) ([]entity.AnalysisRecord, error) {
	return s.store.ListRecords(ctx)
}

func (s *Service) Export(ctx context.Context, from, to *time.Time) ([]byte, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, common.NewAppError("INVALID_RANGE", "from must not be after to", common.ErrInvalidInput)
	}
	return s.exporter.ExportCasesXLSX(ctx, from, to)
}

func (s *Service) similarCases(ctx context.Context, rec entity.AnalysisRecord) []string {
	paths := s.similar.Find(ctx, rec.CaseTier(), SimilarCaseLimit)
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	return names
}

func (s *Service) saveUpload(u Upload) (string, error) {
	name := sanitizeName(u.FileName)
	path := filepath.Join(s.uploadDir, fmt.Sprintf("%d-%s", s.now().UnixMilli(), name))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	// one byte past the limit is enough to tell an oversize body
	n, err := io.Copy(f, io.LimitReader(u.Body, s.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.maxBytes {
		err = common.NewAppError("VALIDATION_ERROR",
			fmt.Sprintf("document exceeds maximum of %d bytes", s.maxBytes), common.ErrValidation)
	}
	if err != nil {
		_ = os.Remove(path)
		if common.IsClientError(err) {
			return "", err
		}
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path, nil
}

func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "." || name == "/" || name == "" {
		return "document"
	}
	return name
}

func mimeBase(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}

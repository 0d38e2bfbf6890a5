package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/case-analyzer/internal/entity"
)

// LocalStore keeps cases as flat files in one directory.
type LocalStore struct {
	dir    string
	logger *slog.Logger
}

func NewLocalStore(dir string, logger *slog.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{dir: dir, logger: logger}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) SaveRecord(_ context.Context, rec entity.AnalysisRecord) error {
	if err := checkID(rec.CaseID); err != nil {
		return err
	}
	b, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	// write then rename so readers never see a partial record
	final := filepath.Join(s.dir, recordName(rec.CaseID))
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename record: %w", err)
	}
	s.logger.Debug("store.record.saved", "case_id", rec.CaseID, "path", final)
	return nil
}

func (s *LocalStore) GetRecord(_ context.Context, caseID string) (entity.AnalysisRecord, error) {
	if err := checkID(caseID); err != nil {
		return entity.AnalysisRecord{}, err
	}
	b, err := os.ReadFile(filepath.Join(s.dir, recordName(caseID)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entity.AnalysisRecord{}, notFound("record", caseID)
		}
		return entity.AnalysisRecord{}, fmt.Errorf("read record: %w", err)
	}
	return decodeRecord(caseID, b)
}

func (s *LocalStore) ListRecords(ctx context.Context) ([]entity.AnalysisRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	recs := make([]entity.AnalysisRecord, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != recordExt {
			continue
		}
		rec, err := s.GetRecord(ctx, strings.TrimSuffix(name, recordExt))
		if err != nil {
			s.logger.Warn("store.record.skipped", "file", name, "err", err)
			continue
		}
		recs = append(recs, rec)
	}
	sortRecords(recs)
	return recs, nil
}

func (s *LocalStore) PutDocument(_ context.Context, caseID, srcPath string) (string, error) {
	if err := checkID(caseID); err != nil {
		return "", err
	}
	dst := filepath.Join(s.dir, documentName(caseID, srcPath))
	if err := os.Rename(srcPath, dst); err != nil {
		// rename fails across filesystems; fall back to copy + remove
		if cerr := copyFile(srcPath, dst); cerr != nil {
			return "", fmt.Errorf("move document: %w", errors.Join(err, cerr))
		}
		if rerr := os.Remove(srcPath); rerr != nil {
			s.logger.Warn("store.document.cleanup_failed", "path", srcPath, "err", rerr)
		}
	}
	s.logger.Debug("store.document.saved", "case_id", caseID, "path", dst)
	return dst, nil
}

func (s *LocalStore) FindDocument(_ context.Context, caseID string) (string, error) {
	if err := checkID(caseID); err != nil {
		return "", err
	}
	matches, err := filepath.Glob(filepath.Join(s.dir, caseID+".*"))
	if err != nil {
		return "", fmt.Errorf("find document: %w", err)
	}
	sort.Strings(matches)
	for _, m := range matches {
		ext := filepath.Ext(m)
		if ext == recordExt || ext == ".tmp" {
			continue
		}
		return filepath.Base(m), nil
	}
	return "", notFound("document", caseID)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

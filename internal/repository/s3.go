package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/joseph-ayodele/case-analyzer/constants"
	"github.com/joseph-ayodele/case-analyzer/internal/common"
	"github.com/joseph-ayodele/case-analyzer/internal/entity"
)

// S3API is the subset of *s3.Client the store uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

const s3Prefix = "cases/"

// S3Store keeps case records and documents under cases/ in one bucket.
type S3Store struct {
	client S3API
	bucket string
	logger *slog.Logger
}

// NewS3Store loads AWS config, using static keys when both are set and the
// default credential chain otherwise.
func NewS3Store(ctx context.Context, cfg common.StorageConfig, logger *slog.Logger) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "AWS_S3_BUCKET is required for s3 storage", common.ErrInvalidInput)
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.S3Region)}
	if cfg.AWSAccessKey != "" && cfg.AWSSecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKey, cfg.AWSSecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3StoreWithClient(s3.NewFromConfig(awsCfg), cfg.S3Bucket, logger), nil
}

func NewS3StoreWithClient(client S3API, bucket string, logger *slog.Logger) *S3Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Store{client: client, bucket: bucket, logger: logger}
}

func (s *S3Store) key(name string) string { return s3Prefix + name }

func (s *S3Store) SaveRecord(ctx context.Context, rec entity.AnalysisRecord) error {
	if err := checkID(rec.CaseID); err != nil {
		return err
	}
	b, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(recordName(rec.CaseID))),
		Body:        bytes.NewReader(b),
		ContentType: aws.String(constants.ContentType("json")),
	})
	if err != nil {
		return fmt.Errorf("failed to upload record to S3: %w", err)
	}
	return nil
}

func (s *S3Store) GetRecord(ctx context.Context, caseID string) (entity.AnalysisRecord, error) {
	if err := checkID(caseID); err != nil {
		return entity.AnalysisRecord{}, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(recordName(caseID))),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return entity.AnalysisRecord{}, notFound("record", caseID)
		}
		return entity.AnalysisRecord{}, fmt.Errorf("failed to download record from S3: %w", err)
	}
	defer out.Body.Close()
	b, err := io.ReadAll(out.Body)
	if err != nil {
		return entity.AnalysisRecord{}, fmt.Errorf("read record body: %w", err)
	}
	return decodeRecord(caseID, b)
}

func (s *S3Store) ListRecords(ctx context.Context) ([]entity.AnalysisRecord, error) {
	keys, err := s.list(ctx, s3Prefix)
	if err != nil {
		return nil, err
	}
	var recs []entity.AnalysisRecord
	for _, k := range keys {
		name := path.Base(k)
		if path.Ext(name) != recordExt {
			continue
		}
		rec, err := s.GetRecord(ctx, strings.TrimSuffix(name, recordExt))
		if err != nil {
			s.logger.Warn("store.record.skipped", "key", k, "err", err)
			continue
		}
		recs = append(recs, rec)
	}
	if recs == nil {
		recs = []entity.AnalysisRecord{}
	}
	sortRecords(recs)
	return recs, nil
}

// PutDocument uploads srcPath and removes the local copy once the upload succeeds.
func (s *S3Store) PutDocument(ctx context.Context, caseID, srcPath string) (string, error) {
	if err := checkID(caseID); err != nil {
		return "", err
	}
	f, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	name := documentName(caseID, srcPath)
	key := s.key(name)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(constants.ContentType(filepath.Ext(srcPath))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload document to S3: %w", err)
	}
	f.Close()
	if err := os.Remove(srcPath); err != nil {
		s.logger.Warn("store.document.cleanup_failed", "path", srcPath, "err", err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}

func (s *S3Store) FindDocument(ctx context.Context, caseID string) (string, error) {
	if err := checkID(caseID); err != nil {
		return "", err
	}
	keys, err := s.list(ctx, s.key(caseID+"."))
	if err != nil {
		return "", err
	}
	for _, k := range keys {
		if path.Ext(k) != recordExt {
			return path.Base(k), nil
		}
	}
	return "", notFound("document", caseID)
}

func (s *S3Store) list(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list S3 objects: %w", err)
		}
		for _, o := range out.Contents {
			keys = append(keys, aws.ToString(o.Key))
		}
		if !aws.ToBool(out.IsTruncated) {
			return keys, nil
		}
		token = out.NextContinuationToken
	}
}

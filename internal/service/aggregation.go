package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jeovahfialho/relatorio-vendas/internal/domain"
	"github.com/jeovahfialho/relatorio-vendas/internal/ingestion"
	"github.com/jeovahfialho/relatorio-vendas/internal/storage/objectstore"
	"github.com/jeovahfialho/relatorio-vendas/pkg/logger"
	"github.com/jeovahfialho/relatorio-vendas/pkg/metrics"
	"go.uber.org/zap"
)

// Cache is the subset of the Redis cache the services use.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// RunRecorder keeps the history of pipeline runs.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *ingestion.RunResult) (*ingestion.RunRecord, error)
	History(ctx context.Context, outputKey string, limit int) ([]ingestion.RunRecord, error)
}

// ErrHistoryDisabled is returned by History when no database is configured.
var ErrHistoryDisabled = errors.New("histórico indisponível: banco de dados não configurado")

// AggregationService runs the report pipeline and serves the generated reports.
type AggregationService struct {
	pipeline *ingestion.Pipeline
	store    objectstore.Store
	cache    Cache
	recorder RunRecorder
}

// NewAggregationService wires the pipeline. cache and recorder may be nil.
func NewAggregationService(store objectstore.Store, cache Cache, recorder RunRecorder) *AggregationService {
	return &AggregationService{
		pipeline: ingestion.NewPipeline(store),
		store:    store,
		cache:    cache,
		recorder: recorder,
	}
}

// Process runs the pipeline for a raw key. Recording the run is best effort:
// the report is already stored when it happens.
func (s *AggregationService) Process(ctx context.Context, rawKey string) (*ingestion.RunResult, error) {
	result, err := s.pipeline.Process(ctx, rawKey)
	if err != nil {
		log := logger.WithContext(ctx).Error
		if domain.IsBadInput(err) || errors.Is(err, domain.ErrNotFound) {
			log = logger.WithContext(ctx).Warn
		}
		log("erro ao gerar relatório", zap.String("key", rawKey), zap.Error(err))
		return nil, err
	}

	s.invalidate(ctx, rowsCacheKey(result.OutputKey))

	if s.recorder != nil {
		if _, err := s.recorder.RecordRun(ctx, result); err != nil {
			logger.WithContext(ctx).Error("erro ao registrar execução",
				zap.String("key", rawKey),
				zap.Error(err))
		}
	}

	logger.WithContext(ctx).Info("relatório gerado",
		zap.String("input", result.InputKey),
		zap.String("output", result.OutputKey),
		zap.Int("rows", result.Rows),
		zap.Int("regioes", result.Aggregation.Len()),
		zap.String("total_lucro", ingestion.FormatAmount(result.Aggregation.Total)))

	return result, nil
}

// ProcessFile runs the pipeline for a raw file name.
func (s *AggregationService) ProcessFile(ctx context.Context, name string) (*ingestion.RunResult, error) {
	rawKey, err := domain.RawKey(name)
	if err != nil {
		return nil, err
	}
	return s.Process(ctx, rawKey)
}

// ProcessAll regenerates the reports of every raw file using workers goroutines.
func (s *AggregationService) ProcessAll(ctx context.Context, workers int) ([]ingestion.JobResult, error) {
	keys, err := s.store.List(ctx, domain.RawPrefix)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar arquivos: %w", err)
	}

	rawKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, err := domain.ReportKey(key); err == nil {
			rawKeys = append(rawKeys, key)
		}
	}

	return ingestion.ProcessAll(ctx, workers, s, rawKeys), nil
}

// GetReport returns the report CSV for a base name.
func (s *AggregationService) GetReport(ctx context.Context, name string) ([]byte, error) {
	key, err := domain.ReportKeyForName(name)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, key)
}

// GetReportSummary parses the stored report back into region totals.
func (s *AggregationService) GetReportSummary(ctx context.Context, name string) (*domain.AggregationResult, error) {
	content, err := s.GetReport(ctx, name)
	if err != nil {
		return nil, err
	}
	return ingestion.ParseReport(bytes.NewReader(content))
}

// GetReportRows returns the report as row records, total_lucro included.
func (s *AggregationService) GetReportRows(ctx context.Context, name string) ([]domain.Row, error) {
	key, err := domain.ReportKeyForName(name)
	if err != nil {
		return nil, err
	}
	return loadRows(ctx, s.store, s.cache, key)
}

// ListReports returns the base names of the stored reports.
func (s *AggregationService) ListReports(ctx context.Context) ([]string, error) {
	keys, err := s.store.List(ctx, domain.ReportPrefix)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar relatórios: %w", err)
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if hasReportSuffix(key) {
			names = append(names, domain.ReportBaseName(key))
		}
	}
	return names, nil
}

func (s *AggregationService) History(ctx context.Context, name string, limit int) ([]ingestion.RunRecord, error) {
	if s.recorder == nil {
		return nil, ErrHistoryDisabled
	}
	key, err := domain.ReportKeyForName(name)
	if err != nil {
		return nil, err
	}
	return s.recorder.History(ctx, key, limit)
}

func (s *AggregationService) invalidate(ctx context.Context, keys ...string) {
	invalidate(ctx, s.cache, keys...)
}

func rowsCacheKey(objectKey string) string {
	return "dados:" + objectKey
}

// loadRows reads an object as row records, going through the cache when set.
func loadRows(ctx context.Context, store objectstore.Store, cache Cache, key string) ([]domain.Row, error) {
	cacheKey := rowsCacheKey(key)

	if cache != nil {
		var cached []domain.Row
		if err := cache.Get(ctx, cacheKey, &cached); err == nil {
			metrics.RecordCacheHit()
			return cached, nil
		}
		metrics.RecordCacheMiss()
	}

	content, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	rows, err := ingestion.NewReader(bytes.NewReader(content)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("erro ao ler %s: %w", key, err)
	}

	if cache != nil {
		if err := cache.Set(ctx, cacheKey, rows); err != nil {
			// cache failures never fail the request
			logger.WithContext(ctx).Warn("erro ao salvar no cache", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	return rows, nil
}

func invalidate(ctx context.Context, cache Cache, keys ...string) {
	if cache == nil || len(keys) == 0 {
		return
	}
	if err := cache.Delete(ctx, keys...); err != nil {
		logger.WithContext(ctx).Warn("erro ao invalidar cache", zap.Strings("keys", keys), zap.Error(err))
	}
}

func hasReportSuffix(key string) bool {
	return strings.HasSuffix(key, domain.ReportSuffix) && key != domain.ReportPrefix+domain.ReportSuffix
}

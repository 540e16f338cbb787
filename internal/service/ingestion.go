package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jeovahfialho/relatorio-vendas/internal/config"
	"github.com/jeovahfialho/relatorio-vendas/internal/domain"
	"github.com/jeovahfialho/relatorio-vendas/internal/storage/objectstore"
	"github.com/jeovahfialho/relatorio-vendas/pkg/logger"
	"github.com/jeovahfialho/relatorio-vendas/pkg/metrics"
	"go.uber.org/zap"
)

// EventPublisher announces newly stored raw files to the queue worker.
type EventPublisher interface {
	PublishObjectCreated(ctx context.Context, key string, size int64) error
}

// Upload status values.
const (
	StatusProcessed = "processado"
	StatusQueued    = "enfileirado"
	StatusStored    = "armazenado"
	StatusFailed    = "falhou"
)

type UploadResult struct {
	FileName  string `json:"arquivo"`
	Key       string `json:"key"`
	Size      int64  `json:"size"`
	Status    string `json:"status"`
	ReportKey string `json:"relatorio,omitempty"`
}

// DeleteResult describes what a file deletion removed. A missing report is
// not an error: ReportDeleted is simply false.
type DeleteResult struct {
	RawKey        string `json:"arquivo"`
	ReportKey     string `json:"relatorio"`
	ReportDeleted bool   `json:"relatorio_removido"`
}

// IngestionService stores raw CSV files and triggers report generation.
type IngestionService struct {
	store       objectstore.Store
	aggregation *AggregationService
	cache       Cache
	publisher   EventPublisher
	trigger     string
}

// NewIngestionService wires the upload path. trigger is one of
// config.TriggerSync, config.TriggerQueue or config.TriggerNone; publisher is
// required only for config.TriggerQueue.
func NewIngestionService(store objectstore.Store, aggregation *AggregationService, cache Cache, publisher EventPublisher, trigger string) (*IngestionService, error) {
	switch trigger {
	case config.TriggerSync, config.TriggerNone:
	case config.TriggerQueue:
		if publisher == nil {
			return nil, errors.New("PIPELINE_TRIGGER=queue exige conexão com a fila")
		}
	default:
		return nil, fmt.Errorf("PIPELINE_TRIGGER desconhecido: %q", trigger)
	}

	return &IngestionService{
		store:       store,
		aggregation: aggregation,
		cache:       cache,
		publisher:   publisher,
		trigger:     trigger,
	}, nil
}

// Upload stores a raw file at raw/<filename> and triggers the pipeline. The
// returned error, if any, is about processing: the file itself was stored
// whenever the result is non-nil.
func (s *IngestionService) Upload(ctx context.Context, filename string, content []byte) (*UploadResult, error) {
	name, err := domain.UploadFileName(filename)
	if err != nil {
		return nil, err
	}
	key := domain.RawPrefix + name

	if err := s.store.Put(ctx, key, content, objectstore.ContentTypeCSV); err != nil {
		return nil, fmt.Errorf("erro ao enviar arquivo %s: %w", name, err)
	}
	metrics.UploadedBytes.Add(float64(len(content)))
	invalidate(ctx, s.cache, rowsCacheKey(key))

	logger.WithContext(ctx).Info("arquivo recebido",
		zap.String("key", key),
		zap.Int("bytes", len(content)),
		zap.String("trigger", s.trigger))

	result := &UploadResult{
		FileName: name,
		Key:      key,
		Size:     int64(len(content)),
		Status:   StatusStored,
	}

	switch s.trigger {
	case config.TriggerSync:
		run, err := s.aggregation.Process(ctx, key)
		if err != nil {
			result.Status = StatusFailed
			return result, err
		}
		result.Status = StatusProcessed
		result.ReportKey = run.OutputKey

	case config.TriggerQueue:
		if err := s.publisher.PublishObjectCreated(ctx, key, result.Size); err != nil {
			result.Status = StatusFailed
			return result, err
		}
		result.Status = StatusQueued
	}

	return result, nil
}

// ListFiles returns the names of the stored raw CSV files.
func (s *IngestionService) ListFiles(ctx context.Context) ([]string, error) {
	keys, err := s.store.List(ctx, domain.RawPrefix)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar arquivos: %w", err)
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if strings.HasSuffix(key, domain.CSVSuffix) {
			names = append(names, domain.RawFileName(key))
		}
	}
	return names, nil
}

// GetFileRows parses a raw file into row records.
func (s *IngestionService) GetFileRows(ctx context.Context, name string) ([]domain.Row, error) {
	key, err := domain.RawKey(name)
	if err != nil {
		return nil, err
	}
	return loadRows(ctx, s.store, s.cache, key)
}

// Delete removes the raw file and then, best effort, its report.
func (s *IngestionService) Delete(ctx context.Context, name string) (*DeleteResult, error) {
	rawKey, err := domain.RawKey(name)
	if err != nil {
		return nil, err
	}
	reportKey, err := domain.ReportKey(rawKey)
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, rawKey); err != nil {
		return nil, err
	}

	result := &DeleteResult{RawKey: rawKey, ReportKey: reportKey}
	result.ReportDeleted, err = s.deleteReportBestEffort(ctx, reportKey)
	invalidate(ctx, s.cache, rowsCacheKey(rawKey), rowsCacheKey(reportKey))

	if err != nil {
		return result, fmt.Errorf("arquivo %s removido, mas falhou ao remover relatório: %w", rawKey, err)
	}

	logger.WithContext(ctx).Info("arquivo removido",
		zap.String("key", rawKey),
		zap.Bool("relatorio_removido", result.ReportDeleted))

	return result, nil
}

// deleteReportBestEffort treats a missing report as nothing to do. Any other
// failure is returned so a storage outage is not mistaken for success.
func (s *IngestionService) deleteReportBestEffort(ctx context.Context, reportKey string) (bool, error) {
	err := s.store.Delete(ctx, reportKey)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

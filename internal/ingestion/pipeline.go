package ingestion

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jeovahfialho/relatorio-vendas/internal/domain"
	"github.com/jeovahfialho/relatorio-vendas/internal/storage/objectstore"
	"github.com/jeovahfialho/relatorio-vendas/pkg/metrics"
)

// Pipeline turns raw/<name>.csv into relatorios/<name>_relatorio.csv. It keeps
// no state between runs; concurrent runs on different keys are independent.
type Pipeline struct {
	store objectstore.Store
}

func NewPipeline(store objectstore.Store) *Pipeline {
	return &Pipeline{store: store}
}

type RunResult struct {
	InputKey    string
	OutputKey   string
	Rows        int
	Aggregation *domain.AggregationResult
	Report      []byte
}

// Run processes inputKey and returns the key the report was stored under.
func (p *Pipeline) Run(ctx context.Context, inputKey string) (string, error) {
	result, err := p.Process(ctx, inputKey)
	if err != nil {
		return "", err
	}
	return result.OutputKey, nil
}

// Process is Run with the intermediate results exposed. The report is built
// fully in memory and only then stored, so a failed run writes nothing.
func (p *Pipeline) Process(ctx context.Context, inputKey string) (*RunResult, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.PipelineDuration)

	result, err := p.process(ctx, inputKey)
	if err != nil {
		metrics.RecordPipelineRun("error", 0)
		return nil, err
	}

	metrics.RecordPipelineRun("success", result.Rows)
	return result, nil
}

func (p *Pipeline) process(ctx context.Context, inputKey string) (*RunResult, error) {
	outputKey, err := domain.ReportKey(inputKey)
	if err != nil {
		return nil, err
	}

	content, err := p.store.Get(ctx, inputKey)
	if err != nil {
		return nil, err
	}

	rows := &countingSource{src: NewReader(bytes.NewReader(content))}
	aggregation, err := Aggregate(rows)
	if err != nil {
		return nil, fmt.Errorf("erro ao processar %s: %w", inputKey, err)
	}

	var report bytes.Buffer
	if err := WriteReport(&report, aggregation); err != nil {
		return nil, fmt.Errorf("erro ao gerar relatório de %s: %w", inputKey, err)
	}

	if err := p.store.Put(ctx, outputKey, report.Bytes(), objectstore.ContentTypeCSV); err != nil {
		return nil, err
	}

	return &RunResult{
		InputKey:    inputKey,
		OutputKey:   outputKey,
		Rows:        rows.count,
		Aggregation: aggregation,
		Report:      report.Bytes(),
	}, nil
}

type countingSource struct {
	src   RowSource
	count int
}

func (c *countingSource) Next() (domain.Row, error) {
	row, err := c.src.Next()
	if err == nil {
		c.count++
	}
	return row, err
}

package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jeovahfialho/relatorio-vendas/internal/domain"
	"github.com/jeovahfialho/relatorio-vendas/pkg/metrics"
	"github.com/shopspring/decimal"
)

// RunRecord is one successful pipeline run as stored in report_runs.
type RunRecord struct {
	ID          uuid.UUID            `json:"id"`
	InputKey    string               `json:"input_key"`
	OutputKey   string               `json:"output_key"`
	Rows        int                  `json:"rows"`
	TotalLucro  decimal.Decimal      `json:"total_lucro"`
	ProcessedAt time.Time            `json:"processed_at"`
	Totals      []domain.RegionTotal `json:"totals,omitempty"`
}

const schema = `
CREATE TABLE IF NOT EXISTS report_runs (
	id           UUID PRIMARY KEY,
	input_key    TEXT NOT NULL,
	output_key   TEXT NOT NULL,
	row_count    INTEGER NOT NULL,
	total_lucro  NUMERIC NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS report_runs_output_key_idx ON report_runs (output_key, processed_at DESC);
CREATE TABLE IF NOT EXISTS report_totals (
	run_id        UUID NOT NULL REFERENCES report_runs (id) ON DELETE CASCADE,
	ordinal       INTEGER NOT NULL,
	regiao        TEXT NOT NULL,
	total_receita NUMERIC NOT NULL,
	PRIMARY KEY (run_id, ordinal)
);
`

// RunLoader keeps the history of generated reports in Postgres.
type RunLoader struct {
	pool *pgxpool.Pool
}

func NewRunLoader(pool *pgxpool.Pool) *RunLoader {
	return &RunLoader{pool: pool}
}

func (l *RunLoader) EnsureSchema(ctx context.Context) error {
	if _, err := l.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("erro ao criar tabelas: %w", err)
	}
	return nil
}

// RecordRun stores the run and copies its region totals in one transaction.
func (l *RunLoader) RecordRun(ctx context.Context, run *RunResult) (*RunRecord, error) {
	timer := metrics.NewTimer()

	record := &RunRecord{
		ID:          uuid.New(),
		InputKey:    run.InputKey,
		OutputKey:   run.OutputKey,
		Rows:        run.Rows,
		TotalLucro:  run.Aggregation.Total,
		ProcessedAt: time.Now().UTC(),
		Totals:      run.Aggregation.Totals(),
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		metrics.RecordDatabaseQuery("record_run", "error", timer.Elapsed().Seconds())
		return nil, fmt.Errorf("erro ao iniciar transação: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO report_runs (id, input_key, output_key, row_count, total_lucro, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID, record.InputKey, record.OutputKey, record.Rows, record.TotalLucro, record.ProcessedAt,
	)
	if err != nil {
		metrics.RecordDatabaseQuery("record_run", "error", timer.Elapsed().Seconds())
		return nil, fmt.Errorf("erro ao inserir execução: %w", err)
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"report_totals"},
		[]string{"run_id", "ordinal", "regiao", "total_receita"},
		&totalSource{runID: record.ID, totals: record.Totals},
	)
	if err != nil {
		metrics.RecordDatabaseQuery("record_run", "error", timer.Elapsed().Seconds())
		return nil, fmt.Errorf("erro no COPY: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		metrics.RecordDatabaseQuery("record_run", "error", timer.Elapsed().Seconds())
		return nil, fmt.Errorf("erro no commit: %w", err)
	}

	metrics.RecordDatabaseQuery("record_run", "success", timer.Elapsed().Seconds())
	return record, nil
}

// History lists the runs that produced outputKey, newest first.
func (l *RunLoader) History(ctx context.Context, outputKey string, limit int) ([]RunRecord, error) {
	switch {
	case limit <= 0:
		limit = 20
	case limit > 100:
		limit = 100
	}

	timer := metrics.NewTimer()

	rows, err := l.pool.Query(ctx, `
		SELECT id, input_key, output_key, row_count, total_lucro, processed_at
		FROM report_runs
		WHERE output_key = $1
		ORDER BY processed_at DESC
		LIMIT $2`, outputKey, limit)
	if err != nil {
		metrics.RecordDatabaseQuery("run_history", "error", timer.Elapsed().Seconds())
		return nil, fmt.Errorf("erro ao buscar histórico: %w", err)
	}
	defer rows.Close()

	history := make([]RunRecord, 0)
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.InputKey, &r.OutputKey, &r.Rows, &r.TotalLucro, &r.ProcessedAt); err != nil {
			return nil, fmt.Errorf("erro ao escanear execução: %w", err)
		}
		history = append(history, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar resultados: %w", err)
	}

	metrics.RecordDatabaseQuery("run_history", "success", timer.Elapsed().Seconds())
	return history, nil
}

type totalSource struct {
	runID  uuid.UUID
	totals []domain.RegionTotal
	index  int
}

func (ts *totalSource) Next() bool {
	ts.index++
	return ts.index <= len(ts.totals)
}

func (ts *totalSource) Values() ([]interface{}, error) {
	if ts.index > len(ts.totals) {
		return nil, nil
	}

	total := ts.totals[ts.index-1]
	return []interface{}{
		ts.runID,
		ts.index,
		total.Regiao,
		total.TotalReceita,
	}, nil
}

func (ts *totalSource) Err() error {
	return nil
}

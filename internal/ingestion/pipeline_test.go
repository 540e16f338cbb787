package ingestion

import (
	"context"
	"testing"

	"github.com/jeovahfialho/relatorio-vendas/internal/domain"
	"github.com/jeovahfialho/relatorio-vendas/internal/storage/objectstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCSV = "regiao,quantidade,preco\nnorte,2,10.00\nsul,3,4.00\nnorte,1,5.00\n"

func newStoreWith(t *testing.T, objects map[string]string) *objectstore.MemoryStore {
	t.Helper()
	store := objectstore.NewMemoryStore()
	for key, content := range objects {
		require.NoError(t, store.Put(context.Background(), key, []byte(content), objectstore.ContentTypeCSV))
	}
	return store
}

func TestPipelineRun(t *testing.T) {
	ctx := context.Background()
	store := newStoreWith(t, map[string]string{"raw/vendas.csv": salesCSV})

	outputKey, err := NewPipeline(store).Run(ctx, "raw/vendas.csv")
	require.NoError(t, err)
	assert.Equal(t, "relatorios/vendas_relatorio.csv", outputKey)

	report, err := store.Get(ctx, outputKey)
	require.NoError(t, err)
	assert.Equal(t, "regiao,total_receita\nnorte,25.00\nsul,12.00\n\ntotal_lucro,37.00\n", string(report))
}

func TestPipelineProcessResult(t *testing.T) {
	store := newStoreWith(t, map[string]string{"raw/vendas.csv": salesCSV})

	result, err := NewPipeline(store).Process(context.Background(), "raw/vendas.csv")
	require.NoError(t, err)

	assert.Equal(t, "raw/vendas.csv", result.InputKey)
	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, 2, result.Aggregation.Len())
	assert.Equal(t, "37", result.Aggregation.Total.String())
}

func TestPipelineIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newStoreWith(t, map[string]string{"raw/vendas.csv": salesCSV})
	pipeline := NewPipeline(store)

	key, err := pipeline.Run(ctx, "raw/vendas.csv")
	require.NoError(t, err)
	first, err := store.Get(ctx, key)
	require.NoError(t, err)

	_, err = pipeline.Run(ctx, "raw/vendas.csv")
	require.NoError(t, err)
	second, err := store.Get(ctx, key)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPipelineEmptyFile(t *testing.T) {
	ctx := context.Background()
	store := newStoreWith(t, map[string]string{"raw/vazio.csv": ""})

	key, err := NewPipeline(store).Run(ctx, "raw/vazio.csv")
	require.NoError(t, err)

	report, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "regiao,total_receita\n\ntotal_lucro,0.00\n", string(report))
}

func TestPipelineHeaderOnly(t *testing.T) {
	ctx := context.Background()
	store := newStoreWith(t, map[string]string{"raw/cabecalho.csv": "regiao,quantidade,preco\n"})

	result, err := NewPipeline(store).Process(ctx, "raw/cabecalho.csv")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Rows)

	report, err := store.Get(ctx, result.OutputKey)
	require.NoError(t, err)
	assert.Equal(t, "regiao,total_receita\n\ntotal_lucro,0.00\n", string(report))
}

func TestPipelineFailureWritesNothing(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"missing field", "regiao,quantidade\nnorte,2\n", domain.ErrMissingField},
		{"missing quantidade", "regiao,preco\nnorte,10.00\n", domain.ErrMissingField},
		{"invalid number", "regiao,quantidade,preco\nnorte,2,\"1,5\"\n", domain.ErrInvalidNumber},
		{"malformed", "regiao,quantidade,preco\nnorte,2\n", domain.ErrMalformedInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := newStoreWith(t, map[string]string{"raw/vendas.csv": tt.content})

			_, err := NewPipeline(store).Run(ctx, "raw/vendas.csv")
			require.ErrorIs(t, err, tt.wantErr)

			reports, err := store.List(ctx, domain.ReportPrefix)
			require.NoError(t, err)
			assert.Empty(t, reports)
		})
	}
}

func TestPipelineMissingInput(t *testing.T) {
	_, err := NewPipeline(objectstore.NewMemoryStore()).Run(context.Background(), "raw/nada.csv")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPipelineRejectsNonRawKeys(t *testing.T) {
	ctx := context.Background()
	store := newStoreWith(t, map[string]string{"relatorios/vendas_relatorio.csv": "x"})

	_, err := NewPipeline(store).Run(ctx, "relatorios/vendas_relatorio.csv")
	assert.ErrorIs(t, err, domain.ErrInvalidKey)

	keys, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"relatorios/vendas_relatorio.csv"}, keys)
}

func TestPipelineNegativeValues(t *testing.T) {
	ctx := context.Background()
	store := newStoreWith(t, map[string]string{"raw/estorno.csv": "regiao,quantidade,preco\nnorte,-1,10.00\n"})

	key, err := NewPipeline(store).Run(ctx, "raw/estorno.csv")
	require.NoError(t, err)

	report, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "regiao,total_receita\nnorte,-10.00\n\ntotal_lucro,-10.00\n", string(report))
}

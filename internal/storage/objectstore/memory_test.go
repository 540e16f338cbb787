package objectstore

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jeovahfialho/relatorio-vendas/internal/domain"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("regiao,quantidade,preco\n")
	require.NoError(t, store.Put(ctx, "raw/b.csv", data, ContentTypeCSV))
	require.NoError(t, store.Put(ctx, "raw/a.csv", data, ContentTypeCSV))
	require.NoError(t, store.Put(ctx, "relatorios/a_relatorio.csv", data, ContentTypeCSV))

	// the store keeps its own copy
	data[0] = 'X'
	got, err := store.Get(ctx, "raw/a.csv")
	require.NoError(t, err)
	assert.Equal(t, "regiao,quantidade,preco\n", string(got))

	keys, err := store.List(ctx, domain.RawPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"raw/a.csv", "raw/b.csv"}, keys)

	require.NoError(t, store.Put(ctx, "raw/a.csv", []byte("novo"), ContentTypeCSV))
	got, err = store.Get(ctx, "raw/a.csv")
	require.NoError(t, err)
	assert.Equal(t, "novo", string(got))

	require.NoError(t, store.Delete(ctx, "raw/a.csv"))
	_, err = store.Get(ctx, "raw/a.csv")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "raw/a.csv"), domain.ErrNotFound)
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().Get(ctx, "raw/a.csv")
	assert.ErrorIs(t, err, domain.ErrStore)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}))
	assert.True(t, isNotFound(minio.ErrorResponse{StatusCode: http.StatusNotFound}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: http.StatusNotFound}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}))
	assert.False(t, isNotFound(errors.New("conexão recusada")))
}

func TestMinioStoreWrap(t *testing.T) {
	s := &MinioStore{bucket: "datalake-vendas"}

	err := s.wrap("get", "raw/a.csv", minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = s.wrap("put", "raw/a.csv", errors.New("timeout"))
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

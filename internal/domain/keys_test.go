package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportKey(t *testing.T) {
	tests := []struct {
		name    string
		rawKey  string
		want    string
		wantErr bool
	}{
		{"simple", "raw/vendas.csv", "relatorios/vendas_relatorio.csv", false},
		{"dotted name", "raw/vendas.2024.csv", "relatorios/vendas.2024_relatorio.csv", false},
		{"wrong prefix", "relatorios/vendas.csv", "", true},
		{"wrong suffix", "raw/vendas.txt", "", true},
		{"nested", "raw/a/b.csv", "", true},
		{"empty name", "raw/.csv", "", true},
		{"report key", "relatorios/vendas_relatorio.csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReportKey(tt.rawKey)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRawKey(t *testing.T) {
	key, err := RawKey("vendas")
	require.NoError(t, err)
	assert.Equal(t, "raw/vendas.csv", key)

	key, err = RawKey("vendas.csv")
	require.NoError(t, err)
	assert.Equal(t, "raw/vendas.csv", key)

	for _, bad := range []string{"", " ", ".", "..", "a/b", `a\b`} {
		_, err := RawKey(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, "nome %q", bad)
	}
}

func TestReportKeyForName(t *testing.T) {
	key, err := ReportKeyForName("vendas")
	require.NoError(t, err)
	assert.Equal(t, "relatorios/vendas_relatorio.csv", key)

	key, err = ReportKeyForName("vendas.csv")
	require.NoError(t, err)
	assert.Equal(t, "relatorios/vendas_relatorio.csv", key)

	_, err = ReportKeyForName("../vendas")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestNameHelpers(t *testing.T) {
	assert.Equal(t, "vendas.csv", RawFileName("raw/vendas.csv"))
	assert.Equal(t, "vendas", ReportBaseName("relatorios/vendas_relatorio.csv"))
}

func TestUploadFileName(t *testing.T) {
	name, err := UploadFileName("vendas.csv")
	require.NoError(t, err)
	assert.Equal(t, "vendas.csv", name)

	name, err = UploadFileName("dir/sub/vendas.csv")
	require.NoError(t, err)
	assert.Equal(t, "vendas.csv", name)

	name, err = UploadFileName(`C:\dados\vendas.csv`)
	require.NoError(t, err)
	assert.Equal(t, "vendas.csv", name)

	for _, bad := range []string{"vendas.txt", ".csv", "", "vendas.CSV.bak"} {
		_, err := UploadFileName(bad)
		assert.ErrorIs(t, err, ErrInvalidFile, "nome %q", bad)
	}
}

func TestRowError(t *testing.T) {
	err := &RowError{Line: 3, Field: "preco", Value: "1,5", Err: ErrInvalidNumber}

	assert.ErrorIs(t, err, ErrInvalidNumber)
	assert.Contains(t, err.Error(), "linha 3")
	assert.Contains(t, err.Error(), `preco="1,5"`)
	assert.True(t, IsBadInput(err))
	assert.False(t, IsBadInput(ErrStore))
}

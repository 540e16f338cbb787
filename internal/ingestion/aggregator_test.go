package ingestion

import (
	"errors"
	"strings"
	"testing"

	"github.com/jeovahfialho/relatorio-vendas/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aggregateString(t *testing.T, input string) (*domain.AggregationResult, error) {
	t.Helper()
	return Aggregate(NewReader(strings.NewReader(input)))
}

func TestAggregateSumsRevenuePerRegion(t *testing.T) {
	result, err := aggregateString(t, "regiao,quantidade,preco\nnorte,2,10.00\nsul,3,4.00\nnorte,1,5.00\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"norte", "sul"}, result.Regions())

	norte, _ := result.Revenue("norte")
	sul, _ := result.Revenue("sul")
	assert.Equal(t, "25", norte.String())
	assert.Equal(t, "12", sul.String())
	assert.Equal(t, "37", result.Total.String())
}

func TestAggregateIgnoresExtraColumnsAndOrder(t *testing.T) {
	result, err := aggregateString(t, "preco,vendedor,regiao,quantidade\n1.5,ana,leste,4\n")
	require.NoError(t, err)

	leste, ok := result.Revenue("leste")
	require.True(t, ok)
	assert.True(t, leste.Equal(decimal.RequireFromString("6")))
}

func TestAggregateExactDecimalArithmetic(t *testing.T) {
	// 0.1 + 0.2 must be exactly 0.3
	result, err := aggregateString(t, "regiao,quantidade,preco\nsul,1,0.1\nsul,1,0.2\n")
	require.NoError(t, err)

	sul, _ := result.Revenue("sul")
	assert.True(t, sul.Equal(decimal.RequireFromString("0.3")))
}

func TestAggregateAcceptsNegativeAndPaddedValues(t *testing.T) {
	result, err := aggregateString(t, "regiao,quantidade,preco\nnorte, 2 ,-3.5\nnorte,1,10\n")
	require.NoError(t, err)
	assert.Equal(t, "3", result.Total.String())
}

func TestAggregateEmptyInput(t *testing.T) {
	result, err := aggregateString(t, "")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Len())
	assert.True(t, result.Total.IsZero())
}

func TestAggregateMissingField(t *testing.T) {
	_, err := aggregateString(t, "regiao,quantidade\nnorte,2\n")
	require.ErrorIs(t, err, domain.ErrMissingField)

	var rowErr *domain.RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, domain.ColumnPreco, rowErr.Field)
	assert.Equal(t, 2, rowErr.Line)
}

func TestAggregateInvalidNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"comma decimal", "regiao,quantidade,preco\nnorte,2,\"10,50\"\n", domain.ColumnPreco},
		{"text", "regiao,quantidade,preco\nnorte,dois,10\n", domain.ColumnQuantidade},
		{"empty", "regiao,quantidade,preco\nnorte,2,\n", domain.ColumnPreco},
		{"huge exponent", "regiao,quantidade,preco\nnorte,1e5000000,1\n", domain.ColumnQuantidade},
		{"tiny exponent", "regiao,quantidade,preco\nnorte,1,1e-100\n", domain.ColumnPreco},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := aggregateString(t, tt.input)
			require.ErrorIs(t, err, domain.ErrInvalidNumber)

			var rowErr *domain.RowError
			require.True(t, errors.As(err, &rowErr))
			assert.Equal(t, tt.field, rowErr.Field)
		})
	}
}

func TestAggregateAcceptsSmallExponents(t *testing.T) {
	result, err := aggregateString(t, "regiao,quantidade,preco\nnorte,2,1.5e2\n")
	require.NoError(t, err)
	assert.Equal(t, "300", result.Total.String())
}

func TestAggregateStopsAtFirstBadRow(t *testing.T) {
	_, err := aggregateString(t, "regiao,quantidade,preco\nnorte,1,1\nsul,x,1\nleste,1\n")
	assert.ErrorIs(t, err, domain.ErrInvalidNumber)
}

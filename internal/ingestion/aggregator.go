package ingestion

import (
	"io"
	"strings"

	"github.com/jeovahfialho/relatorio-vendas/internal/domain"
	"github.com/shopspring/decimal"
)

// RowSource yields rows until io.EOF.
type RowSource interface {
	Next() (domain.Row, error)
}

// Aggregate consumes every row and sums quantidade*preco per regiao. The first
// bad row aborts the whole aggregation.
func Aggregate(rows RowSource) (*domain.AggregationResult, error) {
	result := domain.NewAggregationResult()

	for {
		row, err := rows.Next()
		if err == io.EOF {
			return result, nil
		}
		if err != nil {
			return nil, err
		}

		regiao, receita, err := parseSale(row)
		if err != nil {
			return nil, err
		}
		result.Add(regiao, receita)
	}
}

func parseSale(row domain.Row) (string, decimal.Decimal, error) {
	regiao, err := requireField(row, domain.ColumnRegiao)
	if err != nil {
		return "", decimal.Zero, err
	}
	quantidadeStr, err := requireField(row, domain.ColumnQuantidade)
	if err != nil {
		return "", decimal.Zero, err
	}
	precoStr, err := requireField(row, domain.ColumnPreco)
	if err != nil {
		return "", decimal.Zero, err
	}

	quantidade, err := parseDecimal(row.Line, domain.ColumnQuantidade, quantidadeStr)
	if err != nil {
		return "", decimal.Zero, err
	}
	preco, err := parseDecimal(row.Line, domain.ColumnPreco, precoStr)
	if err != nil {
		return "", decimal.Zero, err
	}

	return regiao, quantidade.Mul(preco), nil
}

func requireField(row domain.Row, column string) (string, error) {
	value, ok := row.Get(column)
	if !ok {
		return "", &domain.RowError{Line: row.Line, Field: column, Err: domain.ErrMissingField}
	}
	return value, nil
}

// maxExponent bounds scientific notation so a single cell cannot expand into
// millions of digits when the report is formatted.
const maxExponent = 64

// parseDecimal accepts only '.' as decimal separator.
func parseDecimal(line int, column, raw string) (decimal.Decimal, error) {
	value := strings.TrimSpace(raw)
	if value == "" || strings.Contains(value, ",") {
		return decimal.Zero, &domain.RowError{Line: line, Field: column, Value: raw, Err: domain.ErrInvalidNumber}
	}

	d, err := decimal.NewFromString(value)
	if err != nil || d.Exponent() > maxExponent || d.Exponent() < -maxExponent {
		return decimal.Zero, &domain.RowError{Line: line, Field: column, Value: raw, Err: domain.ErrInvalidNumber}
	}
	return d, nil
}

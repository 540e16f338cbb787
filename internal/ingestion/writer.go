package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jeovahfialho/relatorio-vendas/internal/domain"
	"github.com/shopspring/decimal"
)

const reportPlaces = 2

// WriteReport serializes the aggregation as:
//
//	regiao,total_receita
//	<regiao>,<total>      (one per region, first-seen order)
//	<blank line>
//	total_lucro,<total>
//
// Amounts have exactly two decimals, rounded half away from zero.
func WriteReport(w io.Writer, result *domain.AggregationResult) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write([]string{domain.ReportColumnRegiao, domain.ReportColumnTotal}); err != nil {
		return fmt.Errorf("erro ao escrever cabeçalho: %w", err)
	}

	for _, total := range result.Totals() {
		record := []string{total.Regiao, FormatAmount(total.TotalReceita)}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("erro ao escrever região %s: %w", total.Regiao, err)
		}
	}

	if err := csvWriter.Write(nil); err != nil {
		return fmt.Errorf("erro ao escrever separador: %w", err)
	}
	if err := csvWriter.Write([]string{domain.ReportTotalLabel, FormatAmount(result.Total)}); err != nil {
		return fmt.Errorf("erro ao escrever total: %w", err)
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(reportPlaces)
}

// ParseReport reads a generated report back into an aggregation.
func ParseReport(r io.Reader) (*domain.AggregationResult, error) {
	reader := NewReader(r)

	header, err := reader.Header()
	if err != nil {
		return nil, err
	}
	if len(header) != 2 || header[0] != domain.ReportColumnRegiao || header[1] != domain.ReportColumnTotal {
		return nil, fmt.Errorf("%w: cabeçalho de relatório inesperado %v", domain.ErrMalformedInput, header)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	// the grand total is always the last row
	if len(rows) == 0 || rows[len(rows)-1].Values[0] != domain.ReportTotalLabel {
		return nil, fmt.Errorf("%w: linha %s ausente", domain.ErrMalformedInput, domain.ReportTotalLabel)
	}

	result := domain.NewAggregationResult()
	for _, row := range rows[:len(rows)-1] {
		amount, err := parseDecimal(row.Line, domain.ReportColumnTotal, row.Values[1])
		if err != nil {
			return nil, err
		}
		result.Add(row.Values[0], amount)
	}

	last := rows[len(rows)-1]
	total, err := parseDecimal(last.Line, domain.ReportColumnTotal, last.Values[1])
	if err != nil {
		return nil, err
	}

	result.Total = total
	return result, nil
}

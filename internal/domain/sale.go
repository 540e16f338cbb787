package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Colunas obrigatórias de um arquivo de vendas.
const (
	ColumnRegiao     = "regiao"
	ColumnQuantidade = "quantidade"
	ColumnPreco      = "preco"
)

// Colunas e rótulos do relatório gerado.
const (
	ReportColumnRegiao = "regiao"
	ReportColumnTotal  = "total_receita"
	ReportTotalLabel   = "total_lucro"
)

// Row is one data line of a CSV file, keyed by the header's column names.
// Columns keeps the header order; Values is aligned with it.
type Row struct {
	Line    int
	Columns []string
	Values  []string
}

// Get returns the value under column. With repeated header names the last
// one wins, same as Map.
func (r Row) Get(column string) (string, bool) {
	for i := len(r.Columns) - 1; i >= 0; i-- {
		if r.Columns[i] == column {
			return r.Values[i], true
		}
	}
	return "", false
}

func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.Columns))
	for i, c := range r.Columns {
		m[c] = r.Values[i]
	}
	return m
}

// MarshalJSON encodes the row as a JSON object in header order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat object of strings keeping the key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("row: esperado objeto JSON")
	}

	r.Columns = nil
	r.Values = nil
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("row: chave inválida %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("row: valor de %q: %w", key, err)
		}
		r.Columns = append(r.Columns, key)
		r.Values = append(r.Values, value)
	}

	_, err = dec.Token()
	return err
}

// AggregationResult holds the revenue per region in first-seen order and the
// grand total. Total always equals the sum of the region totals.
type AggregationResult struct {
	order  []string
	totals map[string]decimal.Decimal
	Total  decimal.Decimal
}

func NewAggregationResult() *AggregationResult {
	return &AggregationResult{
		totals: make(map[string]decimal.Decimal),
		Total:  decimal.Zero,
	}
}

func (a *AggregationResult) Add(regiao string, receita decimal.Decimal) {
	current, ok := a.totals[regiao]
	if !ok {
		a.order = append(a.order, regiao)
		current = decimal.Zero
	}
	a.totals[regiao] = current.Add(receita)
	a.Total = a.Total.Add(receita)
}

// Regions returns the regions in the order they were first seen.
func (a *AggregationResult) Regions() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

func (a *AggregationResult) Revenue(regiao string) (decimal.Decimal, bool) {
	v, ok := a.totals[regiao]
	return v, ok
}

func (a *AggregationResult) Len() int {
	return len(a.order)
}

type RegionTotal struct {
	Regiao       string          `json:"regiao"`
	TotalReceita decimal.Decimal `json:"total_receita"`
}

func (a *AggregationResult) Totals() []RegionTotal {
	out := make([]RegionTotal, 0, len(a.order))
	for _, r := range a.order {
		out = append(out, RegionTotal{Regiao: r, TotalReceita: a.totals[r]})
	}
	return out
}

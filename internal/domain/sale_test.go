package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregationResult(t *testing.T) {
	result := NewAggregationResult()
	result.Add("sul", decimal.RequireFromString("12"))
	result.Add("norte", decimal.RequireFromString("10"))
	result.Add("sul", decimal.RequireFromString("3.5"))

	assert.Equal(t, []string{"sul", "norte"}, result.Regions())
	assert.Equal(t, 2, result.Len())

	sul, ok := result.Revenue("sul")
	require.True(t, ok)
	assert.True(t, sul.Equal(decimal.RequireFromString("15.5")))

	_, ok = result.Revenue("leste")
	assert.False(t, ok)

	var sum decimal.Decimal
	for _, total := range result.Totals() {
		sum = sum.Add(total.TotalReceita)
	}
	assert.True(t, sum.Equal(result.Total))
}

func TestRowJSONKeepsHeaderOrder(t *testing.T) {
	row := Row{
		Line:    2,
		Columns: []string{"regiao", "quantidade", "preco"},
		Values:  []string{"norte", "2", "10.00"},
	}

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"regiao":"norte","quantidade":"2","preco":"10.00"}`, string(data))

	var decoded Row
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, row.Columns, decoded.Columns)
	assert.Equal(t, row.Values, decoded.Values)

	v, ok := decoded.Get("preco")
	require.True(t, ok)
	assert.Equal(t, "10.00", v)
	assert.Equal(t, map[string]string{"regiao": "norte", "quantidade": "2", "preco": "10.00"}, decoded.Map())
}

func TestRowUnmarshalRejectsNonObject(t *testing.T) {
	var row Row
	assert.Error(t, json.Unmarshal([]byte(`["a"]`), &row))
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &row))
}

func TestRowGetRepeatedColumnLastWins(t *testing.T) {
	row := Row{
		Line:    2,
		Columns: []string{"regiao", "preco", "preco"},
		Values:  []string{"norte", "1.00", "2.00"},
	}

	value, ok := row.Get("preco")
	require.True(t, ok)
	assert.Equal(t, "2.00", value)
	assert.Equal(t, "2.00", row.Map()["preco"])

	_, ok = row.Get("quantidade")
	assert.False(t, ok)
}

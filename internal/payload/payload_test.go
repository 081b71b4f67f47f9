package payload_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takmir/kas/internal/payload"
)

const doc = `{
	"data": {
		"balance": {"opening": "1500000", "closing": null},
		"saldoAkhir": 2000000.5,
		"id": 42,
		"name": "Kas Masjid",
		"incomes": [{"id": "a"}, {"id": "b"}],
		"chart": "not-an-array"
	}
}`

func TestObject_Lookup(t *testing.T) {
	o, err := payload.Parse([]byte(doc))
	require.NoError(t, err)

	_, ok := o.Lookup("data.balance.opening")
	assert.True(t, ok)

	_, ok = o.Lookup("data.balance.closing")
	assert.False(t, ok, "null members are missing")

	_, ok = o.Lookup("data.name.first")
	assert.False(t, ok, "cannot descend into a string")
}

func TestObject_Decimal(t *testing.T) {
	o, err := payload.Parse([]byte(doc))
	require.NoError(t, err)

	d, ok := o.Decimal("data.balance.opening")
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(1500000).Equal(d))

	d, ok = o.Decimal("data.balance.closing", "data.balance.balanceEnd", "data.saldoAkhir")
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("2000000.5").Equal(d))

	_, ok = o.Decimal("data.name")
	assert.False(t, ok)
}

func TestObject_StringAcceptsNumbers(t *testing.T) {
	o, err := payload.Parse([]byte(doc))
	require.NoError(t, err)

	s, ok := o.String("data._id", "data.id")
	require.True(t, ok)
	assert.Equal(t, "42", s)
}

func TestObject_ArraySkipsNonArrays(t *testing.T) {
	o, err := payload.Parse([]byte(doc))
	require.NoError(t, err)

	_, ok := o.Array("data.chart")
	assert.False(t, ok)

	items, ok := o.Array("data.chart", "data.incomes")
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestParse_RejectsNonObjects(t *testing.T) {
	_, err := payload.Parse([]byte(`[1,2]`))
	assert.Error(t, err)
}

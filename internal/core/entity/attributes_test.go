package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributes_ScanKeepsDecimalPrecision(t *testing.T) {
	var a Attributes
	require.NoError(t, a.Scan([]byte(`{"session_fee": 45.10, "sessions": 12, "insurer": "Mapfre", "paid": true}`)))

	assert.True(t, decimal.RequireFromString("45.10").Equal(a.GetDecimal("session_fee")))
	assert.Equal(t, int64(12), a.GetInt("sessions"))
	assert.Equal(t, "Mapfre", a.GetString("insurer"))
	assert.True(t, a.GetBool("paid"))
	assert.False(t, a.Has("missing"))
}

func TestAttributes_ScanNil(t *testing.T) {
	a := Attributes{"x": 1}
	require.NoError(t, a.Scan(nil))
	assert.Nil(t, a)

	assert.Error(t, a.Scan(42))
}

func TestAttributes_SetDecimalRoundTrip(t *testing.T) {
	var a Attributes
	a.SetDecimal("session_fee", decimal.RequireFromString("30.005"))

	raw, err := a.Value()
	require.NoError(t, err)

	var back Attributes
	require.NoError(t, back.Scan(raw))
	assert.Equal(t, "30.005", back.GetDecimal("session_fee").String())
}

func TestAttributes_NilAccessors(t *testing.T) {
	var a Attributes
	assert.Equal(t, "", a.GetString("k"))
	assert.Equal(t, int64(0), a.GetInt("k"))
	assert.True(t, a.GetDecimal("k").IsZero())
	assert.Nil(t, a.Clone())
}

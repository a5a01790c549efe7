package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentageChange_GetSet(t *testing.T) {
	var p PercentageChange
	assert.Equal(t, 0, p.Len())

	p.Set(Window10, 11.11)
	p.Set(Window100, -3.5)
	p.Set(Window(20), 99) // ignored

	v, ok := p.Get(Window10)
	assert.True(t, ok)
	assert.Equal(t, 11.11, v)

	_, ok = p.Get(Window50)
	assert.False(t, ok, "window 50 was never set")

	_, ok = p.Get(Window(20))
	assert.False(t, ok)
	assert.Equal(t, 2, p.Len())
}

func TestPercentageChange_MarshalJSON(t *testing.T) {
	var p PercentageChange
	p.Set(Window100, 5)
	p.Set(Window10, 11.11)

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, `{"10":11.11,"100":5}`, string(b))

	b, err = json.Marshal(PercentageChange{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(b))
}

func TestPercentageChange_UnmarshalJSON(t *testing.T) {
	var p PercentageChange
	// Spacing as written by other JSON encoders.
	require.NoError(t, json.Unmarshal([]byte(`{"10": 1.25, "50": -2.0, "100": 7.5}`), &p))

	for w, want := range map[Window]float64{Window10: 1.25, Window50: -2, Window100: 7.5} {
		got, ok := p.Get(w)
		require.True(t, ok, "window %d", w)
		assert.Equal(t, want, got)
	}

	assert.Error(t, json.Unmarshal([]byte(`{"20": 1}`), &p))
	assert.Error(t, json.Unmarshal([]byte(`{"ten": 1}`), &p))
}

func TestPriceSeries_Usable(t *testing.T) {
	short := PriceSeries{Symbol: "A", Closes: make([]float64, MinObservations-1)}
	long := PriceSeries{Symbol: "B", Closes: make([]float64, MinObservations)}
	assert.False(t, short.Usable())
	assert.True(t, long.Usable())

	_, ok := PriceSeries{}.Latest()
	assert.False(t, ok)
}

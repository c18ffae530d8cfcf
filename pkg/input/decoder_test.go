package input

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixedADC struct {
	raw uint16
	err error
}

func (a *fixedADC) ReadRaw() (uint16, error) {
	return a.raw, a.err
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		volts  float64
		expect Button
	}{
		{0, Ok},
		{0.3, None},
		{0.5, None},
		{0.51, Return},
		{0.69, Return},
		{0.7, None},
		{1.3, Up},
		{1.65, Down},
		{1.7, None},
		{1.9, Left},
		{2.1, None},
		{2.2, Right},
		{2.4, None},
		{3.3, None},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expect, Classify(tc.volts), "%v volts", tc.volts)
	}
}

func TestClassifyInsideBands(t *testing.T) {
	for _, b := range bands {
		for v := b.lo + 0.001; v < b.hi; v += 0.01 {
			require.Equal(t, b.button, Classify(v), "%v volts", v)
		}
	}
}

func TestReadButton(t *testing.T) {
	adc := &fixedADC{}
	var slept []time.Duration
	d := NewDecoder(adc)
	d.Sleep = func(dur time.Duration) { slept = append(slept, dur) }

	b, err := d.ReadButton()
	require.NoError(t, err)
	require.Equal(t, Ok, b)

	adc.raw = 1613 // 1.3V
	b, err = d.ReadButton()
	require.NoError(t, err)
	require.Equal(t, Up, b)

	adc.raw = 4095
	b, err = d.ReadButton()
	require.NoError(t, err)
	require.Equal(t, None, b)

	adc.err = errors.New("adc")
	_, err = d.ReadButton()
	require.Error(t, err)

	require.Equal(t, []time.Duration{DefaultSettle, DefaultSettle, DefaultSettle, DefaultSettle}, slept)
}

func TestButtonString(t *testing.T) {
	require.Equal(t, "right", Right.String())
	require.Equal(t, "unknown", Button(42).String())
}

func TestNominalVolts(t *testing.T) {
	for b := None; b <= Right; b++ {
		t.Run(b.String(), func(t *testing.T) {
			require.Equal(t, b, Classify(Volts(b)))
		})
	}
	require.Equal(t, IdleVolts, Volts(Button(42)))
}

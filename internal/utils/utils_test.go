package utils

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgmax(t *testing.T) {
	assert.Equal(t, 2, Argmax([]float64{1, 3, 7, 2}))
	assert.Equal(t, 0, Argmax([]int{9, 3, 7}))
	assert.Equal(t, 0, Argmax([]float64{5}))
}

func TestSumSlice(t *testing.T) {
	assert.Equal(t, 10, SumSlice([]int{1, 2, 3, 4}))
	assert.InDelta(t, 1.5, SumSlice([]float64{0.5, 1.0}), 1e-15)
	assert.Equal(t, 0, SumSlice([]int(nil)))
}

func TestMeanAndVariance(t *testing.T) {
	mean, variance := MeanAndVariance([]float64{2, 4, 4, 4, 5, 5, 7, 9}, false)
	assert.InDelta(t, 5.0, mean, 1e-12)
	assert.InDelta(t, 4.0, variance, 1e-12)

	_, unbiased := MeanAndVariance([]float64{2, 4, 4, 4, 5, 5, 7, 9}, true)
	assert.InDelta(t, 32.0/7.0, unbiased, 1e-12)
}

func TestEnergyConversionRoundTrip(t *testing.T) {
	assert.InDelta(t, 10.2, Ergs2eV(EV2Ergs(10.2)), 1e-12)
}

func TestCSVNaturalOrder(t *testing.T) {
	data := CSV{
		{"c10_z1_i1", "x"},
		{"c2_z1_i1", "y"},
		{"c1_z1_i1", "z"},
	}
	sort.Sort(data)
	assert.Equal(t, "c1_z1_i1", data[0][0])
	assert.Equal(t, "c2_z1_i1", data[1][0])
	assert.Equal(t, "c10_z1_i1", data[2][0])
}

package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericSpecCanonicalValue(t *testing.T) {
	assert.Equal(t, NumericSpec(KindPercentage, FrequencyEach, 25), NumericSpec(KindPercentage, FrequencyEach, 25.0))
	assert.Equal(t, "12.5", NumericSpec(KindPixel, FrequencyEvery, 12.5).Value)
	assert.NotEqual(t, NumericSpec(KindPixel, FrequencyEach, 25), NumericSpec(KindPercentage, FrequencyEach, 25))
	assert.NotEqual(t, NumericSpec(KindPixel, FrequencyEach, 25), NumericSpec(KindPixel, FrequencyEvery, 25))
}

func TestMeasurementSpecNumber(t *testing.T) {
	n, err := NumericSpec(KindPercentage, FrequencyEvery, 33.5).Number()
	require.NoError(t, err)
	assert.Equal(t, 33.5, n)

	_, err = ElementSpec(FrequencyEach, "#foo").Number()
	assert.Error(t, err)

	_, err = MeasurementSpec{Kind: KindPixel, Frequency: FrequencyEach, Value: "abc"}.Number()
	assert.Error(t, err)
}

func TestMeasurementSpecString(t *testing.T) {
	assert.Equal(t, "percentage/every/25", NumericSpec(KindPercentage, FrequencyEvery, 25).String())
	assert.Equal(t, "element/each/#foo", ElementSpec(FrequencyEach, "#foo").String())
}

func TestDistancesSpecsOrder(t *testing.T) {
	d := Distances{
		Percentage: &NumericSet{Each: []float64{10, 90}, Every: []float64{25}},
		Pixel:      &NumericSet{Every: []float64{1000}},
		Element:    &SelectorSet{Each: []string{"#each"}, Every: []string{".every"}},
	}

	assert.Equal(t, []MeasurementSpec{
		NumericSpec(KindPercentage, FrequencyEach, 10),
		NumericSpec(KindPercentage, FrequencyEach, 90),
		NumericSpec(KindPercentage, FrequencyEvery, 25),
		NumericSpec(KindPixel, FrequencyEvery, 1000),
		ElementSpec(FrequencyEach, "#each"),
		ElementSpec(FrequencyEvery, ".every"),
	}, d.Specs())
	assert.False(t, d.Empty())
	assert.True(t, Distances{}.Empty())
	assert.True(t, Distances{Pixel: &NumericSet{}}.Empty())
}

func TestDistancesJSONFieldNaming(t *testing.T) {
	var d Distances
	require.NoError(t, json.Unmarshal([]byte(`{"percentage":{"every":[25]},"element":{"each":["#foo"]}}`), &d))

	require.NotNil(t, d.Percentage)
	assert.Equal(t, []float64{25}, d.Percentage.Every)
	assert.Nil(t, d.Pixel)
	require.NotNil(t, d.Element)
	assert.Equal(t, []string{"#foo"}, d.Element.Each)
}

func TestCrossingJSONOmitsListenersAndEmptyInstance(t *testing.T) {
	data, err := json.Marshal(Crossing{Label: "50%", Depth: 500})
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"50%","depth":500,"epoch":0,"seq":0}`, string(data))

	data, err = json.Marshal(Mark{Label: "50%", Depth: 500, Listeners: []Listener{func(Crossing) error { return nil }}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"50%","depth":500}`, string(data))
}

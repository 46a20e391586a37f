package marks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeasure(t *testing.T) {
	tests := []struct {
		name       string
		raw        float64
		top        Bound
		bottom     Bound
		wantHeight int64
		wantOffset int64
	}{
		{"no bounds", 1005, Bound{}, Bound{}, 1000, 0},
		{"floors fractional height", 1005.9, Bound{}, Bound{}, 1000, 0},
		{"top bound", 1505, At(500), Bound{}, 1000, 500},
		{"bottom bound", 5000, Bound{}, At(805), 800, 0},
		{"both bounds", 5000, At(100), At(905), 800, 100},
		{"fractional top", 1000, At(10.5), Bound{}, 984, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geo := Measure(tt.raw, tt.top, tt.bottom)
			assert.Equal(t, tt.wantHeight, geo.ContextHeight)
			assert.Equal(t, tt.wantOffset, geo.Offset)
			assert.Equal(t, tt.top, geo.Top)
			assert.Equal(t, tt.bottom, geo.Bottom)
		})
	}
}

func TestAdmits(t *testing.T) {
	geo := Geometry{ContextHeight: 100, Offset: 50, Top: At(50), Bottom: At(160)}

	assert.False(t, geo.admits(50), "on top bound")
	assert.True(t, geo.admits(51))
	assert.True(t, geo.admits(150))
	assert.False(t, geo.admits(151), "past height plus offset")

	geo = Geometry{ContextHeight: 200, Offset: 0, Bottom: At(120)}
	assert.True(t, geo.admits(119))
	assert.False(t, geo.admits(120), "on bottom bound")
}

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFeature(t *testing.T) {
	heading := 220.0
	speed := 0.0
	fx := &Fix{
		DeviceID: "868443028828427",
		Lat:      7.0599,
		Lon:      79.9612,
		Heading:  &heading,
		Speed:    &speed,
		Status:   StatusActive,
	}

	f := BuildFeature(fx)

	assert.Equal(t, "Feature", f.Type)
	assert.Equal(t, "868443028828427", f.ID)
	assert.Equal(t, "Point", f.Geometry.Type)
	// GeoJSON order: longitude first.
	assert.Equal(t, [2]float64{79.9612, 7.0599}, f.Geometry.Coordinates)
	assert.Equal(t, StatusActive, f.Properties.Status)
	assert.Equal(t, 220.0, *f.Properties.Heading)
	assert.Equal(t, 0.0, *f.Properties.Speed)
}

func TestFeatureJSONKeepsAbsentFieldsAsNull(t *testing.T) {
	f := BuildFeature(&Fix{DeviceID: "1", Lat: 1, Lon: 2, Status: StatusVoid})

	b, err := f.JSON()
	require.NoError(t, err)

	s := string(b)
	assert.Contains(t, s, `"heading":null`)
	assert.Contains(t, s, `"speed":null`)
	assert.Contains(t, s, `"status":"void"`)
	assert.Contains(t, s, `"coordinates":[2,1]`)
}

func TestCoordsValid(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"origin", 0, 0, true},
		{"bounds", 90, 180, true},
		{"negative bounds", -90, -180, true},
		{"lat too big", 90.1, 0, false},
		{"lat too small", -90.1, 0, false},
		{"lon too big", 0, 180.1, false},
		{"lon too small", 0, -180.1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoordsValid(tt.lat, tt.lon))
		})
	}
}

package pipeline

import (
	"github.com/goccy/go-json"
)

// Geometry is a GeoJSON point. Coordinates are [longitude, latitude].
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Properties always carries the three keys so map clients get a stable
// schema; heading/speed serialize as null when the device omitted them.
type Properties struct {
	Heading *float64 `json:"heading"`
	Speed   *float64 `json:"speed"`
	Status  string   `json:"status"`
}

// Feature is the GeoJSON record broadcast to the map-display clients.
type Feature struct {
	Type       string     `json:"type"`
	ID         string     `json:"id"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

// BuildFeature maps a decoded Fix into its GeoJSON Feature. A Fix that
// reaches this point is already validated, so there is no error path.
func BuildFeature(fx *Fix) *Feature {
	return &Feature{
		Type: "Feature",
		ID:   fx.DeviceID,
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: [2]float64{fx.Lon, fx.Lat},
		},
		Properties: Properties{
			Heading: fx.Heading,
			Speed:   fx.Speed,
			Status:  fx.Status,
		},
	}
}

// JSON serializa el Feature tal como se manda a los clientes.
func (f *Feature) JSON() ([]byte, error) {
	return json.Marshal(f)
}

package pipeline

// Fix status as reported by the GPRMC sentence (A=active, V=void).
const (
	StatusActive  = "active"
	StatusVoid    = "void"
	StatusUnknown = "unknown"
)

// Fix es un reporte de posición ya decodificado de una trama del GPS.
type Fix struct {
	DeviceID string
	Lat      float64
	Lon      float64

	// Heading y Speed quedan en nil cuando el equipo no los reporta.
	Heading *float64
	Speed   *float64

	Status string
}

// CoordsValid reports whether lat/lon fall inside the WGS84 value ranges.
func CoordsValid(lat, lon float64) bool {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return false
	}
	return true
}

package codec

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"knnect-svr/internal/pipeline"
)

// One tracker record is a CSV line carrying a GPRMC sentence plus extra
// device fields, e.g.:
//
//	161205164435,,GPRMC,164435.9,A,0703.5964,N,07957.6741,E,0.0,220.00,051216,0.0,E,A*3E,F,imei:868443028828427,08,...
const (
	sentenceType = "GPRMC"

	// windowFields is the widest a GPRMC sentence gets; fields past the
	// window belong to the tracker's own framing, not to the sentence.
	windowFields = 15

	// deviceIDOffset locates the imei:<id> field relative to the GPRMC
	// token. Siempre con bounds check; las tramas cortas no deben tronar.
	deviceIDOffset = 14
)

// RMC field positions within the reconstructed sentence.
//
//	0 type, 1 time, 2 status (A/V), 3 lat ddmm.mmmm, 4 N/S,
//	5 lon dddmm.mmmm, 6 E/W, 7 speed over ground, 8 true course, 9 date
const rmcMinFields = 10

// ParseRecord decodes one newline-delimited tracker record into a Fix.
// Failures come back as wrapped taxonomy errors, never as panics.
func ParseRecord(line []byte) (*pipeline.Fix, error) {
	r := csv.NewReader(strings.NewReader(string(line)))
	r.FieldsPerRecord = -1
	fields, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty record", ErrUnsupportedSentence)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedSentence, err)
	}

	start := -1
	for i, f := range fields {
		if f == sentenceType {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: no %s token", ErrUnsupportedSentence, sentenceType)
	}

	end := start + windowFields
	if end > len(fields) {
		end = len(fields)
	}
	sentence := strings.Join(fields[start:end], ",")

	fix, err := parseRMC(sentence)
	if err != nil {
		return nil, err
	}

	id, err := deviceID(fields, start)
	if err != nil {
		return nil, err
	}
	fix.DeviceID = id

	if !pipeline.CoordsValid(fix.Lat, fix.Lon) {
		return nil, fmt.Errorf("%w: lat=%.6f lon=%.6f", ErrInvalidCoordinates, fix.Lat, fix.Lon)
	}
	return fix, nil
}

func parseRMC(sentence string) (*pipeline.Fix, error) {
	f := strings.Split(sentence, ",")
	if len(f) < rmcMinFields {
		return nil, fmt.Errorf("%w: %d fields in %s window", ErrMalformedSentence, len(f), sentenceType)
	}

	lat, err := parseCoord(f[3], f[4], "N", "S")
	if err != nil {
		return nil, err
	}
	lon, err := parseCoord(f[5], f[6], "E", "W")
	if err != nil {
		return nil, err
	}

	fix := &pipeline.Fix{Lat: lat, Lon: lon, Status: fixStatus(f[2])}

	if f[7] != "" {
		spd, err := strconv.ParseFloat(f[7], 64)
		if err != nil || spd < 0 {
			return nil, fmt.Errorf("%w: speed %q", ErrMalformedSentence, f[7])
		}
		fix.Speed = &spd
	}
	if f[8] != "" {
		crs, err := strconv.ParseFloat(f[8], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: course %q", ErrMalformedSentence, f[8])
		}
		crs = math.Mod(math.Mod(crs, 360)+360, 360)
		fix.Heading = &crs
	}
	return fix, nil
}

func fixStatus(s string) string {
	switch s {
	case "A":
		return pipeline.StatusActive
	case "V":
		return pipeline.StatusVoid
	default:
		return pipeline.StatusUnknown
	}
}

// parseCoord converts a ddmm.mmmm value plus hemisphere letter into signed
// decimal degrees (N/E positive, S/W negative).
func parseCoord(raw, hemi, pos, neg string) (float64, error) {
	if raw == "" || hemi == "" {
		return 0, fmt.Errorf("%w: empty coordinate field", ErrMalformedSentence)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: coordinate %q", ErrMalformedSentence, raw)
	}
	deg := math.Floor(v / 100)
	dec := deg + (v-deg*100)/60
	switch hemi {
	case pos:
		return dec, nil
	case neg:
		return -dec, nil
	}
	return 0, fmt.Errorf("%w: hemisphere %q", ErrMalformedSentence, hemi)
}

func deviceID(fields []string, start int) (string, error) {
	idx := start + deviceIDOffset
	if idx >= len(fields) {
		return "", fmt.Errorf("%w: record too short (%d fields)", ErrMissingDeviceID, len(fields))
	}
	parts := strings.SplitN(fields[idx], ":", 2)
	if len(parts) != 2 || parts[0] != "imei" || parts[1] == "" {
		return "", fmt.Errorf("%w: field %q", ErrMissingDeviceID, fields[idx])
	}
	return parts[1], nil
}

package codec

import "errors"

// Decode failures are result values, matched with errors.Is by the caller.
// None of them should ever tear down the connection that produced the record.
var (
	ErrUnsupportedSentence = errors.New("unsupported sentence")
	ErrMalformedSentence   = errors.New("malformed sentence")
	ErrMissingDeviceID     = errors.New("missing device id")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
)

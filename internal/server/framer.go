package server

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// errRecordTooLong flags a record over the configured safety bound. The
// record is discarded but the connection keeps reading.
var errRecordTooLong = errors.New("record exceeds max length")

// lineFramer splits a connection's byte stream into newline-delimited
// records. A partial record left when the stream ends is discarded, never
// delivered downstream.
type lineFramer struct {
	r *bufio.Reader
}

func newLineFramer(r io.Reader, maxBytes int) *lineFramer {
	return &lineFramer{r: bufio.NewReaderSize(r, maxBytes)}
}

// ReadRecord returns the next complete record with the delimiter (and any
// trailing CR) stripped.
func (f *lineFramer) ReadRecord() ([]byte, error) {
	slice, err := f.r.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		// Drain the oversized record hasta su delimitador y repórtalo.
		for err == bufio.ErrBufferFull {
			_, err = f.r.ReadSlice('\n')
		}
		if err != nil {
			return nil, err
		}
		return nil, errRecordTooLong
	}
	if err != nil {
		return nil, err
	}
	rec := bytes.TrimRight(slice, "\r\n")
	return append([]byte(nil), rec...), nil
}

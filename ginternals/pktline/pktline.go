// Package pktline implements the pkt-line framing used by the git
// smart protocols
//
// A pkt-line is a variable-length binary string whose first four
// bytes are the total length of the line, in ASCII hex, including the
// length prefix itself. "0000" is the flush-pkt marker and carries no
// payload.
// https://git-scm.com/docs/protocol-common#_pkt_line_format
package pktline

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/xerrors"
)

// ErrPktLineMalformed is an error thrown when a pkt-line cannot be
// parsed
var ErrPktLineMalformed = errors.New("malformed pkt-line")

// lenSize is the size of the length prefix, in bytes
const lenSize = 4

// maxPayloadSize is the largest payload a single pkt-line can carry:
// 65520 minus the 4 bytes of length prefix
const maxPayloadSize = 65516

// Line represents a single parsed pkt-line
type Line struct {
	// Payload contains the raw bytes of the line, without the length
	// prefix. Empty for a flush-pkt
	Payload []byte
	// IsFlush reports whether the line is a "0000" flush-pkt
	IsFlush bool
}

// ReadLine reads a single pkt-line from r
func ReadLine(r io.Reader) (Line, error) {
	prefix := make([]byte, lenSize)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return Line{}, xerrors.Errorf("could not read pkt-line length: %w", err)
	}

	size, err := strconv.ParseInt(string(prefix), 16, 32)
	if err != nil {
		return Line{}, xerrors.Errorf("invalid pkt-line length %q: %w", prefix, ErrPktLineMalformed)
	}
	if size == 0 {
		return Line{IsFlush: true}, nil
	}
	if size < lenSize {
		return Line{}, xerrors.Errorf("pkt-line length %d is below the prefix size: %w", size, ErrPktLineMalformed)
	}

	payload := make([]byte, size-lenSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Line{}, xerrors.Errorf("could not read pkt-line payload: %w", err)
	}
	return Line{Payload: payload}, nil
}

// WriteLine writes payload to w as a single pkt-line
func WriteLine(w io.Writer, payload []byte) error {
	if len(payload) > maxPayloadSize {
		return xerrors.Errorf("payload of %d bytes is too big for a pkt-line: %w", len(payload), ErrPktLineMalformed)
	}
	if _, err := fmt.Fprintf(w, "%04x", len(payload)+lenSize); err != nil {
		return xerrors.Errorf("could not write pkt-line length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return xerrors.Errorf("could not write pkt-line payload: %w", err)
	}
	return nil
}

// WriteString writes s to w as a single pkt-line
func WriteString(w io.Writer, s string) error {
	return WriteLine(w, []byte(s))
}

// WriteFlush writes a flush-pkt to w
func WriteFlush(w io.Writer) error {
	if _, err := io.WriteString(w, "0000"); err != nil {
		return xerrors.Errorf("could not write flush-pkt: %w", err)
	}
	return nil
}

package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteMessage encodes msg as one fixed-size record and writes it to w,
// looping until the full record is sent or a write error occurs. Long
// fields are truncated to fit rather than rejected, matching the wire
// invariant that every record carries the full tuple.
func WriteMessage(w io.Writer, msg Message) error {
	buf := make([]byte, RecordSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(msg.Kind))
	putCString(buf[4:4+UsernameFieldSize], msg.Username)
	putCString(buf[4+UsernameFieldSize:], msg.Data)

	total := 0
	for total < len(buf) {
		n, err := w.Write(buf[total:])
		if err != nil {
			return fmt.Errorf("protocol: write message: %w", err)
		}
		total += n
	}
	return nil
}

// ReadMessage reads one fixed-size record from r, looping until the
// full record has been received. Any short read or I/O error is
// reported as a disconnect signal to the caller; no partial-message
// value is ever returned.
func ReadMessage(r io.Reader) (Message, error) {
	buf := make([]byte, RecordSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Message{}, fmt.Errorf("protocol: read message: %w", err)
	}

	kind := Kind(binary.LittleEndian.Uint32(buf[0:4]))
	username := getCString(buf[4 : 4+UsernameFieldSize])
	data := getCString(buf[4+UsernameFieldSize:])

	return Message{Kind: kind, Username: username, Data: data}, nil
}

// putCString copies s into dst, null-terminating and truncating to fit.
// dst is assumed to already be zeroed (fresh buffer per WriteMessage).
func putCString(dst []byte, s string) {
	if len(s) > len(dst)-1 {
		s = s[:len(dst)-1]
	}
	copy(dst, s)
}

// getCString reads a NUL-terminated string out of a fixed-size field.
func getCString(src []byte) string {
	n := 0
	for n < len(src) && src[n] != 0 {
		n++
	}
	return string(src[:n])
}

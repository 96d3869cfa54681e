// Package record implements the ASTM record codec (spec §4.3): decoding
// and encoding the bytes of a single frame's body into ordered records of
// fields, where each field may be a scalar, null, a component list, or a
// repeated component list.
package record

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/senaite/astm-go/internal/astm/frame"
)

// Raw is a decoded record: an ordered slice of field values. Each element
// is one of: nil (an empty field), string (a scalar field), []any (a
// component list), or [][]any (a repeated component list).
type Raw []any

// Decode dispatches on the first byte of data per spec §4.3: STX selects a
// full framed message, an ASCII digit selects a bare frame, anything else
// is treated as a single record.
func Decode(data []byte) ([]Raw, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("record: empty input")
	}
	switch {
	case data[0] == frame.STX:
		return decodeMessage(data)
	case data[0] >= '0' && data[0] <= '9':
		_, recs, err := DecodeFrame(data)
		return recs, err
	default:
		r, err := DecodeRecord(data)
		if err != nil {
			return nil, err
		}
		return []Raw{r}, nil
	}
}

func decodeMessage(data []byte) ([]Raw, error) {
	f, err := frame.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("record: decode message: %w", err)
	}
	body := append([]byte{byte('0' + f.Seq)}, f.Body...)
	_, recs, err := DecodeFrame(body)
	return recs, err
}

// DecodeFrame decodes the body of a single frame (sequence digit followed
// by one or more CR-separated records) into its sequence number and its
// records.
func DecodeFrame(data []byte) (seq int, records []Raw, err error) {
	if len(data) == 0 {
		return 0, nil, fmt.Errorf("record: decode frame: empty input")
	}
	if data[0] < '0' || data[0] > '9' {
		return 0, nil, fmt.Errorf("record: decode frame: expected ASCII digit sequence, got %q", data[0])
	}
	seq, _ = strconv.Atoi(string(data[0]))

	rest := data[1:]
	parts := bytes.Split(rest, []byte{frame.RecordSep})
	records = make([]Raw, 0, len(parts))
	for _, p := range parts {
		r, err := DecodeRecord(p)
		if err != nil {
			return 0, nil, err
		}
		records = append(records, r)
	}
	return seq, records, nil
}

// DecodeRecord splits a single record on the field separator and decodes
// each field according to whether it contains a repeat separator, a
// component separator, or neither.
func DecodeRecord(data []byte) (Raw, error) {
	fields := bytes.Split(data, []byte{frame.FieldSep})
	out := make(Raw, len(fields))
	for i, f := range fields {
		out[i] = decodeField(f)
	}
	return out, nil
}

func decodeField(f []byte) any {
	if len(f) == 0 {
		return nil
	}
	if bytes.IndexByte(f, frame.RepeatSep) >= 0 {
		return decodeRepeatedComponent(f)
	}
	if bytes.IndexByte(f, frame.ComponentSep) >= 0 {
		return decodeComponent(f)
	}
	return string(f)
}

func decodeComponent(f []byte) []any {
	parts := bytes.Split(f, []byte{frame.ComponentSep})
	out := make([]any, len(parts))
	for i, p := range parts {
		if len(p) == 0 {
			out[i] = nil
		} else {
			out[i] = string(p)
		}
	}
	return out
}

func decodeRepeatedComponent(f []byte) [][]any {
	parts := bytes.Split(f, []byte{frame.RepeatSep})
	out := make([][]any, len(parts))
	for i, p := range parts {
		out[i] = decodeComponent(p)
	}
	return out
}

// Encode renders one or more records into wire-framed messages. If the
// single encoded message would exceed size bytes (size <= 0 means
// unbounded), it is split into multiple chunk frames per spec §4.1.
func Encode(records []Raw, size int, seq int) ([][]byte, error) {
	body, err := EncodeFrameBody(records)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		return [][]byte{frame.Encode(seq, body, false)}, nil
	}
	return frame.Split(body, size, seq)
}

// EncodeFrameBody encodes an ordered list of records into the CR-joined
// frame body (without the leading sequence digit or frame envelope).
func EncodeFrameBody(records []Raw) ([]byte, error) {
	var out [][]byte
	for _, r := range records {
		rec, err := EncodeRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return bytes.Join(out, []byte{frame.RecordSep}), nil
}

// EncodeRecord joins a record's fields with the field separator.
func EncodeRecord(r Raw) ([]byte, error) {
	parts := make([][]byte, len(r))
	for i, v := range r {
		b, err := EncodeField(v)
		if err != nil {
			return nil, fmt.Errorf("record: encode field %d: %w", i, err)
		}
		parts[i] = b
	}
	return bytes.Join(parts, []byte{frame.FieldSep}), nil
}

// EncodeField converts one decoded field value back to its wire form.
func EncodeField(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	case [][]any:
		return encodeRepeatedComponent(val)
	case []any:
		return encodeComponent(val)
	default:
		return []byte(fmt.Sprint(val)), nil
	}
}

func encodeComponent(parts []any) ([]byte, error) {
	// If any element is itself iterable, this is actually a repeated
	// component list masquerading as a single-level slice.
	for _, p := range parts {
		if _, ok := p.([]any); ok {
			rep := make([][]any, len(parts))
			for i, p2 := range parts {
				c, ok := p2.([]any)
				if !ok {
					return nil, fmt.Errorf("record: mixed component/repeated-component field")
				}
				rep[i] = c
			}
			return encodeRepeatedComponent(rep)
		}
	}

	encoded := make([][]byte, len(parts))
	for i, p := range parts {
		b, err := EncodeField(p)
		if err != nil {
			return nil, err
		}
		encoded[i] = b
	}
	// Right-strip trailing empty components.
	last := len(encoded)
	for last > 0 && len(encoded[last-1]) == 0 {
		last--
	}
	return bytes.Join(encoded[:last], []byte{frame.ComponentSep}), nil
}

func encodeRepeatedComponent(reps [][]any) ([]byte, error) {
	encoded := make([][]byte, len(reps))
	for i, c := range reps {
		b, err := encodeComponent(c)
		if err != nil {
			return nil, err
		}
		encoded[i] = b
	}
	return bytes.Join(encoded, []byte{frame.RepeatSep}), nil
}

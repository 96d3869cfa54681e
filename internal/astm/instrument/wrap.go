package instrument

import (
	"bytes"
	"fmt"

	"github.com/senaite/astm-go/internal/astm/field"
	"github.com/senaite/astm-go/internal/astm/frame"
	"github.com/senaite/astm-go/internal/astm/record"
)

// Wrapper turns the raw on-wire messages of one completed ENQ..EOT transfer
// into record-type-keyed field dictionaries (spec §4.5). It is constructed
// with the transfer's ordered raw messages (each a single joined terminal
// frame) and a registry used to select the mapping from the first message's
// header line.
type Wrapper struct {
	Messages [][]byte
	Mapping  Mapping
	Entry    Entry
	Matched  bool
}

// Wrap selects a mapping for messages by matching the header line (the
// first message, decoded as text) against reg, falling back to
// DefaultMapping when nothing matches or reg is nil.
func Wrap(messages [][]byte, reg *Registry) *Wrapper {
	w := &Wrapper{Messages: messages, Mapping: DefaultMapping}
	if len(messages) == 0 || reg == nil {
		return w
	}
	if e, ok := reg.Match(string(messages[0])); ok {
		w.Entry = e
		w.Matched = true
		w.Mapping = e.Mapping
	}
	return w
}

// ToASTM concatenates the raw frames joined by newline, for human
// inspection (spec §4.5). This is distinct from the link layer's flush
// blob, which concatenates with no separator.
func (w *Wrapper) ToASTM() []byte {
	return bytes.Join(w.Messages, []byte("\n"))
}

// ToLIS2A concatenates each message's stripped body (spec §4.2's payload,
// including its trailing CR ETX/ETB tail per the open-question decision in
// SPEC_FULL.md).
func (w *Wrapper) ToLIS2A() []byte {
	var out []byte
	for _, m := range w.Messages {
		p, err := frame.Payload(m)
		if err != nil {
			continue
		}
		out = append(out, p...)
	}
	return out
}

// ToDict decodes every message and wraps each record whose type is present
// in the selected mapping into a field dictionary, skipping unmapped
// record types and any record that fails to wrap (spec §4.5, §7: wrap
// failures are isolated to the offending record).
func (w *Wrapper) ToDict() map[string]any {
	out := map[string]any{
		"metadata": w.metadata(),
	}
	for _, m := range w.Messages {
		recs, err := record.Decode(m)
		if err != nil {
			continue
		}
		for _, r := range recs {
			if len(r) == 0 {
				continue
			}
			rtype, _ := r[0].(string)
			schema, ok := w.Mapping[rtype]
			if !ok {
				continue
			}
			dict, err := WrapRecord(r, schema)
			if err != nil {
				continue
			}
			list, _ := out[rtype].([]map[string]any)
			out[rtype] = append(list, dict)
		}
	}
	return out
}

func (w *Wrapper) metadata() map[string]any {
	meta := map[string]any{
		"astm":    string(w.ToASTM()),
		"lis2a":   string(w.ToLIS2A()),
		"name":    "generic",
		"matched": w.Matched,
	}
	if w.Matched {
		meta["name"] = w.Entry.Name
	}
	if w.Matched && w.Entry.Metadata != nil {
		extra := w.Entry.Metadata(w)
		if err := defaultMetadataValidator.validate(w.Entry.MetadataSchema, extra); err == nil {
			for k, v := range extra {
				meta[k] = v
			}
		}
	}
	return meta
}

// WrapRecord applies schema to a decoded record's fields, producing a field
// dictionary keyed by the declared field names. A required field that
// cannot be wrapped (type mismatch, out-of-set value, length overrun)
// fails the whole record; an optional field that fails is simply omitted.
func WrapRecord(r record.Raw, schema *field.Schema) (map[string]any, error) {
	return wrapComponent(schema, []any(r))
}

func wrapComponent(schema *field.Schema, parts []any) (map[string]any, error) {
	out := make(map[string]any, len(schema.Fields))
	for i, spec := range schema.Fields {
		var raw any
		if i < len(parts) {
			raw = parts[i]
		}
		v, err := wrapValue(spec, raw)
		if err != nil {
			if spec.Required {
				return nil, fmt.Errorf("instrument: wrap field %q: %w", spec.Name, err)
			}
			continue
		}
		if v != nil {
			out[spec.Name] = v
		}
	}
	return out, nil
}

func wrapValue(spec field.Spec, raw any) (any, error) {
	switch spec.Kind {
	case field.KindComponent:
		parts, _ := raw.([]any)
		if parts == nil && spec.Schema == nil {
			return nil, nil
		}
		if spec.Schema == nil {
			return raw, nil
		}
		return wrapComponent(spec.Schema, parts)
	case field.KindRepeatedComponent:
		reps, _ := raw.([][]any)
		if spec.Schema == nil {
			return reps, nil
		}
		out := make([]map[string]any, 0, len(reps))
		for _, c := range reps {
			d, err := wrapComponent(spec.Schema, c)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		return out, nil
	default:
		text, present := stringify(raw)
		return field.Decode(spec, text, present)
	}
}

func stringify(raw any) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	default:
		return fmt.Sprint(v), true
	}
}

// Package instrument implements the instrument dispatch/wrapper layer
// (spec §4.5): a registry of (header pattern, schema, metadata function)
// entries selected by matching the first message's header line, a generic
// default schema used when nothing matches, and the Wrapper type that
// turns a transfer's raw messages into record-type-keyed dictionaries.
package instrument

import (
	"github.com/senaite/astm-go/internal/astm/field"
)

// Generic default schemas, named per spec §4.5 (Header, Patient, Order,
// Result, Comment, Request-info, Manufacturer, Terminator). These mirror
// the minimum field set every concrete instrument's Header record builds
// on (record type, delimiter component) and are deliberately small: a
// matched instrument entry supplies its own richer schema for the other
// record types.
var (
	DefaultHeaderSchema = field.NewSchema("H",
		field.Spec{Name: "type", Kind: field.KindConstant, Default: "H", Required: true},
		field.Spec{Name: "delimiter", Kind: field.KindRepeatedComponent},
		field.Spec{Name: "sender", Kind: field.KindComponent},
		field.Spec{Name: "receiver", Kind: field.KindText},
		field.Spec{Name: "processing_id", Kind: field.KindText},
		field.Spec{Name: "version", Kind: field.KindText},
		field.Spec{Name: "datetime", Kind: field.KindDateTime},
	)

	DefaultPatientSchema = field.NewSchema("P",
		field.Spec{Name: "type", Kind: field.KindConstant, Default: "P", Required: true},
		field.Spec{Name: "seq", Kind: field.KindInteger},
		field.Spec{Name: "practice_id", Kind: field.KindText},
		field.Spec{Name: "laboratory_id", Kind: field.KindText},
		field.Spec{Name: "id", Kind: field.KindText},
		field.Spec{Name: "name", Kind: field.KindComponent},
		field.Spec{Name: "birthdate", Kind: field.KindDate},
		field.Spec{Name: "sex", Kind: field.KindText},
	)

	DefaultOrderSchema = field.NewSchema("O",
		field.Spec{Name: "type", Kind: field.KindConstant, Default: "O", Required: true},
		field.Spec{Name: "seq", Kind: field.KindInteger},
		field.Spec{Name: "sample_id", Kind: field.KindText},
		field.Spec{Name: "instrument", Kind: field.KindComponent},
		field.Spec{Name: "test", Kind: field.KindRepeatedComponent},
		field.Spec{Name: "priority", Kind: field.KindText},
		field.Spec{Name: "sampled_at", Kind: field.KindDateTime},
		field.Spec{Name: "action_code", Kind: field.KindText},
		field.Spec{Name: "report_type", Kind: field.KindText},
	)

	DefaultResultSchema = field.NewSchema("R",
		field.Spec{Name: "type", Kind: field.KindConstant, Default: "R", Required: true},
		field.Spec{Name: "seq", Kind: field.KindInteger},
		field.Spec{Name: "test", Kind: field.KindComponent},
		field.Spec{Name: "value", Kind: field.KindText},
		field.Spec{Name: "units", Kind: field.KindText},
		field.Spec{Name: "references", Kind: field.KindText},
		field.Spec{Name: "abnormal_flag", Kind: field.KindRepeatedComponent},
		field.Spec{Name: "status", Kind: field.KindText},
		field.Spec{Name: "operator", Kind: field.KindComponent},
		field.Spec{Name: "completed_at", Kind: field.KindDateTime},
		field.Spec{Name: "instrument", Kind: field.KindText},
	)

	DefaultCommentSchema = field.NewSchema("C",
		field.Spec{Name: "type", Kind: field.KindConstant, Default: "C", Required: true},
		field.Spec{Name: "seq", Kind: field.KindInteger},
		field.Spec{Name: "source", Kind: field.KindText},
		field.Spec{Name: "data", Kind: field.KindText},
		field.Spec{Name: "ctype", Kind: field.KindText},
	)

	DefaultRequestInformationSchema = field.NewSchema("Q",
		field.Spec{Name: "type", Kind: field.KindConstant, Default: "Q", Required: true},
		field.Spec{Name: "seq", Kind: field.KindInteger},
		field.Spec{Name: "starting_range", Kind: field.KindComponent},
		field.Spec{Name: "ending_range", Kind: field.KindComponent},
	)

	DefaultManufacturerInfoSchema = field.NewSchema("M",
		field.Spec{Name: "type", Kind: field.KindConstant, Default: "M", Required: true},
		field.Spec{Name: "seq", Kind: field.KindInteger},
	)

	DefaultTerminatorSchema = field.NewSchema("L",
		field.Spec{Name: "type", Kind: field.KindConstant, Default: "L", Required: true},
		field.Spec{Name: "seq", Kind: field.KindInteger},
		field.Spec{Name: "code", Kind: field.KindText},
	)
)

// copySchema returns a shallow copy of s with its own backing Fields slice,
// so a per-instrument schema can override or append fields without mutating
// the shared generic default.
func copySchema(s *field.Schema) *field.Schema {
	cp := *s
	cp.Fields = append([]field.Spec{}, s.Fields...)
	return &cp
}

// setField replaces (or appends, if absent) a named field spec in place.
func setField(s *field.Schema, name string, spec field.Spec) {
	if i := s.IndexOf(name); i >= 0 {
		s.Fields[i] = spec
		return
	}
	s.Fields = append(s.Fields, spec)
}

// Mapping associates a record-type letter with the schema used to decode
// it. Only types present in a mapping are wrapped; others are skipped.
type Mapping map[string]*field.Schema

// DefaultMapping is the generic ASTM mapping used when no registered
// instrument matches the header line (spec §4.5). It deliberately omits
// "S" (Scientific), matching the set the original generic mapping covers.
var DefaultMapping = Mapping{
	"H": DefaultHeaderSchema,
	"P": DefaultPatientSchema,
	"O": DefaultOrderSchema,
	"R": DefaultResultSchema,
	"C": DefaultCommentSchema,
	"Q": DefaultRequestInformationSchema,
	"M": DefaultManufacturerInfoSchema,
	"L": DefaultTerminatorSchema,
}

package instrument

import (
	"encoding/json"
	"regexp"
	"sort"

	"github.com/senaite/astm-go/internal/astm/field"
)

// Horiba Yumizen H500/H550 hematology analyzers, grounded on
// original_source/src/senaite/astm/instruments/horiba_yumizen_h5xx.py and
// its yumizen/components.py, yumizen/h500.py helpers.
const horibaYumizenH5xxVersion = "1.0.0"

var horibaYumizenH5xxHeaderRX = regexp.MustCompile(`.*H5[05]0\^`)

var (
	horibaSenderComponent = field.NewSchema("",
		field.Spec{Name: "name", Kind: field.KindText},
		field.Spec{Name: "serial", Kind: field.KindText},
		field.Spec{Name: "version", Kind: field.KindText},
	)

	// horibaReferenceRangesComponent mirrors yumizen/components.py's
	// ReferenceRanges building block.
	horibaReferenceRangesComponent = field.NewSchema("",
		field.Spec{Name: "range", Kind: field.KindText},
		field.Spec{Name: "range_name", Kind: field.KindText},
	)

	// horibaUniversalTestIDComponent mirrors yumizen/components.py's
	// UniversalTestID.
	horibaUniversalTestIDComponent = field.NewSchema("",
		field.Spec{Name: "_", Kind: field.KindNotUsed},
		field.Spec{Name: "__", Kind: field.KindNotUsed},
		field.Spec{Name: "___", Kind: field.KindNotUsed},
		field.Spec{Name: "result_name", Kind: field.KindText},
		field.Spec{Name: "assay_code", Kind: field.KindText, Required: true},
		field.Spec{Name: "dilution", Kind: field.KindText},
	)

	// horibaPatientNameComponent mirrors yumizen/components.py's PatientName.
	horibaPatientNameComponent = field.NewSchema("",
		field.Spec{Name: "name", Kind: field.KindText, Length: 20},
		field.Spec{Name: "first_name", Kind: field.KindText, Length: 20},
	)

	// horibaPatientBirthDateComponent mirrors yumizen/components.py's
	// PatientBirthDate.
	horibaPatientBirthDateComponent = field.NewSchema("",
		field.Spec{Name: "birthdate", Kind: field.KindDate},
		field.Spec{Name: "age", Kind: field.KindText},
		field.Spec{Name: "unit", Kind: field.KindText},
	)

	// horibaDataComponent mirrors yumizen/components.py's Data, used by the
	// comment record to carry an encoded result blob (e.g. an embedded
	// cytogram).
	horibaDataComponent = field.NewSchema("",
		field.Spec{Name: "encode", Kind: field.KindText, Default: "FLOATLE-stream/deflate:base64"},
		field.Spec{Name: "data", Kind: field.KindText, Default: ""},
	)
)

func horibaYumizenH5xxHeaderSchema() *field.Schema {
	s := copySchema(DefaultHeaderSchema)
	setField(s, "sender", field.Spec{Name: "sender", Kind: field.KindComponent, Schema: horibaSenderComponent})
	setField(s, "processing_id", field.Spec{Name: "processing_id", Kind: field.KindSet, Values: []string{"P", "Q", "D"}})
	setField(s, "version", field.Spec{Name: "version", Kind: field.KindText})
	return s
}

func horibaYumizenH5xxPatientSchema() *field.Schema {
	s := copySchema(DefaultPatientSchema)
	setField(s, "name", field.Spec{Name: "name", Kind: field.KindComponent, Schema: horibaPatientNameComponent})
	setField(s, "birthdate", field.Spec{Name: "birthdate", Kind: field.KindComponent, Schema: horibaPatientBirthDateComponent})
	s.Fields = append(s.Fields,
		field.Spec{Name: "unknown_1", Kind: field.KindNotUsed},
		field.Spec{Name: "unknown_2", Kind: field.KindNotUsed},
	)
	return s
}

func horibaYumizenH5xxCommentSchema() *field.Schema {
	s := copySchema(DefaultCommentSchema)
	setField(s, "data", field.Spec{Name: "data", Kind: field.KindComponent, Schema: horibaDataComponent})
	return s
}

func horibaYumizenH5xxResultSchema() *field.Schema {
	s := copySchema(DefaultResultSchema)
	setField(s, "test", field.Spec{Name: "test", Kind: field.KindComponent, Schema: horibaUniversalTestIDComponent})
	setField(s, "references", field.Spec{Name: "references", Kind: field.KindComponent, Schema: horibaReferenceRangesComponent})
	return s
}

func horibaYumizenH5xxMapping() Mapping {
	return Mapping{
		"H": horibaYumizenH5xxHeaderSchema(),
		"P": horibaYumizenH5xxPatientSchema(),
		"O": DefaultOrderSchema,
		"R": horibaYumizenH5xxResultSchema(),
		"C": horibaYumizenH5xxCommentSchema(),
		"Q": DefaultRequestInformationSchema,
		"M": DefaultManufacturerInfoSchema,
		"L": DefaultTerminatorSchema,
	}
}

// horibaYumizenH5xxMetadata departs from the version/header_rx pair every
// other catalogue entry returns: it also reports the family name and the
// record types this mapping actually covers, read back off the matched
// wrapper rather than a static table.
func horibaYumizenH5xxMetadata(w *Wrapper) map[string]any {
	types := make([]string, 0, len(w.Mapping))
	for t := range w.Mapping {
		types = append(types, t)
	}
	sort.Strings(types)
	return map[string]any{
		"version":      horibaYumizenH5xxVersion,
		"header_rx":    horibaYumizenH5xxHeaderRX.String(),
		"family":       "H5xx",
		"record_types": types,
	}
}

// horibaYumizenH5xxMetadataSchema constrains horibaYumizenH5xxMetadata's
// output: the one entry in the catalogue whose metadata function does
// real work beyond reporting the static version/header_rx pair, so it is
// also the one entry worth validating against a declared JSON Schema.
const horibaYumizenH5xxMetadataSchema = `{
	"type": "object",
	"properties": {
		"version":      {"type": "string"},
		"header_rx":    {"type": "string"},
		"family":        {"type": "string", "const": "H5xx"},
		"record_types":  {"type": "array", "items": {"type": "string"}}
	},
	"required": ["family", "record_types"]
}`

// HoribaYumizenH5xxEntry returns the registry entry for the Horiba Yumizen
// H500/H550 hematology analyzers.
func HoribaYumizenH5xxEntry() Entry {
	return Entry{
		Name:           "horiba_yumizen_h5xx",
		HeaderRX:       horibaYumizenH5xxHeaderRX,
		Mapping:        horibaYumizenH5xxMapping(),
		Metadata:       horibaYumizenH5xxMetadata,
		MetadataSchema: json.RawMessage(horibaYumizenH5xxMetadataSchema),
	}
}

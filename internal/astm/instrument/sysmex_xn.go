package instrument

import (
	"regexp"

	"github.com/senaite/astm-go/internal/astm/field"
)

// Sysmex XN-series hematology analyzers, grounded on
// original_source/src/senaite/astm/instruments/sysmex_xn.py.
const sysmexXNVersion = "1.0.0"

var sysmexXNHeaderRX = regexp.MustCompile(`.*XN-(550|530|450|430|350|330|150|110)\^`)

var (
	sysmexSenderComponent = field.NewSchema("",
		field.Spec{Name: "name", Kind: field.KindText, Default: "XN"},
		field.Spec{Name: "version", Kind: field.KindText},
		field.Spec{Name: "analyser_serial_no", Kind: field.KindText},
		field.Spec{Name: "_", Kind: field.KindNotUsed},
		field.Spec{Name: "__", Kind: field.KindNotUsed},
		field.Spec{Name: "___", Kind: field.KindNotUsed},
		field.Spec{Name: "ps_code", Kind: field.KindText},
	)

	sysmexNameComponent = field.NewSchema("",
		field.Spec{Name: "_", Kind: field.KindNotUsed},
		field.Spec{Name: "first_name", Kind: field.KindText},
		field.Spec{Name: "last_name", Kind: field.KindText},
	)

	sysmexPhysicianComponent = field.NewSchema("",
		field.Spec{Name: "_", Kind: field.KindNotUsed},
		field.Spec{Name: "physician_name", Kind: field.KindText},
	)

	sysmexLocationComponent = field.NewSchema("",
		field.Spec{Name: "_", Kind: field.KindNotUsed},
		field.Spec{Name: "__", Kind: field.KindNotUsed},
		field.Spec{Name: "___", Kind: field.KindNotUsed},
		field.Spec{Name: "ward", Kind: field.KindText},
	)

	sysmexOrderInstrumentComponent = field.NewSchema("",
		field.Spec{Name: "sampler_adaptor_number", Kind: field.KindText},
		field.Spec{Name: "sampler_adaptor_position", Kind: field.KindText},
		field.Spec{Name: "sample_id", Kind: field.KindText},
		field.Spec{Name: "sample_id_attr", Kind: field.KindSet, Values: []string{"M", "A", "B", "C"}},
	)

	sysmexOrderTestComponent = field.NewSchema("",
		field.Spec{Name: "_", Kind: field.KindNotUsed},
		field.Spec{Name: "__", Kind: field.KindNotUsed},
		field.Spec{Name: "___", Kind: field.KindNotUsed},
		field.Spec{Name: "____", Kind: field.KindNotUsed},
		field.Spec{Name: "parameter", Kind: field.KindText},
	)

	sysmexResultTestComponent = field.NewSchema("",
		field.Spec{Name: "_", Kind: field.KindText},
		field.Spec{Name: "__", Kind: field.KindText},
		field.Spec{Name: "___", Kind: field.KindText},
		field.Spec{Name: "____", Kind: field.KindText},
		field.Spec{Name: "parameter", Kind: field.KindText},
		field.Spec{Name: "dilution_ratio", Kind: field.KindSet, Values: []string{"1", "5"}},
		field.Spec{Name: "result_type", Kind: field.KindText},
		field.Spec{Name: "extended_order_result", Kind: field.KindText},
	)

	sysmexRequestInstrumentComponent = field.NewSchema("",
		field.Spec{Name: "sampler_adaptor_number", Kind: field.KindText},
		field.Spec{Name: "sampler_adaptor_position", Kind: field.KindText},
		field.Spec{Name: "sample_id", Kind: field.KindText},
		field.Spec{Name: "sample_id_attr", Kind: field.KindSet, Values: []string{"M", "A", "B", "C"}},
	)
)

func sysmexXNHeaderSchema() *field.Schema {
	s := copySchema(DefaultHeaderSchema)
	setField(s, "sender", field.Spec{Name: "sender", Kind: field.KindComponent, Schema: sysmexSenderComponent})
	setField(s, "processing_id", field.Spec{Name: "processing_id", Kind: field.KindNotUsed})
	setField(s, "version", field.Spec{Name: "version", Kind: field.KindText})
	return s
}

func sysmexXNPatientSchema() *field.Schema {
	s := copySchema(DefaultPatientSchema)
	setField(s, "id", field.Spec{Name: "id", Kind: field.KindText})
	setField(s, "name", field.Spec{Name: "name", Kind: field.KindComponent, Schema: sysmexNameComponent})
	setField(s, "sex", field.Spec{Name: "sex", Kind: field.KindSet, Values: []string{"M", "F", "U"}})
	s.Fields = append(s.Fields,
		field.Spec{Name: "physician_id", Kind: field.KindComponent, Schema: sysmexPhysicianComponent},
		field.Spec{Name: "location", Kind: field.KindComponent, Schema: sysmexLocationComponent},
	)
	return s
}

func sysmexXNOrderSchema() *field.Schema {
	s := copySchema(DefaultOrderSchema)
	setField(s, "instrument", field.Spec{Name: "instrument", Kind: field.KindComponent, Schema: sysmexOrderInstrumentComponent})
	setField(s, "test", field.Spec{Name: "test", Kind: field.KindRepeatedComponent, Schema: sysmexOrderTestComponent})
	setField(s, "action_code", field.Spec{Name: "action_code", Kind: field.KindSet, Values: []string{"N", "A", "Q"}})
	setField(s, "report_type", field.Spec{Name: "report_type", Kind: field.KindSet, Values: []string{"F", "I", "X", "Y", "Q"}})
	return s
}

func sysmexXNCommentSchema() *field.Schema {
	s := copySchema(DefaultCommentSchema)
	setField(s, "data", field.Spec{Name: "data", Kind: field.KindText})
	return s
}

func sysmexXNResultSchema() *field.Schema {
	s := copySchema(DefaultResultSchema)
	setField(s, "test", field.Spec{Name: "test", Kind: field.KindComponent, Schema: sysmexResultTestComponent})
	setField(s, "value", field.Spec{Name: "value", Kind: field.KindText, Default: ""})
	setField(s, "units", field.Spec{Name: "units", Kind: field.KindText, Default: ""})
	setField(s, "abnormal_flag", field.Spec{Name: "abnormal_flag", Kind: field.KindSet,
		Values: []string{"L", "H", ">", "N", "A", "W", "LL", "HH"}})
	setField(s, "status", field.Spec{Name: "status", Kind: field.KindSet, Values: []string{"F", "I", "P", "N"}})
	setField(s, "completed_at", field.Spec{Name: "completed_at", Kind: field.KindDateTime})
	return s
}

func sysmexXNRequestInformationSchema() *field.Schema {
	s := copySchema(DefaultRequestInformationSchema)
	setField(s, "starting_range", field.Spec{Name: "starting_range", Kind: field.KindComponent, Schema: sysmexRequestInstrumentComponent})
	s.Fields = append(s.Fields,
		field.Spec{Name: "beginning_results", Kind: field.KindDateTime},
		field.Spec{Name: "status_code", Kind: field.KindSet, Values: []string{"F", "N", "C"}},
	)
	return s
}

func sysmexXNMapping() Mapping {
	return Mapping{
		"H": sysmexXNHeaderSchema(),
		"P": sysmexXNPatientSchema(),
		"O": sysmexXNOrderSchema(),
		"R": sysmexXNResultSchema(),
		"C": sysmexXNCommentSchema(),
		"Q": sysmexXNRequestInformationSchema(),
		"M": DefaultManufacturerInfoSchema,
		"L": DefaultTerminatorSchema,
	}
}

func sysmexXNMetadata(w *Wrapper) map[string]any {
	return map[string]any{
		"version":   sysmexXNVersion,
		"header_rx": sysmexXNHeaderRX.String(),
	}
}

// SysmexXNEntry returns the registry entry for the Sysmex XN-L series
// automated hematology analyzers.
func SysmexXNEntry() Entry {
	return Entry{
		Name:     "sysmex_xn",
		HeaderRX: sysmexXNHeaderRX,
		Mapping:  sysmexXNMapping(),
		Metadata: sysmexXNMetadata,
	}
}

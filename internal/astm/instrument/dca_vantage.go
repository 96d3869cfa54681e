package instrument

import (
	"regexp"

	"github.com/senaite/astm-go/internal/astm/field"
)

// Siemens DCA Vantage analyzer, grounded on
// original_source/src/senaite/astm/instruments/dca_vantage.py.
const dcaVantageVersion = "1.0.0"

var dcaVantageHeaderRX = regexp.MustCompile(`.*(DCA VANTAGE|DCA Vantage)\^`)

var (
	dcaVantageSenderComponent = field.NewSchema("",
		field.Spec{Name: "name", Kind: field.KindText, Default: "DCA VANTAGE"},
		field.Spec{Name: "version", Kind: field.KindText},
		field.Spec{Name: "serial", Kind: field.KindText},
	)

	dcaVantageNameComponent = field.NewSchema("",
		field.Spec{Name: "last_name", Kind: field.KindText},
		field.Spec{Name: "first_name", Kind: field.KindText},
	)

	dcaVantageOrderInstrumentComponent = field.NewSchema("",
		field.Spec{Name: "sample_seq_num", Kind: field.KindText},
		field.Spec{Name: "reagent_lot_num", Kind: field.KindText},
	)

	dcaVantageResultTestComponent = field.NewSchema("",
		field.Spec{Name: "_", Kind: field.KindText},
		field.Spec{Name: "__", Kind: field.KindText},
		field.Spec{Name: "___", Kind: field.KindText},
		field.Spec{Name: "parameter", Kind: field.KindText},
	)
)

func dcaVantageHeaderSchema() *field.Schema {
	s := copySchema(DefaultHeaderSchema)
	setField(s, "sender", field.Spec{Name: "sender", Kind: field.KindComponent, Schema: dcaVantageSenderComponent})
	setField(s, "processing_id", field.Spec{Name: "processing_id", Kind: field.KindSet, Values: []string{"P", "D"}})
	return s
}

func dcaVantagePatientSchema() *field.Schema {
	s := copySchema(DefaultPatientSchema)
	setField(s, "practice_id", field.Spec{Name: "practice_id", Kind: field.KindText})
	setField(s, "name", field.Spec{Name: "name", Kind: field.KindComponent, Schema: dcaVantageNameComponent})
	return s
}

func dcaVantageOrderSchema() *field.Schema {
	s := copySchema(DefaultOrderSchema)
	setField(s, "instrument", field.Spec{Name: "instrument", Kind: field.KindComponent, Schema: dcaVantageOrderInstrumentComponent})
	setField(s, "action_code", field.Spec{Name: "action_code", Kind: field.KindSet, Values: []string{"Q"}})
	setField(s, "report_type", field.Spec{Name: "report_type", Kind: field.KindSet, Values: []string{"F", "C"}})
	return s
}

func dcaVantageCommentSchema() *field.Schema {
	s := copySchema(DefaultCommentSchema)
	setField(s, "source", field.Spec{Name: "source", Kind: field.KindConstant, Default: "I", Required: true})
	setField(s, "data", field.Spec{Name: "data", Kind: field.KindNotUsed})
	setField(s, "ctype", field.Spec{Name: "ctype", Kind: field.KindConstant, Default: "G", Required: true})
	return s
}

func dcaVantageResultSchema() *field.Schema {
	s := copySchema(DefaultResultSchema)
	setField(s, "test", field.Spec{Name: "test", Kind: field.KindComponent, Schema: dcaVantageResultTestComponent})
	setField(s, "value", field.Spec{Name: "value", Kind: field.KindText, Default: ""})
	setField(s, "units", field.Spec{Name: "units", Kind: field.KindText, Default: ""})
	setField(s, "references", field.Spec{Name: "references", Kind: field.KindText, Default: ""})
	setField(s, "abnormal_flag", field.Spec{Name: "abnormal_flag", Kind: field.KindSet,
		Values: []string{"<", ">", "H", "L"}})
	setField(s, "status", field.Spec{Name: "status", Kind: field.KindSet, Values: []string{"F", "C"}})
	setField(s, "operator", field.Spec{Name: "operator", Kind: field.KindText})
	setField(s, "completed_at", field.Spec{Name: "started_at", Kind: field.KindDateTime})
	return s
}

func dcaVantageMapping() Mapping {
	return Mapping{
		"H": dcaVantageHeaderSchema(),
		"P": dcaVantagePatientSchema(),
		"O": dcaVantageOrderSchema(),
		"R": dcaVantageResultSchema(),
		"C": dcaVantageCommentSchema(),
		"Q": DefaultRequestInformationSchema,
		"M": DefaultManufacturerInfoSchema,
		"L": DefaultTerminatorSchema,
	}
}

func dcaVantageMetadata(w *Wrapper) map[string]any {
	return map[string]any{
		"version":   dcaVantageVersion,
		"header_rx": dcaVantageHeaderRX.String(),
	}
}

// DCAVantageEntry returns the registry entry for the Siemens DCA Vantage
// HbA1c/microalbumin analyzer.
func DCAVantageEntry() Entry {
	return Entry{
		Name:     "dca_vantage",
		HeaderRX: dcaVantageHeaderRX,
		Mapping:  dcaVantageMapping(),
		Metadata: dcaVantageMetadata,
	}
}

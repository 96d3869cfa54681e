package instrument

import (
	"regexp"

	"github.com/senaite/astm-go/internal/astm/field"
)

// Abbott Architect instrument schema, grounded on
// original_source/src/senaite/astm/instruments/abbott_architect.py.
const abbottArchitectVersion = "1.0.0"

var abbottArchitectHeaderRX = regexp.MustCompile(`.*ARCHITECT\^`)

var (
	abbottSenderComponent = field.NewSchema("",
		field.Spec{Name: "name", Kind: field.KindText},
		field.Spec{Name: "version", Kind: field.KindText},
		field.Spec{Name: "serial", Kind: field.KindText},
		field.Spec{Name: "interface", Kind: field.KindText},
	)

	abbottNameComponent = field.NewSchema("",
		field.Spec{Name: "last", Kind: field.KindText},
		field.Spec{Name: "first", Kind: field.KindText},
		field.Spec{Name: "middle", Kind: field.KindText},
	)

	abbottOrderInstrumentComponent = field.NewSchema("",
		field.Spec{Name: "specimen", Kind: field.KindText},
		field.Spec{Name: "carrier", Kind: field.KindText},
		field.Spec{Name: "position", Kind: field.KindInteger},
	)

	abbottAssayComponent = field.NewSchema("",
		field.Spec{Name: "_", Kind: field.KindNotUsed},
		field.Spec{Name: "__", Kind: field.KindNotUsed},
		field.Spec{Name: "___", Kind: field.KindNotUsed},
		field.Spec{Name: "num", Kind: field.KindInteger},
		field.Spec{Name: "name", Kind: field.KindText},
		field.Spec{Name: "dilution", Kind: field.KindText},
		field.Spec{Name: "status", Kind: field.KindSet, Values: []string{"P", "C"}},
	)

	abbottOperatorComponent = field.NewSchema("",
		field.Spec{Name: "order_operator", Kind: field.KindText},
		field.Spec{Name: "release_operator", Kind: field.KindText},
	)
)

func abbottArchitectHeaderSchema() *field.Schema {
	s := copySchema(DefaultHeaderSchema)
	setField(s, "sender", field.Spec{Name: "sender", Kind: field.KindComponent, Schema: abbottSenderComponent})
	setField(s, "processing_id", field.Spec{Name: "processing_id", Kind: field.KindSet, Values: []string{"P", "Q"}})
	setField(s, "version", field.Spec{Name: "version", Kind: field.KindText})
	return s
}

func abbottArchitectPatientSchema() *field.Schema {
	s := copySchema(DefaultPatientSchema)
	setField(s, "name", field.Spec{Name: "name", Kind: field.KindComponent, Schema: abbottNameComponent})
	setField(s, "sex", field.Spec{Name: "sex", Kind: field.KindSet, Values: []string{"M", "F", "U"}})
	return s
}

func abbottArchitectOrderSchema() *field.Schema {
	s := copySchema(DefaultOrderSchema)
	setField(s, "instrument", field.Spec{Name: "instrument", Kind: field.KindComponent, Schema: abbottOrderInstrumentComponent})
	setField(s, "test", field.Spec{Name: "test", Kind: field.KindComponent, Schema: abbottAssayComponent})
	setField(s, "priority", field.Spec{Name: "priority", Kind: field.KindSet, Values: []string{"S", "R"}})
	setField(s, "report_type", field.Spec{Name: "report_type", Kind: field.KindSet, Values: []string{"F", "X"}})
	return s
}

func abbottArchitectCommentSchema() *field.Schema {
	s := copySchema(DefaultCommentSchema)
	setField(s, "source", field.Spec{Name: "source", Kind: field.KindConstant, Default: "I", Required: true})
	setField(s, "ctype", field.Spec{Name: "ctype", Kind: field.KindSet, Values: []string{"G", "I"}})
	return s
}

func abbottArchitectResultSchema() *field.Schema {
	s := copySchema(DefaultResultSchema)
	resultTest := field.NewSchema("",
		field.Spec{Name: "_", Kind: field.KindNotUsed},
		field.Spec{Name: "__", Kind: field.KindNotUsed},
		field.Spec{Name: "___", Kind: field.KindNotUsed},
		field.Spec{Name: "num", Kind: field.KindInteger},
		field.Spec{Name: "name", Kind: field.KindText},
		field.Spec{Name: "dilution", Kind: field.KindText},
		field.Spec{Name: "status", Kind: field.KindSet, Values: []string{"P", "C"}},
		field.Spec{Name: "reagent_lot", Kind: field.KindText},
		field.Spec{Name: "reagent_serial", Kind: field.KindText},
		field.Spec{Name: "control_lot", Kind: field.KindText},
		field.Spec{Name: "result_type", Kind: field.KindSet, Values: []string{"F", "P", "I"}},
	)
	setField(s, "test", field.Spec{Name: "test", Kind: field.KindComponent, Schema: resultTest})
	setField(s, "abnormal_flag", field.Spec{Name: "abnormal_flag", Kind: field.KindRepeatedComponent,
		Schema: field.NewSchema("", field.Spec{Name: "flag", Kind: field.KindText})})
	setField(s, "status", field.Spec{Name: "status", Kind: field.KindSet, Values: []string{"F", "R"}})
	setField(s, "operator", field.Spec{Name: "operator", Kind: field.KindComponent, Schema: abbottOperatorComponent})
	return s
}

func abbottArchitectMapping() Mapping {
	return Mapping{
		"H": abbottArchitectHeaderSchema(),
		"P": abbottArchitectPatientSchema(),
		"O": abbottArchitectOrderSchema(),
		"R": abbottArchitectResultSchema(),
		"C": abbottArchitectCommentSchema(),
		"Q": DefaultRequestInformationSchema,
		"M": DefaultManufacturerInfoSchema,
		"L": DefaultTerminatorSchema,
	}
}

func abbottArchitectMetadata(w *Wrapper) map[string]any {
	return map[string]any{
		"version":   abbottArchitectVersion,
		"header_rx": abbottArchitectHeaderRX.String(),
	}
}

// AbbottArchitectEntry returns the registry entry for the Abbott
// Architect family of chemistry/immunoassay analyzers.
func AbbottArchitectEntry() Entry {
	return Entry{
		Name:     "abbott_architect",
		HeaderRX: abbottArchitectHeaderRX,
		Mapping:  abbottArchitectMapping(),
		Metadata: abbottArchitectMetadata,
	}
}

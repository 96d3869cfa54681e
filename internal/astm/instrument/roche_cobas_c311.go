package instrument

import (
	"regexp"

	"github.com/senaite/astm-go/internal/astm/field"
)

// Roche Cobas c311 chemistry analyzer, grounded on
// original_source/src/senaite/astm/instruments/roche_cobas_c311.py.
const rocheCobasC311Version = "1.0.0"

var rocheCobasC311HeaderRX = regexp.MustCompile(`.*c311\^`)

var (
	rocheSenderComponent = field.NewSchema("",
		field.Spec{Name: "name", Kind: field.KindText, Default: "c311"},
		field.Spec{Name: "version", Kind: field.KindText},
	)

	rocheMessageComponent = field.NewSchema("",
		field.Spec{Name: "meaning_of_message", Kind: field.KindSet,
			Values: []string{"TSREQ", "TSDWN", "RSUPL", "PCUPL", "ICUPL", "ABUPL", "RSREQ"}},
		field.Spec{Name: "mode_of_message", Kind: field.KindSet, Values: []string{"REAL", "BATCH", "REPLY"}},
	)

	rocheSampleIDComponent = field.NewSchema("",
		field.Spec{Name: "sample_total_counter", Kind: field.KindText},
		field.Spec{Name: "sample_id", Kind: field.KindText},
		field.Spec{Name: "sample_count", Kind: field.KindText},
		field.Spec{Name: "_", Kind: field.KindNotUsed},
		field.Spec{Name: "sample_daily_counter", Kind: field.KindText},
	)

	rocheOrderInstrumentComponent = field.NewSchema("",
		field.Spec{Name: "sequence_number", Kind: field.KindText},
		field.Spec{Name: "rack_id", Kind: field.KindText},
		field.Spec{Name: "position_number", Kind: field.KindText},
		field.Spec{Name: "sample_type", Kind: field.KindSet, Values: []string{"S1", "S2", "S3", "S4", "S5", "S0", "QC"}},
		field.Spec{Name: "container_type", Kind: field.KindSet, Values: []string{"SC", "MC"}},
	)

	rocheOrderTestComponent = field.NewSchema("",
		field.Spec{Name: "_", Kind: field.KindNotUsed},
		field.Spec{Name: "__", Kind: field.KindNotUsed},
		field.Spec{Name: "___", Kind: field.KindNotUsed},
		field.Spec{Name: "application_code", Kind: field.KindText},
		field.Spec{Name: "dilution", Kind: field.KindText},
	)
)

func rocheCobasC311HeaderSchema() *field.Schema {
	s := copySchema(DefaultHeaderSchema)
	setField(s, "sender", field.Spec{Name: "sender", Kind: field.KindComponent, Schema: rocheSenderComponent})
	s.Fields = append(s.Fields, field.Spec{Name: "comments", Kind: field.KindComponent, Schema: rocheMessageComponent})
	setField(s, "processing_id", field.Spec{Name: "processing_id", Kind: field.KindConstant, Default: "P", Required: true})
	setField(s, "receiver", field.Spec{Name: "receiver", Kind: field.KindText})
	setField(s, "version", field.Spec{Name: "version", Kind: field.KindText})
	return s
}

func rocheCobasC311PatientSchema() *field.Schema {
	s := copySchema(DefaultPatientSchema)
	setField(s, "sex", field.Spec{Name: "sex", Kind: field.KindText})
	s.Fields = append(s.Fields, field.Spec{Name: "special_1", Kind: field.KindComponent, Schema: field.NewSchema("",
		field.Spec{Name: "age", Kind: field.KindText},
		field.Spec{Name: "unit", Kind: field.KindText},
	)})
	return s
}

func rocheCobasC311OrderSchema() *field.Schema {
	s := copySchema(DefaultOrderSchema)
	setField(s, "sample_id", field.Spec{Name: "sample_id", Kind: field.KindComponent, Schema: rocheSampleIDComponent})
	setField(s, "instrument", field.Spec{Name: "instrument", Kind: field.KindComponent, Schema: rocheOrderInstrumentComponent})
	setField(s, "test", field.Spec{Name: "test", Kind: field.KindRepeatedComponent, Schema: rocheOrderTestComponent})
	setField(s, "priority", field.Spec{Name: "priority", Kind: field.KindSet, Values: []string{"R", "S"}})
	s.Fields = append(s.Fields, field.Spec{Name: "reported_at", Kind: field.KindDateTime})
	setField(s, "action_code", field.Spec{Name: "action_code", Kind: field.KindSet, Values: []string{"N", "Q", "A", "C"}})
	s.Fields = append(s.Fields, field.Spec{Name: "biomaterial", Kind: field.KindText})
	setField(s, "report_type", field.Spec{Name: "report_type", Kind: field.KindText})
	return s
}

func rocheCobasC311ResultSchema() *field.Schema {
	s := copySchema(DefaultResultSchema)
	setField(s, "test", field.Spec{Name: "test", Kind: field.KindComponent, Schema: rocheOrderTestComponent})
	setField(s, "abnormal_flag", field.Spec{Name: "abnormal_flag", Kind: field.KindSet,
		Values: []string{"L", "H", "LL", "HH", "N", "A"}})
	setField(s, "status", field.Spec{Name: "status", Kind: field.KindSet, Values: []string{"F", "C"}})
	setField(s, "completed_at", field.Spec{Name: "started_at", Kind: field.KindDateTime})
	return s
}

func rocheCobasC311Mapping() Mapping {
	return Mapping{
		"H": rocheCobasC311HeaderSchema(),
		"P": rocheCobasC311PatientSchema(),
		"O": rocheCobasC311OrderSchema(),
		"R": rocheCobasC311ResultSchema(),
		"C": DefaultCommentSchema,
		"Q": DefaultRequestInformationSchema,
		"M": DefaultManufacturerInfoSchema,
		"L": DefaultTerminatorSchema,
	}
}

func rocheCobasC311Metadata(w *Wrapper) map[string]any {
	return map[string]any{
		"version":   rocheCobasC311Version,
		"header_rx": rocheCobasC311HeaderRX.String(),
	}
}

// RocheCobasC311Entry returns the registry entry for the Roche Cobas c311
// chemistry analyzer.
func RocheCobasC311Entry() Entry {
	return Entry{
		Name:     "roche_cobas_c311",
		HeaderRX: rocheCobasC311HeaderRX,
		Mapping:  rocheCobasC311Mapping(),
		Metadata: rocheCobasC311Metadata,
	}
}

package instrument

import (
	"encoding/json"
	"testing"

	"github.com/senaite/astm-go/internal/astm/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeMessage(t *testing.T, record string) []byte {
	t.Helper()
	return frame.Encode(1, []byte(record), false)
}

func TestDefaultRegistryMatchesOnHeaderLine(t *testing.T) {
	reg := DefaultRegistry()

	tests := []struct {
		header string
		want   string
	}{
		{"H|\\^&|||ARCHITECT^c8000|||||||P|1|20240102120000", "abbott_architect"},
		{"H|\\^&|||c311^1|||||||P|1|20240102120000", "roche_cobas_c311"},
		{"H|\\^&|||XN-550^1.0|||||||P|1|20240102120000", "sysmex_xn"},
		{"H|\\^&|||DCA VANTAGE^1.0^123|||||||P|1|20240102120000", "dca_vantage"},
		{"H|\\^&|||H500^serial^1.0|||||||P|1|20240102120000", "horiba_yumizen_h5xx"},
	}

	for _, tt := range tests {
		e, ok := reg.Match(tt.header)
		require.True(t, ok, "expected a match for %q", tt.header)
		assert.Equal(t, tt.want, e.Name)
	}
}

func TestDefaultRegistryNoMatchFallsBackToGeneric(t *testing.T) {
	reg := DefaultRegistry()
	_, ok := reg.Match("H|\\^&|||UNKNOWN-DEVICE^1|||||||P|1|20240102120000")
	assert.False(t, ok)
}

func TestWrapUnmatchedMessageUsesDefaultMapping(t *testing.T) {
	msg := encodeMessage(t, "H|\\^&|||UNKNOWN^1|||||||P|1|20240102120000")
	w := Wrap([][]byte{msg}, DefaultRegistry())
	assert.False(t, w.Matched)
	assert.Same(t, DefaultMapping["H"], w.Mapping["H"])

	dict := w.ToDict()
	meta, ok := dict["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "generic", meta["name"])
}

func TestWrapAbbottArchitectHeaderRecord(t *testing.T) {
	msg := encodeMessage(t, "H|\\^&|ARCHITECT^3.01.00^SN123^2||P||20240102120000")
	w := Wrap([][]byte{msg}, DefaultRegistry())
	require.True(t, w.Matched)
	assert.Equal(t, "abbott_architect", w.Entry.Name)

	dict := w.ToDict()
	headers, ok := dict["H"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, headers, 1)

	sender, ok := headers[0]["sender"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ARCHITECT", sender["name"])
	assert.Equal(t, "3.01.00", sender["version"])
	assert.Equal(t, "SN123", sender["serial"])
	assert.Equal(t, "P", headers[0]["processing_id"])

	meta, ok := dict["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, abbottArchitectVersion, meta["version"])
}

func TestWrapOptionalFieldFailureIsOmitted(t *testing.T) {
	// processing_id must be P or Q for Abbott Architect; an out-of-set
	// value fails only that optional field, not the whole header record.
	msg := encodeMessage(t, "H|\\^&|ARCHITECT^3.01.00^SN123^2||Z||20240102120000")
	w := Wrap([][]byte{msg}, DefaultRegistry())
	dict := w.ToDict()
	headers, ok := dict["H"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, headers, 1)
	_, hasProcessingID := headers[0]["processing_id"]
	assert.False(t, hasProcessingID)
}

func TestWrapHoribaNestedComponentSchema(t *testing.T) {
	hdr := encodeMessage(t, "H|\\^&|||H500^1|||||||P|1|20240102120000")
	msg := encodeMessage(t, "R|1|^^^Glucose^GLU^1|5.4|mg/dL|10-20^normal|N|F||20240102120000|")
	w := Wrap([][]byte{hdr, msg}, DefaultRegistry())
	require.True(t, w.Matched)
	assert.Equal(t, "horiba_yumizen_h5xx", w.Entry.Name)

	dict := w.ToDict()
	results, ok := dict["R"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, results, 1)

	test, ok := results[0]["test"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "GLU", test["assay_code"])
	assert.Equal(t, "Glucose", test["result_name"])

	refs, ok := results[0]["references"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "10-20", refs["range"])
	assert.Equal(t, "normal", refs["range_name"])

	meta, ok := dict["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "H5xx", meta["family"])
	assert.Contains(t, meta["record_types"], "R")
}

func TestMetadataValidatorRejectsNonConformingOutput(t *testing.T) {
	badEntry := Entry{
		Name:     "bad",
		HeaderRX: horibaYumizenH5xxHeaderRX,
		Mapping:  DefaultMapping,
		Metadata: func(w *Wrapper) map[string]any {
			return map[string]any{"family": 123} // wrong type, missing record_types
		},
		MetadataSchema: json.RawMessage(horibaYumizenH5xxMetadataSchema),
	}
	reg := NewRegistry(badEntry)

	msg := encodeMessage(t, "H|\\^&|||H500^1|||||||P|1|20240102120000")
	w := Wrap([][]byte{msg}, reg)
	require.True(t, w.Matched)

	dict := w.ToDict()
	meta, ok := dict["metadata"].(map[string]any)
	require.True(t, ok)
	_, hasFamily := meta["family"]
	assert.False(t, hasFamily, "non-conforming metadata should be dropped, not merged")
}

func TestWrapToLIS2AConcatenatesPayloads(t *testing.T) {
	m1 := encodeMessage(t, "H|\\^&|||ARCHITECT^1|||||||P|1|20240102120000")
	m2 := encodeMessage(t, "L|1|N")
	w := Wrap([][]byte{m1, m2}, DefaultRegistry())

	p1, err := frame.Payload(m1)
	require.NoError(t, err)
	p2, err := frame.Payload(m2)
	require.NoError(t, err)

	assert.Equal(t, append(append([]byte{}, p1...), p2...), w.ToLIS2A())
}

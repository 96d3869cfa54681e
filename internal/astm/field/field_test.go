package field

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeText(t *testing.T) {
	v, err := Decode(Spec{Name: "name", Kind: KindText}, "ARCHITECT", true)
	require.NoError(t, err)
	assert.Equal(t, "ARCHITECT", v)
}

func TestDecodeIntegerRejectsNonDigit(t *testing.T) {
	_, err := Decode(Spec{Name: "seq", Kind: KindInteger}, "abc", true)
	assert.Error(t, err)
}

func TestDecodeDecimal(t *testing.T) {
	v, err := Decode(Spec{Name: "value", Kind: KindDecimal}, "12.50", true)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(12.5).Equal(v.(decimal.Decimal)))
}

func TestDecodeDate(t *testing.T) {
	v, err := Decode(Spec{Name: "birthdate", Kind: KindDate}, "19800101", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC), v)
}

func TestDecodeDateTime(t *testing.T) {
	v, err := Decode(Spec{Name: "completed_at", Kind: KindDateTime}, "20230615143000", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 6, 15, 14, 30, 0, 0, time.UTC), v)
}

func TestDecodeSetRejectsOutOfRange(t *testing.T) {
	_, err := Decode(Spec{Name: "sex", Kind: KindSet, Values: []string{"M", "F", "U"}}, "X", true)
	assert.Error(t, err)
}

func TestDecodeConstantIgnoresWireValue(t *testing.T) {
	v, err := Decode(Spec{Name: "type", Kind: KindConstant, Default: "H"}, "X", true)
	require.NoError(t, err)
	assert.Equal(t, "H", v)
}

func TestDecodeNotUsedAlwaysNil(t *testing.T) {
	v, err := Decode(Spec{Name: "reserved", Kind: KindNotUsed}, "anything", true)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDecodeMissingFieldUsesDefault(t *testing.T) {
	v, err := Decode(Spec{Name: "priority", Kind: KindText, Default: "R"}, "", false)
	require.NoError(t, err)
	assert.Equal(t, "R", v)
}

func TestEncodeTextRejectsLengthOverrun(t *testing.T) {
	_, err := Encode(Spec{Name: "id", Kind: KindText, Length: 3}, "ABCD")
	assert.Error(t, err)
}

func TestEncodeTextWithinLength(t *testing.T) {
	s, err := Encode(Spec{Name: "id", Kind: KindText, Length: 4}, "ABCD")
	require.NoError(t, err)
	assert.Equal(t, "ABCD", s)
}

func TestEncodeIntegerAcceptsIntOrDigitString(t *testing.T) {
	s, err := Encode(Spec{Name: "seq", Kind: KindInteger}, 7)
	require.NoError(t, err)
	assert.Equal(t, "7", s)

	s, err = Encode(Spec{Name: "seq", Kind: KindInteger}, "42")
	require.NoError(t, err)
	assert.Equal(t, "42", s)

	_, err = Encode(Spec{Name: "seq", Kind: KindInteger}, "not-a-number")
	assert.Error(t, err)
}

func TestEncodeDecimal(t *testing.T) {
	s, err := Encode(Spec{Name: "value", Kind: KindDecimal}, decimal.NewFromFloat(3.14))
	require.NoError(t, err)
	assert.Equal(t, "3.14", s)
}

func TestEncodeDate(t *testing.T) {
	s, err := Encode(Spec{Name: "birthdate", Kind: KindDate}, time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "19800101", s)
}

func TestEncodeTime(t *testing.T) {
	s, err := Encode(Spec{Name: "collected_at", Kind: KindTime}, time.Date(0, 1, 1, 14, 30, 5, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "143005", s)
}

func TestEncodeConstantRejectsMismatch(t *testing.T) {
	_, err := Encode(Spec{Name: "type", Kind: KindConstant, Default: "H"}, "P")
	assert.Error(t, err)

	s, err := Encode(Spec{Name: "type", Kind: KindConstant, Default: "H"}, "H")
	require.NoError(t, err)
	assert.Equal(t, "H", s)
}

func TestEncodeReadOnlyAndNotUsedAreDropped(t *testing.T) {
	s, err := Encode(Spec{Name: "computed", Kind: KindReadOnly}, "whatever")
	require.NoError(t, err)
	assert.Empty(t, s)

	s, err = Encode(Spec{Name: "reserved", Kind: KindNotUsed}, "whatever")
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestEncodeSetRejectsOutOfRange(t *testing.T) {
	_, err := Encode(Spec{Name: "sex", Kind: KindSet, Values: []string{"M", "F", "U"}}, "X")
	assert.Error(t, err)
}

func TestRepeatedComponentMutation(t *testing.T) {
	r := NewRepeatedComponent(Component{"foo", "1"}, Component{"bar", "2"})
	assert.Equal(t, 2, r.Len())

	r.Append(Component{"baz", "3"})
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, Component{"baz", "3"}, r.At(2))

	assert.Equal(t, 1, r.Index(Component{"bar", "2"}))
	assert.Equal(t, -1, r.Index(Component{"missing", "0"}))

	r.Insert(1, Component{"qux", "9"})
	assert.Equal(t, Component{"qux", "9"}, r.At(1))
	assert.Equal(t, 4, r.Len())

	r.Remove(0)
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, Component{"qux", "9"}, r.At(0))
}

package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestChecksum(t *testing.T) {
	assert.Equal(t, "00", Checksum(nil))
	assert.Equal(t, "41", Checksum([]byte{0x41}))
	assert.True(t, VerifyChecksum([]byte{0x41}, []byte("41")))
	assert.False(t, VerifyChecksum([]byte{0x41}, []byte("42")))
}

func TestChecksumCaseInsensitive(t *testing.T) {
	payload := []byte("1foo|bar" + string(rune(CR)) + string(rune(ETX)))
	cs := Checksum(payload)
	lower := []byte{toLower(cs[0]), toLower(cs[1])}
	assert.True(t, VerifyChecksum(payload, lower))
}

func toLower(b byte) byte {
	if b >= 'A' && b <= 'F' {
		return b + ('a' - 'A')
	}
	return b
}

func TestIsChunk(t *testing.T) {
	terminal := Encode(1, []byte("A|B|C|D"), false)
	chunked := Encode(1, []byte("foo|1"), true)

	assert.False(t, IsChunk(terminal))
	assert.True(t, IsChunk(chunked))
	assert.False(t, IsChunk([]byte("abcd")))
}

func TestEncodeParseRoundTrip(t *testing.T) {
	body := []byte("A|B|C|D")
	encoded := Encode(2, body, false)

	f, err := Parse(encoded)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Seq)
	assert.Equal(t, body, f.Body)
	assert.False(t, f.Chunked)
}

func TestSeqWraps(t *testing.T) {
	encoded := Encode(8, []byte("x"), false)
	f, err := Parse(encoded)
	require.NoError(t, err)
	assert.Equal(t, 0, f.Seq)

	encoded = Encode(15, []byte("x"), false)
	f, err = Parse(encoded)
	require.NoError(t, err)
	assert.Equal(t, 7, f.Seq)
}

func TestParseEmptyRecordFrame(t *testing.T) {
	// STX 1 CR ETX cs CR LF decodes to an empty body.
	encoded := Encode(1, nil, false)
	f, err := Parse(encoded)
	require.NoError(t, err)
	assert.Empty(t, f.Body)
}

func TestParseChecksumMismatch(t *testing.T) {
	encoded := Encode(1, []byte("A|B|C|D"), false)
	// Corrupt the checksum bytes.
	encoded[len(encoded)-4] = '0'
	encoded[len(encoded)-3] = '0'
	_, err := Parse(encoded)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestParseMissingSTX(t *testing.T) {
	_, err := Parse([]byte("not-a-frame"))
	assert.ErrorIs(t, err, ErrMissingSTX)
}

func TestSplitRejectsTooSmallSize(t *testing.T) {
	_, err := Split([]byte("hello"), 6, 1)
	assert.ErrorIs(t, err, ErrSplitSizeTooSmall)
}

func TestJoinSplitRoundTrip(t *testing.T) {
	body := []byte("foo|1bar|24baz|1^2^3|boo and some more filler text to force a chunk split")
	chunks, err := Split(body, 14, 1)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	joined, err := Join(chunks)
	require.NoError(t, err)

	f, err := Parse(joined)
	require.NoError(t, err)
	assert.Equal(t, body, f.Body)
	assert.False(t, f.Chunked)
}

// TestJoinSplitRoundTripProperty checks join(split(M, size)) == M for
// arbitrary bodies and chunk sizes, the round-trip law from spec §8.
func TestJoinSplitRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		body := rapid.SliceOf(rapid.Byte()).Draw(t, "body")
		size := rapid.IntRange(7, 64).Draw(t, "size")

		chunks, err := Split(body, size, 1)
		require.NoError(t, err)

		joined, err := Join(chunks)
		require.NoError(t, err)

		f, err := Parse(joined)
		require.NoError(t, err)
		assert.Equal(t, body, f.Body)
	})
}

func TestChecksumProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload := rapid.SliceOf(rapid.Byte()).Draw(t, "payload")
		cs := Checksum(payload)
		assert.True(t, VerifyChecksum(payload, []byte(cs)))
	})
}

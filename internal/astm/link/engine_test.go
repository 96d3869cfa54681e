package link

import (
	"testing"

	"github.com/senaite/astm-go/internal/astm/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqEntersTransferAndAcks(t *testing.T) {
	e := New()
	res := e.HandleBytes([]byte{frame.ENQ})
	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.Equal(t, []byte{frame.ACK}, res.Reply)
	assert.Equal(t, StateTransfer, e.State())
}

func TestSecondEnqWhileInTransferIsRejected(t *testing.T) {
	e := New()
	e.HandleBytes([]byte{frame.ENQ})
	res := e.HandleBytes([]byte{frame.ENQ})
	assert.Equal(t, OutcomeReject, res.Outcome)
	assert.Equal(t, []byte{frame.NAK}, res.Reply)
	assert.Error(t, res.Err)
}

func TestStrayAckAndNakAreRejectedWithoutReply(t *testing.T) {
	e := New()
	res := e.HandleBytes([]byte{frame.ACK})
	assert.Equal(t, OutcomeReject, res.Outcome)
	assert.Nil(t, res.Reply)

	res = e.HandleBytes([]byte{frame.NAK})
	assert.Equal(t, OutcomeReject, res.Outcome)
	assert.Nil(t, res.Reply)
}

func TestMessageOutsideTransferIsNaked(t *testing.T) {
	e := New()
	msg := frame.Encode(1, []byte("H|1"), false)
	res := e.HandleBytes(msg)
	assert.Equal(t, OutcomeReject, res.Outcome)
	assert.Equal(t, []byte{frame.NAK}, res.Reply)
}

func TestEotOutsideTransferIsFatal(t *testing.T) {
	e := New()
	res := e.HandleBytes([]byte{frame.EOT})
	assert.Equal(t, OutcomeFatal, res.Outcome)
	assert.Error(t, res.Err)
	assert.Equal(t, StateIdle, e.State())
}

func TestEmptyEotAfterEnqIsSilentByDefault(t *testing.T) {
	e := New()
	e.HandleBytes([]byte{frame.ENQ})
	res := e.HandleBytes([]byte{frame.EOT})
	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.Nil(t, res.Flush)
	assert.Equal(t, StateIdle, e.State())
}

func TestEmptyEotRejectedWhenPolicySet(t *testing.T) {
	e := New(WithEmptyEOTPolicy(EmptyEOTReject))
	e.HandleBytes([]byte{frame.ENQ})
	res := e.HandleBytes([]byte{frame.EOT})
	assert.Equal(t, OutcomeReject, res.Outcome)
}

func TestSingleMessageTransferFlushesOnEot(t *testing.T) {
	e := New()
	require.Equal(t, OutcomeOK, e.HandleBytes([]byte{frame.ENQ}).Outcome)

	msg := frame.Encode(1, []byte("H|\\^&|1"), false)
	res := e.HandleBytes(msg)
	require.Equal(t, OutcomeOK, res.Outcome)
	require.Equal(t, []byte{frame.ACK}, res.Reply)

	res = e.HandleBytes([]byte{frame.EOT})
	require.Equal(t, OutcomeOK, res.Outcome)
	require.NotNil(t, res.Flush)
	assert.Equal(t, [][]byte{msg}, res.Flush.Messages)

	payload, err := frame.Payload(msg)
	require.NoError(t, err)
	assert.Equal(t, payload, res.Flush.LIS2A)
	assert.Equal(t, msg, res.Flush.ASTM)
	assert.Equal(t, StateIdle, e.State())
}

func TestChunkedMessageJoinsBeforeFlush(t *testing.T) {
	e := New()
	e.HandleBytes([]byte{frame.ENQ})

	body := []byte("H|\\^&|1|this is a long enough body to force a chunk split across frames")
	chunks, err := frame.Split(body, 14, 1)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		res := e.HandleBytes(c)
		require.Equal(t, OutcomeOK, res.Outcome)
		require.Equal(t, []byte{frame.ACK}, res.Reply)
	}

	res := e.HandleBytes([]byte{frame.EOT})
	require.Equal(t, OutcomeOK, res.Outcome)
	require.NotNil(t, res.Flush)
	require.Len(t, res.Flush.Messages, 1)

	f, err := frame.Parse(res.Flush.Messages[0])
	require.NoError(t, err)
	assert.Equal(t, body, f.Body)
}

func TestBadChecksumIsRejectedButSessionSurvives(t *testing.T) {
	e := New()
	e.HandleBytes([]byte{frame.ENQ})

	msg := frame.Encode(1, []byte("H|1"), false)
	msg[len(msg)-4] = '0'
	msg[len(msg)-3] = '0'

	res := e.HandleBytes(msg)
	assert.Equal(t, OutcomeReject, res.Outcome)
	assert.Equal(t, []byte{frame.NAK}, res.Reply)
	assert.Equal(t, StateTransfer, e.State())
}

func TestMultipleMessagesInOneTransfer(t *testing.T) {
	e := New()
	e.HandleBytes([]byte{frame.ENQ})

	m1 := frame.Encode(1, []byte("H|\\^&|1"), false)
	m2 := frame.Encode(2, []byte("L|1|N"), false)
	require.Equal(t, OutcomeOK, e.HandleBytes(m1).Outcome)
	require.Equal(t, OutcomeOK, e.HandleBytes(m2).Outcome)

	res := e.HandleBytes([]byte{frame.EOT})
	require.NotNil(t, res.Flush)
	assert.Equal(t, [][]byte{m1, m2}, res.Flush.Messages)

	p1, _ := frame.Payload(m1)
	p2, _ := frame.Payload(m2)
	assert.Equal(t, append(append([]byte{}, p1...), p2...), res.Flush.LIS2A)
}

func TestTimeoutResetsSession(t *testing.T) {
	e := New()
	e.HandleBytes([]byte{frame.ENQ})
	e.HandleBytes(frame.Encode(1, []byte("H|1"), false))

	e.Timeout()
	assert.Equal(t, StateIdle, e.State())

	// After a reset, a stray EOT is fatal again rather than reusing stale
	// accumulated messages.
	res := e.HandleBytes([]byte{frame.EOT})
	assert.Equal(t, OutcomeFatal, res.Outcome)
}

package message

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := Now
	Now = func() time.Time { return at }
	t.Cleanup(func() { Now = prev })
}

func TestConstructors_StampTypeActionAndTime(t *testing.T) {
	req := require.New(t)
	at := time.Date(2024, 3, 1, 12, 30, 15, 500_000_000, time.UTC)
	fixedClock(t, at)

	m := Authenticate("alice", "secret")
	req.Equal(TypeAuthenticate, m.Type)
	req.Equal("authenticate", m.Action)
	req.Equal("alice", m.Login)
	req.Equal("secret", m.Password)
	req.InDelta(Timestamp(at), m.Time, 1e-6)
	req.WithinDuration(at, m.Timestamp(), time.Millisecond)

	chat := ChatMessage("alice", "#general", "hi all")
	req.Equal(TypeChat, chat.Type)
	req.Equal("msg", chat.Action)
	req.Equal("#general", chat.To)
}

func TestSerialize_UsesWireFieldNames(t *testing.T) {
	req := require.New(t)
	fixedClock(t, time.Unix(1700000000, 0))

	data, err := JoinRoom("alice", "#general").Serialize()
	req.NoError(err)

	var wire map[string]any
	req.NoError(json.Unmarshal(data, &wire))
	req.Equal("join", wire["type"])
	req.Equal("join", wire["action"])
	req.Equal("alice", wire["login"])
	req.Equal("#general", wire["room"])
	req.Equal(float64(1700000000), wire["time"])
	req.NotContains(wire, "password")
	req.NotContains(wire, "quantity")
}

func TestDecode_KeepsZeroQuantity(t *testing.T) {
	req := require.New(t)

	m, err := Decode([]byte(`{"type":"quantity","time":1.5,"quantity":0}`))
	req.NoError(err)
	n, ok := m.Count()
	req.True(ok)
	req.Equal(0, n)

	m, err = Decode([]byte(`{"type":"alert","response":200,"alert":"OK"}`))
	req.NoError(err)
	_, ok = m.Count()
	req.False(ok)
	req.Equal(OK, m.Response)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode([]byte(`{"type":`))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestCode_Classification(t *testing.T) {
	tests := []struct {
		code    Code
		success bool
		failure bool
	}{
		{BasicNotice, true, false},
		{OK, true, false},
		{Accepted, true, false},
		{Unauthorized, false, true},
		{InternalServerError, false, true},
		{Code(302), false, false},
		{Code(0), false, false},
		{Code(2000), false, false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.success, tt.code.IsSuccess(), "code %d", tt.code)
		require.Equal(t, tt.failure, tt.code.IsFailure(), "code %d", tt.code)
	}
}

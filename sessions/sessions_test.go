package sessions_test

import (
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	fleeterrors "github.com/jrsteele09/go-wa-fleet/internal/errors"
	"github.com/jrsteele09/go-wa-fleet/sessions"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain digits", raw: "6281234567890", want: "6281234567890"},
		{name: "formatted", raw: "+62 (812) 3456-7890", want: "6281234567890"},
		{name: "ten digits", raw: "1234567890", want: "1234567890"},
		{name: "fifteen digits", raw: "123456789012345", want: "123456789012345"},
		{name: "too short", raw: "123456789", wantErr: true},
		{name: "too long", raw: "1234567890123456", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sessions.NormalizePhone(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, fleeterrors.ErrInvalidPhone)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestStateText(t *testing.T) {
	require.Equal(t, "AWAITING_PAIRING", sessions.StateAwaitingPairing.String())
	require.Equal(t, "State(42)", sessions.State(42).String())

	b, err := json.Marshal(map[string]sessions.State{"state": sessions.StateReconnecting})
	require.NoError(t, err)
	require.JSONEq(t, `{"state":"RECONNECTING"}`, string(b))

	var st sessions.State
	require.NoError(t, st.UnmarshalText([]byte("OPEN")))
	require.Equal(t, sessions.StateOpen, st)
	require.Error(t, st.UnmarshalText([]byte("HALF_OPEN")))
}

func TestAttemptRecords(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := sessions.NewAttemptRecords(time.Minute, func() time.Time { return now })

	_, ok := a.Get("p1")
	require.False(t, ok)

	require.Equal(t, 1, a.Increment("p1").Count)
	require.Equal(t, 2, a.Increment("p1").Count)

	rec, ok := a.Get("p1")
	require.True(t, ok)
	require.Equal(t, 2, rec.Count)
	require.Equal(t, now, rec.LastAttempt)

	a.Clear("p1")
	require.Equal(t, 0, a.Len())
}

func TestPairingRequestsTake(t *testing.T) {
	p := sessions.NewPairingRequests(time.Minute)
	p.Put(sessions.PairingRequest{Phone: "p1", Destination: "op"})

	req, ok := p.Take("p1")
	require.True(t, ok)
	require.Equal(t, "op", req.Destination)

	_, ok = p.Take("p1")
	require.False(t, ok)
}

func TestTimerScheduler(t *testing.T) {
	t.Run("runs once per key", func(t *testing.T) {
		s := sessions.NewTimerScheduler()
		var runs atomic.Int32

		require.True(t, s.Schedule("k", 5*time.Millisecond, func() { runs.Add(1) }))
		require.False(t, s.Schedule("k", 5*time.Millisecond, func() { runs.Add(1) }))
		require.True(t, s.Pending("k"))

		require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)
		require.False(t, s.Pending("k"))

		require.True(t, s.Schedule("k", time.Millisecond, func() { runs.Add(1) }))
		require.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, time.Millisecond)
	})

	t.Run("cancel prevents run", func(t *testing.T) {
		s := sessions.NewTimerScheduler()
		var runs atomic.Int32

		require.True(t, s.Schedule("k", 20*time.Millisecond, func() { runs.Add(1) }))
		require.True(t, s.Cancel("k"))
		require.False(t, s.Cancel("k"))
		require.False(t, s.Pending("k"))

		time.Sleep(50 * time.Millisecond)
		require.Equal(t, int32(0), runs.Load())
	})

	t.Run("keys are independent", func(t *testing.T) {
		s := sessions.NewTimerScheduler()
		require.True(t, s.Schedule("a", time.Hour, func() {}))
		require.True(t, s.Schedule("b", time.Hour, func() {}))
		require.True(t, s.Cancel("a"))
		require.True(t, s.Pending("b"))
		require.True(t, s.Cancel("b"))
	})
}

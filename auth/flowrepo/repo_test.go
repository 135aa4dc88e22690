package flowrepo_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-wa-fleet/auth/flowrepo"
	fleeterrors "github.com/jrsteele09/go-wa-fleet/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestTakeIsSingleUse(t *testing.T) {
	r := flowrepo.NewInMemoryRepo(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.Upsert("s1", &flowrepo.FlowState{CodeVerifier: "v", Nonce: "n", CreatedAt: now}))

	flow, err := r.Take("s1")
	require.NoError(t, err)
	require.Equal(t, "v", flow.CodeVerifier)
	require.Equal(t, "n", flow.Nonce)

	_, err = r.Take("s1")
	require.ErrorIs(t, err, fleeterrors.ErrNotFound)
}

func TestUpsertValidates(t *testing.T) {
	r := flowrepo.NewInMemoryRepo(0)
	require.Equal(t, 10*time.Minute, r.TTL())
	require.ErrorIs(t, r.Upsert("", &flowrepo.FlowState{}), fleeterrors.ErrInvalidInput)
	require.ErrorIs(t, r.Upsert("s", nil), fleeterrors.ErrInvalidInput)
	_, err := r.Take("")
	require.ErrorIs(t, err, fleeterrors.ErrInvalidInput)
}

func TestSweep(t *testing.T) {
	r := flowrepo.NewInMemoryRepo(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.Upsert("old", &flowrepo.FlowState{CreatedAt: now.Add(-2 * time.Minute)}))
	require.NoError(t, r.Upsert("fresh", &flowrepo.FlowState{CreatedAt: now}))

	require.Equal(t, 1, r.Sweep(now))
	require.Equal(t, 1, r.Len())
	_, err := r.Take("fresh")
	require.NoError(t, err)
}

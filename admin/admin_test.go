package admin_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-wa-fleet/admin"
	chatfake "github.com/jrsteele09/go-wa-fleet/chatstore/repofake"
	credsfake "github.com/jrsteele09/go-wa-fleet/credentials/repofake"
	fleeterrors "github.com/jrsteele09/go-wa-fleet/internal/errors"
	"github.com/jrsteele09/go-wa-fleet/operators"
	operatorfakes "github.com/jrsteele09/go-wa-fleet/operators/repofake"
	"github.com/jrsteele09/go-wa-fleet/sessions"
	"github.com/jrsteele09/go-wa-fleet/transport/faketransport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	phoneA   = "6281111111111"
	phoneB   = "6282222222222"
	password = "Passw0rdOK"
)

type codeNotifier struct {
	mu    sync.Mutex
	codes map[string]string
}

func (n *codeNotifier) DeliverPairingCode(_ context.Context, destination, _, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes[destination] = code
	return nil
}

func (n *codeNotifier) Code(destination string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[destination]
}

type testFixture struct {
	client    *faketransport.Client
	creds     *credsfake.FakeStore
	stores    *chatfake.FakeProvider
	notifier  *codeNotifier
	registry  *sessions.Registry
	operators *operators.Service
	service   *admin.Service
	owner     *operators.Operator
	free      *operators.Operator
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		client:   faketransport.NewClient(faketransport.WithAutoConnect()),
		creds:    credsfake.NewFakeStore(),
		stores:   chatfake.NewFakeProvider(),
		notifier: &codeNotifier{codes: make(map[string]string)},
	}

	var err error
	f.registry, err = sessions.NewRegistry(f.client, f.creds,
		sessions.WithPairingNotifier(f.notifier),
		sessions.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { f.registry.Shutdown(context.Background()) })

	f.operators, err = operators.NewService(operatorfakes.NewFakeOperatorRepo(), operators.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	f.owner, err = f.operators.Bootstrap("owner", password, "")
	require.NoError(t, err)
	f.free, err = f.operators.Create("freddie", password, operators.RoleFree)
	require.NoError(t, err)

	f.service, err = admin.New(f.registry, f.operators, f.stores, admin.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return f
}

// fresh reloads an operator so ownership changes are visible.
func (f *testFixture) fresh(t *testing.T, op *operators.Operator) *operators.Operator {
	t.Helper()
	got, err := f.operators.Get(op.ID)
	require.NoError(t, err)
	return got
}

func TestNewRequiresDependencies(t *testing.T) {
	f := setupTestFixture(t)
	_, err := admin.New(nil, f.operators, f.stores)
	require.ErrorIs(t, err, fleeterrors.ErrInvalidInput)
	_, err = admin.New(f.registry, nil, f.stores)
	require.ErrorIs(t, err, fleeterrors.ErrInvalidInput)
	_, err = admin.New(f.registry, f.operators, nil)
	require.ErrorIs(t, err, fleeterrors.ErrInvalidInput)
}

func TestAddBotDeliversCodeToOperator(t *testing.T) {
	f := setupTestFixture(t)

	st, err := f.service.AddBot(context.Background(), f.free, "+62 811-1111-1111")
	require.NoError(t, err)
	require.Equal(t, phoneA, st.Phone)
	require.Equal(t, "11111111", f.notifier.Code(f.free.ID))
	require.True(t, f.fresh(t, f.free).OwnsBot(phoneA))

	require.Eventually(t, func() bool {
		s, ok := f.registry.Get(phoneA)
		return ok && s.State() == sessions.StateOpen
	}, 2*time.Second, time.Millisecond)
}

func TestAddBotEnforcesRoleLimit(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.AddBot(context.Background(), f.free, phoneA)
	require.NoError(t, err)

	_, err = f.service.AddBot(context.Background(), f.fresh(t, f.free), phoneB)
	require.ErrorIs(t, err, fleeterrors.ErrBotLimitReached)
	_, ok := f.registry.Get(phoneB)
	require.False(t, ok)
}

func TestAddBotRejectsDuplicatesAndForeignBots(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.AddBot(context.Background(), f.owner, phoneA)
	require.NoError(t, err)

	_, err = f.service.AddBot(context.Background(), f.free, phoneA)
	require.ErrorIs(t, err, fleeterrors.ErrSessionExists)

	_, err = f.service.AddBot(context.Background(), f.free, "123")
	require.ErrorIs(t, err, fleeterrors.ErrInvalidPhone)
}

func TestAddBotReleasesOnFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.client = faketransport.NewClient(faketransport.WithConnectError(func(string) error {
		return fleeterrors.ErrInternal
	}))
	registry, err := sessions.NewRegistry(f.client, f.creds, sessions.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	svc, err := admin.New(registry, f.operators, f.stores, admin.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	_, err = svc.AddBot(context.Background(), f.free, phoneA)
	require.Error(t, err)
	require.False(t, f.fresh(t, f.free).OwnsBot(phoneA))
}

func TestListBots(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.AddBot(context.Background(), f.free, phoneA)
	require.NoError(t, err)
	_, err = f.service.AddBot(context.Background(), f.owner, phoneB)
	require.NoError(t, err)

	bots, err := f.service.ListBots(f.fresh(t, f.free))
	require.NoError(t, err)
	require.Len(t, bots, 1)
	require.Equal(t, phoneA, bots[0].Phone)
	require.Empty(t, bots[0].Owners)

	bots, err = f.service.ListBots(f.fresh(t, f.owner))
	require.NoError(t, err)
	require.Len(t, bots, 2)
	require.Equal(t, []string{"freddie"}, bots[0].Owners)
	require.Equal(t, []string{"owner"}, bots[1].Owners)
}

func TestListBotsShowsOfflineOwnedBots(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.operators.ReserveBot(f.free.ID, phoneA))

	bots, err := f.service.ListBots(f.fresh(t, f.free))
	require.NoError(t, err)
	require.Len(t, bots, 1)
	require.False(t, bots[0].Online)
	require.Nil(t, bots[0].Status)
}

func TestDeleteBot(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.service.AddBot(context.Background(), f.free, phoneA)
	require.NoError(t, err)

	t.Run("other operators are forbidden", func(t *testing.T) {
		other, err := f.operators.Create("other", password, operators.RoleVIP)
		require.NoError(t, err)
		err = f.service.DeleteBot(context.Background(), other, phoneA)
		require.ErrorIs(t, err, fleeterrors.ErrForbidden)
	})

	t.Run("owner deletes everything", func(t *testing.T) {
		require.NoError(t, f.service.DeleteBot(context.Background(), f.fresh(t, f.free), phoneA))

		_, ok := f.registry.Get(phoneA)
		require.False(t, ok)
		require.False(t, f.creds.Has(phoneA))
		require.Equal(t, []string{phoneA}, f.stores.Deleted())
		require.False(t, f.fresh(t, f.free).OwnsBot(phoneA))
	})

	t.Run("unknown bot", func(t *testing.T) {
		err := f.service.DeleteBot(context.Background(), f.owner, phoneA)
		require.ErrorIs(t, err, fleeterrors.ErrSessionNotFound)
	})
}

func TestRestartBot(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.service.AddBot(context.Background(), f.owner, phoneA)
	require.NoError(t, err)
	before, ok := f.registry.Get(phoneA)
	require.True(t, ok)

	st, err := f.service.RestartBot(context.Background(), f.fresh(t, f.owner), phoneA)
	require.NoError(t, err)
	require.NotEqual(t, before.ID(), st.ID)

	_, err = f.service.RestartBot(context.Background(), f.free, phoneA)
	require.ErrorIs(t, err, fleeterrors.ErrForbidden)

	_, err = f.service.RestartBot(context.Background(), f.owner, phoneB)
	require.ErrorIs(t, err, fleeterrors.ErrSessionNotFound)
}

func TestRestartBotStartsOfflineOwnedBot(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.operators.ReserveBot(f.free.ID, phoneA))

	st, err := f.service.RestartBot(context.Background(), f.fresh(t, f.free), phoneA)
	require.NoError(t, err)
	require.Equal(t, phoneA, st.Phone)
	require.Equal(t, "11111111", f.notifier.Code(f.free.ID))
}

func TestOperatorManagement(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.ListOperators(f.free)
	require.ErrorIs(t, err, fleeterrors.ErrForbidden)

	ops, err := f.service.ListOperators(f.owner)
	require.NoError(t, err)
	require.Len(t, ops, 2)

	updated, err := f.service.SetRole(f.owner, f.free.ID, operators.RolePremium)
	require.NoError(t, err)
	require.Equal(t, operators.RolePremium, updated.Role)

	_, err = f.service.SetRole(f.free, f.owner.ID, operators.RoleFree)
	require.ErrorIs(t, err, fleeterrors.ErrForbidden)
}

package filestore_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-wa-fleet/credentials"
	"github.com/jrsteele09/go-wa-fleet/credentials/filestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveLoadDelete(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := filestore.NewStore(root)
	ctx := context.Background()

	creds := &credentials.Credentials{
		Phone:      "6281234567890",
		Registered: true,
		Data:       []byte{0x01, 0x02, 0x03},
		UpdatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, creds))

	info, err := os.Stat(filepath.Join(root, "6281234567890", "creds.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := store.Load(ctx, "6281234567890")
	require.NoError(t, err)
	assert.Equal(t, creds.Data, loaded.Data)
	assert.True(t, loaded.Registered)
	assert.True(t, creds.UpdatedAt.Equal(loaded.UpdatedAt))

	phones, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"6281234567890"}, phones)

	require.NoError(t, store.Delete(ctx, "6281234567890"))
	_, err = store.Load(ctx, "6281234567890")
	require.ErrorIs(t, err, credentials.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "6281234567890"))
}

func TestStoreRejectsInvalidKeys(t *testing.T) {
	t.Parallel()

	store := filestore.NewStore(t.TempDir())
	ctx := context.Background()

	for _, phone := range []string{"", " ", "..", "../escape", "/abs", "a/b"} {
		_, err := store.Load(ctx, phone)
		require.ErrorIs(t, err, credentials.ErrInvalidPhone, phone)
		require.ErrorIs(t, store.Delete(ctx, phone), credentials.ErrInvalidPhone, phone)
	}
}

func TestStoreListMissingRoot(t *testing.T) {
	t.Parallel()

	store := filestore.NewStore(filepath.Join(t.TempDir(), "missing"))
	phones, err := store.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, phones)
}

func TestStoreConcurrentSavesDifferentPhones(t *testing.T) {
	t.Parallel()

	store := filestore.NewStore(t.TempDir())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			phone := fmt.Sprintf("62812345678%02d", i)
			for j := 0; j < 10; j++ {
				assert.NoError(t, store.Save(ctx, &credentials.Credentials{Phone: phone, Data: []byte{byte(j)}}))
			}
		}(i)
	}
	wg.Wait()

	phones, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, phones, 8)

	for _, phone := range phones {
		loaded, err := store.Load(ctx, phone)
		require.NoError(t, err)
		require.Equal(t, []byte{9}, loaded.Data)
	}
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	store := filestore.NewStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, store.Save(ctx, &credentials.Credentials{Phone: "6281234567890"}), context.Canceled)
	_, err := store.Load(ctx, "6281234567890")
	require.ErrorIs(t, err, context.Canceled)
}

package transient

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/require"
)

func newTestFirestoreStore(t *testing.T) *FirestoreStore {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST is not set")
	}
	fsClient, err := firestore.NewClient(context.Background(), "codewing-updater")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = fsClient.Close()
	})
	return NewFirestoreStore(fsClient)
}

func TestFirestoreStore(t *testing.T) {
	ctx := context.Background()
	s := newTestFirestoreStore(t)

	require.NoError(t, s.Delete(ctx, "codewing_custom_upd"))
	_, ok, err := s.Get(ctx, "codewing_custom_upd")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, "codewing_custom_upd", []byte(`{"version":"1.2"}`), time.Hour))
	got, ok, err := s.Get(ctx, "codewing_custom_upd")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"version":"1.2"}`, string(got))

	require.NoError(t, s.Delete(ctx, "codewing_custom_upd"))
	_, ok, err = s.Get(ctx, "codewing_custom_upd")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFirestoreStoreExpiration(t *testing.T) {
	ctx := context.Background()
	s := newTestFirestoreStore(t)
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "expiring", []byte("v"), time.Hour))
	s.now = func() time.Time { return now.Add(59 * time.Minute) }
	_, ok, err := s.Get(ctx, "expiring")
	require.NoError(t, err)
	require.True(t, ok)

	s.now = func() time.Time { return now.Add(61 * time.Minute) }
	_, ok, err = s.Get(ctx, "expiring")
	require.NoError(t, err)
	require.False(t, ok)
}

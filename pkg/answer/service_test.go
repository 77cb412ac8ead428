package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/paragor/answer-store/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const placeholder = "No data received yet"

type brokenStore struct {
	err error
}

func (b *brokenStore) Get(ctx context.Context, key string) ([]byte, error) { return nil, b.err }
func (b *brokenStore) Set(ctx context.Context, key string, value []byte) error { return b.err }

func newTestService(t *testing.T, store kv.Store) *Service {
	t.Helper()
	return NewService(logr.Discard(), store, placeholder)
}

func TestService_SubmitThenFetch(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, kv.NewMemoryStore())

	require.NoError(t, svc.Submit(ctx, "hello"))

	got, err := svc.FetchLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, StoredValue{Data: "hello"}, got)
}

func TestService_FetchBeforeSubmit(t *testing.T) {
	svc := newTestService(t, kv.NewMemoryStore())

	got, err := svc.FetchLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, placeholder, got.Data)
}

func TestService_SequentialSubmitsOverwrite(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, kv.NewFileStore(t.TempDir()))

	require.NoError(t, svc.Submit(ctx, "a"))
	require.NoError(t, svc.Submit(ctx, "b"))

	got, err := svc.FetchLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Data)
}

func TestService_EmptySubmitLeavesValue(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, kv.NewMemoryStore())
	require.NoError(t, svc.Submit(ctx, "kept"))

	err := svc.Submit(ctx, "")
	assert.ErrorIs(t, err, ErrMissingField)

	got, err := svc.FetchLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Data)
}

func TestService_StorageFailures(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &brokenStore{err: errors.New("disk on fire")})

	_, err := svc.FetchLatest(ctx)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	err = svc.Submit(ctx, "x")
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	err = svc.Init(ctx)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestService_CorruptRecord(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	svc := newTestService(t, store)

	for _, raw := range []string{
		`not json`,
		`{"data": 42}`,
		`{"data": null}`,
		`{"data": "x", "extra": true}`,
		`["data"]`,
	} {
		require.NoError(t, store.Set(ctx, Key, []byte(raw)))
		_, err := svc.FetchLatest(ctx)
		assert.ErrorIs(t, err, ErrStorageUnavailable, raw)
	}
}

func TestService_Init(t *testing.T) {
	ctx := context.Background()

	t.Run("writes placeholder when absent", func(t *testing.T) {
		store := kv.NewMemoryStore()
		require.NoError(t, newTestService(t, store).Init(ctx))

		raw, err := store.Get(ctx, Key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"data":"No data received yet"}`, string(raw))
	})

	t.Run("keeps existing record", func(t *testing.T) {
		store := kv.NewMemoryStore()
		svc := newTestService(t, store)
		require.NoError(t, svc.Submit(ctx, "existing"))

		require.NoError(t, svc.Init(ctx))

		got, err := svc.FetchLatest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "existing", got.Data)
	})
}

func TestDecodeRecord(t *testing.T) {
	got, err := decodeRecord([]byte(`{"data":"héllo \"quoted\""}`))
	require.NoError(t, err)
	assert.Equal(t, `héllo "quoted"`, got.Data)
}

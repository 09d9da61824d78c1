package store

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/keyfort/keyfort/envelope"
	"github.com/keyfort/keyfort/internal/util"
	"github.com/keyfort/keyfort/keeper"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()

	masterKey, _ := util.NewAESKey()
	k, err := keeper.New(masterKey, keeper.WithPath(filepath.Join(dir, "store.key")))
	require.NoError(t, err)

	s, err := Open(filepath.Join(dir, "secrets.db"), k)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
		k.Destroy()
	})
	return s
}

func TestStore_PutGet(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Put("db-password", "hunter2"))

	value, err := s.Get("db-password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", value)

	// Overwrite replaces the value.
	require.NoError(t, s.Put("db-password", "correct horse"))
	value, err = s.Get("db-password")
	require.NoError(t, err)
	assert.Equal(t, "correct horse", value)
}

func TestStore_Get_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListDelete(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Put("alpha", "1"))
	require.NoError(t, s.Put("beta", "2"))

	names, err := s.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, names)

	require.NoError(t, s.Delete("alpha"))
	names, err = s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"beta"}, names)

	require.ErrorIs(t, s.Delete("alpha"), ErrNotFound)
}

func TestStore_ValuesAtRestAreMarkedCiphertext(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Put("api-token", "sk-very-secret"))

	var raw []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw = tx.Bucket(secretsBucket).Get([]byte("api-token"))
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, raw)

	var rec record
	require.NoError(t, json.Unmarshal(raw, &rec))

	assert.True(t, strings.HasPrefix(rec.Value, envelope.CipherMarker), "stored value carries the cipher marker")
	assert.NotContains(t, rec.Value, "sk-very-secret", "plaintext never hits disk")
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
}

package store

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("k", "v1"))
	v, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", v)

	require.NoError(t, s.Set("k", "v2"))
	v, _, _ = s.Get("k")
	assert.Equal(t, "v2", v)

	require.NoError(t, s.Remove("k"))
	_, ok, err = s.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Remove("never-set"))
}

func TestMemoryStorage(t *testing.T) {
	m := NewMemoryStorage()
	exerciseStorage(t, m)
	assert.Equal(t, 0, m.Len())
}

func TestSQLiteStorage(t *testing.T) {
	exerciseStorage(t, openTestDB(t).Namespace("profile"))
}

func TestSQLiteNamespacesAreIsolated(t *testing.T) {
	db := openTestDB(t)
	a := db.Namespace("a")
	b := db.Namespace("b")

	require.NoError(t, a.Set(KeyClientID, "client-a"))
	_, ok, err := b.Get(KeyClientID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.Namespace("cli").Set("k", "v"))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()
	v, ok, err := db.Namespace("cli").Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
	assert.Equal(t, path, db.Path())
}

func TestSealedStorage(t *testing.T) {
	inner := NewMemoryStorage()
	sealed := Sealed(inner, "s3cret")
	exerciseStorage(t, sealed)

	require.NoError(t, sealed.Set("pw", "manager"))
	raw, ok, _ := inner.Get("pw")
	require.True(t, ok)
	assert.NotContains(t, raw, "manager", "value must not be stored in clear")

	v, _, err := sealed.Get("pw")
	require.NoError(t, err)
	assert.Equal(t, "manager", v)
}

func TestSealedStorageWrongSecret(t *testing.T) {
	inner := NewMemoryStorage()
	require.NoError(t, Sealed(inner, "one").Set("k", "v"))

	_, _, err := Sealed(inner, "two").Get("k")
	assert.ErrorIs(t, err, ErrUnseal)

	require.NoError(t, inner.Set("plain", "not base64!"))
	_, _, err = Sealed(inner, "one").Get("plain")
	assert.ErrorIs(t, err, ErrUnseal)
}

func TestStoreOverSealedSQLite(t *testing.T) {
	db := openTestDB(t)
	storage := Sealed(db.Namespace("cli"), "secret")

	s, err := New(storage)
	require.NoError(t, err)
	require.NoError(t, s.SetActiveConnection(testConnection()))

	raw, _, _ := db.Namespace("cli").Get(KeyActiveConnection)
	assert.False(t, strings.Contains(raw, "manager"))

	fresh, err := New(Sealed(db.Namespace("cli"), "secret"))
	require.NoError(t, err)
	c := testConnection()
	assert.Equal(t, &c, fresh.ActiveConnection())

	rotated, err := New(Sealed(db.Namespace("cli"), "rotated"))
	require.NoError(t, err, "an unreadable active connection is discarded, not fatal")
	assert.Nil(t, rotated.ActiveConnection())
}

func TestClientIDReplacedWhenSecretRotates(t *testing.T) {
	inner := NewMemoryStorage()

	old, err := New(Sealed(inner, "old"))
	require.NoError(t, err)
	oldID, err := old.ClientID()
	require.NoError(t, err)

	rotated, err := New(Sealed(inner, "new"))
	require.NoError(t, err)
	newID, err := rotated.ClientID()
	require.NoError(t, err, "an unreadable client id is replaced, not fatal")
	assert.NotEqual(t, oldID, newID)
	_, err = uuid.Parse(newID)
	require.NoError(t, err)

	reopened, err := New(Sealed(inner, "new"))
	require.NoError(t, err)
	persisted, err := reopened.ClientID()
	require.NoError(t, err)
	assert.Equal(t, newID, persisted)
}

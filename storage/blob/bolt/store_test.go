package boltblob

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuleapp/shule/core"
)

func openDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "assets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Store_PutGetDelete(t *testing.T) {
	db := openDB(t)
	photos, err := db.Bucket(PhotosBucket)
	require.NoError(t, err)

	require.NoError(t, photos.Put("EMP001", []byte("jpeg-bytes")))
	blob, err := photos.Get("EMP001")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), blob)

	_, err = photos.Get("EMP002")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, photos.Delete("EMP001"))
	_, err = photos.Get("EMP001")
	assert.ErrorIs(t, err, core.ErrNotFound)

	// deleting an absent key is not an error
	require.NoError(t, photos.Delete("EMP001"))
}

func Test_Store_Add(t *testing.T) {
	db := openDB(t)
	imgs, err := db.Bucket(GalleryBucket)
	require.NoError(t, err)

	key, err := imgs.Add([]byte("img-1"))
	require.NoError(t, err)
	require.NotEmpty(t, key)

	other, err := imgs.Add([]byte("img-2"))
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	blob, err := imgs.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("img-1"), blob)
}

func Test_Store_Keys(t *testing.T) {
	db := openDB(t)
	photos, err := db.Bucket(PhotosBucket)
	require.NoError(t, err)

	for _, k := range []string{"ST002", "EMP001", "ST001"} {
		require.NoError(t, photos.Put(k, []byte(k)))
	}

	keys, err := photos.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"EMP001", "ST001", "ST002"}, keys) // cursor order is lexical
}

func Test_DB_bucketsAreIsolated(t *testing.T) {
	db := openDB(t)
	photos, err := db.Bucket(PhotosBucket)
	require.NoError(t, err)
	imgs, err := db.Bucket(GalleryBucket)
	require.NoError(t, err)

	require.NoError(t, photos.Put("shared-key", []byte("photo")))
	require.NoError(t, imgs.Put("shared-key", []byte("gallery")))

	blob, err := photos.Get("shared-key")
	require.NoError(t, err)
	assert.Equal(t, []byte("photo"), blob)

	blob, err = imgs.Get("shared-key")
	require.NoError(t, err)
	assert.Equal(t, []byte("gallery"), blob)

	// a gallery key listing never sees photo keys
	require.NoError(t, photos.Put("EMP001", []byte("x")))
	keys, err := imgs.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"shared-key"}, keys)
}

package boltkv

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func Test_Store_roundtrip(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "shule.db"))

	type settings struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	require.NoError(t, s.Set("schoolSettings", settings{Name: "Shule Academy", Phone: "+255700000000"}))

	var got settings
	require.NoError(t, s.Get("schoolSettings", &got))
	assert.Equal(t, "Shule Academy", got.Name)

	// a missing key leaves the caller's zero value untouched
	missing := settings{Name: "default"}
	require.NoError(t, s.Get("nothing-here", &missing))
	assert.Equal(t, "default", missing.Name)
}

func Test_Store_survivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shule.db")

	s := openStore(t, path)
	require.NoError(t, s.Set("classes", []string{"Grade 5", "Grade 6"}))
	require.NoError(t, s.Close())

	reopened := openStore(t, path)
	var classes []string
	require.NoError(t, reopened.Get("classes", &classes))
	assert.Equal(t, []string{"Grade 5", "Grade 6"}, classes)
}

func Test_Store_Update(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "shule.db"))

	require.NoError(t, s.Update("classes", func(raw []byte) ([]byte, error) {
		assert.Nil(t, raw) // first write sees no previous value
		return json.Marshal([]string{"Grade 5"})
	}))
	require.NoError(t, s.Update("classes", func(raw []byte) ([]byte, error) {
		var classes []string
		require.NoError(t, json.Unmarshal(raw, &classes))
		return json.Marshal(append(classes, "Grade 6"))
	}))

	var classes []string
	require.NoError(t, s.Get("classes", &classes))
	assert.Equal(t, []string{"Grade 5", "Grade 6"}, classes)

	// a failing mutation leaves the value untouched
	err := s.Update("classes", func([]byte) ([]byte, error) { return nil, assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)
	classes = nil
	require.NoError(t, s.Get("classes", &classes))
	assert.Len(t, classes, 2)
}

func Test_Store_Subscribe(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "shule.db"))

	var calls int
	cancel := s.Subscribe("users", func() { calls++ })

	require.NoError(t, s.Set("users", []string{"EMP001"}))
	require.NoError(t, s.Set("students", []string{"ST001"})) // other keys do not fire
	assert.Equal(t, 1, calls)

	// callbacks run after the lock is released, so they may read the store
	readBack := s.Subscribe("users", func() {
		var users []string
		require.NoError(t, s.Get("users", &users))
	})
	defer readBack()
	require.NoError(t, s.Set("users", []string{"EMP001", "EMP002"}))
	assert.Equal(t, 2, calls)

	cancel()
	require.NoError(t, s.Set("users", []string{"EMP001"}))
	assert.Equal(t, 2, calls)
}

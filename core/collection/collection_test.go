package collection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuleapp/shule/core"
	inmemkv "github.com/shuleapp/shule/storage/kv/inmem"
)

type rec struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (r rec) Key() string { return r.ID }

func Test_NextID(t *testing.T) {
	tests := []struct {
		name   string
		items  []rec
		prefix string
		want   string
	}{
		{name: "empty collection", prefix: "ST", want: "ST001"},
		{name: "sequential", items: []rec{{ID: "ST001"}, {ID: "ST002"}}, prefix: "ST", want: "ST003"},
		{name: "gaps do not matter", items: []rec{{ID: "ST001"}, {ID: "ST007"}}, prefix: "ST", want: "ST008"},
		{name: "other prefixes ignored", items: []rec{{ID: "EMP004"}, {ID: "ST002"}}, prefix: "ST", want: "ST003"},
		{name: "non-numeric suffix ignored", items: []rec{{ID: "ST00X"}, {ID: "ST002"}}, prefix: "ST", want: "ST003"},
		{name: "overflow past 3 digits", items: []rec{{ID: "EMP999"}}, prefix: "EMP", want: "EMP1000"},
		{name: "4-digit survivor", items: []rec{{ID: "EMP1000"}}, prefix: "EMP", want: "EMP1001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextID(tt.items, tt.prefix))
		})
	}
}

func Test_Collection_Get(t *testing.T) {
	c := New[rec](inmemkv.New(), "recs")
	require.NoError(t, c.Replace([]rec{{ID: "ST001", Name: "Asha"}}))

	got, err := c.Get("st001") // case-insensitive
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Name)

	_, err = c.Get("ST002")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func Test_Collection_Mutate_uniqueness(t *testing.T) {
	c := New[rec](inmemkv.New(), "recs")
	require.NoError(t, c.Replace([]rec{{ID: "ST001"}}))

	err := c.Mutate(func(items []rec) ([]rec, error) {
		return append(items, rec{ID: "st001"}), nil // same key, different case
	})
	assert.ErrorIs(t, err, core.ErrDuplicateKey)

	// failed mutation leaves the collection unchanged
	items, err := c.All()
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func Test_Collection_Mutate_abortsOnError(t *testing.T) {
	c := New[rec](inmemkv.New(), "recs")
	require.NoError(t, c.Replace([]rec{{ID: "ST001"}}))

	boom := errors.New("boom")
	err := c.Mutate(func(items []rec) ([]rec, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	items, err := c.All()
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func Test_Collection_Subscribe(t *testing.T) {
	c := New[rec](inmemkv.New(), "recs")

	var calls int
	cancel := c.Subscribe(func() { calls++ })

	require.NoError(t, c.Replace([]rec{{ID: "ST001"}}))
	require.NoError(t, c.Mutate(func(items []rec) ([]rec, error) { return items, nil }))
	assert.Equal(t, 2, calls)

	cancel()
	require.NoError(t, c.Replace([]rec{{ID: "ST001"}}))
	assert.Equal(t, 2, calls)
}

package badger

import (
	"context"
	"testing"

	"github.com/ogurasousui/staff-directory/internal/frontend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetSet(t *testing.T) {
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Get(frontend.ViewPreferenceKey)
	assert.ErrorIs(t, err, frontend.ErrPreferenceNotFound)

	require.NoError(t, s.Set(frontend.ViewPreferenceKey, "list"))
	require.NoError(t, s.Set(frontend.ViewPreferenceKey, "vertical"))
	require.NoError(t, s.Set(frontend.SortPreferenceKey, "name_desc"))

	v, err := s.Get(frontend.ViewPreferenceKey)
	require.NoError(t, err)
	assert.Equal(t, "vertical", v)

	v, err = s.Get(frontend.SortPreferenceKey)
	require.NoError(t, err)
	assert.Equal(t, "name_desc", v)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, s.Set(frontend.SortPreferenceKey, "start_date_desc"))
	require.NoError(t, s.Close())

	s, err = Open(Config{Path: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	v, err := s.Get(frontend.SortPreferenceKey)
	require.NoError(t, err)
	assert.Equal(t, "start_date_desc", v)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestStoreFeedsController(t *testing.T) {
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Set(frontend.ViewPreferenceKey, "list"))

	c := frontend.NewController(stubFetcher{}, frontend.Locked{}, frontend.WithPreferences(s))
	c.Load()
	c.Close()

	assert.Equal(t, frontend.ViewList, c.State().View)
}

type stubFetcher struct{}

func (stubFetcher) Fetch(context.Context, frontend.Params) (*frontend.Result, error) {
	return &frontend.Result{}, nil
}

package school_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/asset"
	"github.com/shuleapp/shule/core/school"
	notifysvc "github.com/shuleapp/shule/services/notifier"
	inmemblob "github.com/shuleapp/shule/storage/blob/inmem"
	inmemkv "github.com/shuleapp/shule/storage/kv/inmem"
	testutil "github.com/shuleapp/shule/tests"
)

func setup(t *testing.T) (*school.Service, *inmemblob.Store) {
	t.Helper()
	blobs := inmemblob.New()
	svc := school.NewService(inmemkv.New(), blobs, testutil.NopLogger{}, notifysvc.NewRecordingNotifier())
	return svc, blobs
}

func Test_Service_Update(t *testing.T) {
	svc, _ := setup(t)

	updated, err := svc.Update(school.UpdateSettings{Name: "Shule Academy", Phone: "+255700000000"})
	require.NoError(t, err)
	assert.Equal(t, "Shule Academy", updated.Name)

	// empty fields keep current values
	updated, err = svc.Update(school.UpdateSettings{Email: "info@shule.ac.tz"})
	require.NoError(t, err)
	assert.Equal(t, "Shule Academy", updated.Name)
	assert.Equal(t, "info@shule.ac.tz", updated.Email)

	_, err = svc.Update(school.UpdateSettings{Email: "not-an-email"})
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))
}

func Test_Service_Logo_writeThenFlag(t *testing.T) {
	svc, blobs := setup(t)

	blobs.FailWrites = assert.AnError
	_, err := svc.SetLogo([]byte("png-bytes"))
	require.Error(t, err)
	assert.True(t, asset.IsWriteError(err))

	settings, err := svc.Settings()
	require.NoError(t, err)
	assert.False(t, settings.HasLogo)

	blobs.FailWrites = nil
	settings, err = svc.SetLogo([]byte("png-bytes"))
	require.NoError(t, err)
	assert.True(t, settings.HasLogo)

	logo, err := svc.Logo()
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), logo)

	settings, err = svc.RemoveLogo()
	require.NoError(t, err)
	assert.False(t, settings.HasLogo)
	_, err = svc.Logo()
	assert.ErrorIs(t, err, core.ErrNotFound)
}

package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jne-ops/opsboard-api/internal/models"
)

func newTestFileStore(t *testing.T) *FileStore {
	store, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	return store
}

func TestFileStoreDataRoundTrip(t *testing.T) {
	store := newTestFileStore(t)

	written := &models.AppData{
		Jobs:  []models.Job{{ID: "j1", Category: "Regular", JobType: "Rekonsiliasi", DateInput: "2024-05-01", Status: models.StatusPending}},
		Users: []models.User{{Email: "admin@jne.co.id", Name: "Administrator", Role: models.RoleAdmin, Password: "admin123"}},
	}
	written.Normalize()
	require.NoError(t, store.WriteData(written))

	read, err := store.ReadData()
	require.NoError(t, err)
	require.NotNil(t, read)
	require.Len(t, read.Jobs, 1)
	assert.Equal(t, "j1", read.Jobs[0].ID)
	assert.NotNil(t, read.ValidationLogs)
}

func TestFileStoreMissingFileIsEmptyCache(t *testing.T) {
	store := newTestFileStore(t)

	data, err := store.ReadData()
	require.NoError(t, err)
	assert.Nil(t, data)

	session, err := store.ReadSession()
	require.NoError(t, err)
	assert.Nil(t, session)

	settings, err := store.ReadSettings()
	require.NoError(t, err)
	assert.Nil(t, settings)
}

func TestFileStoreCorruptFileIsEmptyCache(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, dataFile), []byte("{not json"), 0o644))

	data, err := store.ReadData()
	require.NoError(t, err, "a corrupt cache must not fail the caller")
	assert.Nil(t, data)
}

func TestFileStoreSessionRoundTripAndClear(t *testing.T) {
	store := newTestFileStore(t)

	user := &models.User{Email: "ops1@jne.co.id", Name: "Ops Staff 1", Role: models.RoleUser, Password: "jne2024"}
	require.NoError(t, store.WriteSession(user))

	restored, err := store.ReadSession()
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, "ops1@jne.co.id", restored.Email)

	require.NoError(t, store.ClearSession())
	restored, err = store.ReadSession()
	require.NoError(t, err)
	assert.Nil(t, restored)

	// Clearing twice is fine.
	require.NoError(t, store.ClearSession())
}

func TestFileStoreSettingsRoundTrip(t *testing.T) {
	store := newTestFileStore(t)

	require.NoError(t, store.WriteSettings(models.StorageSettings{Mode: models.ModeBin, ScriptURL: "https://script.example/exec"}))

	settings, err := store.ReadSettings()
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, models.ModeBin, settings.Mode)
	assert.Equal(t, "https://script.example/exec", settings.ScriptURL)
}

func TestFileStoreWriteSurvivesReplacement(t *testing.T) {
	store := newTestFileStore(t)

	first := &models.AppData{Jobs: []models.Job{{ID: "old"}}}
	first.Normalize()
	require.NoError(t, store.WriteData(first))

	second := &models.AppData{Jobs: []models.Job{{ID: "new"}}}
	second.Normalize()
	require.NoError(t, store.WriteData(second))

	read, err := store.ReadData()
	require.NoError(t, err)
	require.Len(t, read.Jobs, 1)
	assert.Equal(t, "new", read.Jobs[0].ID)
}

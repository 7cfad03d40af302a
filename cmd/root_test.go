// file: cmd/root_test.go
// version: 1.0.0
// guid: 6c1d8a3f-0b5e-4d7c-8f2a-4e9b7c0d3a6f

package cmd

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/abs-meta/internal/config"
	"github.com/jdfalk/abs-meta/internal/database"
	"github.com/jdfalk/abs-meta/internal/models"
)

func TestNewRegistryHasBothProviders(t *testing.T) {
	svc := newCacheService(database.NewMockStore())
	registry := newRegistry(svc)

	assert.Equal(t, []string{"bookbeat", "storytel"}, registry.Names())
	assert.NotNil(t, registry.Get("storytel"))
	assert.NotNil(t, registry.Get("bookbeat"))
}

func TestNewCacheServiceUsesConfiguredTTL(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("cache_ttl_seconds", 90)

	store := database.NewMockStore()
	svc := newCacheService(store)

	query := models.SearchQuery{Query: "dune"}
	_, err := svc.StoreBook("storytel", models.BookMetadata{Title: "Dune", ProviderID: "1"}, "1")
	require.NoError(t, err)
	require.NoError(t, svc.Set("storytel", query, []models.BookMetadata{{Title: "Dune", ProviderID: "1"}}, nil))

	// The entry was written with the live 90s TTL, so it is readable now.
	_, hit, err := svc.Get("storytel", query, nil)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestOpenStoreSQLite(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	config.SetApp(config.Config{
		DatabaseType: "sqlite",
		DatabasePath: filepath.Join(t.TempDir(), "test.db"),
	})

	store, err := openStore()
	require.NoError(t, err)
	defer store.Close()

	_, err = store.UpsertBook("storytel", "1", models.BookMetadata{Title: "Dune"})
	require.NoError(t, err)
}

func TestReapCommandRemovesExpired(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reap.db")
	config.SetApp(config.Config{DatabaseType: "sqlite", DatabasePath: dbPath})

	store, err := openStore()
	require.NoError(t, err)
	require.NoError(t, store.PutSearchResults("fp", "storytel", []string{"storytel:1"}, -time.Minute))
	require.NoError(t, store.Close())

	require.NoError(t, reapCmd.RunE(reapCmd, nil))
}

func TestPurgeCommandClearsProvider(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "purge.db")
	config.SetApp(config.Config{DatabaseType: "sqlite", DatabasePath: dbPath})

	store, err := openStore()
	require.NoError(t, err)
	require.NoError(t, store.PutSearchResults("fp", "storytel", []string{"storytel:1"}, time.Hour))
	require.NoError(t, store.Close())

	require.NoError(t, purgeCmd.RunE(purgeCmd, []string{"storytel"}))

	store, err = openStore()
	require.NoError(t, err)
	defer store.Close()
	ids, err := store.GetSearchResults("fp")
	require.NoError(t, err)
	assert.Nil(t, ids)
}

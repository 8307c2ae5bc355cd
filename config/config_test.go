package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenNoAuth(t *testing.T) {
	t.Setenv("NO_AUTH", "true")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Auth.NoAuth)
	assert.Equal(t, 2*time.Hour, cfg.Embedding.TTL)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Store.MongoURI)
}

func TestLoadRequiresJWTSecretWhenAuthEnabled(t *testing.T) {
	t.Setenv("NO_AUTH", "false")
	t.Setenv("JWT_SECRET_KEY", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestEmbeddingTTLHonorsEnvOverride(t *testing.T) {
	t.Setenv("EMBEDDING_TTL_HOURS", "5")
	cfg := LoadEmbeddingConfig()
	assert.Equal(t, 5*time.Hour, cfg.TTL)
}

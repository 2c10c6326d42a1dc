package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillforge/arena-api/internal/config"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("ARENA_JWT_SECRET", "test-secret")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "Arena API", cfg.AppName)
	require.Equal(t, "8080", cfg.AppPort)
	require.Equal(t, 5*time.Minute, cfg.ProblemCacheTTL)
	require.Equal(t, 30, cfg.SubmitRateLimit)
	require.Equal(t, 30*time.Second, cfg.EvaluationTimeout)
	require.Equal(t, "openai", cfg.AIProvider)
	require.False(t, cfg.EvaluationDisabled)
}

func TestLoadReadsEnvironmentOverrides(t *testing.T) {
	t.Setenv("ARENA_JWT_SECRET", "test-secret")
	t.Setenv("ARENA_APP_PORT", "9090")
	t.Setenv("ARENA_AI_PROVIDER", "Anthropic")
	t.Setenv("ARENA_EVALUATION_TIMEOUT_MS", "1500")
	t.Setenv("ARENA_EVALUATION_DISABLED", "true")
	t.Setenv("ARENA_PROBLEM_CACHE_TTL", "90s")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.AppPort)
	require.Equal(t, "anthropic", cfg.AIProvider)
	require.Equal(t, 1500*time.Millisecond, cfg.EvaluationTimeout)
	require.True(t, cfg.EvaluationDisabled)
	require.Equal(t, 90*time.Second, cfg.ProblemCacheTTL)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("ARENA_JWT_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)
}

func TestHTTPAddress(t *testing.T) {
	require.Equal(t, ":8080", config.Config{AppPort: "8080"}.HTTPAddress())
	require.Equal(t, ":9090", config.Config{AppPort: ":9090"}.HTTPAddress())
}

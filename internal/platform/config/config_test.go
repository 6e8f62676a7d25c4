package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("PLAGIARISM_THRESHOLD", "0.75")
	t.Setenv("REDIS_ENABLED", "yes")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")

	Load()

	assert.Equal(t, "sqlite", AppConfig.DBDriver)
	assert.Equal(t, 0.75, AppConfig.PlagiarismThreshold)
	assert.True(t, AppConfig.RedisEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, AppConfig.CORSOrigins)
	assert.Equal(t, 30*time.Minute, AppConfig.SessionDuration())
	assert.Equal(t, 10, AppConfig.DefaultQuestionBudget)
}

func TestEnvParsersFallBack(t *testing.T) {
	t.Setenv("X_INT", "nope")
	t.Setenv("X_FLOAT", "")
	t.Setenv("X_BOOL", "maybe")

	assert.Equal(t, 4, getEnvAsInt("X_INT", 4))
	assert.Equal(t, 0.5, getEnvAsFloat("X_FLOAT", 0.5))
	assert.True(t, getEnvAsBool("X_BOOL", true))
}

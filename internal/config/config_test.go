package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{in: "", want: 7 * 24 * time.Hour},
		{in: "7d", want: 7 * 24 * time.Hour},
		{in: "1d", want: 24 * time.Hour},
		{in: "90m", want: 90 * time.Minute},
		{in: " 12h ", want: 12 * time.Hour},
	}
	for _, tt := range tests {
		got, err := ParseTTL(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseTTLRejectsGarbage(t *testing.T) {
	for _, in := range []string{"xd", "0d", "-1h", "soon"} {
		_, err := ParseTTL(in)
		assert.Error(t, err, in)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_TOKEN_TTL", "")
	t.Setenv("JWT_EXPIRES_IN", "")
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("DATABASE_URL", "postgres://fleet@db/operalog")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://ops.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "postgres://fleet@db/operalog", cfg.Postgres.DSN)
	assert.Equal(t, []string{"http://localhost:5173", "https://ops.example.com"}, cfg.App.CORSOrigins)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("BCRYPT_COST", "")

	cfg := Load()
	assert.Equal(t, time.Duration(0), cfg.TokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "avatars", cfg.AvatarPrefix)
	assert.Equal(t, "/api", cfg.StaticPrefix)
	assert.Equal(t, "local", cfg.AvatarBackend)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("MAIL_SEND_ENABLED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	cfg := Load()
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.False(t, cfg.MailSendEnabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("BCRYPT_COST", "ten")
	t.Setenv("TOKEN_TTL", "forever")
	t.Setenv("HTTP_LOG_ENABLED", "maybe")

	cfg := Load()
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, time.Duration(0), cfg.TokenTTL)
	assert.False(t, cfg.HTTPLogEnabled)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", cfg.PostgresDSN())
}

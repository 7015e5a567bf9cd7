package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginAllowed(t *testing.T) {
	wildcard := Config{AllowedOrigins: "*"}
	assert.True(t, wildcard.OriginAllowed("https://evil.example"))

	cfg := Config{AllowedOrigins: "https://play.example.com, https://staging.example.com"}
	assert.True(t, cfg.OriginAllowed("https://play.example.com"))
	assert.True(t, cfg.OriginAllowed("https://staging.example.com"))
	assert.True(t, cfg.OriginAllowed("HTTPS://PLAY.EXAMPLE.COM"), "origin match is case-insensitive")
	assert.False(t, cfg.OriginAllowed("https://evil.example"))

	// Non-browser clients send no Origin header.
	assert.True(t, cfg.OriginAllowed(""))
}

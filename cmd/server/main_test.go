package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fruitshop/backend/internal/config"
)

const strongSecret = "0123456789abcdef0123456789abcdef"

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	assert.Error(t, validateSecurityConfig(config.Config{Env: "production", AuthSecret: "short", Port: "8080"}))
	assert.Error(t, validateSecurityConfig(config.Config{Env: "production", Port: "8080"}))
	assert.Error(t, validateSecurityConfig(config.Config{Env: "development", AuthSecret: "short", Port: "8080"}))
	assert.Error(t, validateSecurityConfig(config.Config{Env: "production", AuthSecret: strongSecret, AllowedOrigin: "*", Port: "8080"}))
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	assert.NoError(t, validateSecurityConfig(config.Config{Env: "production", AuthSecret: strongSecret, Port: "8080"}))
	assert.NoError(t, validateSecurityConfig(config.Config{Env: "development", Port: "8080"}))
}

func TestValidateSecurityConfigRejectsSelfRemote(t *testing.T) {
	cfg := config.Config{AuthSecret: strongSecret, Port: "8080", RemoteBaseURL: "http://localhost:8080/api"}
	assert.Error(t, validateSecurityConfig(cfg))

	cfg.RemoteBaseURL = "http://erp.internal:8080/api"
	assert.NoError(t, validateSecurityConfig(cfg))
}

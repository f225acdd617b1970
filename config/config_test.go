package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SENDER_SECRET_KEY", "base58secret")
	t.Setenv("REWARD_TOKEN_MINT", "MintAddr")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "devnet", cfg.Network)
	assert.Equal(t, uint8(9), cfg.TokenDecimals)
	assert.Equal(t, 10*time.Minute, cfg.ReplayWindow)
	assert.Empty(t, cfg.Witnesses)
}

func TestLoadRequiredFields(t *testing.T) {
	t.Setenv("SENDER_SECRET_KEY", "")
	t.Setenv("REWARD_TOKEN_MINT", "MintAddr")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SENDER_SECRET_KEY", "base58secret")
	t.Setenv("REWARD_TOKEN_MINT", "")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadWitnessList(t *testing.T) {
	t.Setenv("SENDER_SECRET_KEY", "k")
	t.Setenv("REWARD_TOKEN_MINT", "m")
	t.Setenv("RECLAIM_WITNESSES", "0xaaa, 0xbbb ,,0xccc")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"0xaaa", "0xbbb", "0xccc"}, cfg.Witnesses)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SENDER_SECRET_KEY", "k")
	t.Setenv("REWARD_TOKEN_MINT", "m")
	t.Setenv("REWARD_TOKEN_DECIMALS", "6")
	t.Setenv("REPLAY_WINDOW", "30")
	t.Setenv("PORT", "9999")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint8(6), cfg.TokenDecimals)
	assert.Equal(t, 30*time.Second, cfg.ReplayWindow)
	assert.Equal(t, "9999", cfg.Port)
}

func TestLoadInvalidNumbers(t *testing.T) {
	t.Setenv("SENDER_SECRET_KEY", "k")
	t.Setenv("REWARD_TOKEN_MINT", "m")
	t.Setenv("REWARD_TOKEN_DECIMALS", "many")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("REWARD_TOKEN_DECIMALS", "200")
	_, err = Load()
	assert.Error(t, err)
}

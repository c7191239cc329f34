package config

import (
	"os"
	"path/filepath"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krazyTry/nft-amm-go/amm/helpers"
)

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db-backend", "memory", "")
	flags.String("log-level", "info", "")
	flags.StringSlice("trusted-programs", nil, "")
	return flags
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.DBBackend)
	assert.Equal(t, helpers.NftAmmProgramID, cfg.ProgramID)
	assert.Equal(t, helpers.DefaultTrustedPrograms, cfg.TrustedPrograms)
	assert.Equal(t, rpc.CommitmentFinalized, cfg.Commitment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoadPrecedence(t *testing.T) {
	program := solanago.NewWallet().PublicKey()
	path := filepath.Join(t.TempDir(), "nftamm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"db-backend: bbolt\n"+
			"db-path: /var/lib/nftamm\n"+
			"log-level: warn\n"+
			"program-id: "+program.String()+"\n"), 0o600))

	t.Setenv("NFTAMM_LOG_LEVEL", "debug")
	t.Setenv("NFTAMM_METRICS_ADDR", ":9100")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--db-backend=pebble"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "pebble", cfg.DBBackend)
	assert.Equal(t, "/var/lib/nftamm", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	assert.Equal(t, program, cfg.ProgramID)
}

func TestLoadTrustedPrograms(t *testing.T) {
	a, b := solanago.NewWallet().PublicKey(), solanago.NewWallet().PublicKey()
	t.Setenv("NFTAMM_TRUSTED_PROGRAMS", a.String()+", "+b.String())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, []solanago.PublicKey{a, b}, cfg.TrustedPrograms)
}

func TestLoadInvalid(t *testing.T) {
	t.Run("backend", func(t *testing.T) {
		t.Setenv("NFTAMM_DB_BACKEND", "rocksdb")
		_, err := Load("", nil)
		assert.ErrorContains(t, err, "unknown db-backend")
	})
	t.Run("program id", func(t *testing.T) {
		t.Setenv("NFTAMM_PROGRAM_ID", "not-a-key")
		_, err := Load("", nil)
		assert.ErrorContains(t, err, "invalid program-id")
	})
	t.Run("trusted programs", func(t *testing.T) {
		flags := newFlags()
		require.NoError(t, flags.Parse([]string{"--trusted-programs=nope"}))
		_, err := Load("", flags)
		assert.ErrorContains(t, err, "invalid trusted-programs")
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
		assert.ErrorContains(t, err, "read config")
	})
}

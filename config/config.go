// Package config merges the config file, NFTAMM_ environment variables and
// command line flags into one Config.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/krazyTry/nft-amm-go/amm/helpers"
	"github.com/krazyTry/nft-amm-go/store/backend"
)

const EnvPrefix = "NFTAMM"

type Config struct {
	DBBackend       string
	DBPath          string
	ProgramID       solanago.PublicKey
	TrustedPrograms []solanago.PublicKey
	RPCURL          string
	Commitment      rpc.CommitmentType
	MetricsAddr     string
	LogLevel        string
}

// Load reads cfgFile when set, otherwise an optional ./nftamm.{yaml,json,toml}.
// Flags win over the environment, which wins over the file.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("db-backend", backend.Memory)
	v.SetDefault("db-path", "./data")
	v.SetDefault("program-id", helpers.NftAmmProgramID.String())
	v.SetDefault("rpc", rpc.MainNetBeta_RPC)
	v.SetDefault("commitment", string(rpc.CommitmentFinalized))
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("nftamm")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		DBBackend:   v.GetString("db-backend"),
		DBPath:      v.GetString("db-path"),
		RPCURL:      v.GetString("rpc"),
		Commitment:  rpc.CommitmentType(v.GetString("commitment")),
		MetricsAddr: v.GetString("metrics-addr"),
		LogLevel:    v.GetString("log-level"),
	}
	if !slices.Contains(backend.Names, cfg.DBBackend) {
		return nil, fmt.Errorf("unknown db-backend %q, want one of %s", cfg.DBBackend, strings.Join(backend.Names, ", "))
	}

	var err error
	if cfg.ProgramID, err = solanago.PublicKeyFromBase58(v.GetString("program-id")); err != nil {
		return nil, fmt.Errorf("invalid program-id: %w", err)
	}
	if cfg.TrustedPrograms, err = parseKeys(getStringSlice(v, "trusted-programs")); err != nil {
		return nil, fmt.Errorf("invalid trusted-programs: %w", err)
	}
	if cfg.TrustedPrograms == nil {
		cfg.TrustedPrograms = helpers.DefaultTrustedPrograms
	}
	return cfg, nil
}

func parseKeys(items []string) ([]solanago.PublicKey, error) {
	if len(items) == 0 {
		return nil, nil
	}
	keys := make([]solanago.PublicKey, 0, len(items))
	for _, item := range items {
		key, err := solanago.PublicKeyFromBase58(item)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", item, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	switch typed := v.Get(key).(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return cleanStrings(strings.Split(typed, ","))
	case []any:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	}
	return nil
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

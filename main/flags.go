package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/MetalBlockchain/accountlib/chain/config"
)

const (
	envPrefix = "accountlib"

	versionKey     = "version"
	configFileKey  = "config-file"
	dataDirKey     = "data-dir"
	coinKey        = "coin"
	httpHostKey    = "http-host"
	httpPortKey    = "http-port"
	logLevelKey    = "log-level"
	materialURIKey = "material-uri"
)

func buildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("accountlib", pflag.ContinueOnError)
	fs.Bool(versionKey, false, "If true, prints Version and quit")
	fs.String(configFileKey, "", "Path to a JSON config file")
	fs.String(dataDirKey, "", "Directory staged transactions are stored in. Empty keeps them in memory")
	fs.String(coinKey, config.Default.Coin, "Coin requests default to")
	fs.String(httpHostKey, config.Default.HTTPHost, "Address of the HTTP server")
	fs.Uint16(httpPortKey, config.Default.HTTPPort, "Port of the HTTP server")
	fs.String(logLevelKey, config.Default.LogLevel, "The log level")
	fs.String(materialURIKey, "", "Upstream server chain material is fetched from")
	return fs
}

// getViper returns the viper environment for the plugin binary
func getViper() (*viper.Viper, error) {
	v := viper.New()

	fs := buildFlagSet()
	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v, nil
}

func PrintVersion() (bool, error) {
	v, err := getViper()
	if err != nil {
		return false, err
	}
	return v.GetBool(versionKey), nil
}

// getConfig reads the config file, if any, and applies the flags and
// environment variables that were set on top of it.
func getConfig(v *viper.Viper) (*config.Config, error) {
	var configBytes []byte
	if path := v.GetString(configFileKey); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("couldn't read config file: %w", err)
		}
		configBytes = b
	}
	cfg, err := config.GetConfig(configBytes)
	if err != nil {
		return nil, err
	}

	if v.IsSet(coinKey) {
		cfg.Coin = v.GetString(coinKey)
	}
	if v.IsSet(httpHostKey) {
		cfg.HTTPHost = v.GetString(httpHostKey)
	}
	if v.IsSet(httpPortKey) {
		cfg.HTTPPort = uint16(v.GetUint(httpPortKey))
	}
	if v.IsSet(logLevelKey) {
		cfg.LogLevel = v.GetString(logLevelKey)
	}
	if v.IsSet(materialURIKey) {
		cfg.MaterialURI = v.GetString(materialURIKey)
	}
	return cfg, cfg.Verify()
}

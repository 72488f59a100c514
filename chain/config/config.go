package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MetalBlockchain/metalgo/utils/logging"
	"github.com/MetalBlockchain/metalgo/utils/units"

	"github.com/MetalBlockchain/accountlib/chain/coins"
	"github.com/MetalBlockchain/accountlib/chain/material"
)

var (
	errInvalidPort = errors.New("invalid http port")
	errInvalidSize = errors.New("invalid size")

	Default = Config{
		Coin:              coins.TDOT.Name,
		HTTPHost:          "127.0.0.1",
		HTTPPort:          9660,
		LogLevel:          "info",
		MaterialCacheSize: 16,
		PendingPoolSize:   16 * units.MiB,
		StagedTxCacheSize: 1024,
		ProviderRetries:   3,
	}
)

type Config struct {
	// Coin is the network account-chain requests default to.
	Coin     string `json:"coin"`
	HTTPHost string `json:"http-host"`
	HTTPPort uint16 `json:"http-port"`
	LogLevel string `json:"log-level"`

	MaterialCacheSize int    `json:"material-cache-size"`
	PendingPoolSize   int    `json:"pending-pool-size"`
	StagedTxCacheSize int    `json:"staged-tx-cache-size"`
	ProviderRetries   uint64 `json:"provider-retries"`

	// MaterialURI is an upstream accountlib server materials are fetched
	// from. Empty serves the built in materials.
	MaterialURI string `json:"material-uri"`

	// Materials overrides the built in material of the named coins.
	Materials map[string]material.Material `json:"materials"`
}

func GetConfig(b []byte) (*Config, error) {
	ec := Default

	// An empty slice is invalid json, so handle that as a special case.
	if len(b) == 0 {
		return &ec, nil
	}

	if err := json.Unmarshal(b, &ec); err != nil {
		return nil, err
	}
	return &ec, ec.Verify()
}

func (c *Config) Verify() error {
	if _, err := coins.Get(c.Coin); err != nil {
		return err
	}
	if c.HTTPPort == 0 {
		return errInvalidPort
	}
	if _, err := logging.ToLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MaterialCacheSize <= 0 || c.PendingPoolSize <= 0 || c.StagedTxCacheSize <= 0 {
		return fmt.Errorf("%w: caches and the pending pool need a positive size", errInvalidSize)
	}
	for name, m := range c.Materials {
		if _, err := coins.Get(name); err != nil {
			return err
		}
		if _, err := m.Registry(); err != nil {
			return fmt.Errorf("material of %s: %w", name, err)
		}
	}
	return nil
}

// AllMaterials returns the built in materials with the overrides applied.
func (c *Config) AllMaterials() map[string]material.Material {
	materials := material.Defaults()
	for name, m := range c.Materials {
		materials[name] = m
	}
	return materials
}

// Address is the host:port the server listens on.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}

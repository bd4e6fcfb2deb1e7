package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	isotp "github.com/rob-gra/go-isotp"
)

// bridgeConfig is the on-disk configuration for one bridge instance: which
// CAN interface to bind, the addressing scheme, and the Transport
// parameters that aren't safe to default.
type bridgeConfig struct {
	Channel string `yaml:"channel"`
	Mode    string `yaml:"mode"`

	RxID   uint32 `yaml:"rx_id"`
	TxID   uint32 `yaml:"tx_id"`
	Source uint8  `yaml:"source"`
	Target uint8  `yaml:"target"`

	BlockSize      uint8  `yaml:"block_size"`
	SeparationTime uint8  `yaml:"separation_time"`
	MaxMessageSize uint16 `yaml:"max_message_size"`
	Verbose        bool   `yaml:"verbose"`
}

func loadBridgeConfig(path string) (bridgeConfig, error) {
	var c bridgeConfig
	if path == "" {
		return c, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("isotpbridge: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("isotpbridge: parsing %s: %w", path, err)
	}
	return c, nil
}

var addressingModes = map[string]isotp.AddressingMode{
	"normal11":      isotp.Normal11,
	"normal29":      isotp.Normal29,
	"normalfixed29": isotp.NormalFixed29,
	"extended11":    isotp.Extended11,
	"extended29":    isotp.Extended29,
	"mixed11":       isotp.Mixed11,
	"mixed29":       isotp.Mixed29,
}

func (c bridgeConfig) addressingMode() (isotp.AddressingMode, error) {
	if c.Mode == "" {
		return isotp.Normal11, nil
	}
	mode, ok := addressingModes[c.Mode]
	if !ok {
		return 0, fmt.Errorf("isotpbridge: unknown addressing mode %q", c.Mode)
	}
	return mode, nil
}

func (c bridgeConfig) transportConfig() (isotp.Config, error) {
	mode, err := c.addressingMode()
	if err != nil {
		return isotp.Config{}, err
	}

	cfg := isotp.DefaultConfig()
	cfg.Mode = mode
	cfg.MyAddress = isotp.Address{
		RxID:          c.RxID,
		TxID:          c.TxID,
		SourceAddress: c.Source,
		TargetAddress: c.Target,
	}
	if c.BlockSize != 0 {
		cfg.BlockSize = c.BlockSize
	}
	if c.SeparationTime != 0 {
		cfg.SeparationTime = c.SeparationTime
	}
	if c.MaxMessageSize != 0 {
		cfg.MaxMessageSize = c.MaxMessageSize
	}
	return cfg, nil
}

package common

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type NetworkConfig struct {
	Network               string `yaml:"network"`
	RequiredConfirmations int    `yaml:"required_confirmations"`
}

type NetworksConfig struct {
	Networks []NetworkConfig `yaml:"networks"`
}

func LoadNetworkConfig(networksFile string) ([]NetworkConfig, error) {
	var networksPath string
	if filepath.IsAbs(networksFile) {
		networksPath = networksFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		networksPath = filepath.Join(wd, networksFile)
	}

	data, err := os.ReadFile(networksPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", networksFile, err)
	}

	var config NetworksConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", networksFile, err)
	}

	for i, network := range config.Networks {
		if network.Network == "" {
			return nil, fmt.Errorf("network at index %d missing name", i)
		}
		if network.RequiredConfirmations <= 0 {
			return nil, fmt.Errorf("network at index %d has non-positive required_confirmations", i)
		}
	}

	return config.Networks, nil
}

func LoadNetworkPolicies(networksFile string) (map[string]int, error) {
	networks, err := LoadNetworkConfig(networksFile)
	if err != nil {
		return nil, err
	}

	policies := make(map[string]int, len(networks))
	for _, network := range networks {
		policies[network.Network] = network.RequiredConfirmations
	}

	return policies, nil
}

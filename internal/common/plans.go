package common

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type PlanConfig struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	ApyRate      string `yaml:"apy_rate"`
	DurationDays int    `yaml:"duration_days"`
	MinAmount    string `yaml:"min_amount"`
	MaxAmount    string `yaml:"max_amount"`
}

type PlansConfig struct {
	Plans []PlanConfig `yaml:"plans"`
}

func LoadPlanConfig(plansFile string) ([]PlanConfig, error) {
	var plansPath string
	if filepath.IsAbs(plansFile) {
		plansPath = plansFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		plansPath = filepath.Join(wd, plansFile)
	}

	data, err := os.ReadFile(plansPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", plansFile, err)
	}

	var config PlansConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", plansFile, err)
	}

	for i, plan := range config.Plans {
		if plan.Name == "" {
			return nil, fmt.Errorf("plan at index %d missing name", i)
		}
		if plan.ApyRate == "" {
			return nil, fmt.Errorf("plan at index %d missing apy_rate", i)
		}
		if plan.DurationDays <= 0 {
			return nil, fmt.Errorf("plan at index %d has non-positive duration_days", i)
		}
		if plan.MinAmount == "" {
			return nil, fmt.Errorf("plan at index %d missing min_amount", i)
		}
	}

	return config.Plans, nil
}

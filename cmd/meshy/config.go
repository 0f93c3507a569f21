package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/soypat/meshy/helpers/matter"
	"github.com/soypat/meshy/repair"
	"github.com/soypat/meshy/slicer"
	"github.com/soypat/meshy/support"
	"gopkg.in/yaml.v2"
)

// config is the file given with --config. Missing keys keep their
// defaults.
type config struct {
	Slicer   slicer.Params  `yaml:"slicer"`
	Support  support.Params `yaml:"support"`
	Filament filamentConfig `yaml:"filament"`
	// RepairPrecision is the distance under which vertices are welded
	// when looking for holes.
	RepairPrecision float64 `yaml:"repairPrecision"`
}

type filamentConfig struct {
	Material            string  `yaml:"material"`
	Diameter            float64 `yaml:"diameter"`
	ExtrusionMultiplier float64 `yaml:"extrusionMultiplier"`
	// Compensate scales the mesh up by the material shrinkage before
	// slicing.
	Compensate bool `yaml:"compensate"`
}

func defaultConfig() config {
	return config{
		Slicer:  slicer.DefaultParams(),
		Support: support.DefaultParams(),
		Filament: filamentConfig{
			Material:            matter.PLA.Name,
			Diameter:            matter.PLA.Diameter,
			ExtrusionMultiplier: 1,
		},
		RepairPrecision: repair.DefaultPrecision,
	}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.UnmarshalStrict(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Slicer.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Support.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if _, err := cfg.Filament.filament(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

var materials = map[string]matter.Filament{
	"pla": matter.PLA,
	"abs": matter.ABS,
}

func (f filamentConfig) filament() (matter.Filament, error) {
	m, ok := materials[strings.ToLower(f.Material)]
	if !ok {
		return matter.Filament{}, fmt.Errorf("unknown filament material %q", f.Material)
	}
	if f.Diameter <= 0 {
		return matter.Filament{}, fmt.Errorf("filament diameter must be positive, got %g", f.Diameter)
	}
	return m.WithDiameter(f.Diameter), nil
}

func (f filamentConfig) moveOptions() (slicer.MoveOptions, error) {
	fil, err := f.filament()
	if err != nil {
		return slicer.MoveOptions{}, err
	}
	opts := slicer.DefaultMoveOptions()
	opts.Filament = fil
	if f.ExtrusionMultiplier > 0 {
		opts.ExtrusionMultiplier = f.ExtrusionMultiplier
	}
	return opts, nil
}

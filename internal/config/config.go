// Package config owns the on-disk blobsim configuration: defaults,
// presets, diffs between revisions and a polling file watcher.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/blobsim/internal/world"
)

const (
	DefaultWidth          = 250
	DefaultHeight         = 250
	DefaultBlobs          = 25
	DefaultDt             = 0.016
	DefaultDuration       = 10.0
	DefaultFPS            = 30
	DefaultReloadInterval = 5 * time.Second
)

var ErrInvalid = errors.New("config: invalid value")

// Constants holds the physical constants. It is inlined into File so a
// flat JSON file with just these keys loads as well.
type Constants struct {
	BlobSize        float64 `yaml:"blob_size" json:"blob_size"`
	RepelForce      float64 `yaml:"repel_force" json:"repel_force"`
	RepelDistance   float64 `yaml:"repel_distance" json:"repel_distance"`
	FrictionForce   float64 `yaml:"friction_force" json:"friction_force"`
	FrictionModel   string  `yaml:"friction_model" json:"friction_model"`
	MaxAcceleration float64 `yaml:"max_acceleration" json:"max_acceleration"`
	MinAcceleration float64 `yaml:"min_acceleration" json:"min_acceleration"`
	SkipCoincident  bool    `yaml:"skip_coincident" json:"skip_coincident"`
}

type WorldConfig struct {
	Width  int   `yaml:"width"`
	Height int   `yaml:"height"`
	Blobs  int   `yaml:"blobs"`
	Seed   int64 `yaml:"seed"`
}

type RunConfig struct {
	Dt             float64       `yaml:"dt"`
	Duration       float64       `yaml:"duration"`
	FPS            int           `yaml:"fps"`
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

type File struct {
	Constants `yaml:",inline"`
	World     WorldConfig `yaml:"world"`
	Run       RunConfig   `yaml:"run"`
}

func Default() *File {
	d := world.DefaultConfig()
	return &File{
		Constants: Constants{
			BlobSize:        d.BlobSize,
			RepelForce:      d.RepelForce,
			RepelDistance:   d.RepelDistance,
			FrictionForce:   d.FrictionForce,
			FrictionModel:   string(d.Friction),
			MaxAcceleration: d.MaxAcceleration,
			MinAcceleration: d.MinAcceleration,
			SkipCoincident:  d.SkipCoincident,
		},
		World: WorldConfig{
			Width:  DefaultWidth,
			Height: DefaultHeight,
			Blobs:  DefaultBlobs,
		},
		Run: RunConfig{
			Dt:             DefaultDt,
			Duration:       DefaultDuration,
			FPS:            DefaultFPS,
			ReloadInterval: DefaultReloadInterval,
		},
	}
}

// Parse overlays data onto the defaults. JSON is accepted too since it
// is valid YAML.
func Parse(data []byte) (*File, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Save(path string, cfg *File) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Physics converts the file's constants into the value the world consumes.
func (f *File) Physics() world.Config {
	return world.Config{
		BlobSize:        f.BlobSize,
		RepelForce:      f.RepelForce,
		RepelDistance:   f.RepelDistance,
		FrictionForce:   f.FrictionForce,
		Friction:        world.FrictionModel(f.FrictionModel),
		MaxAcceleration: f.MaxAcceleration,
		MinAcceleration: f.MinAcceleration,
		SkipCoincident:  f.SkipCoincident,
	}
}

// SetPhysics writes cfg back into the file's constants.
func (f *File) SetPhysics(cfg world.Config) {
	f.Constants = Constants{
		BlobSize:        cfg.BlobSize,
		RepelForce:      cfg.RepelForce,
		RepelDistance:   cfg.RepelDistance,
		FrictionForce:   cfg.FrictionForce,
		FrictionModel:   string(cfg.Friction),
		MaxAcceleration: cfg.MaxAcceleration,
		MinAcceleration: cfg.MinAcceleration,
		SkipCoincident:  cfg.SkipCoincident,
	}
}

func (f *File) Validate() error {
	if err := f.Physics().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch {
	case f.World.Width <= 0 || f.World.Height <= 0:
		return fmt.Errorf("%w: world size %dx%d", ErrInvalid, f.World.Width, f.World.Height)
	case f.World.Blobs < 0:
		return fmt.Errorf("%w: world.blobs = %d", ErrInvalid, f.World.Blobs)
	case f.Run.Dt <= 0:
		return fmt.Errorf("%w: run.dt = %v", ErrInvalid, f.Run.Dt)
	case f.Run.Duration <= 0:
		return fmt.Errorf("%w: run.duration = %v", ErrInvalid, f.Run.Duration)
	case f.Run.FPS <= 0:
		return fmt.Errorf("%w: run.fps = %d", ErrInvalid, f.Run.FPS)
	case f.Run.ReloadInterval < 0:
		return fmt.Errorf("%w: run.reload_interval = %v", ErrInvalid, f.Run.ReloadInterval)
	}
	return nil
}

// NewWorld builds a world sized and populated from the file. A zero seed
// means a time-seeded world.
func (f *File) NewWorld() *world.World {
	var w *world.World
	if f.World.Seed != 0 {
		w = world.NewSeeded(f.World.Width, f.World.Height, f.Physics(), f.World.Seed)
	} else {
		w = world.New(f.World.Width, f.World.Height, f.Physics())
	}
	w.AddRandomBlobs(f.World.Blobs)
	return w
}

package config

import (
	"sort"

	"github.com/san-kum/blobsim/internal/world"
)

func preset(apply func(f *File)) *File {
	f := Default()
	apply(f)
	return f
}

var Presets = map[string]*File{
	"calm": preset(func(f *File) {
		f.RepelForce = 20
		f.FrictionForce = 4
		f.World.Blobs = 15
	}),
	"swarm": preset(func(f *File) {
		f.RepelForce = 60
		f.RepelDistance = 15
		f.MaxAcceleration = 400
		f.World.Blobs = 120
	}),
	"sticky": preset(func(f *File) {
		f.RepelForce = 25
		f.FrictionForce = 8
		f.MinAcceleration = 2
		f.World.Blobs = 40
	}),
	"divisive": preset(func(f *File) {
		f.FrictionModel = string(world.FrictionDivisive)
		f.FrictionForce = 100
		f.World.Blobs = 30
	}),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *File {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package registry

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"CommodSim/internal/domain/models"
)

type entry struct {
	hub    models.Hub
	sector int
}

// Registry is an immutable set of sectors indexed by hub name.
type Registry struct {
	sectors []models.Sector
	index   map[string]entry
}

type file struct {
	Sectors []models.Sector `yaml:"sectors" validate:"required,min=1,dive"`
}

// New builds a registry and rejects duplicate hub or sector names.
func New(sectors []models.Sector) (*Registry, error) {
	r := &Registry{
		sectors: make([]models.Sector, len(sectors)),
		index:   make(map[string]entry),
	}
	seen := make(map[models.SectorID]bool, len(sectors))
	for i, s := range sectors {
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate sector %q", s.ID)
		}
		seen[s.ID] = true

		s.Hubs = append([]models.Hub(nil), s.Hubs...)
		r.sectors[i] = s
		for _, hub := range s.Hubs {
			if _, dup := r.index[hub.Name]; dup {
				return nil, fmt.Errorf("duplicate hub %q", hub.Name)
			}
			r.index[hub.Name] = entry{hub: hub, sector: i}
		}
	}
	return r, nil
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := New(DefaultSectors())
	if err != nil {
		panic(err)
	}
	return r
}

// Load reads sectors from a YAML file. An empty path yields the defaults.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	if err := validator.New().Struct(f); err != nil {
		return nil, fmt.Errorf("validate registry: %w", err)
	}
	return New(f.Sectors)
}

func (r *Registry) Sectors() []models.Sector { return r.sectors }

// Sector returns a sector by id.
func (r *Registry) Sector(id models.SectorID) (models.Sector, bool) {
	for _, s := range r.sectors {
		if s.ID == id {
			return s, true
		}
	}
	return models.Sector{}, false
}

// Lookup resolves a hub across all sectors.
func (r *Registry) Lookup(name string) (models.Hub, models.Sector, bool) {
	e, ok := r.index[name]
	if !ok {
		return models.Hub{}, models.Sector{}, false
	}
	return e.hub, r.sectors[e.sector], true
}

// HubNames lists hubs in registry order.
func (r *Registry) HubNames() []string {
	names := make([]string, 0, len(r.index))
	for _, s := range r.sectors {
		for _, hub := range s.Hubs {
			names = append(names, hub.Name)
		}
	}
	return names
}

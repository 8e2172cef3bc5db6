package asset

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/annel0/overworld/internal/entity"
	"github.com/annel0/overworld/internal/vec"
	"gopkg.in/yaml.v3"
)

// ErrUnknownSpecies возвращается при запросе незарегистрированного вида
var ErrUnknownSpecies = errors.New("unknown species")

// Species описывает вид актёра: размеры, скорость, здоровье и способности.
// Загружается из YAML вместо глобальных таблиц в коде.
type Species struct {
	Name          string   `yaml:"name"`
	Width         float64  `yaml:"width"`
	Height        float64  `yaml:"height"`
	Speed         float64  `yaml:"speed"`
	Health        int      `yaml:"health"`
	DeathDuration float64  `yaml:"death_duration"`
	Traits        []string `yaml:"traits"`

	traits entity.Trait
}

// TraitSet возвращает разобранный набор способностей
func (s *Species) TraitSet() entity.Trait {
	return s.traits
}

// Registry реестр видов, передаётся явно во все места создания актёров
type Registry struct {
	species map[string]*Species
}

type registryFile struct {
	Species []*Species `yaml:"species"`
}

// NewRegistry создаёт пустой реестр
func NewRegistry() *Registry {
	return &Registry{species: make(map[string]*Species)}
}

// LoadRegistry читает реестр видов из YAML файла
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read species file %s: %w", path, err)
	}
	return ParseRegistry(data)
}

// ParseRegistry разбирает реестр видов из YAML
func ParseRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse species: %w", err)
	}

	r := NewRegistry()
	for _, s := range file.Species {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register добавляет вид в реестр, проверяя описание и подставляя значения по умолчанию
func (r *Registry) Register(s *Species) error {
	if s == nil || s.Name == "" {
		return errors.New("species without name")
	}
	if _, exists := r.species[s.Name]; exists {
		return fmt.Errorf("species %q registered twice", s.Name)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("species %q: size must be positive", s.Name)
	}

	s.traits = 0
	for _, name := range s.Traits {
		t, ok := entity.ParseTrait(name)
		if !ok {
			return fmt.Errorf("species %q: unknown trait %q", s.Name, name)
		}
		s.traits |= t
	}

	if s.Speed <= 0 {
		s.Speed = entity.DefaultSpeed
	}
	if s.Health <= 0 {
		s.Health = 1
	}

	r.species[s.Name] = s
	return nil
}

// Get возвращает описание вида
func (r *Registry) Get(name string) (*Species, bool) {
	s, ok := r.species[name]
	return s, ok
}

// Names возвращает отсортированный список видов
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.species))
	for name := range r.species {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Spawn создаёт сущность указанного вида в позиции pos. Подвижные виды
// получают Motion с бездействием по умолчанию.
func (r *Registry) Spawn(name string, pos vec.Vec2Float) (*entity.Entity, error) {
	s, ok := r.species[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSpecies, name)
	}

	e := entity.New(s.Name, s.traits&^entity.TraitMobile, pos, vec.Vec2Float{X: s.Width, Y: s.Height})
	e.Speed = s.Speed
	e.Health = s.Health
	e.DeathDuration = s.DeathDuration

	if s.traits.Has(entity.TraitMobile) {
		entity.NewMotion(e, nil)
	}
	return e, nil
}

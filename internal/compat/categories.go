// Package compat scores how well a CPU and a GPU are matched for gaming
// workload categories: per-category balance scores, bottleneck detection,
// utilization estimates, and FPS projections.
package compat

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrUnknownCategory is returned when a caller names a workload category
// that is not configured.
var ErrUnknownCategory = errors.New("unknown workload category")

// MinimumRequirements are the per-category floors a pairing must clear.
// Zero values mean "no floor". Score floors compare against the 0-100
// normalized score; SingleThread against the raw single-thread rating.
type MinimumRequirements struct {
	CPUScore        int `yaml:"min_cpu_score"`
	GPUScore        int `yaml:"min_gpu_score"`
	CPUCores        int `yaml:"min_cpu_cores"`
	CPUThreads      int `yaml:"min_cpu_threads"`
	CPUSingleThread int `yaml:"min_cpu_single_thread"`
	GPUMemoryGB     int `yaml:"min_gpu_memory"`
}

// Category is one workload category: importance weights, its share of the
// overall score, requirement floors, and the allowed tier gap.
type Category struct {
	Name              string              `yaml:"name"`
	DisplayName       string              `yaml:"display_name"`
	Weight            float64             `yaml:"weight"`
	CPUImportance     float64             `yaml:"cpu_importance"`
	GPUImportance     float64             `yaml:"gpu_importance"`
	MaxTierDifference int                 `yaml:"max_tier_difference"`
	Minimum           MinimumRequirements `yaml:"minimum"`
	Examples          []string            `yaml:"examples"`
	Description       string              `yaml:"description"`
}

// CategorySet is the fixed, validated set of workload categories, loaded
// once at startup and read-only thereafter.
type CategorySet struct {
	ordered []Category
	byName  map[string]int
}

// DefaultCategories returns the built-in four-category set.
func DefaultCategories() *CategorySet {
	set, err := NewCategorySet([]Category{
		{
			Name:              "esport",
			DisplayName:       "E-sport / CPU-heavy",
			Weight:            0.25,
			CPUImportance:     0.80,
			GPUImportance:     0.20,
			MaxTierDifference: 1,
			Minimum: MinimumRequirements{
				CPUScore:        15,
				GPUScore:        10,
				CPUSingleThread: 2000,
				GPUMemoryGB:     4,
			},
			Examples:    []string{"Valorant", "CS2", "League of Legends", "Fortnite"},
			Description: "Competitive games requiring high CPU single-thread performance",
		},
		{
			Name:              "aaa_gpu",
			DisplayName:       "AAA GPU-heavy",
			Weight:            0.35,
			CPUImportance:     0.25,
			GPUImportance:     0.75,
			MaxTierDifference: 1,
			Minimum: MinimumRequirements{
				CPUScore:    30,
				GPUScore:    40,
				CPUCores:    6,
				GPUMemoryGB: 8,
			},
			Examples:    []string{"Cyberpunk 2077", "Hogwarts Legacy", "Starfield", "Alan Wake 2"},
			Description: "Modern AAA games with heavy GPU requirements and ray tracing",
		},
		{
			Name:              "balanced",
			DisplayName:       "Balanced CPU+GPU",
			Weight:            0.25,
			CPUImportance:     0.50,
			GPUImportance:     0.50,
			MaxTierDifference: 1,
			Minimum: MinimumRequirements{
				CPUScore:    20,
				GPUScore:    35,
				GPUMemoryGB: 3,
			},
			Examples:    []string{"GTA V", "Red Dead Redemption 2", "AC Mirage", "Horizon Forbidden West"},
			Description: "Games requiring balanced CPU and GPU performance",
		},
		{
			Name:              "simulation",
			DisplayName:       "CPU-intensive simulation",
			Weight:            0.15,
			CPUImportance:     0.90,
			GPUImportance:     0.10,
			MaxTierDifference: 2,
			Minimum: MinimumRequirements{
				CPUScore:   40,
				GPUScore:   15,
				CPUCores:   8,
				CPUThreads: 12,
			},
			Examples:    []string{"Cities Skylines II", "Microsoft Flight Simulator", "Total War"},
			Description: "Simulation games with heavy CPU load and physics",
		},
	})
	if err != nil {
		// The built-in set is validated by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return set
}

// NewCategorySet builds and validates a category set.
func NewCategorySet(categories []Category) (*CategorySet, error) {
	set := &CategorySet{
		ordered: categories,
		byName:  make(map[string]int, len(categories)),
	}
	for i, c := range categories {
		if _, dup := set.byName[c.Name]; dup {
			return nil, fmt.Errorf("duplicate category %q", c.Name)
		}
		set.byName[c.Name] = i
	}
	if err := set.validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// LoadCategories reads a category set from a YAML file. An empty path
// yields the built-in defaults.
func LoadCategories(path string) (*CategorySet, error) {
	if path == "" {
		return DefaultCategories(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}

	var doc struct {
		Categories []Category `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse categories file: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("categories file %q defines no categories", path)
	}

	return NewCategorySet(doc.Categories)
}

// weightTolerance allows for rounding slop in hand-written weights.
const weightTolerance = 0.01

// validate enforces the structural invariants: category weights sum to
// 1.0 and each category's importances sum to 1.0, within tolerance.
func (s *CategorySet) validate() error {
	if len(s.ordered) == 0 {
		return errors.New("no categories configured")
	}

	var weightSum float64
	for _, c := range s.ordered {
		if c.Name == "" {
			return errors.New("category with empty name")
		}
		if c.Weight <= 0 {
			return fmt.Errorf("category %q: weight must be positive", c.Name)
		}
		if imp := c.CPUImportance + c.GPUImportance; math.Abs(imp-1.0) > weightTolerance {
			return fmt.Errorf("category %q: importances sum to %.3f, want 1.0", c.Name, imp)
		}
		if c.MaxTierDifference < 0 {
			return fmt.Errorf("category %q: negative max tier difference", c.Name)
		}
		weightSum += c.Weight
	}
	if math.Abs(weightSum-1.0) > weightTolerance {
		return fmt.Errorf("category weights sum to %.3f, want 1.0", weightSum)
	}
	return nil
}

// Get returns the named category.
func (s *CategorySet) Get(name string) (Category, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Category{}, false
	}
	return s.ordered[i], true
}

// All returns the categories in configuration order. Callers must not
// mutate the returned slice.
func (s *CategorySet) All() []Category {
	return s.ordered
}

package rubric

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "interview-eval-go/internal/platform/errors"
)

// Criterion is one weighted line item inside a category rubric.
type Criterion struct {
	Name        string `yaml:"name"`
	Weight      int    `yaml:"weight"`
	Description string `yaml:"description"`
}

// Config is one externally authored category rubric. Loaded once at
// startup, validated, then shared read-only across runs.
type Config struct {
	Category               Category    `yaml:"category"`
	Name                   string      `yaml:"name"`
	Allotment              int         `yaml:"allotment"`
	EvaluationCriteria     []Criterion `yaml:"evaluation_criteria"`
	ScoringGuide           string      `yaml:"scoring_guide"`
	AdditionalInstructions string      `yaml:"additional_instructions"`
	OutputFormat           string      `yaml:"output_format"`
}

func (c *Config) validate(source string) error {
	const op = "rubric.validate"

	if !c.Category.valid() {
		return apperrors.New(apperrors.KindConfig, op,
			fmt.Sprintf("%s: unknown category %q", source, c.Category))
	}
	if c.Allotment <= 0 {
		return apperrors.New(apperrors.KindConfig, op,
			fmt.Sprintf("%s: allotment must be positive", source))
	}
	if len(c.EvaluationCriteria) == 0 {
		return apperrors.New(apperrors.KindConfig, op,
			fmt.Sprintf("%s: at least one criterion is required", source))
	}

	sum := 0
	for _, crit := range c.EvaluationCriteria {
		if crit.Name == "" {
			return apperrors.New(apperrors.KindConfig, op,
				fmt.Sprintf("%s: criterion without a name", source))
		}
		if crit.Weight <= 0 {
			return apperrors.New(apperrors.KindConfig, op,
				fmt.Sprintf("%s: criterion %q weight must be positive", source, crit.Name))
		}
		sum += crit.Weight
	}
	if sum != c.Allotment {
		return apperrors.New(apperrors.KindConfig, op,
			fmt.Sprintf("%s: criterion weights sum to %d, allotment is %d", source, sum, c.Allotment))
	}
	if c.OutputFormat == "" {
		return apperrors.New(apperrors.KindConfig, op,
			fmt.Sprintf("%s: output_format is required", source))
	}
	return nil
}

// Library holds every loaded rubric, keyed by category.
type Library struct {
	configs map[Category]*Config
}

// LoadDir reads all rubric yaml files from dir. Every known category
// must be present exactly once.
func LoadDir(dir string) (*Library, error) {
	const op = "rubric.load"

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfig, op, "read rubric dir", err)
	}

	configs := make(map[Category]*Config)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindConfig, op, "read rubric file "+name, err)
		}

		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, apperrors.Wrap(apperrors.KindConfig, op, "parse rubric file "+name, err)
		}
		if err := cfg.validate(name); err != nil {
			return nil, err
		}
		if _, dup := configs[cfg.Category]; dup {
			return nil, apperrors.New(apperrors.KindConfig, op,
				fmt.Sprintf("duplicate rubric for category %s", cfg.Category))
		}
		configs[cfg.Category] = &cfg
	}

	for _, cat := range []Category{Communication, JobCompatibility, OrgFit, TechStack, ProblemSolving} {
		if _, ok := configs[cat]; !ok {
			return nil, apperrors.New(apperrors.KindConfig, op,
				fmt.Sprintf("missing rubric for category %s", cat))
		}
	}
	if err := validateBudget(configs); err != nil {
		return nil, err
	}

	return &Library{configs: configs}, nil
}

// textScoreBudget caps the text portion of an answer's total; the
// acoustic portion holds the remaining 40 of the 100 points.
const textScoreBudget = 60

// validateBudget rejects rubric sets whose allotments would let any
// question's category scores exceed the text budget.
func validateBudget(configs map[Category]*Config) error {
	const op = "rubric.validate"

	for question := 1; question <= len(questionCategories); question++ {
		cats, ok := questionCategories[question]
		if !ok {
			continue
		}
		sum := 0
		for _, cat := range cats {
			if cfg, loaded := configs[cat]; loaded {
				sum += cfg.Allotment
			}
		}
		if sum > textScoreBudget {
			return apperrors.New(apperrors.KindConfig, op,
				fmt.Sprintf("question %d allotments sum to %d, budget is %d", question, sum, textScoreBudget))
		}
	}
	return nil
}

// NewLibrary builds a library from in-memory configs (test seam).
func NewLibrary(configs ...*Config) (*Library, error) {
	lib := &Library{configs: make(map[Category]*Config)}
	for _, cfg := range configs {
		if err := cfg.validate(string(cfg.Category)); err != nil {
			return nil, err
		}
		lib.configs[cfg.Category] = cfg
	}
	if err := validateBudget(lib.configs); err != nil {
		return nil, err
	}
	return lib, nil
}

// Get returns the rubric for a category.
func (l *Library) Get(cat Category) (*Config, error) {
	cfg, ok := l.configs[cat]
	if !ok {
		return nil, apperrors.New(apperrors.KindConfig, "rubric.get",
			fmt.Sprintf("no rubric loaded for category %s", cat))
	}
	return cfg, nil
}

// Allotments returns the point allotment per category.
func (l *Library) Allotments() map[Category]int {
	out := make(map[Category]int, len(l.configs))
	for cat, cfg := range l.configs {
		out[cat] = cfg.Allotment
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/muaazl/product-matcher/internal/match/model"
)

const weightTolerance = 1e-6

var ErrWeights = errors.New("score weights must sum to 1.0")

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadSettings reads matcher tunables from a YAML file on top of model.DefaultSettings.
// Пустой path: только значения по умолчанию. Поддерживается подстановка ${VAR} и ${VAR:-default}.
func LoadSettings(path string) (model.Settings, error) {
	s := model.DefaultSettings()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return model.Settings{}, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(expandEnvVars(data), &s); err != nil {
		return model.Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	if err := ValidateSettings(s); err != nil {
		return model.Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// ValidateSettings checks ranges via struct tags and that the hybrid weights are convex.
func ValidateSettings(s model.Settings) error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	if sum := s.WeightSum(); math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w, got %.4f", ErrWeights, sum)
	}
	return nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment values.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		name, def, hasDef := strings.Cut(expr, ":-")
		val := os.Getenv(name)
		if val == "" && hasDef {
			val = def
		}
		return []byte(val)
	})
}

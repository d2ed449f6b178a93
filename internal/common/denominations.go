package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"mcengine-currency-go/internal/models"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

const maxPrecision = 18

type DenominationsConfig struct {
	Denominations []models.Denomination `yaml:"denominations"`
}

// LoadDenominations reads the denominations file. A missing file yields the
// built-in default set; a present but invalid file is an error.
func LoadDenominations(denominationsFile string) ([]models.Denomination, error) {
	var denominationsPath string
	if filepath.IsAbs(denominationsFile) {
		denominationsPath = denominationsFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		denominationsPath = filepath.Join(wd, denominationsFile)
	}

	data, err := os.ReadFile(denominationsPath)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Info("No denominations file, using defaults", zap.String("file", denominationsFile))
		return models.DefaultDenominations(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", denominationsFile, err)
	}

	var config DenominationsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", denominationsFile, err)
	}
	if len(config.Denominations) == 0 {
		return nil, fmt.Errorf("%s lists no denominations", denominationsFile)
	}

	seen := make(map[string]bool, len(config.Denominations))
	for i, d := range config.Denominations {
		name := models.NormalizeDenomination(d.Name)
		if name == "" {
			return nil, fmt.Errorf("denomination at index %d missing name", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("denomination %q listed twice", name)
		}
		if d.Precision < 0 || d.Precision > maxPrecision {
			return nil, fmt.Errorf("denomination %q precision must be between 0 and %d, got %d", name, maxPrecision, d.Precision)
		}
		seen[name] = true
		config.Denominations[i].Name = name
	}

	return config.Denominations, nil
}

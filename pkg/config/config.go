// Package config reads the scanmesh configuration file.
package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/scanmesh/scanmesh/pkg/apperr"
	"github.com/scanmesh/scanmesh/pkg/cluster"
	"github.com/scanmesh/scanmesh/pkg/similarity"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/suzuki-shunsuke/logrus-error/logerr"
	"gopkg.in/yaml.v3"
)

// Config is the content of .scanmesh.yaml.
type Config struct {
	Dedup Dedup `json:"dedup,omitempty" yaml:"dedup" jsonschema:"description=Settings of the dedup command"`
	Diff  Diff  `json:"diff,omitempty" yaml:"diff" jsonschema:"description=Settings of the diff command"`
}

type Dedup struct {
	SimilarityThreshold float64            `json:"similarity_threshold,omitempty" yaml:"similarity_threshold" jsonschema:"minimum=0,maximum=1,default=0.75,description=Minimum similarity for two findings to be merged"`
	Weights             similarity.Weights `json:"weights,omitempty" yaml:"weights" jsonschema:"description=Weights of the location, message, and metadata scores. They must sum to 1"`
}

type Diff struct {
	DetectModifications bool   `json:"detect_modifications,omitempty" yaml:"detect_modifications" jsonschema:"default=true,description=Report findings present in both scans whose severity, priority, CWE, message, or compliance changed"`
	HistoryDB           string `json:"history_db,omitempty" yaml:"history_db" jsonschema:"description=Path to the SQLite scan history database"`
}

// Default returns the configuration used when no file is found.
// Fields missing from a configuration file keep these values.
func Default() *Config {
	return &Config{
		Dedup: Dedup{
			SimilarityThreshold: cluster.DefaultThreshold,
			Weights:             similarity.DefaultWeights(),
		},
		Diff: Diff{
			DetectModifications: true,
		},
	}
}

// Validate returns apperr.ErrInvalidInput if a setting is out of range.
func (c *Config) Validate() error {
	if t := c.Dedup.SimilarityThreshold; t < 0 || t > 1 {
		return logerr.WithFields(fmt.Errorf("dedup.similarity_threshold must be between 0 and 1: %w", apperr.ErrInvalidInput), logrus.Fields{ //nolint:wrapcheck
			"similarity_threshold": t,
		})
	}
	if err := c.Dedup.Weights.Validate(); err != nil {
		return fmt.Errorf("validate dedup.weights: %w", err)
	}
	return nil
}

var configPaths = []string{".scanmesh.yaml", ".github/scanmesh.yaml", ".scanmesh.yml", ".github/scanmesh.yml"} //nolint:gochecknoglobals

func getConfigPath(fs afero.Fs) (string, error) {
	for _, path := range configPaths {
		f, err := afero.Exists(fs, path)
		if err != nil {
			return "", fmt.Errorf("check if %s exists: %w", path, err)
		}
		if f {
			return path, nil
		}
	}
	return "", nil
}

// Finder locates the configuration file.
type Finder struct {
	fs afero.Fs
}

// NewFinder creates a Finder looking up files in fs.
func NewFinder(fs afero.Fs) *Finder {
	return &Finder{fs: fs}
}

// Find returns configFilePath if it isn't empty, otherwise the first existing default path.
// It returns an empty string if no configuration file is found.
func (f *Finder) Find(configFilePath string) (string, error) {
	if configFilePath != "" {
		return configFilePath, nil
	}
	p, err := getConfigPath(f.fs)
	if err != nil {
		return "", err
	}
	return p, nil
}

// Reader reads the configuration file.
type Reader struct {
	fs afero.Fs
}

// NewReader creates a Reader reading files from fs.
func NewReader(fs afero.Fs) *Reader {
	return &Reader{fs: fs}
}

// Read decodes the configuration file onto cfg and validates the result.
// Nothing is read if configFilePath is empty.
func (r *Reader) Read(cfg *Config, configFilePath string) error {
	if configFilePath != "" {
		f, err := r.fs.Open(configFilePath)
		if err != nil {
			return fmt.Errorf("open a configuration file: %w", err)
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode a configuration file as YAML: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return logerr.WithFields(err, logrus.Fields{ //nolint:wrapcheck
			"config_file": configFilePath,
		})
	}
	return nil
}

package vqa

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sample is one labelled feature vector.
type Sample struct {
	Features []float64 `yaml:"features" json:"features"`
	Label    int       `yaml:"label" json:"label"`
}

// Dataset is a binary classification set as stored on disk:
//
//	samples:
//	  - features: [0.1, 0.2]
//	    label: 0
type Dataset struct {
	Samples []Sample `yaml:"samples" json:"samples"`
}

// LoadDataset reads a YAML dataset and checks labels and feature widths.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var d Dataset
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset %s: %w", path, err)
	}
	return &d, nil
}

// Validate requires at least one sample, equal widths and 0/1 labels.
func (d *Dataset) Validate() error {
	if len(d.Samples) == 0 {
		return fmt.Errorf("no samples")
	}
	width := len(d.Samples[0].Features)
	for i, s := range d.Samples {
		if len(s.Features) != width {
			return fmt.Errorf("sample %d has %d features, expected %d", i, len(s.Features), width)
		}
		if s.Label != 0 && s.Label != 1 {
			return fmt.Errorf("sample %d has label %d, expected 0 or 1", i, s.Label)
		}
		if err := checkFinite(s.Features); err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
	}
	return nil
}

// Split returns the feature matrix and label vector.
func (d *Dataset) Split() ([][]float64, []int) {
	X := make([][]float64, len(d.Samples))
	y := make([]int, len(d.Samples))
	for i, s := range d.Samples {
		X[i] = s.Features
		y[i] = s.Label
	}
	return X, y
}

package adapter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	m "afluent.dev/pkg/afluent/internal/model"
)

// Datasets are externally computed tie-break scores per strategy.
type Datasets map[m.Tiebreak]m.Dataset

// LoadDatasets reads a YAML dataset file:
//
//	cyclomatic:
//	  pkg/calc.py:
//	    3: 2
//	    4: 2
//	logical:
//	  pkg/calc.py:
//	    4: 1
func LoadDatasets(path string) (Datasets, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset file: %w", err)
	}

	var datasets Datasets

	err = yaml.NewDecoder(bytes.NewReader(raw)).Decode(&datasets)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode dataset file %s: %w", path, err)
	}

	if datasets == nil {
		datasets = Datasets{}
	}

	return datasets, nil
}

// SaveDatasets writes datasets in the format LoadDatasets reads.
func SaveDatasets(path string, datasets Datasets) error {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(datasets); err != nil {
		return fmt.Errorf("encode datasets: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode datasets: %w", err)
	}

	return os.WriteFile(path, buf.Bytes(), 0o600)
}

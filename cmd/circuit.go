package main

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/voltdrop-cli/internal/model"
)

// circuitFile is the on-disk YAML shape for a single circuit definition.
type circuitFile struct {
	Circuit model.CircuitInput `yaml:"circuit"`
}

// batchFile holds a base circuit plus the what-if variations to sweep.
type batchFile struct {
	Circuit    model.CircuitInput       `yaml:"circuit"`
	Variations []model.CircuitVariation `yaml:"variations"`
}

func loadCircuitFile(path string) (model.CircuitInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.CircuitInput{}, eris.Wrapf(err, "read circuit file %s", path)
	}

	var f circuitFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return model.CircuitInput{}, eris.Wrapf(err, "parse circuit file %s", path)
	}
	return f.Circuit, nil
}

func loadBatchFile(path string) (model.CircuitInput, []model.CircuitVariation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.CircuitInput{}, nil, eris.Wrapf(err, "read batch file %s", path)
	}

	var f batchFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return model.CircuitInput{}, nil, eris.Wrapf(err, "parse batch file %s", path)
	}
	if len(f.Variations) == 0 {
		return model.CircuitInput{}, nil, eris.Errorf("batch file %s has no variations", path)
	}
	return f.Circuit, f.Variations, nil
}

// loadCircuitsFile reads a multi-circuit file keyed for watch mode. Every
// circuit needs an id so changes can be attributed.
func loadCircuitsFile(path string) (map[string]model.CircuitInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read circuits file %s", path)
	}

	var f struct {
		Circuits []model.CircuitInput `yaml:"circuits"`
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, eris.Wrapf(err, "parse circuits file %s", path)
	}

	circuits := make(map[string]model.CircuitInput, len(f.Circuits))
	for _, c := range f.Circuits {
		if c.ID == "" {
			return nil, eris.Errorf("circuits file %s: every circuit needs an id", path)
		}
		circuits[c.ID] = c
	}
	return circuits, nil
}

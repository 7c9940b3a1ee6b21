package growth

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type referenceFile struct {
	Kind   TableKind        `yaml:"kind"`
	Points []ReferencePoint `yaml:"points"`
}

// LoadReferenceFile reads a reference table from YAML:
//
//	kind: zscore
//	points:
//	  - {age_months: 0, median_height: 49.9, std_dev: 1.9}
func LoadReferenceFile(path string) (*ReferenceTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("growth: read reference file: %w", err)
	}
	return ParseReference(data)
}

// ParseReference decodes and validates a YAML reference table.
func ParseReference(data []byte) (*ReferenceTable, error) {
	var file referenceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("growth: decode reference yaml: %w", err)
	}
	if file.Kind == "" {
		file.Kind = KindZScore
	}
	return NewReferenceTable(file.Kind, file.Points)
}

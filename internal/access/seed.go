// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Areas []seedArea `yaml:"areas"`
}

type seedArea struct {
	Area      string   `yaml:"area"`
	Modules   []string `yaml:"modules"`
	ReportIDs []string `yaml:"reportIds"`
	AllAccess bool     `yaml:"allAccess"`
}

// ParseSeed decodes a YAML seed document. Unknown areas or modules are errors.
func ParseSeed(data []byte) ([]AreaPermission, error) {
	var document seedFile
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("access: decode seed: %w", err)
	}

	records := make([]AreaPermission, 0, len(document.Areas))
	for index, entry := range document.Areas {
		record, details := parseInput(index, PermissionInput{
			Area:      entry.Area,
			Modules:   entry.Modules,
			ReportIDs: entry.ReportIDs,
			AllAccess: entry.AllAccess,
		})
		if len(details) > 0 {
			return nil, fmt.Errorf("access: seed entry %s: %s", details[0].Field, details[0].Message)
		}
		records = append(records, record)
	}
	return records, nil
}

// LoadSeed reads the seed file at path. A missing file yields [BuiltinDefaults].
func LoadSeed(path string) ([]AreaPermission, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return BuiltinDefaults(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("access: read seed: %w", err)
	}
	return ParseSeed(data)
}

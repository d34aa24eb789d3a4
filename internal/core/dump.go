package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/NBISweden/timelogbot/pkg/models"
)

// DumpEntry is one work unit in the dump file, with the date in the same
// YYYY-MM-DD form the tracker reports it in.
type DumpEntry struct {
	Date  string  `json:"date" yaml:"date"`
	Hours float64 `json:"hours" yaml:"hours"`
}

// WriteDump writes all matched projects' work units, keyed by space name,
// to the given path for offline inspection. JSON by default; YAML when the
// file extension is .yaml or .yml.
func WriteDump(path string, units map[string][]models.WorkUnit) error {
	dump := make(map[string][]DumpEntry, len(units))
	for name, list := range units {
		entries := make([]DumpEntry, 0, len(list))
		for _, u := range list {
			entries = append(entries, DumpEntry{Date: u.Date.Format("2006-01-02"), Hours: u.Hours})
		}
		dump[name] = entries
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(dump)
	default:
		data, err = json.MarshalIndent(dump, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encoding work unit dump: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing work unit dump: %w", err)
	}
	return nil
}

package core

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/NBISweden/timelogbot/pkg/models"
)

func TestWriteDump_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.json")
	units := map[string][]models.WorkUnit{
		"NBIS Söder_2101": {wu("2024-01-05", 2), wu("2024-02-01", 1.5)},
		"Empty_2102":      {},
	}

	if err := WriteDump(path, units); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading dump: %v", err)
	}
	var got map[string][]DumpEntry
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("parsing dump: %v", err)
	}

	entries := got["NBIS Söder_2101"]
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Date != "2024-01-05" || entries[0].Hours != 2 {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if len(got["Empty_2102"]) != 0 {
		t.Fatalf("expected empty list, got %v", got["Empty_2102"])
	}
}

func TestWriteDump_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.yaml")
	units := map[string][]models.WorkUnit{
		"Proj_2101": {wu("2024-03-10", 4)},
	}

	if err := WriteDump(path, units); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading dump: %v", err)
	}
	var got map[string][]DumpEntry
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("parsing dump: %v", err)
	}
	if got["Proj_2101"][0].Date != "2024-03-10" {
		t.Fatalf("unexpected entry %+v", got["Proj_2101"])
	}
}

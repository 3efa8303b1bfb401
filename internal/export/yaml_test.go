package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/askdata/internal"
	"gopkg.in/yaml.v3"
)

func TestYAMLExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	exporter := &YAMLExporter{}

	if err := exporter.Export(internal.CreateTestTranscript("t1"), &buf); err != nil {
		t.Fatalf("YAMLExporter.Export() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"id: t1",
		"dataset_id: ds-t1",
		"role: user",
		"role: bot",
		"region: north",
		"total: 10",
		"error: Generated code was rejected",
		"exchanges: 2",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("YAMLExporter.Export() output should contain %q\n%s", want, output)
		}
	}

	// table columns keep their order
	if strings.Index(output, "region: north") > strings.Index(output, "total: 10") {
		t.Error("row keys were reordered")
	}

	var parsed map[string]interface{}
	if err := yaml.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Errorf("output is not valid YAML: %v", err)
	}
}

func TestYAMLExporter_Extension(t *testing.T) {
	exporter := &YAMLExporter{}
	if got := exporter.Extension(); got != "yaml" {
		t.Errorf("YAMLExporter.Extension() = %v, want yaml", got)
	}
}

package render

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

type selection struct {
	Mode     string        `json:"mode"`
	Outcome  string        `json:"outcome"`
	Paths    []string      `json:"paths"`
	Duration time.Duration `json:"duration"`
	hidden   string
}

func (s selection) Lines() []string { return s.Paths }

func (s selection) StyleField(field, value string) (string, bool) {
	if field == "outcome" {
		return "<" + value + ">", true
	}
	return "", false
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{"plain", "plain", FormatPlain, false},
		{"json lowercase", "json", FormatJSON, false},
		{"json uppercase", "JSON", FormatJSON, false},
		{"table", "table", FormatTable, false},
		{"yaml", "yaml", FormatYAML, false},
		{"empty", "", "", false},
		{"invalid", "xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	if _, err := ParseFormat("csv"); err == nil || !strings.Contains(err.Error(), "plain, json, table, or yaml") {
		t.Errorf("error should list valid formats, got: %v", err)
	}
}

func render(t *testing.T, format Format, noColor bool, data any) string {
	t.Helper()
	var buf bytes.Buffer
	if err := NewRendererWithWriter(format, noColor, &buf).Render(data); err != nil {
		t.Fatalf("Render(%s) failed: %v", format, err)
	}
	return buf.String()
}

func TestRenderer_Plain(t *testing.T) {
	data := selection{Paths: []string{"/tmp/a.txt", "/tmp/b.txt"}}
	if got := render(t, FormatPlain, false, data); got != "/tmp/a.txt\n/tmp/b.txt\n" {
		t.Errorf("plain output = %q", got)
	}
	if got := render(t, FormatPlain, false, "v1"); got != "v1\n" {
		t.Errorf("plain fallback = %q", got)
	}
}

func TestRenderer_JSONAndYAML(t *testing.T) {
	data := selection{Mode: "savefile", Outcome: "selected", Paths: []string{"/tmp/a.png"}}

	got := render(t, FormatJSON, false, data)
	if !strings.Contains(got, `"mode": "savefile"`) || !strings.Contains(got, `"/tmp/a.png"`) {
		t.Errorf("JSON output missing content: %s", got)
	}
	if render(t, FormatJSON, true, data) != got {
		t.Error("--no-color should not affect JSON output")
	}

	got = render(t, FormatYAML, false, map[string]string{"key": "value"})
	if !strings.Contains(got, "key: value") {
		t.Errorf("YAML output missing content: %s", got)
	}
}

func TestRenderer_Table_Struct(t *testing.T) {
	data := selection{Mode: "openfiles", Outcome: "selected", Paths: []string{"a", "b"}, Duration: 1500 * time.Millisecond, hidden: "x"}

	got := render(t, FormatTable, false, data)
	for _, want := range []string{"mode:", "openfiles", "<selected>", "a, b", "1.5s"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "hidden") {
		t.Error("unexported field rendered")
	}

	if got := render(t, FormatTable, true, data); strings.Contains(got, "<selected>") {
		t.Error("--no-color should skip field styling")
	}
}

func TestRenderer_Table_Slice(t *testing.T) {
	type preset struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	got := render(t, FormatTable, false, []preset{{"images", "Images (*.png)"}, {"any", "All Files (*)"}})
	if !strings.Contains(got, "name") || !strings.Contains(got, "description") {
		t.Errorf("table output missing headers: %s", got)
	}
	if !strings.Contains(got, "Images (*.png)") || !strings.Contains(got, "All Files (*)") {
		t.Errorf("table output missing rows: %s", got)
	}

	if got := render(t, FormatTable, false, []string{"a", "b"}); got != "a\nb\n" {
		t.Errorf("string slice table = %q", got)
	}
	if got := render(t, FormatTable, false, []string{}); !strings.Contains(got, "(no results)") {
		t.Errorf("empty slice = %q", got)
	}
}

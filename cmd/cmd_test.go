package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunHelp(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	runHelp(&b)
	out := b.String()

	for _, want := range []string{"chat", "ask", "kb add", "kb count", "--version", "AIGENT_PROVIDER"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	runVersion(&b)
	if !strings.Contains(b.String(), AppVersion) {
		t.Errorf("version output missing %q:\n%s", AppVersion, b.String())
	}
}

func TestLoadSnippetsJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "website_data.json")
	payload, err := json.Marshal([]string{"We are open 9-5.", "", "  ", "We ship worldwide."})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	snippets, err := loadSnippets(path)
	if err != nil {
		t.Fatalf("loadSnippets: %v", err)
	}
	want := []string{"We are open 9-5.", "We ship worldwide."}
	if len(snippets) != len(want) {
		t.Fatalf("got %d snippets, want %d: %v", len(snippets), len(want), snippets)
	}
	for i := range want {
		if snippets[i] != want[i] {
			t.Errorf("snippet %d = %q, want %q", i, snippets[i], want[i])
		}
	}
}

func TestLoadSnippetsPlainText(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "about.txt")
	if err := os.WriteFile(path, []byte("  NileEdge builds AI solutions.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	snippets, err := loadSnippets(path)
	if err != nil {
		t.Fatalf("loadSnippets: %v", err)
	}
	if len(snippets) != 1 || snippets[0] != "NileEdge builds AI solutions." {
		t.Errorf("loadSnippets = %v", snippets)
	}
}

func TestLoadSnippetsErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"missing file", "", ""},
		{"malformed json", "bad.json", "{not an array"},
		{"empty text file", "empty.txt", "   \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(dir, "does-not-exist.json")
			if tt.file != "" {
				path = filepath.Join(dir, tt.file)
				if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			if _, err := loadSnippets(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

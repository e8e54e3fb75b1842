package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAnalyzeBatch_ReportPerDirectoryWithCollisionSuffix(t *testing.T) {
	home := isolateHome(t)

	// Two exports with the same base name in different parents
	d1 := filepath.Join(home, "eu", "export")
	d2 := filepath.Join(home, "us", "export")
	mustRun(t, "generate", d1, "--users", "20", "--seed", "1")
	mustRun(t, "generate", d2, "--users", "20", "--seed", "2")

	outDir := filepath.Join(home, "reports")
	out := mustRun(t, "analyze-batch", filepath.Join(home, "*", "export"), "-o", outDir, "--json")
	if !strings.Contains(out, "[2/2] Processing") {
		t.Fatalf("expected progress output, got:\n%s", out)
	}

	for _, name := range []string{"export.md", "export.json", "export__2.md", "export__2.json"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	body, err := os.ReadFile(filepath.Join(outDir, "export__2.md"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(body), "### Feature Adoption Detail") {
		t.Fatalf("report missing adoption section")
	}

	// A rerun must not overwrite earlier reports
	mustRun(t, "analyze-batch", d1, "-o", outDir, "--quiet")
	if _, err := os.Stat(filepath.Join(outDir, "export__3.md")); err != nil {
		t.Fatalf("expected export__3.md on rerun: %v", err)
	}
}

func TestAnalyzeBatch_NoMatches(t *testing.T) {
	home := isolateHome(t)
	if _, err := runCmd(t, "analyze-batch", filepath.Join(home, "missing-*")); err == nil {
		t.Fatalf("expected error for unmatched pattern")
	}
}

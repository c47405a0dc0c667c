/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestMain(m *testing.M) {
	// Build the binary before running tests
	wd := mustGetwd()
	cmd := exec.Command("go", "build", "-o", "lazycss_test", ".")
	cmd.Dir = wd
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("failed to build test binary: " + err.Error() + "\n" + string(out))
	}
	code := m.Run()
	_ = os.Remove(filepath.Join(wd, "lazycss_test"))
	os.Exit(code)
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return wd
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	binary := filepath.Join(mustGetwd(), "lazycss_test")
	cmd := exec.Command(binary, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("Failed to run CLI: %v", err)
		}
	}

	return stdout, stderr, exitCode
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func fixtureRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.Abs(filepath.Join("testdata", "trace", "basic"))
	if err != nil {
		t.Fatal(err)
	}
	return root
}

func TestVersion(t *testing.T) {
	stdout, stderr, code := runCLI(t, "version")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	if !strings.HasPrefix(stdout, "lazycss ") {
		t.Errorf("unexpected output: %s", stdout)
	}
}

func TestVersionJSON(t *testing.T) {
	stdout, stderr, code := runCLI(t, "version", "--format", "json")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	var info map[string]any
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		t.Fatalf("Failed to parse JSON output: %v\nstdout: %s", err, stdout)
	}
	if _, ok := info["version"]; !ok {
		t.Errorf("Expected a version field, got %v", info)
	}
}

func TestTraceText(t *testing.T) {
	root := fixtureRoot(t)

	stdout, stderr, code := runCLI(t, "trace", filepath.Join(root, "src", "main.js"),
		"--package", root, "--include", "src", "--scoped-name", "[name]_[local]")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}

	eager := "Eager CSS:\n  " + filepath.Join(root, "src", "theme.css")
	if !strings.Contains(stdout, eager) {
		t.Errorf("Expected %q in output:\n%s", eager, stdout)
	}
	lazy := filepath.Join(root, "src", "pages", "button.module.css") + " (module)"
	if !strings.Contains(stdout, lazy) {
		t.Errorf("Expected %q in output:\n%s", lazy, stdout)
	}
}

func TestTraceJSON(t *testing.T) {
	root := fixtureRoot(t)

	stdout, stderr, code := runCLI(t, "trace", filepath.Join(root, "index.html"),
		"--package", root, "--include", "src", "--format", "json")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}

	var report struct {
		Roots   []string `json:"roots"`
		LazyCSS []struct {
			ID string `json:"id"`
		} `json:"lazyCss"`
	}
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("Failed to parse JSON output: %v\nstdout: %s", err, stdout)
	}
	if len(report.LazyCSS) != 3 {
		t.Errorf("Expected 3 lazy stylesheets, got %d", len(report.LazyCSS))
	}
	if len(report.Roots) != 1 {
		t.Errorf("Expected 1 root, got %v", report.Roots)
	}
}

func TestTraceBatchNDJSON(t *testing.T) {
	root := fixtureRoot(t)

	stdout, stderr, code := runCLI(t, "trace",
		filepath.Join(root, "index.html"), filepath.Join(root, "src", "main.js"),
		"--package", root, "--include", "src")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 NDJSON lines, got %d:\n%s", len(lines), stdout)
	}
	for _, line := range lines {
		var result map[string]any
		if err := json.Unmarshal([]byte(line), &result); err != nil {
			t.Errorf("Invalid NDJSON line %q: %v", line, err)
		}
	}
}

func TestTraceNoFiles(t *testing.T) {
	_, stderr, code := runCLI(t, "trace", "--package", fixtureRoot(t), "--include", "src")
	if code == 0 {
		t.Fatal("Expected a non-zero exit code")
	}
	if !strings.Contains(stderr, "no files to trace") {
		t.Errorf("unexpected stderr: %s", stderr)
	}
}

func TestTraceMissingInclude(t *testing.T) {
	root := fixtureRoot(t)
	_, stderr, code := runCLI(t, "trace", filepath.Join(root, "src", "main.js"), "--package", root)
	if code == 0 {
		t.Fatal("Expected a non-zero exit code")
	}
	if !strings.Contains(stderr, "included-paths is required") {
		t.Errorf("unexpected stderr: %s", stderr)
	}
}

func TestInline(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"panel.css":  ".panel {\n  display: grid;\n}\n",
		"index.html": "<!doctype html><html><head><title>x</title></head><body></body></html>",
	})
	css := filepath.Join(dir, "panel.css")
	glob := filepath.Join(dir, "*.html")

	stdout, stderr, code := runCLI(t, "inline", css, "--glob", glob, "--package", dir)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "1 files modified") {
		t.Errorf("unexpected output: %s", stdout)
	}

	html, err := os.ReadFile(filepath.Join(dir, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), `data-lazy-css-id="panel.css-`) {
		t.Errorf("Expected a production injection id in:\n%s", html)
	}
	if !strings.Contains(string(html), ".panel{display:grid}") {
		t.Errorf("Expected minified CSS in:\n%s", html)
	}

	// a second run adopts the existing tag
	stdout, stderr, code = runCLI(t, "inline", css, "--glob", glob, "--package", dir)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "0 files modified, 1 unchanged") {
		t.Errorf("unexpected output: %s", stdout)
	}
}

func TestInlineDryRun(t *testing.T) {
	dir := t.TempDir()
	page := "<!doctype html><html><head></head><body></body></html>"
	writeTree(t, dir, map[string]string{
		"a.css":      ".a { color: red; }\n",
		"index.html": page,
	})

	stdout, stderr, code := runCLI(t, "inline", filepath.Join(dir, "a.css"),
		"--glob", filepath.Join(dir, "*.html"), "--package", dir, "--dry-run")
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "would update") {
		t.Errorf("unexpected output: %s", stdout)
	}
	html, _ := os.ReadFile(filepath.Join(dir, "index.html"))
	if string(html) != page {
		t.Error("dry run modified the file")
	}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"lazycss.yaml":        "included-paths: [src]\ncss-modules:\n  scoped-name: \"[name]_[local]\"\n",
		"src/main.js":         "import \"./theme.css\";\nimport(\"./lazy.js\").then((m) => m.run());\n",
		"src/theme.css":       "body { margin: 0; }\n",
		"src/lazy.js":         "import styles from \"./card.module.css\";\nexport const run = () => styles.card;\n",
		"src/card.module.css": ".card { padding: 1rem; }\n",
	})

	stdout, stderr, code := runCLI(t, "build", "src/main.js", "--package", dir)
	if code != 0 {
		t.Fatalf("Expected exit code 0, got %d\nstderr: %s", code, stderr)
	}
	if !strings.HasPrefix(stdout, "client: ") {
		t.Errorf("unexpected output: %s", stdout)
	}

	css, err := os.ReadFile(filepath.Join(dir, "dist", "main.css"))
	if err != nil {
		t.Fatalf("eager stylesheet not written: %v", err)
	}
	if strings.Contains(string(css), "card") {
		t.Errorf("lazy rule leaked into the eager stylesheet:\n%s", css)
	}
}

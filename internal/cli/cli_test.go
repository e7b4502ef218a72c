package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const resultsJSON = `[
  {"chunk_index": 0, "compliance": [
    {"parameter": "Temp", "actual_value": "70", "expected_value": "65", "is_compliant": false, "explanation": "too high"},
    {"parameter": "Pressure", "actual_value": "10", "expected_value": "10", "is_compliant": true, "explanation": "ok"}
  ]},
  {"chunk_index": 1, "compliance": [
    {"parameter": "Hardness", "actual_value": "5", "expected_value": "non stated", "is_compliant": false},
    {"parameter": "Humidity", "actual_value": "40", "expected_value": "45", "is_compliant": false}
  ], "standard_params": {"Weight": "400 mg"}}
]`

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

func mustEnv(t *testing.T, args ...string) map[string]any {
	t.Helper()
	stdout, stderr, err := runCLI(t, args)
	require.NoError(t, err, "complyview %v\nstderr:\n%s", args, stderr)
	var env map[string]any
	require.NoError(t, json.Unmarshal(stdout, &env), "stdout:\n%s", stdout)
	require.Contains(t, env, "data")
	return env
}

func writeResults(t *testing.T, dir string) string {
	t.Helper()
	p := filepath.Join(dir, "compliance_results.json")
	require.NoError(t, os.WriteFile(p, []byte(resultsJSON), 0o644))
	return p
}

func importSample(t *testing.T, dir string) string {
	t.Helper()
	env := mustEnv(t, "--dir", dir, "import", "--quiet", writeResults(t, t.TempDir()))
	id, _ := env["data"].(map[string]any)["id"].(string)
	require.True(t, strings.HasPrefix(id, "batch-"), "id %q", id)
	return id
}

func rowParams(t *testing.T, env map[string]any) []string {
	t.Helper()
	data := env["data"].(map[string]any)
	rows := data["rows"].([]any)
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.(map[string]any)["parameter"].(string))
	}
	return out
}

func TestImport_File(t *testing.T) {
	dir := t.TempDir()
	env := mustEnv(t, "--dir", dir, "import", writeResults(t, t.TempDir()), "--product", "Cefixime")
	data := env["data"].(map[string]any)
	require.Equal(t, float64(4), data["entryCount"])
	require.Equal(t, "Cefixime", data["product"])
	require.NotEmpty(t, env["_hints"])
}

func TestImport_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(resultsJSON))
	}))
	defer srv.Close()

	dir := t.TempDir()
	env := mustEnv(t, "--dir", dir, "import", "--quiet", "--url", srv.URL+"/compliance_results.json")
	data := env["data"].(map[string]any)
	require.Equal(t, float64(4), data["entryCount"])
	require.Equal(t, srv.URL+"/compliance_results.json", data["source"])
}

func TestImport_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := runCLI(t, []string{"--dir", dir, "import"})
	require.Error(t, err)

	_, _, err = runCLI(t, []string{"--dir", dir, "import", "a.json", "--url", "http://example.invalid/x.json"})
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o644))
	_, stderr, err := runCLI(t, []string{"--dir", dir, "import", bad})
	require.Error(t, err)
	require.Contains(t, string(stderr), "results:")
}

func TestRows_SortAndToggle(t *testing.T) {
	dir := t.TempDir()
	importSample(t, dir)

	env := mustEnv(t, "--dir", dir, "rows")
	require.Equal(t, []string{"Temp", "Pressure", "Hardness", "Humidity"}, rowParams(t, env))
	require.Nil(t, env["data"].(map[string]any)["sort"])

	env = mustEnv(t, "--dir", dir, "rows", "--sort", "parameter")
	require.Equal(t, []string{"Hardness", "Humidity", "Pressure", "Temp"}, rowParams(t, env))

	// Activating the same header twice flips the direction.
	env = mustEnv(t, "--dir", dir, "rows", "--sort", "parameter", "--sort", "parameter")
	require.Equal(t, []string{"Temp", "Pressure", "Humidity", "Hardness"}, rowParams(t, env))
	sortOut := env["data"].(map[string]any)["sort"].(map[string]any)
	require.Equal(t, "parameter", sortOut["column"])
	require.Equal(t, "desc", sortOut["direction"])

	env = mustEnv(t, "--dir", dir, "rows", "--sort", "2", "--desc")
	require.Equal(t, []string{"Temp", "Humidity", "Pressure", "Hardness"}, rowParams(t, env))

	env = mustEnv(t, "--dir", dir, "rows", "--sort", "is_compliant")
	require.Equal(t, []string{"Pressure", "Temp", "Humidity", "Hardness"}, rowParams(t, env))
}

func TestRows_Filters(t *testing.T) {
	dir := t.TempDir()
	importSample(t, dir)

	env := mustEnv(t, "--dir", dir, "rows", "--category", "non-compliant")
	require.Equal(t, []string{"Temp", "Hardness", "Humidity"}, rowParams(t, env))
	data := env["data"].(map[string]any)
	require.Equal(t, float64(4), data["total"])
	require.Equal(t, float64(3), data["visible"])

	env = mustEnv(t, "--dir", dir, "rows", "--query", "HUM", "--sort", "parameter")
	require.Equal(t, []string{"Humidity"}, rowParams(t, env))

	env = mustEnv(t, "--dir", dir, "rows", "--query", "ok", "--all")
	rows := env["data"].(map[string]any)["rows"].([]any)
	require.Len(t, rows, 4)
	vis := map[string]bool{}
	for _, r := range rows {
		m := r.(map[string]any)
		vis[m["parameter"].(string)] = m["visible"].(bool)
	}
	require.Equal(t, map[string]bool{"Temp": false, "Pressure": true, "Hardness": false, "Humidity": false}, vis)
}

func TestRows_Errors(t *testing.T) {
	dir := t.TempDir()

	_, stderr, err := runCLI(t, []string{"--dir", dir, "rows"})
	require.Error(t, err)
	require.Contains(t, string(stderr), "no results imported yet")

	importSample(t, dir)
	_, _, err = runCLI(t, []string{"--dir", dir, "rows", "--category", "bogus"})
	require.Error(t, err)
	_, _, err = runCLI(t, []string{"--dir", dir, "rows", "--sort", "nope"})
	require.Error(t, err)
	_, _, err = runCLI(t, []string{"--dir", dir, "rows", "--desc"})
	require.Error(t, err)
	_, _, err = runCLI(t, []string{"--dir", dir, "--batch", "batch-missing", "rows"})
	require.Error(t, err)
}

func TestRows_TableFormat(t *testing.T) {
	dir := t.TempDir()
	importSample(t, dir)

	stdout, _, err := runCLI(t, []string{"--dir", dir, "--format", "table", "rows", "--sort", "parameter", "--sort", "parameter"})
	require.NoError(t, err)
	out := string(stdout)
	require.Contains(t, out, "Parameter ▼")
	require.Less(t, strings.Index(out, "Temp"), strings.Index(out, "Hardness"))
}

func TestBatches(t *testing.T) {
	dir := t.TempDir()

	env := mustEnv(t, "--dir", dir, "batches", "list")
	require.Empty(t, env["data"])

	first := importSample(t, dir)
	second := importSample(t, dir)

	env = mustEnv(t, "--dir", dir, "batches", "list")
	list := env["data"].([]any)
	require.Len(t, list, 2)
	require.Equal(t, second, list[0].(map[string]any)["id"])

	env = mustEnv(t, "--dir", dir, "batches", "show", first)
	data := env["data"].(map[string]any)
	require.Equal(t, first, data["batch"].(map[string]any)["id"])
	params := data["standardParams"].([]any)
	require.Len(t, params, 1)

	// --batch selects an older batch for rows.
	env = mustEnv(t, "--dir", dir, "--batch", first, "rows")
	require.Equal(t, first, env["data"].(map[string]any)["batch"])

	mustEnv(t, "--dir", dir, "batches", "rm", second)
	_, _, err := runCLI(t, []string{"--dir", dir, "batches", "rm", second})
	require.Error(t, err)

	env = mustEnv(t, "--dir", dir, "rows")
	require.Equal(t, first, env["data"].(map[string]any)["batch"])
}

func TestReport(t *testing.T) {
	dir := t.TempDir()
	importSample(t, dir)

	stdout, _, err := runCLI(t, []string{"--dir", dir, "report", "--product", "Cefixime Tablets"})
	require.NoError(t, err)
	md := string(stdout)
	require.Contains(t, md, "# Compliance Report\n")
	require.Contains(t, md, "Batch Compliance Report for Cefixime Tablets")
	require.Contains(t, md, "| Pressure |")
	require.Contains(t, md, "- Weight: 400 mg")

	out := filepath.Join(t.TempDir(), "reports", "non_compliance_report.md")
	env := mustEnv(t, "--dir", dir, "report", "--non-compliant", "--out", out)
	data := env["data"].(map[string]any)
	require.Equal(t, float64(3), data["entries"])
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(b), "All parameters are complied with except the below:")
	require.NotContains(t, string(b), "| Pressure |")

	_, _, err = runCLI(t, []string{"--dir", dir, "report", "--out", out})
	require.Error(t, err)
	mustEnv(t, "--dir", dir, "report", "--out", out, "--force")
}

func TestConfig(t *testing.T) {
	dir := t.TempDir()

	env := mustEnv(t, "--dir", dir, "config", "show")
	data := env["data"].(map[string]any)
	require.Equal(t, "Cefixime Tablets USP 400 mg", data["product"])
	require.Equal(t, "127.0.0.1:8080", data["web"].(map[string]any)["addr"])

	mustEnv(t, "--dir", dir, "config", "init")
	_, err := os.Stat(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	_, _, err = runCLI(t, []string{"--dir", dir, "config", "init"})
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("product: Amoxicillin\n"), 0o644))
	env = mustEnv(t, "--dir", dir, "config", "show")
	require.Equal(t, "Amoxicillin", env["data"].(map[string]any)["product"])

	t.Setenv("COMPLYVIEW_PRODUCT", "Paracetamol")
	env = mustEnv(t, "--dir", dir, "config", "show")
	require.Equal(t, "Paracetamol", env["data"].(map[string]any)["product"])
}

func TestFormatEDN(t *testing.T) {
	dir := t.TempDir()
	importSample(t, dir)

	stdout, _, err := runCLI(t, []string{"--dir", dir, "--format", "edn", "batches", "list"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(stdout), "{:data"), "got %s", stdout)
}

func TestDoctor(t *testing.T) {
	dir := t.TempDir()

	env := mustEnv(t, "--dir", dir, "doctor", "--fail")
	issues := env["data"].(map[string]any)["issues"].([]any)
	require.Len(t, issues, 1)
	require.Equal(t, "no_database", issues[0].(map[string]any)["code"])

	importSample(t, dir)
	env = mustEnv(t, "--dir", dir, "doctor")
	data := env["data"].(map[string]any)
	require.Equal(t, float64(1), data["batches"])
	require.Empty(t, data["issues"])

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("product: [unclosed\n"), 0o644))
	_, _, err := runCLI(t, []string{"--dir", dir, "doctor", "--fail"})
	require.Error(t, err)
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	importSample(t, dir)
	custom := filepath.Join(t.TempDir(), "custom.yaml")

	_, _, err := runCLI(t, []string{"--dir", dir, "--config", custom, "rows"})
	require.Error(t, err)

	env := mustEnv(t, "--dir", dir, "--config", custom, "config", "init")
	require.Equal(t, custom, env["data"].(map[string]any)["path"])
	_, err = os.Stat(custom)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "config.yaml"))
	require.True(t, os.IsNotExist(err), "default config written: %v", err)

	_, _, err = runCLI(t, []string{"--dir", dir, "--config", custom, "config", "init"})
	require.Error(t, err)
	mustEnv(t, "--dir", dir, "--config", custom, "config", "init", "--force")

	mustEnv(t, "--dir", dir, "--config", custom, "rows")

	require.NoError(t, os.WriteFile(custom, []byte("product: [unclosed\n"), 0o644))
	_, _, err = runCLI(t, []string{"--dir", dir, "--config", custom, "doctor", "--fail"})
	require.Error(t, err)
	_, _, err = runCLI(t, []string{"--dir", dir, "--config", custom, "config", "show"})
	require.Error(t, err)

	env = mustEnv(t, "--dir", dir, "doctor", "--fail")
	require.Empty(t, env["data"].(map[string]any)["issues"])
}

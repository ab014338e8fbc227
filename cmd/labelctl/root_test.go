package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawOutput = "Aqui está a análise:\n```json\n" + `{
  "product_name": "Refrigerante",
  "overall_score": 3,
  "ingredients": [
    {"name": "Sacarose", "risk_score": 7, "concerns": ["Calorias vazias"]},
    {"name": "Água gaseificada", "risk_score": 10, "concerns": []}
  ],
  "personalized_alerts": null,
  "alternatives": ["Água com gás"],
  "summary": "Evite o consumo diário"
}` + "\n```"

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("CLAUDE_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("APP_HISTORY_ENABLED", "false")
	t.Setenv("APP_STORAGE_ENABLED", "false")
	t.Setenv("CACHE_ENABLED", "false")
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestLookupCommand(t *testing.T) {
	isolate(t)

	out, _, err := run(t, "", "lookup", "sacarose")
	require.NoError(t, err)
	assert.Contains(t, out, "Açúcar (alias match)")
	assert.Contains(t, out, "risk:     2/10")

	out, _, err = run(t, "", "lookup", "--json", "Açúcar")
	require.NoError(t, err)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "exact", resp["match"])

	_, _, err = run(t, "", "lookup", "ingrediente inexistente xyz")
	assert.Error(t, err)
}

func TestLookupCustomReference(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "ref.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ingredients":[{"name":"Sal","aliases":["NaCl"],"risk":4,"concerns":[]}]}`), 0o644))

	out, _, err := run(t, "", "--reference", path, "lookup", "nacl")
	require.NoError(t, err)
	assert.Contains(t, out, "Sal (alias match)")

	_, _, err = run(t, "", "--reference", filepath.Join(t.TempDir(), "missing.json"), "lookup", "sal")
	assert.Error(t, err, "an explicit reference file is required")
}

func TestNormalizeCommand(t *testing.T) {
	isolate(t)

	out, errOut, err := run(t, rawOutput, "normalize")
	require.NoError(t, err)
	assert.Contains(t, errOut, "verified 1 of 2 ingredients")

	var report struct {
		Ingredients []struct {
			Name      string   `json:"name"`
			RiskScore int      `json:"risk_score"`
			Concerns  []string `json:"concerns"`
			Verified  bool     `json:"verified"`
		} `json:"ingredients"`
		PersonalizedAlerts []string `json:"personalized_alerts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Ingredients, 2)
	assert.Equal(t, 2, report.Ingredients[0].RiskScore)
	assert.True(t, report.Ingredients[0].Verified)
	assert.Equal(t, "Calorias vazias", report.Ingredients[0].Concerns[0])
	assert.Equal(t, 10, report.Ingredients[1].RiskScore)
	assert.NotNil(t, report.PersonalizedAlerts)

	path := filepath.Join(t.TempDir(), "raw.txt")
	require.NoError(t, os.WriteFile(path, []byte(rawOutput), 0o644))
	_, _, err = run(t, "", "normalize", path)
	assert.NoError(t, err)

	_, _, err = run(t, "not json at all", "normalize", "-")
	assert.Error(t, err)
}

func writePNG(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	path := filepath.Join(t.TempDir(), "label.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestAnalyzeCommand(t *testing.T) {
	isolate(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "msg_1",
			"model":   "claude-test",
			"content": []map[string]string{{"type": "text", "text": rawOutput}},
			"usage":   map[string]int{"input_tokens": 10, "output_tokens": 20},
		})
	}))
	defer srv.Close()

	t.Setenv("CLAUDE_API_KEY", "sk-ant-test")
	t.Setenv("APP_CLAUDE_BASE_URL", srv.URL)

	out, _, err := run(t, "", "analyze", writePNG(t))
	require.NoError(t, err)

	var result struct {
		Provider string `json:"provider"`
		Model    string `json:"model"`
		Report   struct {
			ProductName string `json:"product_name"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "claude", result.Provider)
	assert.Equal(t, "claude-test", result.Model)
	assert.Equal(t, "Refrigerante", result.Report.ProductName)
}

func TestAnalyzeCommandErrors(t *testing.T) {
	isolate(t)

	_, _, err := run(t, "", "analyze", writePNG(t))
	assert.Error(t, err, "no provider configured")

	_, _, err = run(t, "", "analyze", filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	_, _, err = run(t, "", "analyze")
	assert.Error(t, err)
}

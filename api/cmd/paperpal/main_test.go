package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_QuizFallbackFromStdin(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("OPENROUTER_BASE_URL", upstream.URL)
	t.Setenv("LOG_LEVEL", "error")

	cmd := generateCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("paper text"))
	cmd.SetArgs([]string{"quiz", "--api-key", "k"})
	require.NoError(t, cmd.Execute())

	var got struct {
		Questions []map[string]any `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Len(t, got.Questions, 2)
}

func TestGenerate_Rejects(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PAPERPAL_API_KEY", "")

	cmd := generateCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("text"))
	cmd.SetArgs([]string{"essay"})
	assert.Error(t, cmd.Execute())

	cmd = generateCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("text"))
	cmd.SetArgs([]string{"summary"})
	assert.ErrorContains(t, cmd.Execute(), "missing required field")
}

func TestReadInput(t *testing.T) {
	p := filepath.Join(t.TempDir(), "paper.txt")
	require.NoError(t, os.WriteFile(p, []byte("from file"), 0o644))

	s, err := readInput(p, strings.NewReader("stdin"))
	require.NoError(t, err)
	assert.Equal(t, "from file", s)

	s, err = readInput("-", strings.NewReader("stdin"))
	require.NoError(t, err)
	assert.Equal(t, "stdin", s)
}

func TestAnalyze_FallsBackWhenUpstreamDown(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("OPENROUTER_BASE_URL", down.URL)
	t.Setenv("IMAGE_SEARCH_URL", down.URL)
	t.Setenv("LOG_LEVEL", "error")

	cmd := analyzeCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"../../internal/pdftext/testdata/sample.pdf", "--api-key", "k"})
	require.NoError(t, cmd.Execute())

	var got struct {
		Paper struct {
			Title         string `json:"title"`
			ExtractedText string `json:"extractedText"`
		} `json:"paper"`
		Fallbacks map[string]string `json:"fallbacks"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "Research Paper", got.Paper.Title)
	assert.Contains(t, got.Paper.ExtractedText, "Attention Is All You Need")
	assert.Equal(t, "upstream_error", got.Fallbacks["summary"])
	assert.Len(t, got.Fallbacks, 3)
}

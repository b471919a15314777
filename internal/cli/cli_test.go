package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/types"

	"github.com/spf13/pflag"
)

func testConfig() *config.Config {
	return &config.Config{
		Embedding: config.EmbeddingConfig{
			Provider:   "hashing",
			Model:      "local",
			Timeout:    time.Second,
			Dimensions: 256,
		},
		Matching: config.MatchingConfig{
			MaxKeywords:    15,
			SemanticWeight: 0.7,
			KeywordWeight:  0.3,
			OverlapMode:    "exact",
			Stopwords:      config.StopwordsConfig{Language: "english"},
		},
		App: config.AppConfig{
			LogLevel:         "error",
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text", "markdown"},
			MaxFileSize:      1 << 20,
		},
	}
}

// run executes the root command with args against cfg and returns stdout.
func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	ctx := WithRuntime(context.Background(), cfg, errors.NewLogger(slog.LevelError))
	for _, cmd := range rootCmd.Commands() {
		// cobra keeps the context a subcommand saw on an earlier run
		cmd.SetContext(ctx)
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	matchConfig.OutputFormat, keywordsConfig.OutputFormat = "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMatchCommand(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.txt", "Experienced Python developer with machine learning background")
	job := writeFile(t, dir, "job.txt", "Looking for Python developer experienced in machine learning")

	out, err := run(t, testConfig(), "match", resume, job, "-f", "json")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	var report types.MatchReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if report.KeywordScore != 0 {
		t.Errorf("exact overlap = %v, want 0", report.KeywordScore)
	}
	if len(report.MissingKeywords) != 3 {
		t.Errorf("missing = %q", report.MissingKeywords)
	}

	out, err = run(t, testConfig(), "match", resume, job, "--overlap-mode", "token", "-f", "text")
	if err != nil {
		t.Fatalf("match token: %v", err)
	}
	if !strings.Contains(out, "Keyword Score:  66.67/100") {
		t.Errorf("unexpected text output:\n%s", out)
	}

	out, err = run(t, testConfig(), "match", resume, job, "--max-keywords", "0", "-f", "json")
	if err != nil {
		t.Fatalf("match --max-keywords 0: %v", err)
	}
	report = types.MatchReport{}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(report.ResumeKeywords) != 0 || len(report.JobKeywords) != 0 || report.KeywordScore != 0 {
		t.Errorf("--max-keywords 0 report = %+v", report)
	}
}

func TestMatchCommandOutputFile(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.md", "Go developer, Kafka")
	job := writeFile(t, dir, "job.html", "<html><body><h1>Go developer</h1><script>x()</script><p>Kafka</p></body></html>")
	outFile := filepath.Join(dir, "out", "report.md")

	stdout, err := run(t, testConfig(), "match", resume, job, "-f", "markdown", "-o", outFile)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if stdout != "" {
		t.Errorf("stdout should be empty, got %q", stdout)
	}
	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "# Resume Match Report") {
		t.Errorf("unexpected report:\n%s", data)
	}
}

func TestMatchCommandErrors(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.txt", "Go developer")
	empty := writeFile(t, dir, "empty.txt", "  \n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"one file", []string{"match", resume}, "please provide both"},
		{"empty file", []string{"match", resume, empty}, "one of the files is empty"},
		{"missing file", []string{"match", resume, filepath.Join(dir, "nope.txt")}, "FILE_NOT_FOUND"},
		{"bad format", []string{"match", resume, resume, "-f", "yaml"}, "unsupported output format"},
		{"bad overlap mode", []string{"match", resume, resume, "--overlap-mode", "fuzzy"}, "INVALID_CONFIG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, testConfig(), tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestMatchCommandEmptyFileIsEmptyInput(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.txt", "Go developer")
	empty := writeFile(t, dir, "empty.txt", "")
	_, err := run(t, testConfig(), "match", empty, resume)
	if !errors.IsType(err, errors.ErrorTypeEmptyInput) {
		t.Errorf("expected empty_input error, got %v", err)
	}
}

func TestKeywordsCommand(t *testing.T) {
	dir := t.TempDir()
	job := writeFile(t, dir, "job.txt", "Looking for Python developer experienced in machine learning")

	cfg := testConfig()
	// keywords never embeds, so an unusable provider is fine
	cfg.Embedding.Provider = "gemini"

	out, err := run(t, cfg, "keywords", job, "--max", "2", "-f", "json")
	if err != nil {
		t.Fatalf("keywords: %v", err)
	}
	var report types.KeywordReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	want := []string{"python developer experienced", "machine learning"}
	if strings.Join(report.Keywords, "|") != strings.Join(want, "|") {
		t.Errorf("keywords = %q, want %q", report.Keywords, want)
	}
	if report.Source != job || report.Language != "english" {
		t.Errorf("report = %+v", report)
	}

	out, err = run(t, cfg, "keywords", job, "--max", "0", "-f", "json")
	if err != nil {
		t.Fatalf("keywords --max 0: %v", err)
	}
	report = types.KeywordReport{}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(report.Keywords) != 0 {
		t.Errorf("--max 0 kept %q", report.Keywords)
	}

	if _, err := run(t, cfg, "keywords", job, "--max", "-1"); err == nil {
		t.Error("negative --max should fail")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, testConfig(), "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "resumatch version "+Version) {
		t.Errorf("unexpected output %q", out)
	}
}

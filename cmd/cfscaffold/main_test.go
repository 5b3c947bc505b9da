package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"cfscaffold/internal/config"
	"cfscaffold/internal/generator"
	"cfscaffold/internal/pipeline"
	"cfscaffold/internal/types"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const problemPage = `<html><body><div class="problem-statement">
<div class="sample-test">
<div class="input"><div class="title">Input</div><pre>2 3
</pre></div>
<div class="output"><div class="title">Output</div><pre>5
</pre></div>
</div></div></body></html>`

type fakeCodeforces struct {
	*httptest.Server
	pageHits atomic.Int32
}

func newFakeCodeforces(t *testing.T) *fakeCodeforces {
	t.Helper()
	f := &fakeCodeforces{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/contest.standings", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"OK","result":{"contest":{"id":7,"name":"Round 7"},"problems":[
			{"contestId":7,"index":"A","name":"Add"},
			{"contestId":7,"index":"B","name":"Add more"}]}}`)
	})
	mux.HandleFunc("/contest/7/problem/", func(w http.ResponseWriter, r *http.Request) {
		f.pageHits.Add(1)
		fmt.Fprint(w, problemPage)
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

// setupCLI points the global flags at a config file aimed at site and
// resets them when the test ends.
func setupCLI(t *testing.T, site string, cacheEnabled bool) string {
	t.Helper()
	for _, k := range []string{"CFSCAFFOLD_API_BASE", "CFSCAFFOLD_SITE_BASE", "CFSCAFFOLD_LANG", "CFSCAFFOLD_CACHE", "CFSCAFFOLD_DEBUGGER_URL"} {
		t.Setenv(k, "")
	}

	dir := t.TempDir()
	c := config.DefaultConfig()
	c.Codeforces.APIBase = site + "/api"
	c.Codeforces.SiteBase = site
	c.Poll.Interval = "1ms"
	c.Poll.MaxAttempts = 3
	c.HTTP.RequestsPerSecond = 0
	c.Cache.Enabled = cacheEnabled
	c.Cache.Path = filepath.Join(dir, "pages.db")
	path := filepath.Join(dir, "cfscaffold.yaml")
	require.NoError(t, c.Save(path))

	configPath = path
	cfg = nil
	lang = ""
	useBrowser = false
	noCache = false
	logger = zap.NewNop()
	t.Cleanup(func() {
		cfg = nil
		lang = ""
		configPath = config.DefaultPath
	})
	return dir
}

func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	return cmd, &out
}

func TestParseContestID(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1500", 1500, false},
		{"1", 1, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parseContestID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseContestID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseContestID(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRootCmd_RequiresTwoArgs(t *testing.T) {
	assert.Error(t, rootCmd.Args(rootCmd, []string{"7"}))
	assert.Error(t, rootCmd.Args(rootCmd, []string{"7", "out", "extra"}))
	assert.NoError(t, rootCmd.Args(rootCmd, []string{"7", "out"}))
}

func TestRunScaffold(t *testing.T) {
	site := newFakeCodeforces(t)
	setupCLI(t, site.URL, false)
	root := t.TempDir()

	cmd, out := newTestCmd()
	require.NoError(t, runScaffold(cmd, []string{"7", root}))

	assert.Equal(t, "Processing: A\nProcessing: B\n", out.String())
	for _, idx := range []string{"A", "B"} {
		assert.FileExists(t, filepath.Join(root, "7", idx, "solution_test.go"))
		assert.FileExists(t, filepath.Join(root, "7", idx, "go.mod"))
	}

	// Same contest again is refused before any request.
	cfg = nil
	hits := site.pageHits.Load()
	err := runScaffold(cmd, []string{"7", root})
	require.ErrorIs(t, err, pipeline.ErrOutputExists)
	assert.Equal(t, hits, site.pageHits.Load())
}

func TestRunScaffold_LangFlag(t *testing.T) {
	site := newFakeCodeforces(t)
	setupCLI(t, site.URL, false)
	lang = "rust"
	root := t.TempDir()

	cmd, _ := newTestCmd()
	require.NoError(t, runScaffold(cmd, []string{"7", root}))

	assert.FileExists(t, filepath.Join(root, "7", "A", "Cargo.toml"))
	assert.FileExists(t, filepath.Join(root, "7", "A", "src", "tests.rs"))
}

func TestRunScaffold_InvalidLanguage(t *testing.T) {
	setupCLI(t, "http://127.0.0.1:1", false)
	lang = "cobol"

	cmd, _ := newTestCmd()
	err := runScaffold(cmd, []string{"7", t.TempDir()})
	require.ErrorIs(t, err, generator.ErrUnknownSet)
	assert.Contains(t, err.Error(), "invalid language")
}

func TestEnsureConfig_AcceptsEveryTemplateSet(t *testing.T) {
	for _, name := range generator.SetNames() {
		setupCLI(t, "http://cf.test", false)
		lang = name

		c, err := ensureConfig()
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Generate.Language)
	}
}

func TestRunSamples(t *testing.T) {
	site := newFakeCodeforces(t)
	setupCLI(t, site.URL, false)

	cmd, out := newTestCmd()
	require.NoError(t, runSamples(cmd, []string{"7", "A"}))

	var doc samplesDoc
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "7A", doc.Problem)
	assert.Equal(t, site.URL+"/contest/7/problem/A", doc.URL)
	assert.Equal(t, []types.SampleTest{{Input: "2 3\n", Output: "5\n"}}, doc.Samples)
}

func TestRunSamples_UsesPageCache(t *testing.T) {
	site := newFakeCodeforces(t)
	dir := setupCLI(t, site.URL, true)

	for i := 0; i < 2; i++ {
		cmd, out := newTestCmd()
		require.NoError(t, runSamples(cmd, []string{"7", "B"}))
		assert.Contains(t, out.String(), "problem: 7B")
	}

	assert.EqualValues(t, 1, site.pageHits.Load())
	assert.FileExists(t, filepath.Join(dir, "pages.db"))

	// --no-cache goes to the site again.
	cfg = nil
	noCache = true
	defer func() { noCache = false }()
	cmd, _ := newTestCmd()
	require.NoError(t, runSamples(cmd, []string{"7", "B"}))
	assert.EqualValues(t, 2, site.pageHits.Load())
}

func TestRunTemplates(t *testing.T) {
	cmd, out := newTestCmd()
	require.NoError(t, runTemplates(cmd, nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.True(t, strings.HasPrefix(lines[1], "go "))
	assert.Contains(t, lines[1], "v1")
	assert.True(t, strings.HasPrefix(lines[2], "rust "))

	showFiles = true
	defer func() { showFiles = false }()
	cmd, out = newTestCmd()
	require.NoError(t, runTemplates(cmd, nil))
	assert.Contains(t, out.String(), "src/tests.rs (tests)")
}

func TestRunConfig_Write(t *testing.T) {
	setupCLI(t, "http://cf.test", false)
	lang = "rust"
	target := filepath.Join(t.TempDir(), "out", "cfscaffold.yaml")

	// Load from the prepared file, then save to the new path.
	_, err := ensureConfig()
	require.NoError(t, err)
	configPath = target
	writeConfig = true
	defer func() { writeConfig = false }()

	cmd, out := newTestCmd()
	require.NoError(t, runConfig(cmd, nil))
	assert.Contains(t, out.String(), "Wrote "+target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	var saved config.Config
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Equal(t, "rust", saved.Generate.Language)
	assert.Equal(t, "http://cf.test/api", saved.Codeforces.APIBase)
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dshills/patchguard/internal/cache"
	"github.com/dshills/patchguard/internal/config"
	"github.com/dshills/patchguard/internal/github"
	"github.com/dshills/patchguard/internal/review"
)

// resetFlags restores every flag in the command tree to its default.
func resetFlags() {
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}

// isolate points config and cache lookups at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

// execute runs the root command with args and stdin. exitCode is reset
// before the run and restored after the test.
func execute(t *testing.T, stdin string, args ...string) error {
	t.Helper()
	resetFlags()
	saved := exitCode
	t.Cleanup(func() { exitCode = saved })
	exitCode = ExitSuccess

	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	return rootCmd.Execute()
}

func readReport(t *testing.T, path string) review.Report {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	var r review.Report
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("report is not valid JSON: %v\n%s", err, data)
	}
	return r
}

// --- splitComma tests ---

func TestSplitComma(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty string", "", nil},
		{"single value", "foo", []string{"foo"}},
		{"multiple values", "a,b,c", []string{"a", "b", "c"}},
		{"whitespace trimmed", " a , b , c ", []string{"a", "b", "c"}},
		{"empty parts skipped", "a,,b", []string{"a", "b"}},
		{"all empty", ",,,", nil},
		{"glob patterns", "*.go,src/**/*.ts", []string{"*.go", "src/**/*.ts"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitComma(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("splitComma(%q) = %v (len %d), want %v (len %d)",
					tt.input, got, len(got), tt.want, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("splitComma(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

// --- buildOverrides tests ---

func parsedFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addDiffFlags(cmd.Flags())
	addAnalysisFlags(cmd.Flags())
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	return cmd.Flags()
}

func TestBuildOverrides_NoFlags(t *testing.T) {
	m := buildOverrides(parsedFlags(t))
	if len(m) != 0 {
		t.Errorf("buildOverrides() with no flags = %v, want empty map", m)
	}
}

func TestBuildOverrides_AllFlags(t *testing.T) {
	m := buildOverrides(parsedFlags(t,
		"--format", "json",
		"--fail-on", "high",
		"--categories", "security,style",
		"--concurrency", "8",
		"--context-lines", "5",
		"--max-diff-bytes", "1000",
		"--rules", "rules.yaml",
	))

	expected := map[string]string{
		"format":       "json",
		"failOn":       "high",
		"categories":   "security,style",
		"concurrency":  "8",
		"contextLines": "5",
		"maxDiffBytes": "1000",
		"rulesFile":    "rules.yaml",
	}
	if len(m) != len(expected) {
		t.Fatalf("buildOverrides() returned %d entries, want %d: %v", len(m), len(expected), m)
	}
	for k, v := range expected {
		if m[k] != v {
			t.Errorf("buildOverrides()[%q] = %q, want %q", k, m[k], v)
		}
	}

	// Every override key must be one config.Load accepts.
	keys := make(map[string]bool)
	for _, k := range config.Keys() {
		keys[k] = true
	}
	for k := range m {
		if !keys[k] {
			t.Errorf("override key %q is not a config key", k)
		}
	}
}

func TestBuildOverrides_ExplicitZero(t *testing.T) {
	m := buildOverrides(parsedFlags(t, "--context-lines", "0"))
	if m["contextLines"] != "0" {
		t.Errorf("contextLines = %q, want explicit 0 kept", m["contextLines"])
	}
	if _, ok := m["maxDiffBytes"]; ok {
		t.Error("unset maxDiffBytes should not be in overrides")
	}
}

func TestBuildOverrides_PartialFlagSet(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&flagFormat, "format", "", "")
	if err := cmd.ParseFlags([]string{"--format", "json"}); err != nil {
		t.Fatal(err)
	}
	m := buildOverrides(cmd.Flags())
	if len(m) != 1 || m["format"] != "json" {
		t.Errorf("buildOverrides() = %v", m)
	}
}

// --- buildDiffOpts tests ---

func TestBuildDiffOpts_FromConfig(t *testing.T) {
	resetFlags()
	cfg := config.Config{
		ContextLines: 5,
		MaxDiffBytes: 100000,
		Include:      []string{"*.go"},
		Exclude:      []string{"vendor/**"},
	}

	opts := buildDiffOpts(cfg)

	if opts.ContextLines != 5 {
		t.Errorf("ContextLines = %d, want 5", opts.ContextLines)
	}
	if opts.MaxDiffBytes != 100000 {
		t.Errorf("MaxDiffBytes = %d, want 100000", opts.MaxDiffBytes)
	}
	if len(opts.Include) != 1 || opts.Include[0] != "*.go" {
		t.Errorf("Include = %v, want [*.go]", opts.Include)
	}
	if len(opts.Exclude) != 1 || opts.Exclude[0] != "vendor/**" {
		t.Errorf("Exclude = %v, want [vendor/**]", opts.Exclude)
	}
}

func TestBuildDiffOpts_PathsFlagOverridesInclude(t *testing.T) {
	resetFlags()
	flagPaths = "src/**/*.go,lib/**/*.go"

	opts := buildDiffOpts(config.Config{Include: []string{"**/*"}})

	if len(opts.Include) != 2 || opts.Include[0] != "src/**/*.go" || opts.Include[1] != "lib/**/*.go" {
		t.Errorf("Include = %v, want [src/**/*.go lib/**/*.go]", opts.Include)
	}
}

func TestBuildDiffOpts_ExcludeFlagAppends(t *testing.T) {
	resetFlags()
	flagExclude = "test/**,docs/**"

	cfgExclude := []string{"vendor/**"}
	opts := buildDiffOpts(config.Config{Exclude: cfgExclude})

	want := []string{"vendor/**", "test/**", "docs/**"}
	if len(opts.Exclude) != len(want) {
		t.Fatalf("Exclude = %v, want %v", opts.Exclude, want)
	}
	for i := range want {
		if opts.Exclude[i] != want[i] {
			t.Errorf("Exclude[%d] = %q, want %q", i, opts.Exclude[i], want[i])
		}
	}
	if len(cfgExclude) != 1 {
		t.Error("config exclude list was modified")
	}
}

// --- exit code tests ---

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		code int
		want int
	}{
		{"ExitSuccess", ExitSuccess, 0},
		{"ExitFindings", ExitFindings, 1},
		{"ExitUsageError", ExitUsageError, 2},
		{"ExitAuthError", ExitAuthError, 3},
		{"ExitRuntimeError", ExitRuntimeError, 4},
	}
	for _, tt := range tests {
		if tt.code != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.code, tt.want)
		}
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"auth", github.ErrAuth, ExitAuthError},
		{"wrapped auth", fmt.Errorf("posting review: %w", github.ErrAuth), ExitAuthError},
		{"gate", github.ErrGateBlocked, ExitUsageError},
		{"other", os.ErrNotExist, ExitRuntimeError},
	}
	for _, tt := range tests {
		if got := exitCodeFor(tt.err); got != tt.want {
			t.Errorf("%s: exitCodeFor = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestVersionCmd_Execute(t *testing.T) {
	if err := execute(t, "", "version"); err != nil {
		t.Errorf("version command returned error: %v", err)
	}
	if version == "" {
		t.Error("version constant is empty")
	}
}

// --- command tree tests ---

func TestScanCmd_HasSubcommands(t *testing.T) {
	expected := map[string]bool{
		"unstaged": false,
		"staged":   false,
		"commit":   false,
		"range":    false,
		"snippet":  false,
		"codebase": false,
	}
	for _, sub := range scanCmd.Commands() {
		if _, ok := expected[sub.Name()]; ok {
			expected[sub.Name()] = true
		}
		for _, flag := range []string{"paths", "exclude", "context-lines", "max-diff-bytes", "categories",
			"concurrency", "format", "out", "fail-on", "rules", "no-redact", "no-cache"} {
			if sub.Flags().Lookup(flag) == nil {
				t.Errorf("scan %s is missing --%s", sub.Name(), flag)
			}
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("scan subcommand %q not found", name)
		}
	}
}

func TestScanCommitCmd_MissingArg(t *testing.T) {
	if err := execute(t, "", "scan", "commit"); err == nil {
		t.Error("scan commit without SHA arg should return error")
	}
}

func TestScanRangeCmd_MissingArg(t *testing.T) {
	if err := execute(t, "", "scan", "range"); err == nil {
		t.Error("scan range without arg should return error")
	}
}

// --- scan snippet end to end ---

const evalSnippet = "const x = 1;\neval(userInput);\n"

func TestScanSnippet_FindingsExitCode(t *testing.T) {
	dir := isolate(t)
	out := filepath.Join(dir, "report.json")

	err := execute(t, evalSnippet, "scan", "snippet", "--path", "web/app.js",
		"--format", "json", "--out", out, "--fail-on", "high", "--no-cache")
	if err != nil {
		t.Fatalf("scan snippet error: %v", err)
	}
	if exitCode != ExitFindings {
		t.Errorf("exitCode = %d, want %d", exitCode, ExitFindings)
	}

	r := readReport(t, out)
	if r.Inputs.Mode != "snippet" {
		t.Errorf("Mode = %q, want snippet", r.Inputs.Mode)
	}
	if len(r.Findings) != 1 {
		t.Fatalf("Findings = %+v, want one", r.Findings)
	}
	f := r.Findings[0]
	if f.RuleID != "js-eval" || f.Line != 2 || f.Path != "web/app.js" || f.ID != "issue-1" {
		t.Errorf("finding = %+v", f)
	}
	if r.Decision.ApproveAllowed {
		t.Error("critical finding should block approval")
	}
}

func TestScanSnippet_BelowThreshold(t *testing.T) {
	dir := isolate(t)
	out := filepath.Join(dir, "report.json")

	err := execute(t, "console.log(x);\n", "scan", "snippet", "--path", "a.js",
		"--format", "json", "--out", out, "--fail-on", "high", "--no-cache")
	if err != nil {
		t.Fatal(err)
	}
	if exitCode != ExitSuccess {
		t.Errorf("exitCode = %d, want %d (medium is below high)", exitCode, ExitSuccess)
	}
	if r := readReport(t, out); r.Summary.Counts.Medium != 1 {
		t.Errorf("Counts = %+v, want one medium", r.Summary.Counts)
	}
}

func TestScanSnippet_LangOverride(t *testing.T) {
	dir := isolate(t)
	out := filepath.Join(dir, "report.json")

	err := execute(t, evalSnippet, "scan", "snippet", "--lang", "python",
		"--format", "json", "--out", out, "--no-cache")
	if err != nil {
		t.Fatal(err)
	}
	r := readReport(t, out)
	if len(r.Findings) != 1 || r.Findings[0].RuleID != "py-eval" {
		t.Errorf("findings = %+v, want py-eval", r.Findings)
	}
}

func TestScanSnippet_CategoryFilter(t *testing.T) {
	dir := isolate(t)
	out := filepath.Join(dir, "report.json")

	err := execute(t, evalSnippet, "scan", "snippet", "--path", "a.js", "--categories", "style",
		"--format", "json", "--out", out, "--fail-on", "low", "--no-cache")
	if err != nil {
		t.Fatal(err)
	}
	if exitCode != ExitSuccess {
		t.Errorf("exitCode = %d, want %d", exitCode, ExitSuccess)
	}
	if r := readReport(t, out); len(r.Findings) != 0 {
		t.Errorf("findings = %+v, want none with only style enabled", r.Findings)
	}
}

func TestScanSnippet_Redaction(t *testing.T) {
	dir := isolate(t)
	out := filepath.Join(dir, "report.json")
	src := `const password = "hunter2hunter2";` + "\n"

	if err := execute(t, src, "scan", "snippet", "--path", "a.js", "--format", "json", "--out", out, "--no-cache"); err != nil {
		t.Fatal(err)
	}
	r := readReport(t, out)
	if len(r.Findings) == 0 {
		t.Fatal("expected a credential finding")
	}
	if strings.Contains(r.Findings[0].Snippet, "hunter2hunter2") {
		t.Errorf("snippet not redacted: %q", r.Findings[0].Snippet)
	}

	if err := execute(t, src, "scan", "snippet", "--path", "a.js", "--format", "json", "--out", out, "--no-cache", "--no-redact"); err != nil {
		t.Fatal(err)
	}
	r = readReport(t, out)
	if !strings.Contains(r.Findings[0].Snippet, "hunter2hunter2") {
		t.Errorf("--no-redact snippet = %q", r.Findings[0].Snippet)
	}
}

func TestScanSnippet_CacheReuse(t *testing.T) {
	dir := isolate(t)
	out := filepath.Join(dir, "report.json")

	for i := 0; i < 2; i++ {
		if err := execute(t, evalSnippet, "scan", "snippet", "--path", "a.js", "--format", "json", "--out", out); err != nil {
			t.Fatal(err)
		}
	}
	r := readReport(t, out)
	if len(r.Files) != 1 || !r.Files[0].Cached {
		t.Errorf("second run files = %+v, want cached", r.Files)
	}
	if len(r.Findings) != 1 || r.Findings[0].ID != "issue-1" {
		t.Errorf("cached findings = %+v", r.Findings)
	}
}

func TestScanSnippet_BadCategory(t *testing.T) {
	isolate(t)
	err := execute(t, evalSnippet, "scan", "snippet", "--categories", "nonsense", "--no-cache")
	if err != nil {
		t.Fatal(err)
	}
	if exitCode != ExitRuntimeError {
		t.Errorf("exitCode = %d, want %d", exitCode, ExitRuntimeError)
	}
}

// --- config command tests ---

func TestConfigInit_CreatesFile(t *testing.T) {
	dir := isolate(t)

	if err := execute(t, "", "config", "init"); err != nil {
		t.Fatalf("config init returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "config", "patchguard", "config.json"))
	if err != nil {
		t.Fatalf("config init did not create config.json: %v", err)
	}
	var cfg config.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("config file is not valid JSON: %v", err)
	}
	if cfg.Format != "text" || cfg.Concurrency != 4 {
		t.Errorf("config file = %+v, want defaults", cfg)
	}
}

func TestConfigInit_AlreadyExists(t *testing.T) {
	dir := isolate(t)
	cfgDir := filepath.Join(dir, "config", "patchguard")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte(`{"format":"json"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, "", "config", "init"); err != nil {
		t.Fatalf("config init with existing file returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfgDir, "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"format":"json"}` {
		t.Errorf("config init overwrote existing file: %s", data)
	}
}

func TestConfigInit_Force(t *testing.T) {
	dir := isolate(t)
	cfgDir := filepath.Join(dir, "config", "patchguard")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "config.json")
	if err := os.WriteFile(path, []byte(`{"format":"json"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, "", "config", "init", "--force"); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.LoadFile()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Format != "text" {
		t.Errorf("format = %q after --force, want text", cfg.Format)
	}
}

func TestConfigSet_UpdatesFile(t *testing.T) {
	dir := isolate(t)

	if err := execute(t, "", "config", "set", "failOn", "medium"); err != nil {
		t.Fatalf("config set returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "config", "patchguard", "config.json"))
	if err != nil {
		t.Fatalf("cannot read config file: %v", err)
	}
	var cfg config.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.FailOn != "medium" {
		t.Errorf("failOn = %q, want medium", cfg.FailOn)
	}

	loaded, err := config.Load(nil)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.FailOn != "medium" {
		t.Errorf("effective failOn = %q, want medium", loaded.FailOn)
	}
}

func TestConfigSet_Errors(t *testing.T) {
	isolate(t)
	if err := execute(t, "", "config", "set", "unknownKey", "value"); err == nil {
		t.Error("config set with invalid key should return error")
	}
	if err := execute(t, "", "config", "set", "concurrency", "zero"); err == nil {
		t.Error("config set with non-integer should return error")
	}
	if err := execute(t, "", "config", "set", "format", "xml"); err == nil {
		t.Error("config set with invalid format should return error")
	}
	if err := execute(t, "", "config", "set", "format"); err == nil {
		t.Error("config set with 1 arg should return error")
	}
}

func TestConfigShowAndKeys(t *testing.T) {
	isolate(t)
	if err := execute(t, "", "config", "show"); err != nil {
		t.Errorf("config show returned error: %v", err)
	}
	if err := execute(t, "", "config", "path"); err != nil {
		t.Errorf("config path returned error: %v", err)
	}
	if err := execute(t, "", "config", "keys"); err != nil {
		t.Errorf("config keys returned error: %v", err)
	}
}

// --- cache command tests ---

func TestCacheShow_Execute(t *testing.T) {
	isolate(t)
	if err := execute(t, "", "cache", "show"); err != nil {
		t.Errorf("cache show returned error: %v", err)
	}
	if err := execute(t, "", "cache", "show", "--format", "json"); err != nil {
		t.Errorf("cache show --format json returned error: %v", err)
	}
}

func TestWriteCacheStats(t *testing.T) {
	var text, js strings.Builder
	stats := cache.Stats{Dir: "/tmp/pg", Entries: 3, Expired: 1, TotalBytes: 2048}

	if err := writeCacheStats(&text, "text", stats); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"/tmp/pg", "3 (1 expired)", "2.0 KiB"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("text output missing %q:\n%s", want, text.String())
		}
	}

	if err := writeCacheStats(&js, "json", stats); err != nil {
		t.Fatal(err)
	}
	var decoded cache.Stats
	if err := json.Unmarshal([]byte(js.String()), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded != stats {
		t.Errorf("decoded = %+v, want %+v", decoded, stats)
	}
}

func TestCacheClear_ExpiredOnly(t *testing.T) {
	isolate(t)

	c, err := cache.New(true, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put("key", "value"); err != nil {
		t.Fatal(err)
	}
	c.Close()

	if err := execute(t, "", "cache", "clear", "--expired"); err != nil {
		t.Fatal(err)
	}

	c, err = cache.New(true, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if _, ok := c.Get("key"); !ok {
		t.Error("entry without TTL should survive clear --expired")
	}
}

func TestCacheClear_Execute(t *testing.T) {
	isolate(t)

	c, err := cache.New(true, "", 3600)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put("key", "value"); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, "", "cache", "clear"); err != nil {
		t.Fatalf("cache clear returned error: %v", err)
	}

	c, err = cache.New(true, "", 3600)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	stats, err := c.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 0 {
		t.Errorf("Entries = %d after clear, want 0", stats.Entries)
	}
}

// --- rules command tests ---

func TestSelectRules(t *testing.T) {
	reg, err := review.LoadRegistry("")
	if err != nil {
		t.Fatal(err)
	}

	js := selectRules(reg, "javascript", review.NewCategorySet(review.CategorySecurity))
	if len(js) == 0 || js[0].ID != "js-eval" {
		t.Fatalf("javascript rules = %v", js)
	}
	sawGeneric := false
	for _, r := range js {
		if r.Category != review.CategorySecurity {
			t.Errorf("rule %s has category %s", r.ID, r.Category)
		}
		if r.Language == review.GenericLanguage {
			sawGeneric = true
		} else if sawGeneric {
			t.Errorf("language rule %s listed after generic rules", r.ID)
		}
	}
	if !sawGeneric {
		t.Error("generic rules should follow language rules")
	}

	all := selectRules(reg, "", nil)
	for _, r := range all {
		if r.Category == review.CategoryStyle {
			t.Errorf("style rule %s listed with default categories", r.ID)
		}
	}
	if len(all) <= len(js) {
		t.Errorf("all rules (%d) should outnumber javascript security rules (%d)", len(all), len(js))
	}
}

func TestRulesList_Execute(t *testing.T) {
	isolate(t)
	if err := execute(t, "", "rules", "list", "--lang", "go", "--format", "json"); err != nil {
		t.Errorf("rules list returned error: %v", err)
	}
	if exitCode != ExitSuccess {
		t.Errorf("exitCode = %d", exitCode)
	}
}

// --- github command tests ---

func TestGithubCmd_InvalidPRNumber(t *testing.T) {
	isolate(t)
	if err := execute(t, "", "github", "abc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exitCode != ExitUsageError {
		t.Errorf("exitCode = %d, want %d (ExitUsageError)", exitCode, ExitUsageError)
	}
}

func TestGithubCmd_InvalidEvent(t *testing.T) {
	isolate(t)
	if err := execute(t, "", "github", "7", "--event", "merge"); err != nil {
		t.Fatal(err)
	}
	if exitCode != ExitUsageError {
		t.Errorf("exitCode = %d, want %d", exitCode, ExitUsageError)
	}
}

func TestGithubCmd_MissingArg(t *testing.T) {
	if err := execute(t, "", "github"); err == nil {
		t.Error("github command without args should return error")
	}
}

func TestGithubCmd_MissingToken(t *testing.T) {
	isolate(t)
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "")
	if err := execute(t, "", "github", "7", "--owner", "o", "--repo", "r"); err != nil {
		t.Fatal(err)
	}
	if exitCode != ExitAuthError {
		t.Errorf("exitCode = %d, want %d", exitCode, ExitAuthError)
	}
}

// fakeGitHub serves one pull request with the given files and records the
// posted review and line comments.
type fakeGitHub struct {
	mu         sync.Mutex
	posted     *github.ReviewRequest
	comments   []github.ReviewComment
	filesHits  int
	reviewCode int
	files      string
	diff       string
	server     *httptest.Server
}

func newFakeGitHub(t *testing.T, files string) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{files: files, reviewCode: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Accept"), "diff") {
			w.Write([]byte(f.diff))
			return
		}
		w.Write([]byte(`{"number":7,"title":"Add feature","head":{"ref":"feat","sha":"abc123"}}`))
	})
	mux.HandleFunc("/repos/o/r/pulls/7/files", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.filesHits++
		f.mu.Unlock()
		w.Write([]byte(f.files))
	})
	mux.HandleFunc("/repos/o/r/pulls/7/comments", func(w http.ResponseWriter, r *http.Request) {
		var c github.ReviewComment
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			t.Errorf("decode comment: %v", err)
		}
		f.mu.Lock()
		f.comments = append(f.comments, c)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/repos/o/r/pulls/7/reviews", func(w http.ResponseWriter, r *http.Request) {
		var req github.ReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode review: %v", err)
		}
		f.mu.Lock()
		f.posted = &req
		code := f.reviewCode
		f.mu.Unlock()
		w.WriteHeader(code)
		w.Write([]byte(`{"message":"Unprocessable Entity"}`))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	t.Setenv("PATCHGUARD_GITHUB_API_URL", f.server.URL)
	t.Setenv("GITHUB_TOKEN", "test-token")
	return f
}

func (f *fakeGitHub) review() *github.ReviewRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posted
}

func (f *fakeGitHub) lineComments() []github.ReviewComment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.comments
}

const prFiles = `[
	{"filename":"web/app.js","status":"modified","patch":"@@ -1,1 +1,2 @@\n const a = 1;\n+eval(userInput);"},
	{"filename":"logo.png","status":"added"},
	{"filename":"old.js","status":"removed","patch":"@@ -1,1 +0,0 @@\n-eval(x);"}
]`

const cleanPRFiles = `[{"filename":"web/app.js","status":"modified","patch":"@@ -1,1 +1,2 @@\n const a = 1;\n+const b = 2;"}]`

func TestGithubCmd_PostsReview(t *testing.T) {
	dir := isolate(t)
	gh := newFakeGitHub(t, prFiles)
	out := filepath.Join(dir, "report.json")

	if err := execute(t, "", "github", "7", "--owner", "o", "--repo", "r", "--format", "json", "--out", out, "--no-cache"); err != nil {
		t.Fatal(err)
	}
	if exitCode != ExitSuccess {
		t.Errorf("exitCode = %d, want %d", exitCode, ExitSuccess)
	}

	r := readReport(t, out)
	if len(r.Files) != 1 || r.Files[0].Path != "web/app.js" {
		t.Errorf("files = %+v, want only web/app.js", r.Files)
	}
	if r.Repo.Head != "abc123" || r.Inputs.Range != "#7" {
		t.Errorf("repo/inputs = %+v / %+v", r.Repo, r.Inputs)
	}

	posted := gh.review()
	if posted == nil {
		t.Fatal("no review posted")
	}
	if posted.Event != github.EventRequestChanges {
		t.Errorf("Event = %q, want REQUEST_CHANGES", posted.Event)
	}
	if posted.CommitID != "abc123" {
		t.Errorf("CommitID = %q, want abc123", posted.CommitID)
	}
	if len(posted.Comments) != 1 || posted.Comments[0].Path != "web/app.js" || posted.Comments[0].Line != 2 {
		t.Errorf("Comments = %+v", posted.Comments)
	}
}

func TestGithubCmd_NoInline(t *testing.T) {
	isolate(t)
	gh := newFakeGitHub(t, prFiles)

	if err := execute(t, "", "github", "7", "--repo", "o/r", "--inline=false", "--out", os.DevNull, "--no-cache"); err != nil {
		t.Fatal(err)
	}
	posted := gh.review()
	if posted == nil {
		t.Fatal("no review posted")
	}
	if len(posted.Comments) != 0 {
		t.Errorf("Comments = %d, want 0 with --inline=false", len(posted.Comments))
	}
	if !strings.Contains(posted.Body, "web/app.js:2") {
		t.Errorf("body should list the finding:\n%s", posted.Body)
	}
}

func TestGithubCmd_DryRun(t *testing.T) {
	isolate(t)
	gh := newFakeGitHub(t, prFiles)

	if err := execute(t, "", "github", "7", "--owner", "o", "--repo", "r", "--dry-run", "--out", os.DevNull, "--no-cache"); err != nil {
		t.Fatal(err)
	}
	if gh.review() != nil {
		t.Error("dry run should not post a review")
	}
	if exitCode != ExitSuccess {
		t.Errorf("exitCode = %d", exitCode)
	}
}

func TestGithubCmd_GateBlocksApprove(t *testing.T) {
	isolate(t)
	gh := newFakeGitHub(t, prFiles)

	if err := execute(t, "", "github", "7", "--owner", "o", "--repo", "r", "--event", "approve", "--out", os.DevNull, "--no-cache"); err != nil {
		t.Fatal(err)
	}
	if gh.review() != nil {
		t.Error("blocked approval should not be posted")
	}
	if exitCode != ExitUsageError {
		t.Errorf("exitCode = %d, want %d", exitCode, ExitUsageError)
	}
}

func TestGithubCmd_SelfReview(t *testing.T) {
	isolate(t)
	gh := newFakeGitHub(t, cleanPRFiles)
	gh.reviewCode = http.StatusUnprocessableEntity

	if err := execute(t, "", "github", "7", "--owner", "o", "--repo", "r", "--out", os.DevNull, "--no-cache"); err != nil {
		t.Fatal(err)
	}
	posted := gh.review()
	if posted == nil || posted.Event != github.EventApprove {
		t.Fatalf("posted = %+v, want an APPROVE attempt", posted)
	}
	if exitCode != ExitRuntimeError {
		t.Errorf("exitCode = %d, want %d", exitCode, ExitRuntimeError)
	}
}

const prUnifiedDiff = `diff --git a/web/app.js b/web/app.js
index 1111111..2222222 100644
--- a/web/app.js
+++ b/web/app.js
@@ -1,1 +1,2 @@
 const a = 1;
+eval(userInput);
diff --git a/old.js b/old.js
deleted file mode 100644
index 3333333..0000000
--- a/old.js
+++ /dev/null
@@ -1,1 +0,0 @@
-eval(x);
`

func TestGithubCmd_FullDiff(t *testing.T) {
	dir := isolate(t)
	gh := newFakeGitHub(t, prFiles)
	gh.diff = prUnifiedDiff
	out := filepath.Join(dir, "report.json")

	if err := execute(t, "", "github", "7", "--repo", "o/r", "--full-diff", "--format", "json", "--out", out, "--no-cache"); err != nil {
		t.Fatal(err)
	}
	gh.mu.Lock()
	hits := gh.filesHits
	gh.mu.Unlock()
	if hits != 0 {
		t.Errorf("files endpoint requested %d times with --full-diff", hits)
	}
	r := readReport(t, out)
	if len(r.Findings) != 1 || r.Findings[0].Path != "web/app.js" || r.Findings[0].RuleID != "js-eval" {
		t.Errorf("findings = %+v, want one js-eval on web/app.js", r.Findings)
	}
	if r.Inputs.Range != "#7" {
		t.Errorf("Range = %q, want #7", r.Inputs.Range)
	}
	posted := gh.review()
	if posted == nil {
		t.Fatal("no review posted")
	}
	if len(posted.Comments) != 1 || posted.Comments[0].Line != 2 {
		t.Errorf("Comments = %+v, want one at line 2", posted.Comments)
	}
}

func TestGithubCmd_Comments(t *testing.T) {
	isolate(t)
	gh := newFakeGitHub(t, prFiles)

	if err := execute(t, "", "github", "7", "--repo", "o/r", "--comments", "--out", os.DevNull, "--no-cache"); err != nil {
		t.Fatal(err)
	}
	if exitCode != ExitSuccess {
		t.Errorf("exitCode = %d, want %d", exitCode, ExitSuccess)
	}
	if gh.review() != nil {
		t.Error("--comments should not submit a review")
	}
	comments := gh.lineComments()
	if len(comments) != 1 {
		t.Fatalf("comments = %+v, want 1", comments)
	}
	c := comments[0]
	if c.Path != "web/app.js" || c.Line != 2 || c.Side != "RIGHT" || c.CommitID != "abc123" {
		t.Errorf("comment = %+v", c)
	}
	if !strings.Contains(c.Body, "js-eval") {
		t.Errorf("comment body missing rule id:\n%s", c.Body)
	}
}

func TestGithubCmd_CommentsDryRun(t *testing.T) {
	isolate(t)
	gh := newFakeGitHub(t, prFiles)

	if err := execute(t, "", "github", "7", "--repo", "o/r", "--comments", "--dry-run", "--out", os.DevNull, "--no-cache"); err != nil {
		t.Fatal(err)
	}
	if n := len(gh.lineComments()); n != 0 {
		t.Errorf("dry run posted %d comments", n)
	}
}

func TestGithubCmd_CommentsConflictsWithEvent(t *testing.T) {
	isolate(t)
	newFakeGitHub(t, prFiles)

	if err := execute(t, "", "github", "7", "--repo", "o/r", "--comments", "--event", "comment"); err == nil {
		t.Error("--comments with --event should be rejected")
	}
}

func TestPRDiff(t *testing.T) {
	files := []github.PRFile{
		{Filename: "src/a.go", Status: "modified", Patch: "@@ -1 +1 @@\n-a\n+b"},
		{Filename: "vendor/x/y.go", Status: "added", Patch: "@@ -0,0 +1 @@\n+x"},
		{Filename: "img.png", Status: "added"},
		{Filename: "gone.go", Status: "removed", Patch: "@@ -1 +0,0 @@\n-x"},
		{Filename: "docs/readme.md", Status: "modified", Patch: "@@ -1 +1 @@\n-a\n+b"},
	}
	opts := config.Default()
	opts.Include = []string{"**/*.go", "*.png"}
	resetFlags()
	res := prDiff(files, 3, buildDiffOpts(opts))

	if len(res.Patches) != 1 || res.Patches[0].Path != "src/a.go" {
		t.Errorf("Patches = %+v, want only src/a.go", res.Patches)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "img.png" {
		t.Errorf("Skipped = %v, want [img.png]", res.Skipped)
	}
	if res.Mode != "github-pr" || res.Range != "#3" {
		t.Errorf("Mode/Range = %q/%q", res.Mode, res.Range)
	}
}

// --- prs and dashboard tests ---

func testClient(t *testing.T, mux *http.ServeMux) *github.Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	c, err := github.NewClient(server.URL, github.WithToken("t"), github.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestListPullRequests_Analyze(t *testing.T) {
	isolate(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/pulls", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"number":1,"title":"Risky","user":{"login":"mona"},"head":{"ref":"risky"}},
			{"number":2,"title":"Gone","user":{"login":"hubot"},"head":{"ref":"gone"}}
		]`))
	})
	mux.HandleFunc("/repos/o/r/pulls/1/files", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"filename":"a.js","status":"added","patch":"@@ -0,0 +1 @@\n+eval(x);"}]`))
	})
	mux.HandleFunc("/repos/o/r/pulls/2/files", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	})
	client := testClient(t, mux)

	cfg := config.Default()
	cfg.Cache.Enabled = false
	resetFlags()

	rows, err := listPullRequests(context.Background(), client, cfg, "o", "r", true)
	if err != nil {
		t.Fatalf("listPullRequests error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Author != "mona" || rows[0].Branch != "risky" {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[0].Counts == nil || rows[0].Counts.Critical != 1 {
		t.Errorf("rows[0].Counts = %+v, want one critical", rows[0].Counts)
	}
	if rows[0].Decision == nil || rows[0].Decision.ApproveAllowed {
		t.Errorf("rows[0].Decision = %+v", rows[0].Decision)
	}
	if rows[1].Error == "" || rows[1].Counts != nil {
		t.Errorf("rows[1] = %+v, want an error and no counts", rows[1])
	}

	plain, err := listPullRequests(context.Background(), client, cfg, "o", "r", false)
	if err != nil {
		t.Fatal(err)
	}
	if plain[0].Counts != nil {
		t.Error("listing without --analyze should not scan")
	}
}

func TestBuildDashboard(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/repos", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"name":"api","full_name":"o/api","language":"Go","open_issues_count":3},
			{"name":"web","full_name":"o/web","open_issues_count":45}
		]`))
	})
	d, err := buildDashboard(context.Background(), testClient(t, mux))
	if err != nil {
		t.Fatalf("buildDashboard error: %v", err)
	}
	if len(d.Repos) != 2 || d.Repos[0].Name != "o/api" || d.Repos[0].HealthScore != 97 || d.Repos[1].HealthScore != 70 {
		t.Errorf("Repos = %+v", d.Repos)
	}
	if d.Stats.TotalOpenIssues != 48 || d.Stats.AverageHealthRounded != 84 || d.Stats.TimeSavedHours != 12 {
		t.Errorf("Stats = %+v", d.Stats)
	}
}

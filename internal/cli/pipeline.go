package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/dshills/patchguard/internal/cache"
	"github.com/dshills/patchguard/internal/config"
	"github.com/dshills/patchguard/internal/gitctx"
	"github.com/dshills/patchguard/internal/logging"
	"github.com/dshills/patchguard/internal/output"
	"github.com/dshills/patchguard/internal/redact"
	"github.com/dshills/patchguard/internal/review"
)

// Shared analysis flags
var (
	flagPaths        string
	flagExclude      string
	flagContextLines int
	flagMaxDiffBytes int
	flagCategories   string
	flagConcurrency  int
	flagFormat       string
	flagOut          string
	flagFailOn       string
	flagRules        string
	flagNoRedact     bool
	flagNoCache      bool
)

func addAnalysisFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flagCategories, "categories", "", "Enabled rule categories (comma-separated: security,bug,performance,style)")
	fs.IntVar(&flagConcurrency, "concurrency", 0, "Files analyzed in parallel")
	fs.StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif)")
	fs.StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	fs.StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, low, medium, high, critical)")
	fs.StringVar(&flagRules, "rules", "", "Rules file (YAML or JSON) layered over the built-in rules")
	fs.BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction in snippets (use with caution)")
	fs.BoolVar(&flagNoCache, "no-cache", false, "Bypass the findings cache")
}

func addDiffFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flagPaths, "paths", "", "Include file path globs (comma-separated)")
	fs.StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	fs.IntVar(&flagContextLines, "context-lines", 0, "Number of context lines in diff")
	fs.IntVar(&flagMaxDiffBytes, "max-diff-bytes", 0, "Maximum diff size in bytes")
}

// buildOverrides maps the flags the user set to config keys.
func buildOverrides(fs *pflag.FlagSet) map[string]string {
	m := make(map[string]string)
	set := func(flag, key, value string) {
		if fs.Lookup(flag) != nil && fs.Changed(flag) {
			m[key] = value
		}
	}
	set("format", "format", flagFormat)
	set("fail-on", "failOn", flagFailOn)
	set("categories", "categories", flagCategories)
	set("concurrency", "concurrency", fmt.Sprintf("%d", flagConcurrency))
	set("context-lines", "contextLines", fmt.Sprintf("%d", flagContextLines))
	set("max-diff-bytes", "maxDiffBytes", fmt.Sprintf("%d", flagMaxDiffBytes))
	set("rules", "rulesFile", flagRules)
	return m
}

func buildDiffOpts(cfg config.Config) gitctx.DiffOptions {
	opts := gitctx.DiffOptions{
		ContextLines: cfg.ContextLines,
		MaxDiffBytes: cfg.MaxDiffBytes,
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
	}
	if flagPaths != "" {
		opts.Include = splitComma(flagPaths)
	}
	if flagExclude != "" {
		opts.Exclude = append(append([]string(nil), opts.Exclude...), splitComma(flagExclude)...)
	}
	return opts
}

func splitComma(s string) []string {
	var result []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// loadConfig resolves the effective config for an analysis command.
func loadConfig(fs *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(buildOverrides(fs))
	if err != nil {
		return config.Config{}, err
	}
	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}
	if flagNoCache {
		cfg.Cache.Enabled = false
	}
	return cfg, nil
}

// analyzer owns the engine and its cache for one command run.
type analyzer struct {
	cfg    config.Config
	logger *slog.Logger
	engine *review.Engine
	cache  *cache.Cache
}

func newAnalyzer(cfg config.Config) (*analyzer, error) {
	logger := logging.New(os.Stderr, cfg.Log)

	cats, err := review.ParseCategories(cfg.Categories)
	if err != nil {
		return nil, err
	}
	reg, err := review.LoadRegistry(cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		// The cache is an optimization; analysis proceeds without it.
		logger.Warn("findings cache unavailable", "error", err)
		c, _ = cache.New(false, "", 0)
	}

	opts := review.Options{
		Categories:  cats,
		Concurrency: cfg.Concurrency,
		Logger:      logger,
	}
	if c.Enabled() {
		opts.Cache = c
	}
	logger.Debug("analyzer ready", "rules", reg.Len(), "categories", cats.Strings(), "cache", c.Enabled())

	return &analyzer{
		cfg:    cfg,
		logger: logger,
		engine: review.NewEngine(reg, opts),
		cache:  c,
	}, nil
}

func (a *analyzer) Close() {
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("closing findings cache", "error", err)
	}
}

// analyze runs the engine over collected patches and assembles a redacted
// report.
func (a *analyzer) analyze(ctx context.Context, res gitctx.DiffResult, collectMs int64) (*review.Report, error) {
	for _, path := range res.Skipped {
		a.logger.Warn("file skipped", "path", path, "mode", res.Mode)
	}

	inputs := make([]review.FileInput, 0, len(res.Patches))
	for _, p := range res.Patches {
		inputs = append(inputs, review.FileInput{
			Path:     p.Path,
			Language: res.Language,
			Patch:    p.Patch,
		})
	}

	start := time.Now()
	results, err := a.engine.AnalyzeFiles(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("analyzing %s changes: %w", res.Mode, err)
	}
	analysisMs := time.Since(start).Milliseconds()

	report := review.BuildReport(review.ReportInput{
		Mode:  res.Mode,
		Range: res.Range,
		Repo: review.RepoInfo{
			Root:   res.Repo.Root,
			Head:   res.Repo.Head,
			Branch: res.Repo.Branch,
			Remote: res.Repo.Remote,
		},
		Categories: a.engine.Categories(),
		Include:    a.cfg.Include,
		Exclude:    a.cfg.Exclude,
	}, results, review.Timing{
		CollectMs:  collectMs,
		AnalysisMs: analysisMs,
		TotalMs:    collectMs + analysisMs,
	})

	if a.cfg.Privacy.RedactSecrets {
		if n := redact.Report(report, a.cfg.Privacy.RedactPaths); n > 0 {
			a.logger.Debug("redacted secrets from snippets", "count", n)
		}
	}
	a.logger.Info("analysis complete",
		"mode", res.Mode,
		"files", len(results),
		"findings", report.Summary.Total(),
		"ms", analysisMs,
	)
	return report, nil
}

// finish writes the report and sets the exit code from failOn.
func finish(report *review.Report, cfg config.Config) {
	if err := output.WriteReport(report, cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	if exceedsThreshold(report.Findings, cfg.FailOn) {
		exitCode = ExitFindings
	}
}

func exceedsThreshold(findings []review.Finding, failOn string) bool {
	for _, f := range findings {
		if review.MeetsThreshold(f.Severity, failOn) {
			return true
		}
	}
	return false
}

// listFormat narrows a report format to the ones listings support.
func listFormat(format string) string {
	if format == "json" {
		return "json"
	}
	return "text"
}

package review

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/patchguard/internal/diff"
)

// DefaultConcurrency limits parallel per-file analysis.
const DefaultConcurrency = 4

// FileInput is one changed file to analyze. Language may be empty, in which
// case it is derived from Path.
type FileInput struct {
	Path     string
	Language string
	Patch    string
}

// FileResult is the analysis outcome for one file.
type FileResult struct {
	Path        string            `json:"path"`
	Language    string            `json:"language"`
	Findings    []Finding         `json:"findings"`
	Diagnostics []diff.Diagnostic `json:"diagnostics,omitempty"`
	Lines       int               `json:"lines"`
	Cached      bool              `json:"cached,omitempty"`
}

// FindingCache stores serialized per-file results. Implementations must be
// safe for concurrent use.
type FindingCache interface {
	Get(key string) (string, bool)
	Put(key, value string) error
}

// Options configures an Engine.
type Options struct {
	Categories  CategorySet
	Concurrency int
	Cache       FindingCache
	Logger      *slog.Logger
}

// Engine runs the parse-then-match pipeline over patches.
type Engine struct {
	registry *Registry
	opts     Options
	logger   *slog.Logger
}

// NewEngine creates an Engine. A nil category set means the defaults.
func NewEngine(reg *Registry, opts Options) *Engine {
	if opts.Categories == nil {
		opts.Categories = DefaultCategories()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{registry: reg, opts: opts, logger: logger}
}

// Categories returns the enabled categories.
func (e *Engine) Categories() CategorySet {
	return e.opts.Categories
}

type cachedResult struct {
	Findings    []Finding         `json:"findings"`
	Diagnostics []diff.Diagnostic `json:"diagnostics,omitempty"`
	Lines       int               `json:"lines"`
}

// AnalyzePatch parses and matches one file. Finding IDs restart at issue-1.
func (e *Engine) AnalyzePatch(in FileInput) FileResult {
	lang := NormalizeLanguage(in.Language)
	if lang == "" {
		lang = LanguageForPath(in.Path)
	}
	res := FileResult{Path: in.Path, Language: lang}

	key := e.cacheKey(in.Path, lang, in.Patch)
	if e.opts.Cache != nil {
		if raw, ok := e.opts.Cache.Get(key); ok {
			var cr cachedResult
			if err := json.Unmarshal([]byte(raw), &cr); err == nil {
				res.Findings = cr.Findings
				if res.Findings == nil {
					res.Findings = []Finding{}
				}
				res.Diagnostics = cr.Diagnostics
				res.Lines = cr.Lines
				res.Cached = true
				e.logFile(res)
				return res
			}
			e.logger.Debug("ignoring unreadable cache entry", "path", in.Path)
		}
	}

	parsed := diff.ParsePatch(in.Patch)
	res.Lines = len(parsed.Lines)
	res.Diagnostics = parsed.Diagnostics
	res.Findings = Match(in.Path, parsed.Lines, e.registry.RulesFor(lang, e.opts.Categories))

	for _, d := range parsed.Diagnostics {
		e.logger.Warn("diff diagnostic", "path", in.Path, "kind", string(d.Kind), "line", d.Line)
	}

	if e.opts.Cache != nil {
		data, err := json.Marshal(cachedResult{Findings: res.Findings, Diagnostics: res.Diagnostics, Lines: res.Lines})
		if err == nil {
			if err := e.opts.Cache.Put(key, string(data)); err != nil {
				e.logger.Warn("cache write failed", "path", in.Path, "error", err)
			}
		}
	}

	e.logFile(res)
	return res
}

// AnalyzeFiles analyzes files concurrently with bounded parallelism. Results
// come back in input order and finding IDs are renumbered across the run, so
// the output matches a sequential pass exactly.
func (e *Engine) AnalyzeFiles(ctx context.Context, files []FileInput) ([]FileResult, error) {
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.AnalyzePatch(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	next := 1
	for i := range results {
		next = renumber(results[i].Findings, next)
	}
	return results, nil
}

func (e *Engine) cacheKey(path, lang, patch string) string {
	return strings.Join([]string{
		path,
		lang,
		e.registry.Fingerprint(),
		strings.Join(e.opts.Categories.Strings(), ","),
		patch,
	}, "\x00")
}

func (e *Engine) logFile(res FileResult) {
	e.logger.Debug("analyzed file",
		"path", res.Path,
		"language", res.Language,
		"lines", res.Lines,
		"findings", len(res.Findings),
		"cached", res.Cached,
	)
}

package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/patchguard/internal/config"
	"github.com/dshills/patchguard/internal/gitctx"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan local changes for rule violations",
	Long:  "Collect a diff from the local repository (or stdin) and match its added lines against the rule set.",
}

// collector gathers the diff for one scan mode.
type collector func(cmd *cobra.Command, args []string, opts gitctx.DiffOptions) (gitctx.DiffResult, error)

// scanRunE wires a collector into the shared config, analysis and output
// path.
func scanRunE(collect collector) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags())
		if err != nil {
			return err
		}
		runScan(cmd, args, cfg, collect)
		return nil
	}
}

func runScan(cmd *cobra.Command, args []string, cfg config.Config, collect collector) {
	a, err := newAnalyzer(cfg)
	if err != nil {
		fail(err)
		return
	}
	defer a.Close()

	start := time.Now()
	res, err := collect(cmd, args, buildDiffOpts(cfg))
	if err != nil {
		fail(err)
		return
	}
	collectMs := time.Since(start).Milliseconds()

	if len(res.Patches) == 0 {
		fmt.Fprintf(os.Stderr, "No changes to scan (%s).\n", res.Mode)
	}

	report, err := a.analyze(cmd.Context(), res, collectMs)
	if err != nil {
		fail(err)
		return
	}
	finish(report, cfg)
}

var scanUnstagedCmd = &cobra.Command{
	Use:   "unstaged",
	Short: "Scan unstaged changes (working tree vs index)",
	Args:  cobra.NoArgs,
	RunE: scanRunE(func(_ *cobra.Command, _ []string, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
		return gitctx.Unstaged(opts)
	}),
}

var scanStagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "Scan staged changes (index vs HEAD)",
	Args:  cobra.NoArgs,
	RunE: scanRunE(func(_ *cobra.Command, _ []string, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
		return gitctx.Staged(opts)
	}),
}

var flagParent string

var scanCommitCmd = &cobra.Command{
	Use:   "commit <sha>",
	Short: "Scan a specific commit",
	Args:  cobra.ExactArgs(1),
	RunE: scanRunE(func(_ *cobra.Command, args []string, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
		return gitctx.Commit(args[0], flagParent, opts)
	}),
}

var flagMergeBase bool

var scanRangeCmd = &cobra.Command{
	Use:   "range <revRange>",
	Short: "Scan a revision range (e.g., origin/main..HEAD)",
	Args:  cobra.ExactArgs(1),
	RunE: scanRunE(func(_ *cobra.Command, args []string, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
		return gitctx.Range(args[0], flagMergeBase, opts)
	}),
}

var (
	flagSnippetPath string
	flagSnippetLang string
	flagSnippetBase string
)

var scanSnippetCmd = &cobra.Command{
	Use:   "snippet",
	Short: "Scan code from stdin, optionally against a base file",
	Args:  cobra.NoArgs,
	RunE: scanRunE(func(cmd *cobra.Command, _ []string, _ gitctx.DiffOptions) (gitctx.DiffResult, error) {
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return gitctx.DiffResult{}, fmt.Errorf("reading stdin: %w", err)
		}

		var base string
		if flagSnippetBase != "" {
			data, err := os.ReadFile(flagSnippetBase)
			if err != nil {
				return gitctx.DiffResult{}, fmt.Errorf("reading base file: %w", err)
			}
			base = string(data)
		}

		path := flagSnippetPath
		if path == "" {
			path = "stdin"
		}
		return gitctx.Snippet(string(content), path, flagSnippetLang, base)
	}),
}

var scanCodebaseCmd = &cobra.Command{
	Use:   "codebase",
	Short: "Scan every tracked file as if newly added",
	Args:  cobra.NoArgs,
	RunE: scanRunE(func(_ *cobra.Command, _ []string, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
		return gitctx.Codebase(opts)
	}),
}

func init() {
	for _, cmd := range []*cobra.Command{
		scanUnstagedCmd,
		scanStagedCmd,
		scanCommitCmd,
		scanRangeCmd,
		scanSnippetCmd,
		scanCodebaseCmd,
	} {
		addDiffFlags(cmd.Flags())
		addAnalysisFlags(cmd.Flags())
		scanCmd.AddCommand(cmd)
	}

	scanCommitCmd.Flags().StringVar(&flagParent, "parent", "", "Override parent SHA (for merge commits)")
	scanRangeCmd.Flags().BoolVar(&flagMergeBase, "merge-base", true, "Use merge base for branch comparisons")

	scanSnippetCmd.Flags().StringVar(&flagSnippetPath, "path", "", "File path (for language detection and messages)")
	scanSnippetCmd.Flags().StringVar(&flagSnippetLang, "lang", "", "Language key, overriding detection from --path")
	scanSnippetCmd.Flags().StringVar(&flagSnippetBase, "base", "", "Base file to diff against")
}

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/patchguard/internal/config"
	"github.com/dshills/patchguard/internal/gitctx"
	"github.com/dshills/patchguard/internal/github"
	"github.com/dshills/patchguard/internal/output"
)

var flagPRsAnalyze bool

var prsCmd = &cobra.Command{
	Use:   "prs",
	Short: "List open pull requests",
	Long:  "List a repository's open pull requests. With --analyze, scan each one and show per-severity counts and the gate outcome.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags())
		if err != nil {
			return err
		}
		owner, repo, err := resolveRepo()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\nUse --owner and --repo flags to specify manually.\n", err)
			exitCode = ExitUsageError
			return nil
		}
		client, err := newGitHubClient(cfg)
		if err != nil {
			fail(err)
			return nil
		}

		rows, err := listPullRequests(cmd.Context(), client, cfg, owner, repo, flagPRsAnalyze)
		if err != nil {
			reportGitHubError(err)
			return nil
		}
		if err := output.WritePullRequests(os.Stdout, listFormat(cfg.Format), rows, flagPRsAnalyze); err != nil {
			fail(err)
		}
		return nil
	},
}

// listPullRequests fetches open PRs and, when analyze is set, scans each PR
// with at most cfg.Concurrency PRs in flight. A failure on one PR is recorded
// on its row and does not stop the others.
func listPullRequests(ctx context.Context, client *github.Client, cfg config.Config, owner, repo string, analyze bool) ([]output.PullRequestRow, error) {
	prs, err := client.ListPullRequests(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	rows := make([]output.PullRequestRow, len(prs))
	for i, pr := range prs {
		rows[i] = output.PullRequestRow{
			Number: pr.Number,
			Title:  pr.Title,
			Author: pr.User.Login,
			Branch: pr.Head.Ref,
			URL:    pr.HTMLURL,
		}
	}
	if !analyze || len(prs) == 0 {
		return rows, nil
	}

	a, err := newAnalyzer(cfg)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	opts := buildDiffOpts(cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Concurrency, 1))
	for i := range rows {
		g.Go(func() error {
			err := analyzeRow(gctx, client, a, owner, repo, opts, &rows[i])
			if err == nil {
				return nil
			}
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			a.logger.Warn("pull request analysis failed", "pr", rows[i].Number, "error", err)
			rows[i].Error = err.Error()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func analyzeRow(ctx context.Context, client *github.Client, a *analyzer, owner, repo string, opts gitctx.DiffOptions, row *output.PullRequestRow) error {
	files, err := client.GetPRFiles(ctx, owner, repo, row.Number)
	if err != nil {
		return err
	}
	report, err := a.analyze(ctx, prDiff(files, row.Number, opts), 0)
	if err != nil {
		return err
	}
	row.Counts = &report.Summary.Counts
	row.Decision = &report.Decision
	return nil
}

func init() {
	addRepoFlags(prsCmd)
	prsCmd.Flags().BoolVar(&flagPRsAnalyze, "analyze", false, "Scan each open pull request")
	prsCmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json)")
	prsCmd.Flags().StringVar(&flagCategories, "categories", "", "Enabled rule categories (comma-separated)")
	prsCmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Pull requests analyzed in parallel")
	prsCmd.Flags().StringVar(&flagRules, "rules", "", "Rules file layered over the built-in rules")
	prsCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the findings cache")
}

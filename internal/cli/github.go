package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/patchguard/internal/config"
	"github.com/dshills/patchguard/internal/diff"
	"github.com/dshills/patchguard/internal/github"
	"github.com/dshills/patchguard/internal/gitctx"
	"github.com/dshills/patchguard/internal/logging"
	"github.com/dshills/patchguard/internal/review"
)

var (
	flagGHOwner    string
	flagGHRepo     string
	flagGHDryRun   bool
	flagGHEvent    string
	flagGHInline   bool
	flagGHFullDiff bool
	flagGHComments bool
)

func addRepoFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagGHOwner, "owner", "", "GitHub repository owner (auto-detected if omitted)")
	cmd.Flags().StringVar(&flagGHRepo, "repo", "", "GitHub repository name or owner/name (auto-detected if omitted)")
}

var githubCmd = &cobra.Command{
	Use:   "github <pr-number>",
	Short: "Review a GitHub pull request",
	Long: "Fetch the files of a pull request, scan each patch concurrently, and post the findings " +
		"as a review. The review event is chosen from the findings unless --event is given.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prNumber, err := strconv.Atoi(args[0])
		if err != nil || prNumber <= 0 {
			fmt.Fprintf(os.Stderr, "Error: invalid PR number %q\n", args[0])
			exitCode = ExitUsageError
			return nil
		}
		event, err := github.ParseEvent(flagGHEvent)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}

		cfg, err := loadConfig(cmd.Flags())
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("inline") {
			cfg.GitHub.InlineComments = flagGHInline
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

		if err := reviewPullRequest(cmd.Context(), client, cfg, owner, repo, prNumber, event); err != nil {
			reportGitHubError(err)
		}
		return nil
	},
}

func newGitHubClient(cfg config.Config) (*github.Client, error) {
	return github.NewClient(cfg.GitHub.APIURL, github.WithLogger(logging.New(os.Stderr, cfg.Log)))
}

// resolveRepo returns owner and repo from flags, falling back to the origin
// remote.
func resolveRepo() (string, string, error) {
	owner, repo := flagGHOwner, flagGHRepo
	if strings.Contains(repo, "/") {
		return github.SplitRepo(repo)
	}
	if owner != "" && repo != "" {
		return owner, repo, nil
	}
	detectedOwner, detectedRepo, err := github.DetectRepo()
	if err != nil {
		return "", "", err
	}
	if owner == "" {
		owner = detectedOwner
	}
	if repo == "" {
		repo = detectedRepo
	}
	return owner, repo, nil
}

func reportGitHubError(err error) {
	switch {
	case errors.Is(err, github.ErrSelfReview):
		fmt.Fprintf(os.Stderr, "Error: %v\nGitHub does not let a pull request author approve or request changes on their own PR. "+
			"Re-run with --event comment.\n", err)
		exitCode = ExitRuntimeError
	case errors.Is(err, github.ErrRateLimited):
		fmt.Fprintf(os.Stderr, "Error: %v\nThe GitHub API rate limit is exhausted; try again later.\n", err)
		exitCode = ExitRuntimeError
	default:
		fail(err)
	}
}

// prDiff converts the PR file list into per-file patches, applying the
// configured include and exclude globs. Files without a patch (binary or too
// large for GitHub to diff) and removed files are reported as skipped.
func prDiff(files []github.PRFile, prNumber int, opts gitctx.DiffOptions) gitctx.DiffResult {
	res := gitctx.DiffResult{
		Mode:  "github-pr",
		Range: fmt.Sprintf("#%d", prNumber),
	}
	for _, f := range files {
		if len(opts.Include) > 0 && !gitctx.MatchesAny(f.Filename, opts.Include) {
			continue
		}
		if gitctx.MatchesAny(f.Filename, opts.Exclude) {
			continue
		}
		if diff.FileStatus(f.Status) == diff.StatusRemoved {
			continue
		}
		if f.Patch == "" {
			res.Skipped = append(res.Skipped, f.Filename)
			continue
		}
		res.Files = append(res.Files, f.Filename)
		res.Patches = append(res.Patches, diff.FilePatch{
			Path:   f.Filename,
			Status: diff.FileStatus(f.Status),
			Patch:  f.Patch,
		})
	}
	return res
}

// fetchPRDiff collects the PR's patches, either from the files endpoint or,
// with --full-diff, from the whole unified diff. The files endpoint omits
// patches for very large files; the diff media type does not.
func fetchPRDiff(ctx context.Context, client *github.Client, owner, repo string, prNumber int, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
	if flagGHFullDiff {
		unified, err := client.GetPRDiff(ctx, owner, repo, prNumber)
		if err != nil {
			return gitctx.DiffResult{}, err
		}
		return gitctx.FromText(unified, "github-pr", fmt.Sprintf("#%d", prNumber), opts), nil
	}
	files, err := client.GetPRFiles(ctx, owner, repo, prNumber)
	if err != nil {
		return gitctx.DiffResult{}, err
	}
	return prDiff(files, prNumber, opts), nil
}

// postComments posts each finding on a PR file as a standalone line comment
// instead of one review. No review event is submitted, so the gate does not
// apply. Findings outside the PR's files are not posted.
func postComments(ctx context.Context, client *github.Client, owner, repo string, prNumber int, commitID string, report *review.Report, files []string) error {
	inPR := make(map[string]bool, len(files))
	for _, f := range files {
		inPR[f] = true
	}
	comments := github.BuildGitHubReview(report.Findings, inPR, report.Summary, report.Decision).Comments
	if skipped := len(report.Findings) - len(comments); skipped > 0 {
		fmt.Fprintf(os.Stderr, "%d findings are not on a changed line of the PR and will not be posted.\n", skipped)
	}

	if flagGHDryRun {
		fmt.Fprintf(os.Stderr, "Dry run: would post %d comments (%d findings).\n", len(comments), len(report.Findings))
		return nil
	}
	for i, c := range comments {
		c.CommitID = commitID
		if err := client.PostReviewComment(ctx, owner, repo, prNumber, c); err != nil {
			return fmt.Errorf("after %d of %d comments: %w", i, len(comments), err)
		}
	}
	fmt.Fprintf(os.Stderr, "Posted %d comments to PR #%d.\n", len(comments), prNumber)
	return nil
}

func reviewPullRequest(ctx context.Context, client *github.Client, cfg config.Config, owner, repo string, prNumber int, event string) error {
	a, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Fprintf(os.Stderr, "Fetching PR #%d from %s/%s...\n", prNumber, owner, repo)
	start := time.Now()
	pr, err := client.GetPullRequest(ctx, owner, repo, prNumber)
	if err != nil {
		return err
	}
	res, err := fetchPRDiff(ctx, client, owner, repo, prNumber, buildDiffOpts(cfg))
	if err != nil {
		return err
	}
	res.Repo = gitctx.RepoMeta{Head: pr.Head.SHA, Branch: pr.Head.Ref, Remote: owner + "/" + repo}

	report, err := a.analyze(ctx, res, time.Since(start).Milliseconds())
	if err != nil {
		return err
	}
	finish(report, cfg)
	if exitCode == ExitRuntimeError {
		return nil
	}

	if flagGHComments {
		return postComments(ctx, client, owner, repo, prNumber, pr.Head.SHA, report, res.Files)
	}

	if event == "" {
		event = github.EventForDecision(report.Decision, report.Summary.Counts)
	}
	if err := github.CheckEvent(event, report.Decision); err != nil {
		return err
	}

	var inlineFiles map[string]bool
	if cfg.GitHub.InlineComments {
		inlineFiles = make(map[string]bool, len(res.Files))
		for _, f := range res.Files {
			inlineFiles[f] = true
		}
	}
	req := github.BuildGitHubReview(report.Findings, inlineFiles, report.Summary, report.Decision)
	req.Event = event
	req.CommitID = pr.Head.SHA

	if flagGHDryRun {
		fmt.Fprintf(os.Stderr, "Dry run: would post %s review with %d inline comments (%d findings).\n",
			req.Event, len(req.Comments), len(report.Findings))
		return nil
	}

	fmt.Fprintf(os.Stderr, "Posting %s review (%d inline comments)...\n", req.Event, len(req.Comments))
	if err := client.PostReview(ctx, owner, repo, prNumber, req); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Review posted to PR #%d.\n", prNumber)
	return nil
}

func init() {
	addDiffFlags(githubCmd.Flags())
	addAnalysisFlags(githubCmd.Flags())
	addRepoFlags(githubCmd)
	githubCmd.Flags().BoolVar(&flagGHDryRun, "dry-run", false, "Scan and build the review but don't post it")
	githubCmd.Flags().StringVar(&flagGHEvent, "event", "auto", "Review event (auto, approve, request-changes, comment)")
	githubCmd.Flags().BoolVar(&flagGHInline, "inline", true, "Post findings as inline comments (overrides github.inlineComments)")
	githubCmd.Flags().BoolVar(&flagGHFullDiff, "full-diff", false, "Fetch the whole unified diff instead of per-file patches")
	githubCmd.Flags().BoolVar(&flagGHComments, "comments", false, "Post each finding as a standalone line comment instead of a review")
	githubCmd.MarkFlagsMutuallyExclusive("comments", "event")
	githubCmd.MarkFlagsMutuallyExclusive("comments", "inline")
}

package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/patchguard/internal/github"
	"github.com/dshills/patchguard/internal/output"
	"github.com/dshills/patchguard/internal/review"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show repository health and open issues",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags())
		if err != nil {
			return err
		}
		client, err := newGitHubClient(cfg)
		if err != nil {
			fail(err)
			return nil
		}
		d, err := buildDashboard(cmd.Context(), client)
		if err != nil {
			reportGitHubError(err)
			return nil
		}
		if err := output.WriteDashboard(os.Stdout, listFormat(cfg.Format), d); err != nil {
			fail(err)
		}
		return nil
	},
}

func buildDashboard(ctx context.Context, client *github.Client) (output.Dashboard, error) {
	repos, err := client.ListRepositories(ctx)
	if err != nil {
		return output.Dashboard{}, err
	}
	health := make([]review.RepoHealth, 0, len(repos))
	for _, r := range repos {
		name := r.FullName
		if name == "" {
			name = r.Name
		}
		health = append(health, review.RepoHealth{
			Name:        name,
			Language:    r.Language,
			OpenIssues:  r.OpenIssuesCount,
			HealthScore: r.HealthScore(),
		})
	}
	return output.Dashboard{Repos: health, Stats: review.SummarizeDashboard(health)}, nil
}

func init() {
	dashboardCmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json)")
}

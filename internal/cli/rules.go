package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/patchguard/internal/output"
	"github.com/dshills/patchguard/internal/review"
)

var flagRulesLang string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the rule set",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in match order",
	Long: "List the rules that apply to a language (its own rules first, then the generic rules), " +
		"filtered by category. Without --lang every rule is listed.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags())
		if err != nil {
			return err
		}
		cats, err := review.ParseCategories(cfg.Categories)
		if err != nil {
			return err
		}
		reg, err := review.LoadRegistry(cfg.RulesFile)
		if err != nil {
			fail(err)
			return nil
		}
		if err := output.WriteRules(os.Stdout, listFormat(cfg.Format), selectRules(reg, flagRulesLang, cats)); err != nil {
			fail(err)
		}
		return nil
	},
}

// selectRules returns the rules for lang in match order, or every enabled
// rule when lang is empty.
func selectRules(reg *review.Registry, lang string, cats review.CategorySet) []review.Rule {
	if lang != "" {
		return reg.RulesFor(lang, cats)
	}
	if cats == nil {
		cats = review.DefaultCategories()
	}
	var out []review.Rule
	for _, r := range reg.All() {
		if cats.Has(r.Category) {
			out = append(out, r)
		}
	}
	return out
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesListCmd.Flags().StringVar(&flagRulesLang, "lang", "", "Language key (go, javascript, typescript, python, generic)")
	rulesListCmd.Flags().StringVar(&flagCategories, "categories", "", "Categories to include (comma-separated)")
	rulesListCmd.Flags().StringVar(&flagRules, "rules", "", "Rules file layered over the built-in rules")
	rulesListCmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json)")
}

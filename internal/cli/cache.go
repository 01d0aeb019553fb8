package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/patchguard/internal/cache"
	"github.com/dshills/patchguard/internal/config"
	"github.com/dshills/patchguard/internal/output"
)

var flagCacheExpired bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the findings cache",
	Long: "Per-file findings are cached in a bbolt database keyed by the patch content, " +
		"the language, the enabled categories and a fingerprint of the rule set.",
}

// openConfiguredCache opens the cache at the configured location. force
// opens it even when caching is disabled in config.
func openConfiguredCache(force bool) (*cache.Cache, error) {
	cfg, err := config.Load(nil)
	if err != nil {
		return nil, err
	}
	c, err := cache.New(force || cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return c, nil
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete cached findings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openConfiguredCache(true)
		if err != nil {
			return err
		}
		defer c.Close()

		if flagCacheExpired {
			n, err := c.Prune()
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Removed %d expired entries.\n", n)
			return nil
		}
		if err := c.Clear(); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Fprintln(os.Stdout, "Cache cleared.")
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cache location and size",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openConfiguredCache(false)
		if err != nil {
			return err
		}
		defer c.Close()

		if !c.Enabled() {
			fmt.Fprintln(os.Stdout, "Cache is disabled (cache.enabled=false).")
			return nil
		}
		stats, err := c.GetStats()
		if err != nil {
			return fmt.Errorf("reading cache stats: %w", err)
		}
		return writeCacheStats(os.Stdout, listFormat(flagFormat), stats)
	},
}

func writeCacheStats(w io.Writer, format string, s cache.Stats) error {
	if format == "json" {
		return output.WriteJSON(w, s)
	}
	_, err := fmt.Fprintf(w, "Directory: %s\nEntries:   %d (%d expired)\nSize:      %.1f KiB\n",
		s.Dir, s.Entries, s.Expired, float64(s.TotalBytes)/1024)
	return err
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheClearCmd.Flags().BoolVar(&flagCacheExpired, "expired", false, "Only remove entries past their TTL")
	cacheShowCmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json)")
}

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dornbi/bltools-go/internal/catalog"
	"github.com/dornbi/bltools-go/internal/offersource"
	"github.com/dornbi/bltools-go/internal/pipeline"
	"github.com/spf13/cobra"
)

var fetchOffersMarketplace string

// fetchOffersCmd represents the fetch-offers command
var fetchOffersCmd = &cobra.Command{
	Use:   "fetch-offers <item-key> [item-key...]",
	Short: "Refresh the cached offer list for one or more catalog items",
	Long: `Re-fetch marketplace offers for the given items unconditionally, bypassing
the cache's freshness check, and write the result back to the cache. Item
keys use the same stable form as the API and database use internally, e.g.
"part:3001:new:11" or "instruction:6028542:used".`,
	Example: `  bltools fetch-offers part:3001:new:11
  bltools fetch-offers part:3001:new:11 part:3003:used:1`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetchOffers,
}

func init() {
	rootCmd.AddCommand(fetchOffersCmd)

	fetchOffersCmd.Flags().StringVar(&fetchOffersMarketplace, "marketplace", "", "Marketplace slug (default from config)")
}

func runFetchOffers(cmd *cobra.Command, args []string) error {
	items := make([]catalog.Item, 0, len(args))
	for _, key := range args {
		item, err := catalog.ParseKey(key)
		if err != nil {
			return fmt.Errorf("invalid item key %q: %w", key, err)
		}
		items = append(items, item)
	}

	marketplace := fetchOffersMarketplace
	if marketplace == "" {
		marketplace = cfg.Marketplace.DefaultSlug
	}
	if err := offersource.InitializeDefaultAdapters(rateLimitConfig(), cfg.Marketplace.NumShops); err != nil {
		return fmt.Errorf("failed to initialize marketplace adapters: %w", err)
	}

	cache, err := offersource.NewCache(cfg.Marketplace.CacheDir, cfg.Marketplace.CacheTTL)
	if err != nil {
		return fmt.Errorf("failed to init offer cache: %w", err)
	}

	logger.Info().Int("items", len(items)).Str("marketplace", marketplace).Msg("Refreshing offers")

	errs := pipeline.RefreshOffers(cmd.Context(), marketplace, items, cache)

	fmt.Printf("Refreshed %d of %d items\n", len(items)-len(errs), len(items))
	if len(errs) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ERRORS")
		fmt.Fprintln(w, "------")
		for _, err := range errs {
			fmt.Fprintf(w, "%v\n", err)
		}
		w.Flush()
		return fmt.Errorf("fetch-offers failed for %d of %d items", len(errs), len(items))
	}
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dornbi/bltools-go/internal/lp"
	"github.com/dornbi/bltools-go/internal/offers"
	"github.com/dornbi/bltools-go/internal/offersource"
	"github.com/dornbi/bltools-go/internal/pipeline"
	"github.com/dornbi/bltools-go/internal/sourcing"
	"github.com/spf13/cobra"
)

var (
	optimizeMarketplace string
	optimizeOutput      string
	optimizeIncludeShop []string
	optimizeExcludeShop []string
)

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize <wanted-list-file>",
	Short: "Optimize purchasing for a BrickLink wanted list",
	Long: `Read a BrickLink wanted-list XML file, fetch (or reuse cached) marketplace
offers, and compute the least-cost seller allocation. The run is persisted the
same way the HTTP API's POST /optimize endpoint persists it, so it shows up
in "bltools runs" afterwards.`,
	Example: `  bltools optimize ./wanted-list.xml
  bltools optimize ./wanted-list.xml --exclude-shop BrickBarn --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runOptimize,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().StringVar(&optimizeMarketplace, "marketplace", "", "Marketplace slug (default from config)")
	optimizeCmd.Flags().StringVar(&optimizeOutput, "output", "table", "Output format: table or json")
	optimizeCmd.Flags().StringSliceVar(&optimizeIncludeShop, "include-shop", nil, "Restrict to these shops (repeatable)")
	optimizeCmd.Flags().StringSliceVar(&optimizeExcludeShop, "exclude-shop", nil, "Exclude these shops (repeatable)")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open wanted list: %w", err)
	}
	defer f.Close()

	marketplace := optimizeMarketplace
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

	sourcingCfg := &sourcing.Config{
		Mode:          sourcing.Mode(cfg.Sourcing.Mode),
		ShopFixCost:   cfg.Sourcing.ShopFixCost,
		MaxShops:      cfg.Sourcing.MaxShops,
		ConsiderShops: cfg.Sourcing.ConsiderShops,
		Jobs:          cfg.Sourcing.Jobs,
	}
	lpCfg := &lp.Config{
		RerunSolver:      cfg.LP.RerunSolver,
		GLPKLimitSeconds: cfg.LP.GLPKLimitSeconds,
		CacheDir:         cfg.LP.CacheDir,
		SolverBinary:     cfg.LP.SolverBinary,
	}
	filterOpts := offers.Options{
		IncludeShops: toStringSet(optimizeIncludeShop),
		ExcludeShops: toStringSet(optimizeExcludeShop),
	}

	logger.Info().Str("file", filePath).Str("marketplace", marketplace).Msg("Starting optimization")

	result, err := pipeline.Optimize(cmd.Context(), f, marketplace, sourcingCfg, lpCfg, filterOpts, cache)
	if err != nil {
		return fmt.Errorf("optimize failed: %w", err)
	}

	switch strings.ToLower(optimizeOutput) {
	case "json":
		return outputOptimizeJSON(result)
	case "table":
		outputOptimizeTable(result)
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", optimizeOutput)
	}

	return nil
}

func outputOptimizeTable(result *pipeline.Result) {
	fmt.Printf("\nRun %s (mode=%s)\n", result.Run.ID, result.Run.Mode)
	fmt.Println(strings.Repeat("-", 60))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Shop\tItems\tNet Total\n")
	fmt.Fprintf(w, "----\t-----\t---------\n")
	for shop, items := range result.Result.Allocation {
		total := 0
		for _, qty := range items {
			total += qty
		}
		fmt.Fprintf(w, "%s\t%d\t%.2f\n", shop, total, result.Result.SellerNetTotal(shop))
	}
	w.Flush()

	fmt.Printf("\nGrand total (net):  %.2f\n", result.Result.GrandNetTotal())
	fmt.Printf("Grand total (gross): %.2f\n", result.Result.GrossTotal())
}

func outputOptimizeJSON(result *pipeline.Result) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(struct {
		RunID      string  `json:"runId"`
		Mode       string  `json:"mode"`
		GrandTotal float64 `json:"grandTotal"`
		GrossTotal float64 `json:"grossTotal"`
	}{
		RunID:      result.Run.ID,
		Mode:       result.Run.Mode,
		GrandTotal: result.Result.GrandNetTotal(),
		GrossTotal: result.Result.GrossTotal(),
	})
}

func toStringSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

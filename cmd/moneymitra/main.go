// Money-Mitra — financial research reports for Indian equities.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/moneymitra/moneymitra/api"
	"github.com/moneymitra/moneymitra/internal/config"
	"github.com/moneymitra/moneymitra/internal/llm"
	"github.com/moneymitra/moneymitra/internal/news"
	"github.com/moneymitra/moneymitra/internal/normalize"
	"github.com/moneymitra/moneymitra/internal/provider"
	"github.com/moneymitra/moneymitra/internal/providers"
	"github.com/moneymitra/moneymitra/internal/report"
	"github.com/moneymitra/moneymitra/internal/watchlist"
	"github.com/moneymitra/moneymitra/pkg/models"
	"github.com/moneymitra/moneymitra/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "moneymitra",
	Short: "Money-Mitra — financial research reports for Indian equities",
	Long: `Money-Mitra gathers market data, fundamentals and news for NSE/BSE
stocks from multiple providers, derives financial metrics, and
assembles them into a structured research report.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		var err error
		cfg, err = config.LoadFromFile(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		configureLogging(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(watchlistCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// configureLogging applies the configured log level to the stdlib
// logger. All output through it is diagnostic; errors surface through
// command results.
func configureLogging(lc config.LoggingConfig) {
	switch {
	case lc.Debug():
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	case lc.Quiet():
		log.SetOutput(io.Discard)
	}
}

// newRegistry builds a provider registry from the loaded config:
// registered providers, priority order, retry policy and cache TTL.
func newRegistry() (*provider.Registry, error) {
	reg := provider.NewRegistry()
	if err := providers.RegisterAllTo(reg, cfg.Providers.EODHDToken, cfg.Providers.CacheTTLDuration()); err != nil {
		return nil, err
	}
	reg.SetOrder(cfg.Providers.Order)
	reg.SetRetryPolicy(provider.RetryPolicy{
		Budget:  cfg.Providers.RetryBudget,
		Initial: cfg.Providers.BackoffInitialDuration(),
		Max:     cfg.Providers.BackoffMaxDuration(),
	})
	return reg, nil
}

// newSummarizer builds the configured LLM summarizer, or the disabled
// one when no key is set.
func newSummarizer() llm.Summarizer {
	if cfg.LLM.OpenAIKey == "" {
		return llm.Disabled{}
	}
	var opts []llm.Option
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, llm.WithBaseURL(cfg.LLM.BaseURL))
	}
	if cfg.LLM.Model != "" {
		opts = append(opts, llm.WithModel(cfg.LLM.Model))
	}
	s, err := llm.NewOpenAI(cfg.LLM.OpenAIKey, opts...)
	if err != nil {
		log.Printf("LLM disabled: %v", err)
		return llm.Disabled{}
	}
	return s
}

// newWatchlistStore opens the sqlite-backed watchlist.
func newWatchlistStore() (watchlist.Store, error) {
	path := cfg.Watchlist.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create watchlist dir: %w", err)
	}
	return watchlist.NewSQLite(path)
}

func newBuilder(reg *provider.Registry) *report.Builder {
	b := report.NewBuilder(reg, news.New(), newSummarizer(), cfg.News.Limit)
	b.SetSectionTimeout(cfg.Report.SectionTimeout())
	return b
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Money-Mitra %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Report Command ---

var reportCmd = &cobra.Command{
	Use:   "report [ticker]",
	Short: "Generate a research report for a stock",
	Long: `Gather quotes, fundamentals and news for a stock and assemble the
fixed-section research report. Sections degrade individually when a
data source fails; the report itself always completes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := utils.NormalizeTicker(args[0])
		asJSON, _ := cmd.Flags().GetBool("json")

		reg, err := newRegistry()
		if err != nil {
			return err
		}
		builder := newBuilder(reg)

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		doc, err := builder.Build(ctx, ticker)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		}
		fmt.Print(report.RenderText(doc))
		return nil
	},
}

func init() {
	reportCmd.Flags().Bool("json", false, "emit the report document as JSON")
}

// --- Quote Command ---

var quoteCmd = &cobra.Command{
	Use:   "quote [ticker]",
	Short: "Fetch the latest quote for a stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := utils.NormalizeTicker(args[0])

		reg, err := newRegistry()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		payload, err := reg.Fetch(ctx, provider.KindQuote, provider.QueryParams{
			provider.ParamTicker: ticker,
		})
		if err != nil {
			return err
		}
		rec, err := normalize.Record(payload)
		if err != nil {
			return err
		}
		q := rec.Quote
		if q == nil {
			return fmt.Errorf("no quote in %s payload", rec.Provider)
		}

		fmt.Printf("%s  %s\n", q.Ticker, q.Name)
		fmt.Printf("  Last:   %s  %s\n", utils.FormatMoney(q.LastPrice, q.Currency), utils.FormatPct(q.ChangePct))
		fmt.Printf("  Range:  %s – %s\n", utils.FormatMoney(q.Low, q.Currency), utils.FormatMoney(q.High, q.Currency))
		fmt.Printf("  Volume: %d\n", q.Volume)
		if q.MarketCap.IsAvailable() {
			fmt.Printf("  Mkt Cap: %s\n", utils.FormatMoneyCompact(q.MarketCap.Value, q.MarketCap.Currency))
		}
		fmt.Printf("  Source: %s\n", rec.Provider)
		return nil
	},
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news [ticker]",
	Short: "Show market news, optionally filtered by company",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		svc := news.New()

		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		var articles []models.NewsArticle
		var err error
		if len(args) == 1 {
			articles, err = svc.CompanyNews(ctx, args[0], limit)
		} else {
			articles, err = svc.MarketNews(ctx, limit)
		}
		if err != nil {
			return err
		}

		if len(articles) == 0 {
			fmt.Println("No articles found.")
			return nil
		}
		for _, a := range articles {
			fmt.Printf("• %s\n  %s | %s\n", a.Title, a.Source, a.PublishedAt.Format("02 Jan 2006 15:04"))
		}
		return nil
	},
}

func init() {
	newsCmd.Flags().Int("limit", 15, "maximum number of articles")
}

// --- Watchlist Command ---

var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "Manage the watchlist",
}

var watchlistAddCmd = &cobra.Command{
	Use:   "add [ticker]",
	Short: "Add a ticker to the watchlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newWatchlistStore()
		if err != nil {
			return err
		}
		defer store.Close()

		note, _ := cmd.Flags().GetString("note")
		ticker := utils.NormalizeTicker(args[0])
		added, err := store.Add(cmd.Context(), models.WatchlistEntry{Ticker: ticker, Note: note})
		if err != nil {
			return err
		}
		if !added {
			fmt.Printf("%s is already on the watchlist\n", ticker)
			return nil
		}
		fmt.Printf("Added %s\n", ticker)
		return nil
	},
}

var watchlistRemoveCmd = &cobra.Command{
	Use:   "remove [ticker]",
	Short: "Remove a ticker from the watchlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newWatchlistStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ticker := utils.NormalizeTicker(args[0])
		if err := store.Remove(cmd.Context(), ticker); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", ticker)
		return nil
	},
}

var watchlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watchlist entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newWatchlistStore()
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("Watchlist is empty.")
			return nil
		}
		for _, e := range entries {
			line := fmt.Sprintf("%-20s added %s", e.Ticker, e.AddedAt.Format("02 Jan 2006"))
			if e.Note != "" {
				line += "  — " + e.Note
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	watchlistAddCmd.Flags().String("note", "", "note to attach to the entry")
	watchlistCmd.AddCommand(watchlistAddCmd)
	watchlistCmd.AddCommand(watchlistRemoveCmd)
	watchlistCmd.AddCommand(watchlistListCmd)
}

// --- Providers Command ---

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List registered data providers and their priority order",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry()
		if err != nil {
			return err
		}
		ping, _ := cmd.Flags().GetBool("ping")

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		fmt.Println("Provider priority order:")
		for i, info := range reg.List() {
			fmt.Printf("  %d. %-10s %s\n", i+1, info.Name, info.Description)
			fmt.Printf("     kinds: %v\n", info.Kinds)
			if !ping {
				continue
			}
			p, err := reg.Get(info.Name)
			if err != nil {
				continue
			}
			if err := p.Ping(ctx); err != nil {
				fmt.Printf("     status: unreachable (%v)\n", err)
			} else {
				fmt.Println("     status: reachable")
			}
		}
		return nil
	},
}

func init() {
	providersCmd.Flags().Bool("ping", false, "check each provider's reachability")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry()
		if err != nil {
			return err
		}
		store, err := newWatchlistStore()
		if err != nil {
			return err
		}
		defer store.Close()

		newsSvc := news.New()
		builder := report.NewBuilder(reg, newsSvc, newSummarizer(), cfg.News.Limit)
		builder.SetSectionTimeout(cfg.Report.SectionTimeout())
		srv := api.NewServer(cfg, reg, builder, newsSvc, store)

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("Starting Money-Mitra API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  Money-Mitra — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Market Status: %s\n", utils.MarketStatus())
		fmt.Printf("  Time (IST):    %s\n", utils.NowIST().Format("02 Jan 2006 15:04:05"))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Providers:     %v\n", cfg.Providers.Order)
		fmt.Printf("    Retry Budget:  %d (backoff %s → %s)\n",
			cfg.Providers.RetryBudget,
			cfg.Providers.BackoffInitialDuration(),
			cfg.Providers.BackoffMaxDuration())
		fmt.Printf("    LLM Model:     %s\n", cfg.LLM.Model)
		fmt.Printf("    Watchlist:     %s\n", cfg.Watchlist.Path)
		fmt.Printf("    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-18s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

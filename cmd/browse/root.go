package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kevinnadar22/announce/internal/app"
	"github.com/kevinnadar22/announce/internal/filter"
	"github.com/kevinnadar22/announce/internal/infra/api"
	"github.com/kevinnadar22/announce/internal/infra/cache"
	"github.com/kevinnadar22/announce/internal/infra/markup"
	"github.com/kevinnadar22/announce/internal/pagination"
	"github.com/kevinnadar22/announce/internal/view"
	"github.com/kevinnadar22/announce/pkg/config"
	"github.com/kevinnadar22/announce/pkg/logging"
)

var (
	language string
	jsonOut  bool
	noColor  bool
	verbose  bool

	cfg *config.Config
	env *environment
)

var rootCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse government press releases",
	Long: `browse reads press releases from the backend configured by API_BASE_URL.

Example usage:
  browse list --search budget          # First page of matching releases
  browse list --language hi --page 2   # Releases with a Hindi translation
  browse show 42 --language ta         # One release with its Tamil sections
  browse interactive                   # Keyboard driven list and detail`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initEnvironment()
	},
}

// Execute runs the command selected by os.Args.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&language, "language", "l", "", "language code, e.g. hi or ta")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output view models as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests to stderr")
}

// environment holds what every command needs to talk to the backend.
type environment struct {
	fetcher   *app.CollectionFetcher
	detail    *app.DetailService
	builder   filter.Builder
	ctrl      *pagination.Controller
	sanitizer *markup.Sanitizer
	debounce  time.Duration
}

func (e *environment) cardOptions() view.CardOptions {
	return view.CardOptions{Text: e.sanitizer.Text}
}

func (e *environment) sanitize() view.Sanitize {
	return view.Sanitize{HTML: e.sanitizer.HTML, Text: e.sanitizer.Text}
}

func initEnvironment() error {
	if noColor {
		color.NoColor = true
	}

	cfg = config.Load()
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		return fmt.Errorf("invalid page size: %d (must be 1-100)", cfg.PageSize)
	}

	client, err := api.New(api.Config{
		BaseURL:      cfg.APIBaseURL,
		Timeout:      cfg.APITimeout,
		MaxRetries:   cfg.APIMaxRetries,
		RetryBackoff: cfg.APIRetryBase,
		RateLimit:    cfg.APIRateLimit,
		RateBurst:    cfg.APIRateBurst,
		MaxPages:     cfg.FetchAllMaxPgs,
	}, api.WithLogger(slog.Default()), api.WithErrorSampler(logging.NewErrorSampler(10)))
	if err != nil {
		return err
	}

	if cfg.CacheSize < 1 {
		return errors.New("cache size must be positive")
	}
	store, err := cache.New(cfg.CacheSize, cfg.CacheTTL, cache.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	// The terminal client never archives; it reads the backend directly.
	env = &environment{
		fetcher:   app.NewCollectionFetcher(client, store, nil, cfg.CacheTTL),
		detail:    app.NewDetailService(client, store, nil, cfg.CacheTTL),
		builder:   filter.NewBuilder(cfg.PageSize),
		ctrl:      pagination.New(cfg.PageSize),
		sanitizer: markup.NewSanitizer(),
		debounce:  cfg.SearchDebounce,
	}
	return nil
}

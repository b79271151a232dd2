package factory

import (
	"errors"
	"log/slog"

	"github.com/kevinnadar22/announce/internal/domain"
	"github.com/kevinnadar22/announce/internal/infra/api"
	"github.com/kevinnadar22/announce/pkg/config"
	"github.com/kevinnadar22/announce/pkg/logging"
)

// NewAPIClient creates the client for the press-release backend.
func NewAPIClient(cfg *config.Config) (*api.Client, error) {
	if cfg.APIMaxRetries < 0 || cfg.APIMaxRetries > 10 {
		return nil, errors.New("API max retries must be between 0 and 10")
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
		return nil, err
	}

	slog.Info("Registered upstream API", "base_url", cfg.APIBaseURL, "max_retries", cfg.APIMaxRetries)
	return client, nil
}

func NewAnnouncementSource(c *api.Client) domain.AnnouncementSource {
	return c
}

func NewReferenceSource(c *api.Client) domain.ReferenceSource {
	return c
}

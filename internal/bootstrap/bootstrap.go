package bootstrap

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/adapter/repo"
	"server/internal/infra"
	"server/internal/infra/credentials"
	"server/internal/notify"
	"server/internal/pdf"
	"server/internal/providers/llm"
	"server/internal/providers/patents"
	"server/internal/report"
	"server/internal/storage"
)

// ReportService wires the full generation pipeline from configuration: the
// generative backend, patent enrichment, the PDF renderer, artifact storage,
// repositories, and the completion notifier. Both the API process and the
// sweeper build their service through here so the wiring cannot drift apart.
func ReportService(ctx context.Context, cfg *infra.Config, logger zerolog.Logger, runner *infra.SQLRunner, creds *credentials.Store, store *storage.FileStore) (*report.Service, error) {
	client, err := LLMClient(ctx, cfg, logger, creds)
	if err != nil {
		return nil, err
	}

	serpKey := strings.TrimSpace(cfg.PatentsAPIKey)
	if serpKey == "" {
		if fromStore, err := creds.SerpAPIKey(ctx); err != nil {
			logger.Warn().Err(err).Msg("serpapi key not loaded from store")
		} else {
			serpKey = fromStore
		}
	}
	patentClient := patents.NewClient(patents.Options{
		APIKey:  serpKey,
		BaseURL: cfg.PatentsBaseURL,
		Limit:   cfg.PatentsLimit,
		LLM:     client,
		Logger:  logger,
	})

	var notifier report.Notifier
	if cfg.SMTPHost != "" {
		mailer, err := notify.NewMailer(notify.MailerOptions{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		notifier = mailer
	} else {
		notifier = notify.LogNotifier{Logger: logger}
	}

	return report.NewService(report.Options{
		Reports:       repo.NewReportRepository(runner),
		Users:         repo.NewUserRepository(runner),
		Ledger:        repo.NewTokenLedger(runner),
		Usage:         repo.NewUsageRecorder(runner),
		Analytics:     repo.NewAnalyticsRepository(runner),
		Synth:         report.NewSynthesizer(client, logger),
		Patents:       patentClient,
		Renderer:      pdf.NewRenderer(logger),
		Store:         store,
		Notifier:      notifier,
		Logger:        logger,
		LLMTimeout:    cfg.LLMCallTimeout,
		RenderTimeout: cfg.RenderTimeout,
	}), nil
}

// LLMClient builds the configured generative backend, falling back to keys
// persisted in the credentials store when the environment has none.
func LLMClient(ctx context.Context, cfg *infra.Config, logger zerolog.Logger, creds *credentials.Store) (llm.Client, error) {
	httpClient := &http.Client{Timeout: cfg.LLMCallTimeout + 10*time.Second}
	warn := func(reason, detail string) {
		logger.Warn().Str("reason", reason).Str("detail", detail).Msg("llm client")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "gemini":
		key := strings.TrimSpace(cfg.GeminiAPIKey)
		if key == "" {
			if fromStore, err := creds.GeminiAPIKey(ctx); err == nil {
				key = fromStore
			}
		}
		return llm.NewGeminiClient(llm.GeminiOptions{
			APIKey:     key,
			Model:      cfg.GeminiModel,
			BaseURL:    cfg.GeminiBaseURL,
			HTTPClient: httpClient,
		})
	default:
		key := strings.TrimSpace(cfg.OpenAIAPIKey)
		if key == "" {
			if fromStore, err := creds.OpenAIAPIKey(ctx); err == nil {
				key = fromStore
			}
		}
		return llm.NewOpenAIClient(llm.OpenAIOptions{
			APIKey:       key,
			Model:        cfg.OpenAIModel,
			BaseURL:      cfg.OpenAIBaseURL,
			Organization: cfg.OpenAIOrg,
			HTTPClient:   httpClient,
			OnWarning:    warn,
		})
	}
}

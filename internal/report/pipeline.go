package report

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/domain/jsoncfg"
	"server/internal/providers/patents"
)

// PatentSearcher retrieves related patent records for an idea. Implementations
// are best effort: a nil slice means enrichment is skipped, never that the job
// fails.
type PatentSearcher interface {
	Search(ctx context.Context, topic string) []patents.Record
}

// Renderer turns an assembled document into the final artifact bytes. Errors
// must wrap domain.ErrRenderFailure.
type Renderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
}

// ArtifactStore persists and inspects rendered artifacts by key.
type ArtifactStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	Stat(ctx context.Context, key string) (int64, error)
}

// Notifier delivers completion notices. Best effort; failures are logged by
// the implementation and never affect job state.
type Notifier interface {
	ReportCompleted(ctx context.Context, user *domain.User, job *domain.ReportJob)
}

const maxErrorMessageRunes = 500

// Options wires a Service. Reports, Ledger, Synth, Renderer, and Store are
// required; the rest degrade gracefully when nil.
type Options struct {
	Reports   domain.ReportRepository
	Users     domain.UserRepository
	Ledger    domain.TokenLedger
	Usage     domain.UsageRecorder
	Analytics domain.AnalyticsRepository

	Synth    *Synthesizer
	Patents  PatentSearcher
	Renderer Renderer
	Store    ArtifactStore
	Notifier Notifier

	Logger        zerolog.Logger
	LLMTimeout    time.Duration
	RenderTimeout time.Duration
	Now           func() time.Time
}

// Service owns the full report lifecycle: quota debit and job creation at
// submission, then the asynchronous generate-assemble-render run, with the
// compensating refund on every failure after the debit.
type Service struct {
	reports   domain.ReportRepository
	users     domain.UserRepository
	ledger    domain.TokenLedger
	usage     domain.UsageRecorder
	analytics domain.AnalyticsRepository

	synth    *Synthesizer
	patents  PatentSearcher
	renderer Renderer
	store    ArtifactStore
	notifier Notifier

	logger        zerolog.Logger
	llmTimeout    time.Duration
	renderTimeout time.Duration
	now           func() time.Time
}

func NewService(opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	llmTimeout := opts.LLMTimeout
	if llmTimeout <= 0 {
		llmTimeout = 120 * time.Second
	}
	renderTimeout := opts.RenderTimeout
	if renderTimeout <= 0 {
		renderTimeout = 60 * time.Second
	}
	return &Service{
		reports:       opts.Reports,
		users:         opts.Users,
		ledger:        opts.Ledger,
		usage:         opts.Usage,
		analytics:     opts.Analytics,
		synth:         opts.Synth,
		patents:       opts.Patents,
		renderer:      opts.Renderer,
		store:         opts.Store,
		notifier:      opts.Notifier,
		logger:        opts.Logger,
		llmTimeout:    llmTimeout,
		renderTimeout: renderTimeout,
		now:           now,
	}
}

// Submit validates the request, debits the tier cost atomically, persists the
// PENDING job, and hands it to a detached Run. The debit happens before the
// row exists, so a failed insert credits the amount straight back.
func (s *Service) Submit(ctx context.Context, userID string, req jsoncfg.ReportRequest) (*domain.ReportJob, error) {
	req.Normalize("")
	if err := req.Validate(); err != nil {
		return nil, err
	}
	cost := TierCost(req.Tier)
	if cost <= 0 {
		return nil, fmt.Errorf("%w: no cost defined for tier %s", domain.ErrInvalidRequest, req.Tier)
	}

	ok, available, err := s.ledger.Debit(ctx, userID, cost)
	if err != nil {
		return nil, fmt.Errorf("debit tokens: %w", err)
	}
	if !ok {
		return nil, &domain.InsufficientTokensError{Required: cost, Available: available}
	}

	now := s.now().UTC()
	job := &domain.ReportJob{
		ID:         uuid.NewString(),
		UserID:     userID,
		Idea:       req.Idea,
		Tier:       req.Tier,
		Status:     domain.ReportStatusPending,
		CostTokens: cost,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.reports.Create(ctx, job); err != nil {
		if cerr := s.ledger.Credit(ctx, userID, cost); cerr != nil {
			s.logger.Error().Err(cerr).Str("user_id", userID).Int("amount", cost).
				Msg("refund after failed job insert did not apply")
		}
		return nil, fmt.Errorf("create report job: %w", err)
	}

	if s.users != nil {
		if err := s.users.IncrementRequestCounter(ctx, userID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("request counter not incremented")
		}
	}
	s.recordEvent(ctx, userID, job.ID, "report.requested", true, 0)
	s.bumpCounters(ctx, map[string]int{"report_requests": 1, "tokens_consumed": cost})

	go s.Run(context.WithoutCancel(ctx), job.ID)
	return job, nil
}

// Run executes the generation pipeline for one job. The conditional
// PENDING → PROCESSING transition is the claim: concurrent runners for the
// same job are harmless because exactly one wins it and the rest return.
func (s *Service) Run(ctx context.Context, jobID string) {
	start := s.now()
	log := s.logger.With().Str("job_id", jobID).Logger()

	job, err := s.reports.GetByID(ctx, jobID)
	if err != nil {
		log.Error().Err(err).Msg("load job for run")
		return
	}
	claimed, err := s.reports.MarkProcessing(ctx, jobID)
	if err != nil {
		log.Error().Err(err).Msg("claim job")
		return
	}
	if !claimed {
		log.Debug().Msg("job already claimed or terminal")
		return
	}

	var facts []patents.Record
	if s.patents != nil {
		facts = s.patents.Search(ctx, job.Idea)
	}

	var (
		total    domain.UsageBreakdown
		sections []Section
	)
	for _, spec := range TierSections(job.Tier) {
		sctx, cancel := context.WithTimeout(ctx, s.llmTimeout)
		body, usage, serr := s.synth.Synthesize(sctx, job.Idea, spec, enrichmentFacts(spec, facts))
		cancel()
		if serr != nil {
			log.Error().Err(serr).Str("section", string(spec.ID)).Msg("section synthesis failed")
			s.fail(ctx, job, classify(serr))
			return
		}
		total.Add(usage)
		sections = append(sections, Section{ID: spec.ID, Title: spec.Title, Body: body})
	}

	doc := Assemble(job.Idea, job.Tier, s.now(), sections)

	rctx, cancel := context.WithTimeout(ctx, s.renderTimeout)
	artifact, err := s.renderer.Render(rctx, doc)
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("render failed")
		s.fail(ctx, job, classify(err))
		return
	}

	key := ArtifactKey(job.ID)
	if _, err := s.store.Write(ctx, key, artifact); err != nil {
		log.Error().Err(err).Msg("artifact write failed")
		s.fail(ctx, job, classify(err))
		return
	}
	size, err := s.store.Stat(ctx, key)
	if err != nil || size <= 0 {
		log.Error().Err(err).Int64("size", size).Msg("artifact integrity check failed")
		s.fail(ctx, job, "document rendering: artifact is empty")
		return
	}

	update := domain.CompletionUpdate{
		ArtifactKey:   key,
		ArtifactBytes: size,
		Preview:       doc.Preview(),
		Usage:         total,
		CompletedAt:   s.now().UTC(),
	}
	if err := s.reports.MarkCompleted(ctx, jobID, update); err != nil {
		log.Error().Err(err).Msg("completion not persisted")
		s.fail(ctx, job, "internal: completion could not be persisted")
		return
	}

	latency := int(s.now().Sub(start).Milliseconds())
	s.recordEvent(ctx, job.UserID, jobID, "report.completed", true, latency)
	s.bumpCounters(ctx, map[string]int{"request_success": 1})
	s.notifyCompleted(ctx, job, update)
	log.Info().Int("total_tokens", total.TotalTokens).Int64("bytes", size).Msg("report completed")
}

// fail moves the job to FAILED and, only when this call actually performed the
// transition, credits the full cost back. A terminal row yields no second
// refund no matter how many failure paths race into here.
func (s *Service) fail(ctx context.Context, job *domain.ReportJob, msg string) {
	msg = clipRunes(msg, maxErrorMessageRunes)
	moved, err := s.reports.MarkFailed(ctx, job.ID, msg)
	if err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("failure transition errored")
		return
	}
	if !moved {
		return
	}
	if err := s.ledger.Credit(ctx, job.UserID, job.CostTokens); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Str("user_id", job.UserID).
			Int("amount", job.CostTokens).Msg("refund did not apply")
	}
	s.recordEvent(ctx, job.UserID, job.ID, "report.failed", false, 0)
	s.bumpCounters(ctx, map[string]int{"request_fail": 1, "tokens_refunded": job.CostTokens})
}

func (s *Service) notifyCompleted(ctx context.Context, job *domain.ReportJob, update domain.CompletionUpdate) {
	if s.notifier == nil || s.users == nil {
		return
	}
	user, err := s.users.GetByID(ctx, job.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("completion notice skipped")
		return
	}
	done := *job
	done.Status = domain.ReportStatusCompleted
	done.ArtifactKey = update.ArtifactKey
	done.ArtifactBytes = update.ArtifactBytes
	done.Preview = update.Preview
	done.Usage = update.Usage
	completedAt := update.CompletedAt
	done.CompletedAt = &completedAt
	s.notifier.ReportCompleted(ctx, user, &done)
}

func (s *Service) recordEvent(ctx context.Context, userID, jobID, event string, success bool, latencyMS int) {
	if s.usage == nil {
		return
	}
	props := jsoncfg.MustMarshal(map[string]string{"job_id": jobID})
	if err := s.usage.Record(ctx, userID, jobID, event, success, latencyMS, props); err != nil {
		s.logger.Warn().Err(err).Str("event", event).Msg("usage event not recorded")
	}
}

func (s *Service) bumpCounters(ctx context.Context, counters map[string]int) {
	if s.analytics == nil {
		return
	}
	day := s.now().UTC().Format("2006-01-02")
	if err := s.analytics.IncrementCounters(ctx, day, counters); err != nil {
		s.logger.Warn().Err(err).Msg("analytics counters not updated")
	}
}

// ArtifactKey is the storage key convention for a job's rendered document.
func ArtifactKey(jobID string) string {
	return fmt.Sprintf("reports/%s.pdf", jobID)
}

// enrichmentFacts gates patent records to enrichment-eligible sections so an
// ineligible section never sees external data.
func enrichmentFacts(spec SectionSpec, facts []patents.Record) []patents.Record {
	if !spec.UseEnrichment {
		return nil
	}
	return facts
}

// classify maps a pipeline error onto the persisted failure message. The
// prefix tells support which stage broke without exposing internals to the
// job owner.
func classify(err error) string {
	switch {
	case errors.Is(err, domain.ErrProviderFailure):
		return "generation backend: " + err.Error()
	case errors.Is(err, domain.ErrRenderFailure):
		return "document rendering: " + err.Error()
	default:
		return "internal: " + err.Error()
	}
}

func clipRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

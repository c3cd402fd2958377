// Package bot coordinates the lead pipeline.
// Flow: discover → dedup → validate socials → extract admins → filter →
// wallet lookup → persist → notify.
package bot

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dexlead/internal/dexscreener"
	"dexlead/internal/domain"
	"dexlead/internal/metrics"
	"dexlead/internal/social"
	"dexlead/internal/storage"
)

// Discoverer produces enriched token candidates for one poll cycle.
type Discoverer interface {
	DiscoverNewTokens(ctx context.Context) []dexscreener.Discovery
}

// SocialValidator validates and enriches a candidate's social links.
type SocialValidator interface {
	ValidateAndEnrich(ctx context.Context, socials domain.SocialLinks) (domain.SocialLinks, error)
}

// AdminExtractor pulls the admin roster behind a t.me link.
type AdminExtractor interface {
	ExtractAdmins(ctx context.Context, tgLink string) (*domain.AdminResult, error)
}

// WalletLookup resolves the deployer wallet of a token contract.
type WalletLookup interface {
	Deployer(ctx context.Context, chain, contractAddress string) (string, error)
}

// Notifier delivers a qualified lead. It reports success, never errors.
type Notifier interface {
	SendLead(ctx context.Context, lead *domain.LeadRecord) bool
}

// Bot runs the poll loop and the per-token qualification state machine.
type Bot struct {
	discoverer Discoverer
	social     SocialValidator
	admin      AdminExtractor
	wallet     WalletLookup
	notifier   Notifier
	store      storage.LeadStore
	outcomes   storage.OutcomeStore

	pollInterval        time.Duration
	enforceFilters      bool
	requireTelegram     bool
	requireVisibleAdmin bool
	rejectHiddenAdmins  bool
	registerSkipped     bool

	// adminEnabled flips off for the rest of the run after the first
	// extraction failure.
	adminEnabled bool
	cycle        uint64

	counters *metrics.Counters
	log      zerolog.Logger
	now      func() time.Time
}

// Options for creating a Bot.
type Options struct {
	// Required collaborators
	Discoverer Discoverer
	Social     SocialValidator
	Notifier   Notifier
	Store      storage.LeadStore

	// Optional collaborators
	Admin    AdminExtractor       // nil disables admin extraction
	Wallet   WalletLookup         // nil disables wallet lookup
	Outcomes storage.OutcomeStore // nil disables the audit sink

	// Behavior
	PollInterval        time.Duration
	EnforceFilters      bool
	RequireTelegram     bool
	RequireVisibleAdmin bool
	RejectHiddenAdmins  bool
	RegisterSkipped     bool

	Counters *metrics.Counters
	Logger   zerolog.Logger
}

// New creates a Bot.
func New(opts Options) *Bot {
	counters := opts.Counters
	if counters == nil {
		counters = metrics.NewCounters()
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	b := &Bot{
		discoverer:          opts.Discoverer,
		social:              opts.Social,
		admin:               opts.Admin,
		wallet:              opts.Wallet,
		notifier:            opts.Notifier,
		store:               opts.Store,
		outcomes:            opts.Outcomes,
		pollInterval:        pollInterval,
		enforceFilters:      opts.EnforceFilters,
		requireTelegram:     opts.RequireTelegram,
		requireVisibleAdmin: opts.RequireVisibleAdmin,
		rejectHiddenAdmins:  opts.RejectHiddenAdmins,
		registerSkipped:     opts.RegisterSkipped,
		adminEnabled:        opts.Admin != nil,
		counters:            counters,
		log:                 opts.Logger.With().Str("component", "bot").Logger(),
		now:                 time.Now,
	}
	if opts.Admin == nil && opts.EnforceFilters &&
		(opts.RequireVisibleAdmin || opts.RejectHiddenAdmins) {
		b.log.Warn().Msg("admin-based filters are enabled while admin extraction is disabled; most leads may be skipped")
	}
	return b
}

// Run polls until ctx is canceled. A failing cycle never stops the
// loop.
func (b *Bot) Run(ctx context.Context) {
	b.log.Info().Dur("interval", b.pollInterval).Msg("bot is running")

	for {
		b.safePoll(ctx)

		timer := time.NewTimer(b.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			b.logRunStats()
			return
		case <-timer.C:
		}
	}
}

func (b *Bot) safePoll(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Interface("panic", r).Msg("unhandled error in poll cycle")
		}
	}()
	b.pollOnce(ctx)
}

func (b *Bot) pollOnce(ctx context.Context) {
	b.cycle++
	b.counters.Inc(metrics.EventPolls)
	b.log.Info().Uint64("poll", b.cycle).Msg("poll cycle started")

	b.counters.Inc(metrics.Attempt("dex"))
	discoveries := b.discoverer.DiscoverNewTokens(ctx)
	b.counters.Add(metrics.EventDiscoveries, uint64(len(discoveries)))
	b.log.Debug().Int("count", len(discoveries)).Msg("discovered potential leads within age window")

	for _, d := range discoveries {
		if ctx.Err() != nil {
			return
		}
		b.processToken(ctx, d)
	}

	b.log.Info().
		Int("discovered", len(discoveries)).
		Uint64("processed", b.counters.Get(metrics.EventProcessed)).
		Uint64("notified", b.counters.Get(metrics.EventNotified)).
		Uint64("skipped", b.counters.Get(metrics.EventSkippedTotal)).
		Msg("poll complete")
	b.logServiceHealth()
}

// processToken walks one candidate through the qualification steps.
func (b *Bot) processToken(ctx context.Context, d dexscreener.Discovery) {
	pair := d.Pair
	socials := d.Socials

	// Dedup. Silent skip keeps logs clean for re-seen tokens.
	exists, err := b.store.TokenExists(ctx, pair.Chain, pair.TokenAddress)
	if err != nil {
		b.counters.Inc(metrics.Failure("db"))
		b.log.Error().Err(err).Str("token", pair.TokenAddress).Msg("dedup check failed")
		return
	}
	if exists {
		b.counters.Inc(metrics.SkipEvent(metrics.SkipAlreadySeen))
		b.counters.Inc(metrics.EventSkippedTotal)
		return
	}

	// Social validation.
	b.counters.Inc(metrics.Attempt("social"))
	socials, err = b.social.ValidateAndEnrich(ctx, socials)
	if err != nil {
		b.counters.Inc(metrics.Failure("social"))
		b.log.Warn().Err(err).Str("symbol", pair.TokenSymbol).Msg("social validation failed")
		b.skipToken(ctx, pair, metrics.SkipSocialError, "social validation error")
		return
	}

	if b.enforceFilters && b.requireTelegram && socials.Telegram == "" {
		b.skipToken(ctx, pair, metrics.SkipNoTelegram, "no Telegram link")
		return
	}

	adminResult := b.extractAdmins(ctx, pair, socials.Telegram)

	// Back-fill missing socials from the group description and pinned
	// message. Telegram itself is already settled.
	if adminResult.GroupDescription != "" || adminResult.PinnedMessageText != "" {
		extra := social.ExtractLinksFromText(
			adminResult.GroupDescription + "\n" + adminResult.PinnedMessageText)
		if socials.Twitter == "" && extra.Twitter != "" {
			socials.Twitter = extra.Twitter
			b.log.Info().Str("twitter", socials.Twitter).Msg("found twitter from tg group")
		}
		if socials.Website == "" && extra.Website != "" {
			socials.Website = extra.Website
			b.log.Info().Str("website", socials.Website).Msg("found website from tg group")
		}
	}

	if b.enforceFilters && b.requireVisibleAdmin &&
		len(adminResult.Admins) == 0 && !adminResult.AdminsHidden {
		b.skipToken(ctx, pair, metrics.SkipNoVisibleAdmins, "no visible admins")
		return
	}
	if b.enforceFilters && b.rejectHiddenAdmins &&
		adminResult.AdminsHidden && len(adminResult.Admins) == 0 {
		b.skipToken(ctx, pair, metrics.SkipAdminsHidden, "admins hidden")
		return
	}

	deployerWallet := b.lookupWallet(ctx, pair)

	lead := &domain.LeadRecord{
		Chain:          pair.Chain,
		TokenName:      pair.TokenName,
		TokenSymbol:    pair.TokenSymbol,
		TokenAddress:   pair.TokenAddress,
		PairAddress:    pair.PairAddress,
		URL:            pair.URL,
		CreatedAt:      pair.CreatedAt,
		DiscoveredAt:   b.now().UTC(),
		Telegram:       socials.Telegram,
		Twitter:        socials.Twitter,
		Website:        socials.Website,
		Admins:         adminResult.Admins,
		AdminsHidden:   adminResult.AdminsHidden,
		DeployerWallet: deployerWallet,
	}

	// Persist. A lead that cannot be stored is never notified.
	b.counters.Inc(metrics.Attempt("db"))
	if _, err := b.store.InsertLead(ctx, lead); err != nil {
		b.counters.Inc(metrics.Failure("db"))
		b.log.Error().Err(err).
			Str("chain", lead.Chain).
			Str("symbol", lead.TokenSymbol).
			Msg("failed to persist lead")
		b.recordOutcome(ctx, pair, domain.OutcomePersistFailed, "")
		return
	}

	b.counters.Inc(metrics.Attempt("notifier"))
	sent := b.notifier.SendLead(ctx, lead)

	b.counters.Inc(metrics.EventProcessed)
	if sent {
		b.counters.Inc(metrics.EventNotified)
		b.recordOutcome(ctx, pair, domain.OutcomeNotified, "")
	} else {
		b.counters.Inc(metrics.EventNotifyFailed)
		b.counters.Inc(metrics.Failure("notifier"))
		b.recordOutcome(ctx, pair, domain.OutcomeStoredWithoutNotif, "")
	}

	b.log.Info().
		Str("chain", strings.ToUpper(lead.Chain)).
		Str("symbol", lead.TokenSymbol).
		Int("tg_admins", len(lead.Admins)).
		Bool("wallet", lead.DeployerWallet != "").
		Msg("lead processed")
}

// extractAdmins runs admin extraction when enabled. Any error disables
// it for the rest of the run and degrades to a hidden admin list.
func (b *Bot) extractAdmins(ctx context.Context, pair *domain.TokenPair, tgLink string) *domain.AdminResult {
	if tgLink == "" {
		return &domain.AdminResult{AdminsHidden: true}
	}
	if !b.adminEnabled || b.admin == nil {
		return &domain.AdminResult{AdminsHidden: true}
	}

	b.counters.Inc(metrics.Attempt("telegram_admin"))
	result, err := b.admin.ExtractAdmins(ctx, tgLink)
	if err != nil {
		b.counters.Inc(metrics.Failure("telegram_admin"))
		b.adminEnabled = false
		b.log.Warn().Err(err).
			Str("chain", pair.Chain).
			Str("symbol", pair.TokenSymbol).
			Msg("admin extraction failed")
		b.log.Warn().Msg("telegram admin extraction disabled for the current run")
		return &domain.AdminResult{AdminsHidden: true}
	}
	return result
}

// lookupWallet is best-effort: failures are counted, never block the
// lead.
func (b *Bot) lookupWallet(ctx context.Context, pair *domain.TokenPair) string {
	if b.wallet == nil {
		return ""
	}

	b.counters.Inc(metrics.Attempt("wallet"))
	deployer, err := b.wallet.Deployer(ctx, pair.Chain, pair.TokenAddress)
	if err != nil {
		b.counters.Inc(metrics.Failure("wallet"))
		b.counters.Inc(metrics.EventWalletLookupError)
		b.log.Warn().Err(err).
			Str("chain", pair.Chain).
			Str("symbol", pair.TokenSymbol).
			Msg("wallet lookup failed")
		return ""
	}
	if deployer != "" {
		b.counters.Inc(metrics.EventWalletLookupOK)
	} else {
		b.counters.Inc(metrics.EventWalletLookupMiss)
	}
	return deployer
}

// skipToken records a filtered-out candidate and, when configured,
// registers it so later cycles skip it on the dedup check.
func (b *Bot) skipToken(ctx context.Context, pair *domain.TokenPair, reason, message string) {
	b.counters.Inc(metrics.SkipEvent(reason))
	b.counters.Inc(metrics.EventSkippedTotal)
	b.log.Info().
		Str("chain", pair.Chain).
		Str("symbol", pair.TokenSymbol).
		Str("reason", message).
		Msg("skipping filter")
	b.recordOutcome(ctx, pair, domain.OutcomeSkipped, reason)

	if !b.registerSkipped {
		return
	}
	b.counters.Inc(metrics.Attempt("db"))
	if err := b.store.RegisterToken(ctx, domain.RegistrationFor(pair)); err != nil {
		b.counters.Inc(metrics.Failure("db"))
		b.log.Warn().Err(err).
			Str("chain", pair.Chain).
			Str("symbol", pair.TokenSymbol).
			Msg("failed to register skipped token")
		return
	}
	b.counters.Inc(metrics.EventRegisteredSkipped)
}

// recordOutcome appends one audit row; the sink is best-effort.
func (b *Bot) recordOutcome(ctx context.Context, pair *domain.TokenPair, outcome domain.Outcome, reason string) {
	if b.outcomes == nil {
		return
	}
	ev := &domain.OutcomeEvent{
		Cycle:        b.cycle,
		Chain:        pair.Chain,
		TokenAddress: pair.TokenAddress,
		TokenSymbol:  pair.TokenSymbol,
		Outcome:      outcome,
		Reason:       reason,
		At:           b.now().UTC(),
	}
	if err := b.outcomes.InsertOutcome(ctx, ev); err != nil {
		b.log.Warn().Err(err).Msg("failed to record outcome")
	}
}

func (b *Bot) logServiceHealth() {
	b.log.Info().
		Uint64("profile_calls", b.counters.Get(metrics.EventProfileCalls)).
		Uint64("pair_calls", b.counters.Get(metrics.EventPairCalls)).
		Uint64("retries", b.counters.Get(metrics.EventRetryEvents)).
		Uint64("pair_failures", b.counters.Get(metrics.EventPairFailures)).
		Uint64("parse_failures", b.counters.Get(metrics.EventParseFailures)).
		Msg("dex metrics")

	for _, event := range b.counters.Events() {
		service, ok := strings.CutPrefix(event, "attempts_")
		if !ok {
			continue
		}
		attempts := b.counters.Get(event)
		if attempts == 0 {
			continue
		}
		errorsN := b.counters.Get(metrics.Failure(service))
		b.log.Info().
			Str("service", service).
			Uint64("errors", errorsN).
			Uint64("attempts", attempts).
			Float64("error_rate_pct", float64(errorsN)/float64(attempts)*100).
			Msg("service health")
	}
}

func (b *Bot) logRunStats() {
	b.log.Info().
		Uint64("polls", b.counters.Get(metrics.EventPolls)).
		Uint64("discovered", b.counters.Get(metrics.EventDiscoveries)).
		Uint64("processed", b.counters.Get(metrics.EventProcessed)).
		Uint64("notified", b.counters.Get(metrics.EventNotified)).
		Uint64("skipped", b.counters.Get(metrics.EventSkippedTotal)).
		Msg("run stats")
	b.logServiceHealth()
}

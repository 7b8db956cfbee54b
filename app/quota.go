// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/artpar/metergate/adapters/metrics"
	"github.com/artpar/metergate/domain/entitlement"
	"github.com/artpar/metergate/domain/quota"
	"github.com/artpar/metergate/ports"
	"github.com/rs/zerolog"
)

// ErrQuotaExceeded signals a normal business outcome: the caller's monthly
// quota is used up and an upgrade is required. It is not a system error.
var ErrQuotaExceeded = errors.New("monthly quota exceeded")

// Limits carries the externally-injected quota configuration.
type Limits struct {
	FreeQuota int64
	ProQuota  int64 // -1 = unlimited
}

// QuotaService answers "is this request allowed?" and records the usage.
// Profile and usage counter live in decoupled records updated by different
// actors; the service never writes the profile.
type QuotaService struct {
	profiles ports.ProfileStore
	usage    ports.UsageStore
	clock    ports.Clock
	logger   zerolog.Logger
	metrics  *metrics.Collector

	// Hot-reloadable configuration
	limits atomic.Pointer[Limits]
}

// QuotaDeps contains dependencies for QuotaService.
type QuotaDeps struct {
	Profiles ports.ProfileStore
	Usage    ports.UsageStore
	Clock    ports.Clock
	Logger   zerolog.Logger
	Metrics  *metrics.Collector // optional
}

// NewQuotaService creates a new quota service.
func NewQuotaService(deps QuotaDeps, limits Limits) *QuotaService {
	s := &QuotaService{
		profiles: deps.Profiles,
		usage:    deps.Usage,
		clock:    deps.Clock,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
	}
	s.UpdateLimits(limits)
	return s
}

// UpdateLimits updates the hot-reloadable quota configuration.
// This is thread-safe and can be called while handling requests.
func (s *QuotaService) UpdateLimits(limits Limits) {
	s.limits.Store(&limits)
}

// Limits returns the current quota configuration.
func (s *QuotaService) Limits() Limits {
	return *s.limits.Load()
}

// CheckAndConsume decides whether one more request is allowed for the user
// and, if so, atomically records it. Denials never mutate state. A missing
// profile means free-tier defaults; the profile is never written here.
//
// Returns ErrQuotaExceeded (with the decision) when the quota is used up.
func (s *QuotaService) CheckAndConsume(ctx context.Context, userID string) (quota.Decision, error) {
	now := s.clock.Now()
	limits := s.Limits()

	// Read profile; absent means implicit free defaults (I/O)
	profile, found, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return quota.Decision{}, fmt.Errorf("get profile: %w", err)
	}
	if !found {
		profile = entitlement.DefaultProfile(userID, limits.FreeQuota)
	}

	// Current-period usage (I/O)
	period := quota.PeriodKey(now)
	used, err := s.usage.Count(ctx, userID, period)
	if err != nil {
		return quota.Decision{}, fmt.Errorf("get usage: %w", err)
	}

	// Decide (PURE)
	decision := quota.Evaluate(profile, used)
	if !decision.Allowed {
		s.countCheck(profile.Tier, "denied")
		s.logger.Info().
			Str("user_id", userID).
			Str("period", period).
			Int64("used", used).
			Int64("limit", decision.Limit).
			Msg("quota exceeded")
		return decision, ErrQuotaExceeded
	}

	// Record the usage atomically (I/O). Concurrent callers are serialized
	// by the store; the post-increment count is authoritative.
	count, err := s.usage.Increment(ctx, userID, period, quota.CounterExpiry(now))
	if err != nil {
		return quota.Decision{}, fmt.Errorf("increment usage: %w", err)
	}
	decision.Usage = count

	s.countCheck(profile.Tier, "allowed")
	s.countUsage(profile.Tier)

	s.logger.Debug().
		Str("user_id", userID).
		Str("period", period).
		Int64("usage", count).
		Str("tier", string(profile.Tier)).
		Msg("usage recorded")

	return decision, nil
}

func (s *QuotaService) countCheck(tier entitlement.Tier, outcome string) {
	if s.metrics != nil {
		s.metrics.QuotaChecksTotal.WithLabelValues(string(tier), outcome).Inc()
	}
}

func (s *QuotaService) countUsage(tier entitlement.Tier) {
	if s.metrics != nil {
		s.metrics.UsageCount.WithLabelValues(string(tier)).Inc()
	}
}

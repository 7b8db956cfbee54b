package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/artpar/metergate/adapters/metrics"
	"github.com/artpar/metergate/domain/billing"
	"github.com/artpar/metergate/domain/entitlement"
	"github.com/artpar/metergate/ports"
	"github.com/rs/zerolog"
)

// SyncService converts verified billing events into idempotent profile
// transitions. Transitions are absolute overwrites, so at-least-once delivery
// needs no processed-event log. Events arriving out of order are applied
// last-write-wins; no version comparison is performed.
type SyncService struct {
	profiles ports.ProfileStore
	clock    ports.Clock
	logger   zerolog.Logger
	metrics  *metrics.Collector

	limits atomic.Pointer[Limits]
}

// SyncDeps contains dependencies for SyncService.
type SyncDeps struct {
	Profiles ports.ProfileStore
	Clock    ports.Clock
	Logger   zerolog.Logger
	Metrics  *metrics.Collector // optional
}

// NewSyncService creates a new plan synchronizer.
func NewSyncService(deps SyncDeps, limits Limits) *SyncService {
	s := &SyncService{
		profiles: deps.Profiles,
		clock:    deps.Clock,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
	}
	s.UpdateLimits(limits)
	return s
}

// UpdateLimits updates the hot-reloadable quota configuration.
func (s *SyncService) UpdateLimits(limits Limits) {
	s.limits.Store(&limits)
}

// Apply applies one verified billing event to the user's profile. Events
// without a correlation identity are dropped without error; unrecognized
// kinds are ignored. A returned error means the event must be considered
// unprocessed so the provider's retry redelivers it.
func (s *SyncService) Apply(ctx context.Context, ev billing.Event) error {
	switch ev.Kind {
	case billing.KindActivated:
		if ev.UserID == "" || ev.CustomerID == "" {
			s.logger.Warn().
				Str("type", ev.Type).
				Str("customer_id", ev.CustomerID).
				Msg("dropping activation event without correlation identity")
			s.countEvent(ev.Kind, "dropped")
			return nil
		}
		return s.applyActivated(ctx, ev)

	case billing.KindCanceled:
		if ev.UserID == "" {
			s.logger.Warn().
				Str("type", ev.Type).
				Msg("dropping cancellation event without correlation identity")
			s.countEvent(ev.Kind, "dropped")
			return nil
		}
		return s.applyCanceled(ctx, ev)

	default:
		s.logger.Debug().Str("type", ev.Type).Msg("ignoring billing event")
		s.countEvent(ev.Kind, "ignored")
		return nil
	}
}

func (s *SyncService) applyActivated(ctx context.Context, ev billing.Event) error {
	limits := *s.limits.Load()
	now := s.clock.Now()

	profile, found, err := s.profiles.Get(ctx, ev.UserID)
	if err != nil {
		s.countEvent(ev.Kind, "error")
		return fmt.Errorf("get profile: %w", err)
	}
	if !found {
		profile = entitlement.DefaultProfile(ev.UserID, limits.FreeQuota)
	}

	profile = entitlement.Activate(profile, ev.CustomerID, limits.ProQuota, now)
	if err := s.profiles.Put(ctx, profile); err != nil {
		s.countEvent(ev.Kind, "error")
		return fmt.Errorf("put profile: %w", err)
	}

	s.countEvent(ev.Kind, "applied")
	s.logger.Info().
		Str("user_id", ev.UserID).
		Str("customer_id", ev.CustomerID).
		Str("type", ev.Type).
		Msg("profile upgraded to pro")
	return nil
}

func (s *SyncService) applyCanceled(ctx context.Context, ev billing.Event) error {
	limits := *s.limits.Load()
	now := s.clock.Now()

	profile, found, err := s.profiles.Get(ctx, ev.UserID)
	if err != nil {
		s.countEvent(ev.Kind, "error")
		return fmt.Errorf("get profile: %w", err)
	}
	if !found {
		profile = entitlement.DefaultProfile(ev.UserID, limits.FreeQuota)
	}

	profile = entitlement.Cancel(profile, limits.FreeQuota, now)
	if err := s.profiles.Put(ctx, profile); err != nil {
		s.countEvent(ev.Kind, "error")
		return fmt.Errorf("put profile: %w", err)
	}

	s.countEvent(ev.Kind, "applied")
	s.logger.Info().
		Str("user_id", ev.UserID).
		Str("type", ev.Type).
		Msg("profile reverted to free")
	return nil
}

func (s *SyncService) countEvent(kind billing.Kind, outcome string) {
	if s.metrics != nil {
		s.metrics.WebhookEventsTotal.WithLabelValues(kind.String(), outcome).Inc()
	}
}

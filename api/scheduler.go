/*
scheduler.go - Active policy resolution and background refresh

PURPOSE:
  New calculations use one "active" policy. Which one is active depends on
  the database (policies are added over time, and a new year's policy
  becomes effective on January 1st), so the resolved policy is cached and
  refreshed periodically by PolicyRefresher.

RESOLUTION ORDER:
  1. PinnedID set:  latest stored version of that policy, else the preset
                    with that id, else an error
  2. Otherwise:     the stored policy with the latest effective_from not
                    after today
  3. Nothing stored: Fallback

USAGE:
  active := NewActivePolicy(store, fallback, logger)
  refresher := NewPolicyRefresher(active, 5*time.Minute, logger)
  refresher.Start()
  // ... later
  refresher.Stop()

SEE ALSO:
  - contract/store.go: PolicySource implemented by ActivePolicy
  - store/sqlite/policies.go: versioned policy storage
*/
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/warp/wage-engine/factory"
	"github.com/warp/wage-engine/store/sqlite"
	"github.com/warp/wage-engine/wage"
	"go.uber.org/zap"
)

// =============================================================================
// ACTIVE POLICY
// =============================================================================

// ActivePolicy caches the policy new calculations use.
type ActivePolicy struct {
	Store    *sqlite.Store
	Factory  *factory.PolicyFactory
	PinnedID string
	Fallback wage.Policy
	Logger   *zap.Logger
	Now      func() time.Time

	mu      sync.RWMutex
	current wage.Policy
	loaded  bool
}

// NewActivePolicy creates an unloaded cache. The first ActivePolicy call
// loads it.
func NewActivePolicy(store *sqlite.Store, fallback wage.Policy, logger *zap.Logger) *ActivePolicy {
	return &ActivePolicy{
		Store:    store,
		Factory:  factory.NewPolicyFactory(),
		Fallback: fallback,
		Logger:   logger,
		Now:      time.Now,
	}
}

// ActivePolicy returns the cached policy, loading it on first use.
func (a *ActivePolicy) ActivePolicy(ctx context.Context) (wage.Policy, error) {
	a.mu.RLock()
	if a.loaded {
		p := a.current
		a.mu.RUnlock()
		return p, nil
	}
	a.mu.RUnlock()
	return a.Reload(ctx)
}

// Reload resolves the active policy again and replaces the cached one. On
// error the cached policy is kept.
func (a *ActivePolicy) Reload(ctx context.Context) (wage.Policy, error) {
	p, err := a.resolve(ctx)
	if err != nil {
		return wage.Policy{}, err
	}

	a.mu.Lock()
	changed := !a.loaded || a.current.ID != p.ID || a.current.Version != p.Version
	a.current = p
	a.loaded = true
	a.mu.Unlock()

	if changed {
		a.Logger.Info("active policy changed",
			zap.String("policy_id", p.ID),
			zap.Int("version", p.Version),
		)
	}
	return p, nil
}

func (a *ActivePolicy) resolve(ctx context.Context) (wage.Policy, error) {
	var (
		rec *sqlite.PolicyRecord
		err error
	)
	if a.PinnedID != "" {
		rec, err = a.Store.GetPolicy(ctx, a.PinnedID)
		if err != nil {
			return wage.Policy{}, err
		}
		if rec == nil {
			if p, ok := factory.PresetByID(a.PinnedID); ok {
				return p.WithDefaults(), nil
			}
			return wage.Policy{}, fmt.Errorf("pinned policy %q not found", a.PinnedID)
		}
	} else {
		rec, err = a.Store.LatestEffectivePolicy(ctx, a.Now())
		if err != nil {
			return wage.Policy{}, err
		}
		if rec == nil {
			return a.Fallback.WithDefaults(), nil
		}
	}
	return a.fromRecord(*rec)
}

func (a *ActivePolicy) fromRecord(rec sqlite.PolicyRecord) (wage.Policy, error) {
	p, err := a.Factory.ParsePolicy(rec.ConfigJSON)
	if err != nil {
		return wage.Policy{}, fmt.Errorf("stored policy %s v%d: %w", rec.ID, rec.Version, err)
	}
	p.Version = rec.Version
	return p, nil
}

// SeedPresets stores every statutory preset that is not stored yet and
// returns the ones it added.
func SeedPresets(ctx context.Context, store *sqlite.Store) ([]wage.Policy, error) {
	var added []wage.Policy
	for _, p := range factory.Presets() {
		existing, err := store.GetPolicy(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}
		version, err := SavePolicy(ctx, store, p)
		if err != nil {
			return nil, err
		}
		p.Version = version
		added = append(added, p)
	}
	return added, nil
}

// SavePolicy stores p as a new version and returns the version number.
func SavePolicy(ctx context.Context, store *sqlite.Store, p wage.Policy) (int, error) {
	doc, err := factory.MarshalPolicy(p)
	if err != nil {
		return 0, err
	}
	return store.SavePolicy(ctx, sqlite.PolicyRecord{
		ID:            p.ID,
		Name:          p.Name,
		ConfigJSON:    doc,
		EffectiveFrom: p.EffectiveFrom,
	})
}

// SavePolicyIfChanged stores p unless its latest stored version has the
// same content. Returns the current version and whether a new one was
// written.
func SavePolicyIfChanged(ctx context.Context, store *sqlite.Store, p wage.Policy) (int, bool, error) {
	rec, err := store.GetPolicy(ctx, p.ID)
	if err != nil {
		return 0, false, err
	}
	if rec != nil {
		stored, err := factory.NewPolicyFactory().ParsePolicy(rec.ConfigJSON)
		if err == nil && sameContent(stored, p) {
			return rec.Version, false, nil
		}
	}
	version, err := SavePolicy(ctx, store, p)
	if err != nil {
		return 0, false, err
	}
	return version, true, nil
}

func sameContent(a, b wage.Policy) bool {
	a.Version, b.Version = 0, 0
	a = a.WithDefaults()
	b = b.WithDefaults()
	return a.ID == b.ID &&
		a.Name == b.Name &&
		a.EffectiveFrom.Equal(b.EffectiveFrom) &&
		a.EligibilityThresholdHours == b.EligibilityThresholdHours &&
		a.StandardWeeklyHours == b.StandardWeeklyHours &&
		a.MaxWeeklyHolidayHours == b.MaxWeeklyHolidayHours &&
		a.WeeksPerMonth == b.WeeksPerMonth &&
		a.MinimumHourlyWage == b.MinimumHourlyWage &&
		a.Rounding == b.Rounding
}

// =============================================================================
// REFRESHER
// =============================================================================

// PolicyRefresher reloads an ActivePolicy on a fixed interval.
type PolicyRefresher struct {
	Policies *ActivePolicy
	Interval time.Duration
	Logger   *zap.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPolicyRefresher creates a refresher. Start must be called to run it.
func NewPolicyRefresher(policies *ActivePolicy, interval time.Duration, logger *zap.Logger) *PolicyRefresher {
	return &PolicyRefresher{
		Policies: policies,
		Interval: interval,
		Logger:   logger,
	}
}

// Start begins refreshing. Calling Start on a running refresher does nothing.
func (pr *PolicyRefresher) Start() {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	if pr.ticker != nil {
		return
	}
	pr.ticker = time.NewTicker(pr.Interval)
	pr.stop = make(chan struct{})
	pr.wg.Add(1)

	go pr.run(pr.ticker, pr.stop)

	pr.Logger.Info("policy refresher started", zap.Duration("interval", pr.Interval))
}

// Stop stops refreshing and waits for an in-flight reload to finish.
func (pr *PolicyRefresher) Stop() {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	if pr.ticker == nil {
		return
	}
	pr.ticker.Stop()
	close(pr.stop)
	pr.wg.Wait()
	pr.ticker = nil
	pr.Logger.Info("policy refresher stopped")
}

func (pr *PolicyRefresher) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer pr.wg.Done()

	pr.refresh()

	for {
		select {
		case <-ticker.C:
			pr.refresh()
		case <-stop:
			return
		}
	}
}

func (pr *PolicyRefresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := pr.Policies.Reload(ctx); err != nil {
		pr.Logger.Warn("policy refresh failed, keeping cached policy", zap.Error(err))
	}
}

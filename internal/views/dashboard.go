package views

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/receipts-web/internal/failure"
	"github.com/dvloznov/receipts-web/internal/normalize"
	"github.com/rs/zerolog"
)

// DefaultRecentLimit is how many receipts the dashboard lists.
const DefaultRecentLimit = 10

// DashboardAPI is the part of the backend the dashboard reads.
type DashboardAPI interface {
	MonthlyStats(ctx context.Context) (any, error)
	CategoryStats(ctx context.Context) (any, error)
	Me(ctx context.Context) (any, error)
	RecentReceipts(ctx context.Context, limit int) (any, error)
}

// DashboardState is a copy of everything the dashboard shows.
type DashboardState struct {
	Monthly    Resource[normalize.MonthlyStats]
	Categories Resource[normalize.CategoryStats]
	Profile    Resource[normalize.UserProfile]
	Receipts   Resource[[]normalize.Receipt]
}

// Dashboard loads the monthly summary, the category breakdown, the profile and
// the recent receipts. Each loads and fails on its own.
type Dashboard struct {
	api DashboardAPI
	log zerolog.Logger

	// RecentLimit caps the recent-receipts list.
	RecentLimit int

	mount
	state DashboardState
}

// NewDashboard creates a dashboard with every piece loading.
func NewDashboard(api DashboardAPI, log zerolog.Logger) *Dashboard {
	return &Dashboard{
		api:         api,
		log:         log,
		RecentLimit: DefaultRecentLimit,
		state: DashboardState{
			Monthly:    loading[normalize.MonthlyStats](),
			Categories: loading[normalize.CategoryStats](),
			Profile:    loading[normalize.UserProfile](),
			Receipts:   loading[[]normalize.Receipt](),
		},
	}
}

// Load fetches all four pieces in parallel and returns when every fetch has
// settled. A failing fetch only affects its own piece.
func (d *Dashboard) Load(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		d.loadMonthly(ctx)
	}()
	go func() {
		defer wg.Done()
		d.loadCategories(ctx)
	}()
	go func() {
		defer wg.Done()
		d.loadProfile(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = d.RefreshReceipts(ctx)
	}()
	wg.Wait()
}

func (d *Dashboard) loadMonthly(ctx context.Context) {
	payload, err := d.api.MonthlyStats(ctx)
	d.update(func() {
		if err != nil {
			d.log.Error().Err(err).Msg("Failed to load monthly stats")
			d.state.Monthly = failed[normalize.MonthlyStats](failure.UserMessage(err, "Failed to load monthly stats"))
			return
		}
		d.state.Monthly = loaded(normalize.Monthly(payload))
	})
}

func (d *Dashboard) loadCategories(ctx context.Context) {
	payload, err := d.api.CategoryStats(ctx)
	d.update(func() {
		if err != nil {
			d.log.Error().Err(err).Msg("Failed to load category stats")
			d.state.Categories = failed[normalize.CategoryStats](failure.UserMessage(err, "Failed to load categories"))
			return
		}
		d.state.Categories = loaded(normalize.Categories(payload))
	})
}

func (d *Dashboard) loadProfile(ctx context.Context) {
	payload, err := d.api.Me(ctx)
	d.update(func() {
		if err != nil {
			d.log.Error().Err(err).Msg("Failed to load profile")
			d.state.Profile = failed[normalize.UserProfile](failure.UserMessage(err, "Failed to load profile"))
			return
		}
		p, ok := normalize.Profile(payload)
		if !ok {
			d.state.Profile = failed[normalize.UserProfile]("Profile unavailable")
			return
		}
		d.state.Profile = loaded(p)
	})
}

// RefreshReceipts re-fetches the recent receipts. The previous list stays
// visible while the request is in flight.
func (d *Dashboard) RefreshReceipts(ctx context.Context) error {
	payload, err := d.api.RecentReceipts(ctx, d.RecentLimit)
	d.update(func() {
		if err != nil {
			d.log.Error().Err(err).Msg("Failed to load recent receipts")
			d.state.Receipts = failed[[]normalize.Receipt](failure.UserMessage(err, "Failed to load receipts"))
			return
		}
		d.state.Receipts = loaded(normalize.Receipts(payload))
	})
	if err != nil {
		return fmt.Errorf("RefreshReceipts: %w", err)
	}
	return nil
}

// Chart lays out the category breakdown. Until the breakdown has loaded the
// chart is the neutral full circle.
func (d *Dashboard) Chart() []Arc {
	var stats normalize.CategoryStats
	d.read(func() {
		if d.state.Categories.Phase == PhaseSuccess {
			stats = d.state.Categories.Data
		}
	})
	return Arcs(stats)
}

// Snapshot returns a copy of the dashboard state.
func (d *Dashboard) Snapshot() DashboardState {
	var s DashboardState
	d.read(func() {
		s = d.state
		s.Categories.Data.Items = append([]normalize.CategoryStat(nil), d.state.Categories.Data.Items...)
		s.Receipts.Data = append([]normalize.Receipt(nil), d.state.Receipts.Data...)
	})
	return s
}

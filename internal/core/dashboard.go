package core

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/salvationministries/console/internal/logging"
)

// dashboardConcurrency bounds the backend fetches one dashboard issues.
const dashboardConcurrency = 4

// DashboardCard summarizes one resource on the landing screen.
type DashboardCard struct {
	Def       ResourceDefinition
	Count     int
	FetchedAt time.Time

	// Err is set when the resource could not be fetched; other cards still render.
	Err error
}

// Dashboard fetches the record count of every resource the session may view.
// Fetches run concurrently and a failure only marks its own card.
func (s *Service) Dashboard(ctx context.Context) []DashboardCard {
	defs := s.Resources(ctx)
	cards := make([]DashboardCard, len(defs))

	var g errgroup.Group
	g.SetLimit(dashboardConcurrency)
	for i, def := range defs {
		g.Go(func() error {
			card := DashboardCard{Def: def}
			records, res, err := s.list(ctx, def)
			if err != nil {
				logging.FromContext(ctx).Warn("dashboard fetch failed", "resource", def.Info.Key, "error", err)
				card.Err = err
			} else {
				card.Count = len(records)
				card.FetchedAt = res.FetchedAt
			}
			cards[i] = card
			return nil
		})
	}
	_ = g.Wait()

	return cards
}

package service

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-console/internal/analytics"
	"github.com/spec-kit/helpdesk-console/internal/domain"
	"github.com/spec-kit/helpdesk-console/internal/query"
	"github.com/spec-kit/helpdesk-console/internal/search"
)

// AnalyticsFilter scopes a dashboard.
type AnalyticsFilter struct {
	QueueID string
	Range   analytics.Range
}

// Values encodes the filter for the export endpoint.
func (f AnalyticsFilter) Values() url.Values {
	v := url.Values{}
	if f.QueueID != "" {
		v.Set("queueId", f.QueueID)
	}
	if !f.Range.From.IsZero() {
		v.Set("from", f.Range.From.Format(search.DateLayout))
	}
	if !f.Range.To.IsZero() {
		v.Set("to", f.Range.To.Format(search.DateLayout))
	}
	return v
}

// Dashboard is the aggregated view plus its chart series.
type Dashboard struct {
	Summary analytics.Summary  `json:"summary"`
	Charts  []analytics.Series `json:"charts"`
}

// AnalyticsService aggregates exported tickets client-side.
type AnalyticsService struct {
	deps Dependencies
}

// NewAnalyticsService creates the service.
func NewAnalyticsService(deps Dependencies) *AnalyticsService {
	return &AnalyticsService{deps: deps.withDefaults()}
}

// Dashboard exports the tickets in range and summarizes them. Queue and
// user names are best effort; ids are shown when a lookup fails.
func (s *AnalyticsService) Dashboard(ctx context.Context, sess *domain.Session, f AnalyticsFilter) (Dashboard, error) {
	if err := requireSession(sess); err != nil {
		return Dashboard{}, err
	}
	params := f.Values()
	tickets, err := query.Fetch(ctx, s.deps.Cache, query.AnalyticsKey(sess.UserID, params), func(ctx context.Context) ([]domain.Ticket, error) {
		return s.deps.API.AnalyticsTickets(ctx, sess, params)
	})
	if err != nil {
		return Dashboard{}, err
	}
	summary := analytics.Summarize(tickets, f.Range, s.names(ctx, sess))
	return Dashboard{Summary: summary, Charts: summary.Charts()}, nil
}

func (s *AnalyticsService) names(ctx context.Context, sess *domain.Session) analytics.Names {
	names := analytics.Names{Queues: map[string]string{}, Users: map[string]string{}}
	if qs, err := queues(ctx, s.deps, sess); err == nil {
		for _, q := range qs {
			names.Queues[q.ID] = q.Name
		}
	} else {
		s.deps.Logger.Debug("queue names unavailable", zap.Error(err))
	}
	params := url.Values{"page": {"1"}, "limit": {"500"}}
	users, err := query.Fetch(ctx, s.deps.Cache, query.UserListKey(sess.UserID, params), func(ctx context.Context) (domain.Page[domain.User], error) {
		return s.deps.API.ListUsers(ctx, sess, params)
	})
	if err == nil {
		for _, u := range users.Items {
			names.Users[u.ID] = u.Name
		}
	} else {
		s.deps.Logger.Debug("user names unavailable", zap.Error(err))
	}
	return names
}

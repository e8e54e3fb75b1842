// Package metrics is the product metrics engine: activity, adoption,
// retention, feature/repeat correlation, funnel conversion and feedback
// sentiment over an immutable eventstore.Dataset.
package metrics

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/productpulse/internal/eventstore"
	"github.com/KaramelBytes/productpulse/internal/logging"
)

// Results is the full output of one engine run. It carries no run identifiers
// or timestamps so identical inputs produce identical values.
type Results struct {
	Activity     ActivityResult    `json:"activity"`
	Adoption     AdoptionResult    `json:"adoption"`
	Retention    RetentionResult   `json:"retention"`
	Cohorts      CohortMatrix      `json:"cohorts"`
	Correlation  CorrelationResult `json:"correlation"`
	Funnel       FunnelResult      `json:"funnel"`
	Sentiment    SentimentTrend    `json:"sentiment"`
	FeatureTrend FeatureTrend      `json:"feature_trend"`
	Highlights   Highlights        `json:"highlights"`
}

// ErrNoDataset is returned when Run is called without input tables.
var ErrNoDataset = errors.New("metrics: dataset is nil")

type analyzer struct {
	name string
	run  func(ctx context.Context) error
}

// Run computes every metric over ds. Analyzers only read the dataset and the
// shared session index, and each writes its own field of Results, so with
// cfg.Parallel they run concurrently and the output matches a sequential run.
func Run(ctx context.Context, ds *eventstore.Dataset, cfg Config) (*Results, error) {
	if ds == nil {
		return nil, ErrNoDataset
	}
	cfg = cfg.normalized()
	idx := NewIndex(ds.Sessions)
	res := &Results{}

	analyzers := []analyzer{
		{"activity", func(context.Context) error {
			res.Activity = ComputeActivity(ds.Sessions, cfg.RollingWindow)
			return nil
		}},
		{"adoption", func(context.Context) error {
			res.Adoption = ComputeAdoption(ds.Sessions, ds.Usage, idx)
			return nil
		}},
		{"retention", func(context.Context) error {
			res.Retention = ComputeRetention(ds.Users, ds.Sessions, cfg.RetentionDays)
			return nil
		}},
		{"cohorts", func(context.Context) error {
			res.Cohorts = ComputeCohortMatrix(ds.Users, ds.Sessions)
			return nil
		}},
		{"correlation", func(ctx context.Context) error {
			c, err := ComputeCorrelation(ctx, ds.Users, ds.Sessions, ds.Usage, idx, cfg.RepeatThreshold, cfg.Parallel)
			if err != nil {
				return err
			}
			res.Correlation = c
			return nil
		}},
		{"funnel", func(context.Context) error {
			res.Funnel = ComputeFunnel(cfg.Funnel)
			return nil
		}},
		{"sentiment", func(context.Context) error {
			res.Sentiment = ComputeSentimentTrend(ds.Feedback, idx, cfg.Lexicon)
			return nil
		}},
		{"feature_trend", func(context.Context) error {
			res.FeatureTrend = ComputeFeatureTrend(ds.Usage, cfg.TopFeatures)
			return nil
		}},
	}

	start := time.Now()
	if cfg.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for _, a := range analyzers {
			g.Go(func() error { return timed(gctx, a) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for _, a := range analyzers {
			if err := timed(ctx, a); err != nil {
				return nil, err
			}
		}
	}

	res.Highlights = ComputeHighlights(res)

	logging.Debug().
		Bool("parallel", cfg.Parallel).
		Int("sessions_indexed", idx.Len()).
		Dur("elapsed", time.Since(start)).
		Int("dropped_usage_events", res.Adoption.DroppedEvents).
		Int("dropped_feedback", res.Sentiment.DroppedFeedback).
		Int("skipped_sessions", res.Retention.SkippedSessions).
		Msg("metrics computed")
	if res.Adoption.DroppedEvents > 0 {
		logging.Warn().Int("events", res.Adoption.DroppedEvents).Msg("usage events reference unknown sessions")
	}
	if res.Sentiment.DroppedFeedback > 0 {
		logging.Warn().Int("entries", res.Sentiment.DroppedFeedback).Msg("feedback references unknown sessions")
	}
	return res, nil
}

func timed(ctx context.Context, a analyzer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := time.Now()
	if err := a.run(ctx); err != nil {
		return err
	}
	logging.Debug().Str("analyzer", a.name).Dur("took", time.Since(t)).Msg("analyzer finished")
	return nil
}

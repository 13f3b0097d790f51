// Package stats groups reviewers into activity tiers using k-means clustering.
package stats

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/witr/library-manager/internal/db"
)

// DefaultTiers is the number of tiers the statistics page asks for.
const DefaultTiers = 3

// tierNames label tiers from most to least active.
var tierNames = []string{"Core", "Regular", "Occasional"}

// singleTier labels the only tier when there are too few reviewers to cluster.
const singleTier = "All reviewers"

// Tier is a group of reviewers with similar activity.
type Tier struct {
	Name        string
	Reviewers   []db.ReviewerStat
	MeanReviews float64
	MeanLength  float64
}

// Report is everything the statistics page shows.
type Report struct {
	Totals db.ReviewTotals
	Tiers  []Tier
}

// Source is the subset of *db.Queries a report reads.
type Source interface {
	ReviewTotals(ctx context.Context) (db.ReviewTotals, error)
	ReviewerActivity(ctx context.Context) ([]db.ReviewerStat, error)
}

// Build reads review activity and groups it into k tiers.
func Build(ctx context.Context, src Source, k int) (*Report, error) {
	totals, err := src.ReviewTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading review totals: %w", err)
	}
	reviewers, err := src.ReviewerActivity(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading reviewer activity: %w", err)
	}
	return &Report{Totals: totals, Tiers: Tiers(reviewers, k)}, nil
}

// reviewerObservation wraps a ReviewerStat to implement clusters.Observation.
type reviewerObservation struct {
	stat   db.ReviewerStat
	coords clusters.Coordinates
}

func (o reviewerObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o reviewerObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// Tiers partitions reviewers by review count and mean review length, both
// scaled to [0, 1]. Every reviewer lands in exactly one tier. With fewer
// reviewers than k, everyone shares a single tier.
func Tiers(reviewers []db.ReviewerStat, k int) []Tier {
	if len(reviewers) == 0 {
		return nil
	}
	if k <= 0 {
		k = DefaultTiers
	}
	if len(reviewers) < k {
		return []Tier{newTier(singleTier, reviewers)}
	}

	var obs clusters.Observations
	for _, o := range observations(reviewers) {
		obs = append(obs, o)
	}

	km := kmeans.New()
	result, err := km.Partition(obs, k)
	if err != nil {
		slog.Warn("k-means clustering failed", slog.Any("error", err))
		return []Tier{newTier(singleTier, reviewers)}
	}

	var tiers []Tier
	for _, cluster := range result {
		var members []db.ReviewerStat
		for _, o := range cluster.Observations {
			if ro, ok := o.(reviewerObservation); ok {
				members = append(members, ro.stat)
			}
		}
		if len(members) == 0 {
			continue
		}
		tiers = append(tiers, newTier("", members))
	}

	slices.SortFunc(tiers, func(a, b Tier) int {
		if c := cmp.Compare(b.MeanReviews, a.MeanReviews); c != 0 {
			return c
		}
		return cmp.Compare(b.MeanLength, a.MeanLength)
	})
	for i := range tiers {
		tiers[i].Name = tierName(i)
	}
	return tiers
}

func observations(reviewers []db.ReviewerStat) []reviewerObservation {
	var maxReviews int
	var maxLength float64
	for _, r := range reviewers {
		maxReviews = max(maxReviews, r.Reviews)
		maxLength = max(maxLength, r.MeanLength)
	}

	out := make([]reviewerObservation, len(reviewers))
	for i, r := range reviewers {
		out[i] = reviewerObservation{
			stat:   r,
			coords: clusters.Coordinates{scale(float64(r.Reviews), float64(maxReviews)), scale(r.MeanLength, maxLength)},
		}
	}
	return out
}

func scale(v, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return v / limit
}

func tierName(i int) string {
	if i < len(tierNames) {
		return tierNames[i]
	}
	return fmt.Sprintf("Tier %d", i+1)
}

func newTier(name string, members []db.ReviewerStat) Tier {
	slices.SortFunc(members, func(a, b db.ReviewerStat) int {
		if c := cmp.Compare(b.Reviews, a.Reviews); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	t := Tier{Name: name, Reviewers: members}
	for _, m := range members {
		t.MeanReviews += float64(m.Reviews)
		t.MeanLength += m.MeanLength
	}
	t.MeanReviews /= float64(len(members))
	t.MeanLength /= float64(len(members))
	return t
}

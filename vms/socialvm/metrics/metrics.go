// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics holds the socialvm counters, grounded on
// vms/platformvm/metrics.New and vms/exchangevm/metrics's
// metric.Registry/CounterVec wiring.
package metrics

import (
	"errors"

	"github.com/luxfi/metric"

	"github.com/luxfi/vm/utils/wrappers"
)

const joinTypeLabel = "join_type"

type Metrics struct {
	RolesGranted   metric.Counter
	PostsCreated   metric.Counter
	MergesExecuted metric.Counter
	TribeJoins     metric.CounterVec
}

func New(registerer metric.Registerer) (*Metrics, error) {
	if _, ok := registerer.(metric.Registry); !ok {
		return nil, errors.New("registerer must be a Registry")
	}

	m := &Metrics{
		RolesGranted: metric.NewCounter(metric.CounterOpts{
			Name: "socialvm_roles_granted_total",
			Help: "Number of role grants processed by the role manager",
		}),
		PostsCreated: metric.NewCounter(metric.CounterOpts{
			Name: "socialvm_posts_created_total",
			Help: "Number of posts accepted by the post minter",
		}),
		MergesExecuted: metric.NewCounter(metric.CounterOpts{
			Name: "socialvm_merge_executed_total",
			Help: "Number of tribe merges executed",
		}),
		TribeJoins: metric.NewCounterVec(
			metric.CounterOpts{
				Name: "socialvm_tribe_joins_total",
				Help: "Number of tribe joins by join_type",
			},
			[]string{joinTypeLabel},
		),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(metric.AsCollector(m.RolesGranted)),
		registerer.Register(metric.AsCollector(m.PostsCreated)),
		registerer.Register(metric.AsCollector(m.MergesExecuted)),
		registerer.Register(metric.AsCollector(m.TribeJoins)),
	)
	return m, errs.Err
}

func (m *Metrics) IncTribeJoin(joinType string) {
	m.TribeJoins.With(metric.Labels{joinTypeLabel: joinType}).Inc()
}

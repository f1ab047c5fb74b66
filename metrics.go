package regiontree

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	updatesStaged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "regiontree_updates_staged_total",
		Help: "Number of point updates staged by update sessions.",
	})

	resultsMaterialized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "regiontree_results_materialized_total",
		Help: "Number of update session results materialized.",
	})

	nodesCopied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "regiontree_nodes_copied_total",
		Help: "Number of nodes copied on write by update sessions.",
	})

	regionsCleared = promauto.NewCounter(prometheus.CounterOpts{
		Name: "regiontree_regions_cleared_total",
		Help: "Number of stored regions removed by Clear.",
	})

	nodesPersisted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regiontree_nodes_persisted_total",
		Help: "Number of nodes handled by Store.Save, by outcome.",
	}, []string{"outcome"})

	nodeCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regiontree_node_cache_lookups_total",
		Help: "Number of node cache lookups by Store.Load, by result.",
	}, []string{"result"})
)

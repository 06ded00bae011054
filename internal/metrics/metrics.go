package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы назначения для метки outcome
const (
	OutcomeAssigned      = "assigned"
	OutcomeConflict      = "conflict"
	OutcomeNotWorkingDay = "not_working_day"
	OutcomeRaceLost      = "race_lost"
	OutcomeInvalid       = "invalid"
	OutcomeError         = "error"
)

var (
	AssignmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scheduling",
		Name:      "assignments_total",
		Help:      "Assignment attempts by outcome.",
	}, []string{"outcome"})

	GridCells = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "scheduling",
		Name:      "grid_cells",
		Help:      "Number of member x date x slot cells per computed availability grid.",
		Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
	})

	DataInconsistencies = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "scheduling",
		Name:      "data_inconsistencies",
		Help:      "Duplicate active demands found on one slot by the last integrity audit.",
	})
)

package mining

import (
	"sync"

	"github.com/bsv-blockchain/blkmaker/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusBlockMakerGeneration       prometheus.Counter
	prometheusBlockMakerAppend           *prometheus.CounterVec
	prometheusBlockMakerWork             *prometheus.CounterVec
	prometheusBlockMakerSubmission       prometheus.Counter
	prometheusBlockMakerSubmissionSize   prometheus.Histogram
	prometheusBlockMakerMerkleBranch     prometheus.Histogram
	prometheusBlockMakerRegisteredWork   prometheus.Gauge
	prometheusBlockMakerRegistryEviction prometheus.Counter
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusBlockMakerGeneration = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blkmaker",
			Subsystem: "mining",
			Name:      "coinbase_generated",
			Help:      "Number of coinbase transactions generated from templates",
		},
	)

	prometheusBlockMakerAppend = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blkmaker",
			Subsystem: "mining",
			Name:      "coinbase_append",
			Help:      "Number of coinbase append attempts by result",
		},
		[]string{"result"},
	)

	prometheusBlockMakerWork = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blkmaker",
			Subsystem: "mining",
			Name:      "work_issued",
			Help:      "Number of work units issued by kind",
		},
		[]string{"kind"},
	)

	prometheusBlockMakerSubmission = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blkmaker",
			Subsystem: "mining",
			Name:      "submission_assembled",
			Help:      "Number of block submissions assembled",
		},
	)

	prometheusBlockMakerSubmissionSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "blkmaker",
			Subsystem: "mining",
			Name:      "submission_size",
			Help:      "Size in bytes of assembled block submissions",
			Buckets:   util.MetricsBucketsSizeSmall,
		},
	)

	prometheusBlockMakerMerkleBranch = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "blkmaker",
			Subsystem: "mining",
			Name:      "merkle_branch_build",
			Help:      "Histogram of merkle branch construction time",
			Buckets:   util.MetricsBucketsMicroSeconds,
		},
	)

	prometheusBlockMakerRegisteredWork = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "blkmaker",
			Subsystem: "mining",
			Name:      "registered_work",
			Help:      "Number of issued work units that can still be matched to their template",
		},
	)

	prometheusBlockMakerRegistryEviction = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blkmaker",
			Subsystem: "mining",
			Name:      "registry_evictions",
			Help:      "Number of issued work units dropped from the registry",
		},
	)
}

// Copyright 2026 RetailNext, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type validator struct {
	AcceptedFiles prometheus.Counter
	rejectsVec    *prometheus.CounterVec
}

func (v validator) Reject(kind string) {
	v.rejectsVec.WithLabelValues(kind).Inc()
}

type thumbcache struct {
	Hits              prometheus.Counter
	Misses            prometheus.Counter
	Evictions         prometheus.Counter
	SingleflightWaits prometheus.Counter
	GenerateErrors    prometheus.Counter
	GenerateSeconds   prometheus.Counter
	StoredBytes       prometheus.Gauge
}

type dispatch struct {
	UploadedFiles prometheus.Counter
	UploadedBytes prometheus.Counter
	FailedFiles   prometheus.Counter
	Retries       prometheus.Counter
	CanceledTasks prometheus.Counter
	DroppedEvents prometheus.Counter
	inFlightVec   *prometheus.GaugeVec
}

func (d dispatch) InFlight(service string) prometheus.Gauge {
	return d.inFlightVec.WithLabelValues(service)
}

type store struct {
	getHitsVec   *prometheus.CounterVec
	getMissesVec *prometheus.CounterVec
	putsVec      *prometheus.CounterVec
	deletesVec   *prometheus.CounterVec
}

// StoreCounters instruments one named bucket of the persisted store.
type StoreCounters struct {
	Hits    prometheus.Counter
	Misses  prometheus.Counter
	Puts    prometheus.Counter
	Deletes prometheus.Counter
}

func NewStoreCounters(name string) *StoreCounters {
	return &StoreCounters{
		Hits:    Store.getHitsVec.WithLabelValues(name),
		Misses:  Store.getMissesVec.WithLabelValues(name),
		Puts:    Store.putsVec.WithLabelValues(name),
		Deletes: Store.deletesVec.WithLabelValues(name),
	}
}

var (
	Validator = validator{
		AcceptedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imghostuploader",
			Subsystem: "validator",
			Name:      "accepted_files_total",
			Help:      "Number of paths that passed validation.",
		}),
		rejectsVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imghostuploader",
			Subsystem: "validator",
			Name:      "rejected_files_total",
			Help:      "Number of paths rejected by validation, by error kind.",
		}, []string{"kind"}),
	}

	ThumbCache = thumbcache{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imghostuploader",
			Subsystem: "thumbcache",
			Name:      "hits_total",
			Help:      "Number of thumbnail requests served from cache.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imghostuploader",
			Subsystem: "thumbcache",
			Name:      "misses_total",
			Help:      "Number of thumbnail requests that required generation.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imghostuploader",
			Subsystem: "thumbcache",
			Name:      "evictions_total",
			Help:      "Number of thumbnail entries evicted under capacity pressure.",
		}),
		SingleflightWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imghostuploader",
			Subsystem: "thumbcache",
			Name:      "singleflight_waits_total",
			Help:      "Number of thumbnail requests that waited on an in-flight generation.",
		}),
		GenerateErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imghostuploader",
			Subsystem: "thumbcache",
			Name:      "generate_errors_total",
			Help:      "Number of failed thumbnail generations.",
		}),
		GenerateSeconds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imghostuploader",
			Subsystem: "thumbcache",
			Name:      "generate_seconds_total",
			Help:      "Total time spent generating thumbnails.",
		}),
		StoredBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "imghostuploader",
			Subsystem: "thumbcache",
			Name:      "stored_bytes",
			Help:      "Current cumulative size of cached thumbnails.",
		}),
	}

	Dispatch = dispatch{
		UploadedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imghostuploader",
			Subsystem: "dispatch",
			Name:      "uploaded_files_total",
			Help:      "Number of files uploaded successfully.",
		}),
		UploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imghostuploader",
			Subsystem: "dispatch",
			Name:      "uploaded_bytes_total",
			Help:      "Total bytes uploaded successfully.",
		}),
		FailedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imghostuploader",
			Subsystem: "dispatch",
			Name:      "failed_files_total",
			Help:      "Number of tasks that settled as failed.",
		}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imghostuploader",
			Subsystem: "dispatch",
			Name:      "retries_total",
			Help:      "Number of upload attempts retried after a transient failure.",
		}),
		CanceledTasks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imghostuploader",
			Subsystem: "dispatch",
			Name:      "canceled_tasks_total",
			Help:      "Number of tasks settled by batch cancellation before completing.",
		}),
		DroppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imghostuploader",
			Subsystem: "dispatch",
			Name:      "dropped_events_total",
			Help:      "Number of progress events dropped after the backpressure timeout.",
		}),
		inFlightVec: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "imghostuploader",
			Subsystem: "dispatch",
			Name:      "in_flight",
			Help:      "Number of uploads currently in flight, by service.",
		}, []string{"service"}),
	}

	Store = store{
		getHitsVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imghostuploader",
			Subsystem: "store",
			Name:      "get_hits_total",
			Help:      "Number of store gets that were hits.",
		}, []string{"bucket"}),
		getMissesVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imghostuploader",
			Subsystem: "store",
			Name:      "get_misses_total",
			Help:      "Number of store gets that were misses.",
		}, []string{"bucket"}),
		putsVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imghostuploader",
			Subsystem: "store",
			Name:      "puts_total",
			Help:      "Number of store puts.",
		}, []string{"bucket"}),
		deletesVec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imghostuploader",
			Subsystem: "store",
			Name:      "deletes_total",
			Help:      "Number of store deletes.",
		}, []string{"bucket"}),
	}
)

func SetupPrometheus(metricsListenAddress, metricsPath *string) {
	if metricsListenAddress == nil || *metricsListenAddress == "" {
		return
	}
	go func() {
		http.Handle(*metricsPath, promhttp.Handler())
		err := http.ListenAndServe(*metricsListenAddress, nil)
		zap.S().Fatalw("metrics_listen_error", "err", err)
	}()
}

func init() {
	prometheus.MustRegister(Validator.AcceptedFiles)
	prometheus.MustRegister(Validator.rejectsVec)

	prometheus.MustRegister(ThumbCache.Hits)
	prometheus.MustRegister(ThumbCache.Misses)
	prometheus.MustRegister(ThumbCache.Evictions)
	prometheus.MustRegister(ThumbCache.SingleflightWaits)
	prometheus.MustRegister(ThumbCache.GenerateErrors)
	prometheus.MustRegister(ThumbCache.GenerateSeconds)
	prometheus.MustRegister(ThumbCache.StoredBytes)

	prometheus.MustRegister(Dispatch.UploadedFiles)
	prometheus.MustRegister(Dispatch.UploadedBytes)
	prometheus.MustRegister(Dispatch.FailedFiles)
	prometheus.MustRegister(Dispatch.Retries)
	prometheus.MustRegister(Dispatch.CanceledTasks)
	prometheus.MustRegister(Dispatch.DroppedEvents)
	prometheus.MustRegister(Dispatch.inFlightVec)

	prometheus.MustRegister(Store.getHitsVec)
	prometheus.MustRegister(Store.getMissesVec)
	prometheus.MustRegister(Store.putsVec)
	prometheus.MustRegister(Store.deletesVec)
}

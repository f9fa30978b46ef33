// Package metrics exports upload and moderation counters to Prometheus
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "treemedia"

// Upload paths
const (
	PathPresigned = "presigned"
	PathProxy     = "proxy"
)

// Operation results
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultHit     = "hit"
	ResultMiss    = "miss"
)

// Recorder collects the service counters
type Recorder struct {
	uploads              *prometheus.CounterVec
	uploadedBytes        prometheus.Counter
	validationRejections *prometheus.CounterVec
	statusUpdates        *prometheus.CounterVec
	galleryCache         *prometheus.CounterVec
}

// NewRecorder registers the service counters with reg.
// Collectors that are already registered are reused.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &Recorder{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Recorded uploads by path and result.",
		}, []string{"path", "result"}),
		uploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Cumulative size of recorded uploads.",
		}),
		validationRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_rejections_total",
			Help:      "Requests rejected by input validation, by endpoint.",
		}, []string{"endpoint"}),
		statusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_updates_total",
			Help:      "Moderation status updates by target status.",
		}, []string{"status"}),
		galleryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gallery_cache_total",
			Help:      "Gallery cache lookups by result.",
		}, []string{"result"}),
	}

	var err error
	if r.uploads, err = registerCounterVec(reg, r.uploads); err != nil {
		return nil, err
	}
	if r.validationRejections, err = registerCounterVec(reg, r.validationRejections); err != nil {
		return nil, err
	}
	if r.statusUpdates, err = registerCounterVec(reg, r.statusUpdates); err != nil {
		return nil, err
	}
	if r.galleryCache, err = registerCounterVec(reg, r.galleryCache); err != nil {
		return nil, err
	}
	if err := reg.Register(r.uploadedBytes); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("register uploaded bytes counter: %w", err)
		}
		existing, ok := are.ExistingCollector.(prometheus.Counter)
		if !ok {
			return nil, fmt.Errorf("register uploaded bytes counter: %w", err)
		}
		r.uploadedBytes = existing
	}

	return r, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	err := reg.Register(vec)
	if err == nil {
		return vec, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
			return existing, nil
		}
	}
	return nil, fmt.Errorf("register counter: %w", err)
}

// UploadRecorded counts a finished upload attempt on one path
func (r *Recorder) UploadRecorded(path string, size int64, err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.uploads.WithLabelValues(path, ResultFailure).Inc()
		return
	}
	r.uploads.WithLabelValues(path, ResultSuccess).Inc()
	r.uploadedBytes.Add(float64(size))
}

// ValidationRejected counts a request rejected by validation
func (r *Recorder) ValidationRejected(endpoint string) {
	if r == nil {
		return
	}
	r.validationRejections.WithLabelValues(endpoint).Inc()
}

// StatusUpdated counts a moderation status change
func (r *Recorder) StatusUpdated(status string) {
	if r == nil {
		return
	}
	r.statusUpdates.WithLabelValues(status).Inc()
}

// GalleryLookup counts a gallery cache hit or miss
func (r *Recorder) GalleryLookup(hit bool) {
	if r == nil {
		return
	}
	if hit {
		r.galleryCache.WithLabelValues(ResultHit).Inc()
		return
	}
	r.galleryCache.WithLabelValues(ResultMiss).Inc()
}

package service

import "github.com/prometheus/client_golang/prometheus"

// UploadMetrics counts attachment uploads.
type UploadMetrics struct {
	uploads *prometheus.CounterVec
	bytes   prometheus.Counter
}

// NewUploadMetrics registers the upload collectors on reg.
func NewUploadMetrics(reg prometheus.Registerer) (*UploadMetrics, error) {
	m := &UploadMetrics{
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attachment_uploads_total",
				Help: "Total number of attachment uploads by result.",
			},
			[]string{"result"},
		),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attachment_upload_bytes_total",
			Help: "Total bytes written to the blob store by successful uploads.",
		}),
	}
	for _, c := range []prometheus.Collector{m.uploads, m.bytes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *UploadMetrics) succeeded(size int64) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues("success").Inc()
	m.bytes.Add(float64(size))
}

func (m *UploadMetrics) failed() {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues("failure").Inc()
}

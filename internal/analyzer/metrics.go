package analyzer

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts what the analyzer does to files. A nil *Metrics records nothing.
type Metrics struct {
	Scans          *prometheus.CounterVec
	Mutations      *prometheus.CounterVec
	VoidsWritten   prometheus.Counter
	HeaderShifts   prometheus.Counter
	LeakedBytes    prometheus.Counter
	SeekHeadWrites *prometheus.CounterVec
	Truncations    prometheus.Counter
	BytesAppended  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mkvedit_scans_total",
			Help: "Directory scans by parse mode and result",
		}, []string{"mode", "result"}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mkvedit_mutations_total",
			Help: "Public mutations by operation and result",
		}, []string{"op", "result"}),
		VoidsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mkvedit_void_elements_written_total",
			Help: "Void elements written to cover freed space",
		}),
		HeaderShifts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mkvedit_header_shifts_total",
			Help: "Size fields widened by one byte to absorb a one-byte gap",
		}),
		LeakedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mkvedit_leaked_bytes_total",
			Help: "One-byte gaps left uncovered",
		}),
		SeekHeadWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mkvedit_seek_head_writes_total",
			Help: "Seek head rewrites by kind",
		}, []string{"kind"}),
		Truncations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mkvedit_truncations_total",
			Help: "File truncations after trailing elements were removed",
		}),
		BytesAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mkvedit_bytes_appended_total",
			Help: "Bytes appended at the end of files",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Scans, m.Mutations, m.VoidsWritten, m.HeaderShifts, m.LeakedBytes,
			m.SeekHeadWrites, m.Truncations, m.BytesAppended)
	}
	return m
}

func (m *Metrics) scan(mode ParseMode, result string) {
	if m != nil {
		m.Scans.WithLabelValues(string(mode), result).Inc()
	}
}

func (m *Metrics) mutation(op string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.Mutations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) voidWritten() {
	if m != nil {
		m.VoidsWritten.Inc()
	}
}

func (m *Metrics) headerShift() {
	if m != nil {
		m.HeaderShifts.Inc()
	}
}

func (m *Metrics) leakedByte() {
	if m != nil {
		m.LeakedBytes.Inc()
	}
}

func (m *Metrics) seekHeadWrite(kind string) {
	if m != nil {
		m.SeekHeadWrites.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) truncation() {
	if m != nil {
		m.Truncations.Inc()
	}
}

func (m *Metrics) appended(n int64) {
	if m != nil {
		m.BytesAppended.Add(float64(n))
	}
}

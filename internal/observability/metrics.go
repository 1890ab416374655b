package observability

import (
	"errors"
	"sync"
	"time"

	"github.com/hjeldin/dive-computer-proto/internal/protocol"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesEncoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "diveproto",
			Subsystem: "frames",
			Name:      "encoded_total",
			Help:      "Frames serialized, by message kind.",
		},
		[]string{"role", "kind"},
	)
	framesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "diveproto",
			Subsystem: "frames",
			Name:      "decoded_total",
			Help:      "Frames parsed and validated, by message kind.",
		},
		[]string{"role", "kind"},
	)
	framesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "diveproto",
			Subsystem: "frames",
			Name:      "rejected_total",
			Help:      "Frames that failed validation, by first detected error.",
		},
		[]string{"role", "reason"},
	)
	pendingCommands = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "diveproto",
			Subsystem: "exchange",
			Name:      "pending_commands",
			Help:      "Commands awaiting a response.",
		},
		[]string{"host"},
	)
	roundTrip = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "diveproto",
			Subsystem: "exchange",
			Name:      "round_trip_seconds",
			Help:      "Time from command framing to matching response.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"host", "opcode", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesEncoded, framesDecoded, framesRejected, pendingCommands, roundTrip)
	})
}

func RecordFrameEncoded(role string, kind protocol.Kind) {
	RegisterMetrics()
	framesEncoded.WithLabelValues(role, kind.String()).Inc()
}

func RecordFrameDecoded(role string, kind protocol.Kind) {
	RegisterMetrics()
	framesDecoded.WithLabelValues(role, kind.String()).Inc()
}

func RecordFrameRejected(role string, err error) {
	RegisterMetrics()
	framesRejected.WithLabelValues(role, RejectReason(err)).Inc()
}

func SetPendingCommands(host string, n int) {
	RegisterMetrics()
	pendingCommands.WithLabelValues(host).Set(float64(n))
}

func RecordRoundTrip(host, opcode, status string, d time.Duration) {
	RegisterMetrics()
	roundTrip.WithLabelValues(host, opcode, status).Observe(d.Seconds())
}

// RejectReason maps a framing error to a bounded label value.
func RejectReason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, protocol.ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, protocol.ErrInvalidMagic):
		return "invalid_magic"
	case errors.Is(err, protocol.ErrUnsupportedVersion):
		return "unsupported_version"
	case errors.Is(err, protocol.ErrChecksumMismatch):
		return "checksum_mismatch"
	case errors.Is(err, protocol.ErrMessageTooLarge):
		return "message_too_large"
	case errors.Is(err, protocol.ErrSerialization):
		return "serialization"
	case errors.Is(err, protocol.ErrDeserialization):
		return "deserialization"
	default:
		return "other"
	}
}

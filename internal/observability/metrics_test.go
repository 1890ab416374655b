package observability

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hjeldin/dive-computer-proto/internal/protocol"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordFrameEncoded("metrics-test", protocol.KindCommand)
	RecordFrameDecoded("metrics-test", protocol.KindResponse)
	RecordFrameRejected("metrics-test", protocol.ErrInvalidMagic)
	SetPendingCommands("metrics-test", 3)
	RecordRoundTrip("metrics-test", "battery-status", "success", 12*time.Millisecond)

	if got := testutil.ToFloat64(framesEncoded.WithLabelValues("metrics-test", "command")); got != 1 {
		t.Fatalf("unexpected encoded count: %v", got)
	}
	if got := testutil.ToFloat64(framesRejected.WithLabelValues("metrics-test", "invalid_magic")); got != 1 {
		t.Fatalf("unexpected rejected count: %v", got)
	}
	if got := testutil.ToFloat64(pendingCommands.WithLabelValues("metrics-test")); got != 3 {
		t.Fatalf("unexpected pending gauge: %v", got)
	}
}

func TestRejectReason(t *testing.T) {
	cases := map[error]string{
		nil:                                  "none",
		protocol.ErrInvalidFormat:            "invalid_format",
		protocol.ErrInvalidMagic:             "invalid_magic",
		protocol.ErrUnsupportedVersion:       "unsupported_version",
		protocol.ErrChecksumMismatch:         "checksum_mismatch",
		protocol.ErrMessageTooLarge:          "message_too_large",
		protocol.ErrSerialization:            "serialization",
		protocol.ErrDeserialization:          "deserialization",
		errors.New("something else entirely"): "other",
	}
	for err, want := range cases {
		if got := RejectReason(err); got != want {
			t.Fatalf("RejectReason(%v) = %q want %q", err, got, want)
		}
	}
	wrapped := fmt.Errorf("%w: payload", protocol.ErrChecksumMismatch)
	if got := RejectReason(wrapped); got != "checksum_mismatch" {
		t.Fatalf("wrapped error reason: %q", got)
	}
}

func TestWriteSummaryFiltersNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	frames := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "diveproto", Name: "test_frames_total", Help: "test",
	}, []string{"kind"})
	other := prometheus.NewGauge(prometheus.GaugeOpts{Name: "unrelated", Help: "test"})
	rtt := prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "diveproto", Name: "test_rtt_seconds", Help: "test"})
	reg.MustRegister(frames, other, rtt)

	frames.WithLabelValues("ack").Add(2)
	other.Set(9)
	rtt.Observe(0.5)

	var buf bytes.Buffer
	if err := WriteSummary(&buf, reg); err != nil {
		t.Fatalf("summary: %v", err)
	}
	want := "diveproto_test_frames_total{kind=\"ack\"} 2\n" +
		"diveproto_test_rtt_seconds count=1 sum=0.5\n"
	if buf.String() != want {
		t.Fatalf("unexpected summary:\n%s", buf.String())
	}
}

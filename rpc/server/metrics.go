package server

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/semantic-machines/v-storage/lib/storage"
	"github.com/semantic-machines/v-storage/rpc/common"
)

// serverMetrics counts the handled requests per message type and outcome.
// Every server has its own set so that servers in one process do not mix.
type serverMetrics struct {
	set *metrics.Set
}

func newServerMetrics() *serverMetrics {
	return &serverMetrics{set: metrics.NewSet()}
}

// observe records one handled request
func (m *serverMetrics) observe(op common.MessageType, code storage.ResultCode, start time.Time) {
	m.set.GetOrCreateCounter(requestsName(op, code)).Inc()
	m.set.GetOrCreateHistogram(fmt.Sprintf(`vstorage_request_duration_seconds{op=%q}`, op)).UpdateDuration(start)
}

// requests returns the number of requests recorded for op and code
func (m *serverMetrics) requests(op common.MessageType, code storage.ResultCode) uint64 {
	return m.set.GetOrCreateCounter(requestsName(op, code)).Get()
}

func requestsName(op common.MessageType, code storage.ResultCode) string {
	return fmt.Sprintf(`vstorage_requests_total{op=%q,code=%q}`, op, code)
}

// Package observability aggregates runtime counters for the chat backend.
package observability

import (
	"runtime"
	"sync/atomic"
)

// Stats is one snapshot of the backend's activity and memory usage.
type Stats struct {
	ActiveConnections int64  `json:"active_connections"`
	MessagesSent      uint64 `json:"messages_sent"`
	MessagesEdited    uint64 `json:"messages_edited"`
	MessagesDeleted   uint64 `json:"messages_deleted"`
	Broadcasts        uint64 `json:"broadcasts"`
	DroppedDeliveries uint64 `json:"dropped_deliveries"`
	AllocMemMb        uint64 `json:"alloc_mem_mb"`
	NumGC             uint32 `json:"num_gc"`
	Goroutines        int    `json:"goroutines"`
}

// Monitor holds atomic counters incremented on the hot paths; reading a
// snapshot never contends with publishers.
type Monitor struct {
	activeConnections int64
	messagesSent      uint64
	messagesEdited    uint64
	messagesDeleted   uint64
	broadcasts        uint64
	droppedDeliveries uint64
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) ConnectionOpened()      { atomic.AddInt64(&m.activeConnections, 1) }
func (m *Monitor) ConnectionClosed()      { atomic.AddInt64(&m.activeConnections, -1) }
func (m *Monitor) IncrMessagesSent()      { atomic.AddUint64(&m.messagesSent, 1) }
func (m *Monitor) IncrMessagesEdited()    { atomic.AddUint64(&m.messagesEdited, 1) }
func (m *Monitor) IncrMessagesDeleted()   { atomic.AddUint64(&m.messagesDeleted, 1) }
func (m *Monitor) IncrBroadcasts()        { atomic.AddUint64(&m.broadcasts, 1) }
func (m *Monitor) IncrDroppedDeliveries() { atomic.AddUint64(&m.droppedDeliveries, 1) }

func (m *Monitor) Snapshot() Stats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return Stats{
		ActiveConnections: atomic.LoadInt64(&m.activeConnections),
		MessagesSent:      atomic.LoadUint64(&m.messagesSent),
		MessagesEdited:    atomic.LoadUint64(&m.messagesEdited),
		MessagesDeleted:   atomic.LoadUint64(&m.messagesDeleted),
		Broadcasts:        atomic.LoadUint64(&m.broadcasts),
		DroppedDeliveries: atomic.LoadUint64(&m.droppedDeliveries),
		AllocMemMb:        mem.Alloc / 1024 / 1024,
		NumGC:             mem.NumGC,
		Goroutines:        runtime.NumGoroutine(),
	}
}

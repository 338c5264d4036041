package database

import (
	"context"
	"log"
	"sync"

	"unimerch_back_end/internal/models"
)

// MemoryAudit keeps the latest entries in a ring and logs each one. Used when
// ScyllaDB is not configured.
type MemoryAudit struct {
	mu      sync.Mutex
	entries []models.AuditLog
	next    int
	full    bool
}

func NewMemoryAudit(capacity int) *MemoryAudit {
	if capacity <= 0 {
		capacity = 500
	}
	return &MemoryAudit{entries: make([]models.AuditLog, capacity)}
}

func (m *MemoryAudit) Record(_ context.Context, e models.AuditLog) error {
	status := "✅"
	if !e.Success {
		status = "🚫"
	}
	log.Printf("%s audit user=%s action=%s resource=%s/%s %s", status, e.UserID, e.Action, e.Resource, e.ResourceID, e.ErrorMsg)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.next] = e
	m.next = (m.next + 1) % len(m.entries)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (m *MemoryAudit) Recent(_ context.Context, limit int) ([]models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	size := m.next
	if m.full {
		size = len(m.entries)
	}
	if limit > size {
		limit = size
	}
	out := make([]models.AuditLog, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.entries)) % len(m.entries)
		out = append(out, m.entries[idx])
	}
	return out, nil
}

package permissions

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"unimerch_back_end/internal/apperr"
	"unimerch_back_end/internal/models"
)

// AssignmentStore returns the active staff roles of a user.
type AssignmentStore interface {
	ActiveStaffRoles(ctx context.Context, userID string) ([]string, error)
}

// AuditSink stores audit entries.
type AuditSink interface {
	Record(ctx context.Context, entry models.AuditLog) error
}

// Actor is the caller of a guarded operation.
type Actor struct {
	UserID    string
	IPAddress string
	UserAgent string
}

// Gate checks capabilities before mutations. It never mutates anything
// besides the optional audit trail.
type Gate struct {
	assignments AssignmentStore
	catalog     Catalog
	audit       AuditSink
	now         func() time.Time
}

// NewGate builds a gate. audit may be nil.
func NewGate(assignments AssignmentStore, catalog Catalog, audit AuditSink) *Gate {
	return &Gate{assignments: assignments, catalog: catalog, audit: audit, now: time.Now}
}

// Effective returns the capability set of userID.
func (g *Gate) Effective(ctx context.Context, userID string) (Set, error) {
	if userID == "" {
		return 0, nil
	}
	roles, err := g.assignments.ActiveStaffRoles(ctx, userID)
	if err != nil {
		return 0, err
	}
	return g.catalog.Effective(roles...), nil
}

// Verify reports whether userID holds every capability in required. An
// empty required list is denied.
func (g *Gate) Verify(ctx context.Context, userID string, required ...Capability) (bool, error) {
	if len(required) == 0 {
		return false, nil
	}
	set, err := g.Effective(ctx, userID)
	if err != nil {
		return false, err
	}
	if userID == "" {
		return false, nil
	}
	return set.HasAll(required...), nil
}

// Authorize verifies required for actor and records the attempt. It returns
// an authorization error when a capability is missing or none is named.
func (g *Gate) Authorize(ctx context.Context, actor Actor, action, resourceID string, required ...Capability) error {
	if len(required) == 0 {
		log.Printf("🚫 %s denied: no capability named", action)
		g.record(ctx, actor, action, resourceID, nil, false, "no capability named")
		return apperr.Unauthorized("no capability named for " + action)
	}
	set, err := g.Effective(ctx, actor.UserID)
	if err != nil {
		g.record(ctx, actor, action, resourceID, required, false, "permission lookup failed")
		return apperr.Database("load staff roles", err)
	}

	if actor.UserID == "" {
		g.record(ctx, actor, action, resourceID, required, false, "anonymous caller")
		return apperr.Unauthorized("authentication required")
	}

	if missing := set.Missing(required...); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, c := range missing {
			names[i] = c.String()
		}
		msg := "missing permission: " + strings.Join(names, ", ")
		log.Printf("🚫 %s denied for user %s (%s)", action, actor.UserID, msg)
		g.record(ctx, actor, action, resourceID, required, false, msg)
		return apperr.Unauthorized(msg)
	}

	g.record(ctx, actor, action, resourceID, required, true, "")
	return nil
}

func (g *Gate) record(ctx context.Context, actor Actor, action, resourceID string, required []Capability, success bool, errMsg string) {
	if g.audit == nil {
		return
	}
	resource := ""
	if len(required) > 0 {
		resource = required[0].Resource().String()
	}
	entry := models.AuditLog{
		ID:         uuid.New(),
		UserID:     actor.UserID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
		Success:    success,
		ErrorMsg:   errMsg,
		Timestamp:  g.now(),
	}
	if err := g.audit.Record(ctx, entry); err != nil {
		log.Printf("❌ Audit log write failed: %v", err)
	}
}

// Package permissions implements the back-office permission gate.
//
// A capability is one (resource, action) pair. Staff roles map to sets of
// capabilities through the role catalog; a user's effective set is the union
// of the sets of their active roles.
package permissions

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"
)

type Resource uint8

const (
	ResourceOrders Resource = iota
	ResourceInventory
	ResourceMessages
	ResourceDashboard
	ResourceReports
	ResourceUsers
	resourceCount
)

var resourceNames = [...]string{"orders", "inventory", "messages", "dashboard", "reports", "users"}

func (r Resource) String() string {
	if r >= resourceCount {
		return fmt.Sprintf("resource(%d)", r)
	}
	return resourceNames[r]
}

type Action uint8

const (
	CanRead Action = iota
	CanCreate
	CanUpdate
	CanDelete
	actionCount
)

var actionNames = [...]string{"canRead", "canCreate", "canUpdate", "canDelete"}

func (a Action) String() string {
	if a >= actionCount {
		return fmt.Sprintf("action(%d)", a)
	}
	return actionNames[a]
}

// Capability packs a resource and an action.
type Capability uint8

func Cap(r Resource, a Action) Capability {
	return Capability(r)*Capability(actionCount) + Capability(a)
}

func (c Capability) Resource() Resource { return Resource(c / Capability(actionCount)) }
func (c Capability) Action() Action     { return Action(c % Capability(actionCount)) }

func (c Capability) String() string {
	return c.Resource().String() + "." + c.Action().String()
}

const (
	OrdersRead   = Capability(ResourceOrders)*Capability(actionCount) + Capability(CanRead)
	OrdersCreate = Capability(ResourceOrders)*Capability(actionCount) + Capability(CanCreate)
	OrdersUpdate = Capability(ResourceOrders)*Capability(actionCount) + Capability(CanUpdate)
	OrdersDelete = Capability(ResourceOrders)*Capability(actionCount) + Capability(CanDelete)

	InventoryRead   = Capability(ResourceInventory)*Capability(actionCount) + Capability(CanRead)
	InventoryCreate = Capability(ResourceInventory)*Capability(actionCount) + Capability(CanCreate)
	InventoryUpdate = Capability(ResourceInventory)*Capability(actionCount) + Capability(CanUpdate)
	InventoryDelete = Capability(ResourceInventory)*Capability(actionCount) + Capability(CanDelete)

	MessagesRead   = Capability(ResourceMessages)*Capability(actionCount) + Capability(CanRead)
	MessagesCreate = Capability(ResourceMessages)*Capability(actionCount) + Capability(CanCreate)
	MessagesUpdate = Capability(ResourceMessages)*Capability(actionCount) + Capability(CanUpdate)
	MessagesDelete = Capability(ResourceMessages)*Capability(actionCount) + Capability(CanDelete)

	DashboardRead = Capability(ResourceDashboard)*Capability(actionCount) + Capability(CanRead)

	ReportsRead   = Capability(ResourceReports)*Capability(actionCount) + Capability(CanRead)
	ReportsCreate = Capability(ResourceReports)*Capability(actionCount) + Capability(CanCreate)
	ReportsUpdate = Capability(ResourceReports)*Capability(actionCount) + Capability(CanUpdate)
	ReportsDelete = Capability(ResourceReports)*Capability(actionCount) + Capability(CanDelete)

	UsersRead   = Capability(ResourceUsers)*Capability(actionCount) + Capability(CanRead)
	UsersCreate = Capability(ResourceUsers)*Capability(actionCount) + Capability(CanCreate)
	UsersUpdate = Capability(ResourceUsers)*Capability(actionCount) + Capability(CanUpdate)
	UsersDelete = Capability(ResourceUsers)*Capability(actionCount) + Capability(CanDelete)
)

// ParseCapability reads "resource.action", e.g. "orders.canUpdate".
func ParseCapability(s string) (Capability, error) {
	resource, action, ok := strings.Cut(s, ".")
	if !ok {
		return 0, fmt.Errorf("capability %q: expected resource.action", s)
	}
	r, err := parseResource(resource)
	if err != nil {
		return 0, err
	}
	for i, name := range actionNames {
		if name == action {
			return Cap(r, Action(i)), nil
		}
	}
	return 0, fmt.Errorf("capability %q: unknown action %q", s, action)
}

func parseResource(s string) (Resource, error) {
	for i, name := range resourceNames {
		if name == s {
			return Resource(i), nil
		}
	}
	return 0, fmt.Errorf("unknown resource %q", s)
}

// Set is a bitset of capabilities.
type Set uint32

func NewSet(caps ...Capability) Set {
	var s Set
	for _, c := range caps {
		s = s.Add(c)
	}
	return s
}

// All holds every capability.
func All() Set {
	return Set(1)<<(uint(resourceCount)*uint(actionCount)) - 1
}

func (s Set) Add(c Capability) Set  { return s | 1<<c }
func (s Set) Has(c Capability) bool { return s&(1<<c) != 0 }
func (s Set) Union(o Set) Set       { return s | o }
func (s Set) Len() int              { return bits.OnesCount32(uint32(s)) }

// HasAll reports whether every capability in caps is present.
func (s Set) HasAll(caps ...Capability) bool {
	for _, c := range caps {
		if !s.Has(c) {
			return false
		}
	}
	return true
}

// Missing returns the capabilities of caps absent from s.
func (s Set) Missing(caps ...Capability) []Capability {
	var missing []Capability
	for _, c := range caps {
		if !s.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Strings lists the set as sorted "resource.action" names.
func (s Set) Strings() []string {
	out := make([]string, 0, s.Len())
	for c := Capability(0); c < Capability(resourceCount)*Capability(actionCount); c++ {
		if s.Has(c) {
			out = append(out, c.String())
		}
	}
	sort.Strings(out)
	return out
}

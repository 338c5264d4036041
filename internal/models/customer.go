package models

import (
	"strings"
	"time"
)

// CustomerRole is the classification used to pick a pricing tier.
type CustomerRole string

const (
	RoleStudent      CustomerRole = "STUDENT"
	RoleStaffFaculty CustomerRole = "STAFF_FACULTY"
	RolePlayer       CustomerRole = "PLAYER"
	RoleAlumni       CustomerRole = "ALUMNI"
	RoleOthers       CustomerRole = "OTHERS"
)

// CustomerRoles lists every recognized role, default last.
var CustomerRoles = []CustomerRole{RoleStudent, RoleStaffFaculty, RolePlayer, RoleAlumni, RoleOthers}

// Valid reports whether r is one of the recognized roles.
func (r CustomerRole) Valid() bool {
	for _, known := range CustomerRoles {
		if r == known {
			return true
		}
	}
	return false
}

// College identifies a college of the university. Products are owned by a
// college and customers belong to one.
type College string

// CollegeNotApplicable marks customers and products with no college affinity.
const CollegeNotApplicable College = "NOT_APPLICABLE"

// NormalizeCollege trims and upper-cases a college code so customer and
// product colleges compare equal.
func NormalizeCollege(c College) College {
	return College(strings.ToUpper(strings.TrimSpace(string(c))))
}

// Customer is the storefront profile of a signed-in user.
type Customer struct {
	ID        string       `json:"user_id"`
	Email     string       `json:"email"`
	Name      string       `json:"name,omitempty"`
	Role      CustomerRole `json:"role,omitempty"`
	College   College      `json:"college,omitempty"`
	Provider  string       `json:"provider,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

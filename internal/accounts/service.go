// Package accounts manages storefront customers and back-office staff roles.
package accounts

import (
	"context"
	"log"
	"net/mail"
	"strings"
	"time"

	"unimerch_back_end/internal/apperr"
	"unimerch_back_end/internal/models"
	"unimerch_back_end/internal/permissions"
)

const maxAuditPage = 200

type Repository interface {
	GetCustomer(ctx context.Context, userID string) (*models.Customer, error)
	UpsertCustomer(ctx context.Context, c *models.Customer) (*models.Customer, error)
	UpdateCustomerProfile(ctx context.Context, userID string, role models.CustomerRole, college models.College, at time.Time) error
	ListStaffRoles(ctx context.Context) ([]models.StaffRoleAssignment, error)
	GrantStaffRole(ctx context.Context, a models.StaffRoleAssignment) error
	RevokeStaffRole(ctx context.Context, userID, role string, at time.Time) error
}

// ProfileCache is invalidated when a pricing profile changes.
type ProfileCache interface {
	Invalidate(ctx context.Context, userID string)
}

// Gate authorizes staff actions and reports a user's capabilities.
type Gate interface {
	Authorize(ctx context.Context, actor permissions.Actor, action, resourceID string, required ...permissions.Capability) error
	Effective(ctx context.Context, userID string) (permissions.Set, error)
}

type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]models.AuditLog, error)
}

type Service struct {
	repo  Repository
	cache ProfileCache
	gate  Gate
	roles permissions.Catalog
	audit AuditReader
	now   func() time.Time
}

func NewService(repo Repository, cache ProfileCache, gate Gate, roles permissions.Catalog, audit AuditReader) *Service {
	return &Service{repo: repo, cache: cache, gate: gate, roles: roles, audit: audit, now: time.Now}
}

// SignIn records a login from the identity provider and returns the stored
// profile, including any role and college set by staff.
func (s *Service) SignIn(ctx context.Context, userID, email, name, provider string) (*models.Customer, error) {
	fields := map[string]string{}
	if strings.TrimSpace(userID) == "" {
		fields["user_id"] = "required"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		fields["email"] = "invalid email address"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("identity provider returned an incomplete profile", fields)
	}

	c, err := s.repo.UpsertCustomer(ctx, &models.Customer{
		ID:        userID,
		Email:     strings.ToLower(email),
		Name:      name,
		Provider:  provider,
		UpdatedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	log.Printf("✅ Customer signed in: %s via %s", c.Email, provider)
	return c, nil
}

// Me is the profile of the caller together with their back-office capabilities.
type Me struct {
	*models.Customer
	Capabilities []string `json:"capabilities"`
}

func (s *Service) Me(ctx context.Context, userID string) (*Me, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("authentication required")
	}
	c, err := s.repo.GetCustomer(ctx, userID)
	if err != nil {
		return nil, err
	}
	set, err := s.gate.Effective(ctx, userID)
	if err != nil {
		return nil, apperr.Database("load staff roles", err)
	}
	return &Me{Customer: c, Capabilities: set.Strings()}, nil
}

// GetCustomer lets support staff look a customer up.
func (s *Service) GetCustomer(ctx context.Context, actor permissions.Actor, userID string) (*models.Customer, error) {
	if err := s.gate.Authorize(ctx, actor, models.ActionUserView, userID, permissions.UsersRead); err != nil {
		return nil, err
	}
	return s.repo.GetCustomer(ctx, userID)
}

// UpdateProfile sets the pricing role and college of a customer. An empty
// role or college clears it.
func (s *Service) UpdateProfile(ctx context.Context, actor permissions.Actor, userID string, role models.CustomerRole, college models.College) (*models.Customer, error) {
	if err := s.gate.Authorize(ctx, actor, models.ActionUserProfileUpdate, userID, permissions.UsersUpdate); err != nil {
		return nil, err
	}
	if role != "" && !role.Valid() {
		return nil, apperr.Field("role", "unknown customer role")
	}
	college = models.NormalizeCollege(college)

	if err := s.repo.UpdateCustomerProfile(ctx, userID, role, college, s.now()); err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	log.Printf("✅ Profile of %s set to %s/%s by %s", userID, role, college, actor.UserID)
	return s.repo.GetCustomer(ctx, userID)
}

func (s *Service) StaffRoles(ctx context.Context, actor permissions.Actor) ([]models.StaffRoleAssignment, error) {
	if err := s.gate.Authorize(ctx, actor, models.ActionRoleView, "", permissions.UsersRead); err != nil {
		return nil, err
	}
	return s.repo.ListStaffRoles(ctx)
}

// GrantRole activates a catalog role for userID.
func (s *Service) GrantRole(ctx context.Context, actor permissions.Actor, userID, role string) error {
	if err := s.gate.Authorize(ctx, actor, models.ActionRoleAssign, userID, permissions.UsersUpdate); err != nil {
		return err
	}
	role = strings.ToUpper(strings.TrimSpace(role))
	if !s.roles.Known(role) {
		return apperr.Field("role", "unknown staff role")
	}
	if strings.TrimSpace(userID) == "" {
		return apperr.Field("user_id", "required")
	}
	if _, err := s.repo.GetCustomer(ctx, userID); err != nil {
		return err
	}
	err := s.repo.GrantStaffRole(ctx, models.StaffRoleAssignment{
		UserID:    userID,
		Role:      role,
		GrantedBy: actor.UserID,
		GrantedAt: s.now(),
		IsActive:  true,
	})
	if err != nil {
		return err
	}
	log.Printf("✅ Role %s granted to %s by %s", role, userID, actor.UserID)
	return nil
}

// RevokeRole tombstones an active assignment.
func (s *Service) RevokeRole(ctx context.Context, actor permissions.Actor, userID, role string) error {
	if err := s.gate.Authorize(ctx, actor, models.ActionRoleRevoke, userID, permissions.UsersUpdate); err != nil {
		return err
	}
	role = strings.ToUpper(strings.TrimSpace(role))
	if err := s.repo.RevokeStaffRole(ctx, userID, role, s.now()); err != nil {
		return err
	}
	log.Printf("✅ Role %s revoked from %s by %s", role, userID, actor.UserID)
	return nil
}

// AuditTrail returns the most recent audit entries, newest first.
func (s *Service) AuditTrail(ctx context.Context, actor permissions.Actor, limit int) ([]models.AuditLog, error) {
	if err := s.gate.Authorize(ctx, actor, models.ActionAuditView, "", permissions.ReportsRead); err != nil {
		return nil, err
	}
	if s.audit == nil {
		return []models.AuditLog{}, nil
	}
	if limit <= 0 || limit > maxAuditPage {
		limit = 50
	}
	entries, err := s.audit.Recent(ctx, limit)
	if err != nil {
		return nil, apperr.Database("read audit log", err)
	}
	return entries, nil
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
}

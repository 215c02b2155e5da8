package staff

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicware/medipos-backend/internal/users"
	"github.com/clinicware/medipos-backend/pkg/config"
	"github.com/clinicware/medipos-backend/pkg/db"
	"github.com/clinicware/medipos-backend/pkg/db/models"
	"github.com/clinicware/medipos-backend/pkg/enums"
	pkgerrors "github.com/clinicware/medipos-backend/pkg/errors"
	"github.com/clinicware/medipos-backend/pkg/logger"
	"github.com/clinicware/medipos-backend/pkg/security"
)

const tempPasswordLength = 12

// CreateStaffRequest is the payload an admin submits to onboard staff.
type CreateStaffRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

// CreatedStaff is returned after onboarding. TempPassword is only set when
// the service generated one.
type CreatedStaff struct {
	User         *users.UserDTO `json:"user"`
	TempPassword string         `json:"temp_password,omitempty"`
}

type staffRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	ListStaff(ctx context.Context, adminID uuid.UUID) ([]models.User, error)
	SetActive(ctx context.Context, adminID, staffID uuid.UUID, active bool) (int64, error)
	DeleteStaff(ctx context.Context, adminID, staffID uuid.UUID) (int64, error)
}

// Service lets an admin manage the staff accounts in their tenant.
type Service struct {
	repo        staffRepository
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

func NewService(repo staffRepository, passwordCfg config.PasswordConfig, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("staff repository required")
	}
	return &Service{repo: repo, passwordCfg: passwordCfg, logg: logg}, nil
}

// Create onboards a staff account under the admin's tenant. When no password
// is supplied a temporary one is generated and returned once.
func (s *Service) Create(ctx context.Context, adminID uuid.UUID, req CreateStaffRequest) (*CreatedStaff, error) {
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity required")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}

	password := req.Password
	tempPassword := ""
	if password == "" {
		generated, err := security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temp password")
		}
		password = generated
		tempPassword = generated
	}

	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         enums.UserRoleStaff,
		AdminID:      &adminID,
		IsActive:     true,
	}
	if _, err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "idx_users_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create staff")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"staff_id": user.ID.String()})
		s.logg.Info(logCtx, "staff account created")
	}
	return &CreatedStaff{User: users.FromModel(user), TempPassword: tempPassword}, nil
}

// List returns the admin's staff accounts.
func (s *Service) List(ctx context.Context, adminID uuid.UUID) ([]*users.UserDTO, error) {
	rows, err := s.repo.ListStaff(ctx, adminID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list staff")
	}
	out := make([]*users.UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, users.FromModel(&rows[i]))
	}
	return out, nil
}

// Block disables a staff account; it stays listed but cannot log in.
func (s *Service) Block(ctx context.Context, adminID, staffID uuid.UUID) error {
	return s.setActive(ctx, adminID, staffID, false)
}

// Unblock re-enables a blocked staff account.
func (s *Service) Unblock(ctx context.Context, adminID, staffID uuid.UUID) error {
	return s.setActive(ctx, adminID, staffID, true)
}

func (s *Service) setActive(ctx context.Context, adminID, staffID uuid.UUID, active bool) error {
	affected, err := s.repo.SetActive(ctx, adminID, staffID, active)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update staff")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "staff account not found").
			WithDetails(map[string]any{"staff_id": staffID.String()})
	}
	return nil
}

// Delete removes a staff account permanently.
func (s *Service) Delete(ctx context.Context, adminID, staffID uuid.UUID) error {
	affected, err := s.repo.DeleteStaff(ctx, adminID, staffID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete staff")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "staff account not found").
			WithDetails(map[string]any{"staff_id": staffID.String()})
	}
	return nil
}

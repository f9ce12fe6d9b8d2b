package managerapps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqline/souqline-backend/internal/addresses"
	"github.com/souqline/souqline-backend/internal/profiles"
	"github.com/souqline/souqline-backend/internal/users"
	"github.com/souqline/souqline-backend/pkg/config"
	dbpkg "github.com/souqline/souqline-backend/pkg/db"
	"github.com/souqline/souqline-backend/pkg/db/models"
	"github.com/souqline/souqline-backend/pkg/enums"
	pkgerrors "github.com/souqline/souqline-backend/pkg/errors"
	"github.com/souqline/souqline-backend/pkg/logger"
	"github.com/souqline/souqline-backend/pkg/metrics"
	"github.com/souqline/souqline-backend/pkg/outbox"
	"github.com/souqline/souqline-backend/pkg/security"
)

const tempPasswordLength = 24

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type applicationRepository interface {
	CreateWithTx(tx *gorm.DB, application *models.ManagerApplication) error
	FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.ManagerApplication, error)
	ListByOwner(ctx context.Context, businessOwnerID uuid.UUID) ([]models.ManagerApplication, error)
	MarkRejectedWithTx(tx *gorm.DB, id uuid.UUID, reviewedAt time.Time) (int64, error)
	MarkVerifiedWithTx(tx *gorm.DB, id uuid.UUID, reviewedAt time.Time) (int64, error)
}

type businessRepository interface {
	FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Business, error)
}

type businessAppRepository interface {
	FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.BusinessApplication, error)
}

type userRepository interface {
	FindByEmailWithTx(tx *gorm.DB, email string) (*models.User, error)
	CreateWithTx(tx *gorm.DB, dto users.CreateUserDTO) (*models.User, error)
	UpdateRoleWithTx(tx *gorm.DB, id uuid.UUID, role enums.UserRole, verified bool) error
}

type addressRepository interface {
	CreateWithTx(tx *gorm.DB, input addresses.CreateAddressInput) (*models.Address, error)
}

type profileProvisioner interface {
	ProvisionWithTx(tx *gorm.DB, input profiles.ProvisionInput) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ManagerApprovedEvent is the outbox payload for an approved delegation.
type ManagerApprovedEvent struct {
	ApplicationID uuid.UUID  `json:"applicationId"`
	ManagerUserID uuid.UUID  `json:"managerUserId"`
	BusinessID    *uuid.UUID `json:"businessId,omitempty"`
}

// ManagerRejectedEvent is the outbox payload for a rejected delegation.
type ManagerRejectedEvent struct {
	ApplicationID uuid.UUID `json:"applicationId"`
}

// Service drives the manager-delegation state machine.
type Service interface {
	Propose(ctx context.Context, businessOwnerID uuid.UUID, dto ProposeManagerDTO) (*ApplicationDTO, error)
	Approve(ctx context.Context, applicationID uuid.UUID) (uuid.UUID, error)
	Reject(ctx context.Context, applicationID uuid.UUID) error
	ListByOwner(ctx context.Context, businessOwnerID uuid.UUID) ([]ApplicationDTO, error)
}

// ServiceParams bundles the workflow dependencies.
type ServiceParams struct {
	Logger       *logger.Logger
	DB           txRunner
	Applications applicationRepository
	Businesses   businessRepository
	BusinessApps businessAppRepository
	Users        userRepository
	Addresses    addressRepository
	Provisioner  profileProvisioner
	Outbox       outboxEmitter
	Metrics      *metrics.WorkflowMetrics
	Password     config.PasswordConfig
}

type service struct {
	logg         *logger.Logger
	db           txRunner
	apps         applicationRepository
	businesses   businessRepository
	businessApps businessAppRepository
	users        userRepository
	addrs        addressRepository
	provisioner  profileProvisioner
	outbox       outboxEmitter
	metrics      *metrics.WorkflowMetrics
	passwordCfg  config.PasswordConfig
}

// NewService wires the workflow, validating required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Applications == nil {
		return nil, fmt.Errorf("application repository required")
	}
	if params.Businesses == nil {
		return nil, fmt.Errorf("business repository required")
	}
	if params.BusinessApps == nil {
		return nil, fmt.Errorf("business application repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.Addresses == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if params.Provisioner == nil {
		return nil, fmt.Errorf("profile provisioner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{
		logg:         params.Logger,
		db:           params.DB,
		apps:         params.Applications,
		businesses:   params.Businesses,
		businessApps: params.BusinessApps,
		users:        params.Users,
		addrs:        params.Addresses,
		provisioner:  params.Provisioner,
		outbox:       params.Outbox,
		metrics:      params.Metrics,
		passwordCfg:  params.Password,
	}, nil
}

// Propose files a delegation request. The target id is resolved to either a
// confirmed business or the caller's still-pending business application; in
// both cases the caller must be the owner.
func (s *service) Propose(ctx context.Context, businessOwnerID uuid.UUID, dto ProposeManagerDTO) (*ApplicationDTO, error) {
	managerEmail := strings.ToLower(strings.TrimSpace(dto.ManagerEmail))
	firstName := strings.TrimSpace(dto.ManagerFirstName)
	lastName := strings.TrimSpace(dto.ManagerLastName)
	if managerEmail == "" || firstName == "" || lastName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "managerEmail, managerFirstName and managerLastName are required")
	}
	if dto.TargetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "targetId is required")
	}

	var created *models.ManagerApplication
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		target, err := s.resolveTarget(tx, businessOwnerID, dto.TargetID)
		if err != nil {
			return err
		}
		if err := target.Validate(); err != nil {
			return err
		}

		if _, err := s.users.FindByEmailWithTx(tx, managerEmail); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "a user with this email already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up manager email")
		}

		var addressID *uuid.UUID
		if dto.Address != nil {
			address, err := s.addrs.CreateWithTx(tx, *dto.Address)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist address")
			}
			addressID = &address.ID
		}

		businessID, linkedApplicationID := target.columns()
		application := &models.ManagerApplication{
			BusinessOwnerID:     businessOwnerID,
			BusinessID:          businessID,
			LinkedApplicationID: linkedApplicationID,
			ManagerEmail:        managerEmail,
			ManagerPhone:        strings.TrimSpace(dto.ManagerPhone),
			ManagerFirstName:    firstName,
			ManagerLastName:     lastName,
			AddressID:           addressID,
			Status:              enums.ApplicationStatusPending,
			AppliedAt:           time.Now().UTC(),
		}
		if err := s.apps.CreateWithTx(tx, application); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist manager application")
		}
		created = application
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "propose manager")
	}

	s.metrics.IncDecision("manager", "submitted")
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"application_id":    created.ID.String(),
		"business_owner_id": businessOwnerID.String(),
	}), "manager application submitted")
	result := FromModel(created)
	return &result, nil
}

// resolveTarget maps the incoming id onto a TargetRef, enforcing ownership.
// A confirmed business wins over a pending application on id collision.
func (s *service) resolveTarget(tx *gorm.DB, businessOwnerID, targetID uuid.UUID) (TargetRef, error) {
	business, err := s.businesses.FindByIDWithTx(tx, targetID)
	if err == nil {
		if business.OwnerUserID != businessOwnerID {
			return TargetRef{}, pkgerrors.New(pkgerrors.CodeForbidden, "caller does not own the target business")
		}
		return ConfirmedTarget(business.ID), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return TargetRef{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve target business")
	}

	application, err := s.businessApps.FindByIDWithTx(tx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TargetRef{}, pkgerrors.New(pkgerrors.CodeNotFound, "target business or application not found")
		}
		return TargetRef{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve target application")
	}
	if application.Status != enums.ApplicationStatusPending {
		return TargetRef{}, pkgerrors.New(pkgerrors.CodeNotFound, "target application is no longer pending")
	}
	if application.OwnerUserID != businessOwnerID {
		return TargetRef{}, pkgerrors.New(pkgerrors.CodeForbidden, "caller does not own the target application")
	}
	return PendingTarget(application.ID), nil
}

// Approve resolves or provisions the manager's user account, provisions the
// profile, and flips the application to verified, all in one transaction.
// Returns the manager's user id.
func (s *service) Approve(ctx context.Context, applicationID uuid.UUID) (uuid.UUID, error) {
	var managerUserID uuid.UUID
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		application, err := s.apps.FindByIDWithTx(tx, applicationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "manager application not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load manager application")
		}
		if application.Status != enums.ApplicationStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "manager application is not pending")
		}

		manager, err := s.resolveManagerUser(tx, application)
		if err != nil {
			return err
		}
		managerUserID = manager.ID

		if err := s.provisioner.ProvisionWithTx(tx, profiles.ProvisionInput{
			UserID:             manager.ID,
			RoleType:           enums.ProfileRoleManager,
			EmployerBusinessID: application.BusinessID,
			FirstName:          application.ManagerFirstName,
			LastName:           application.ManagerLastName,
			Email:              application.ManagerEmail,
			Phone:              application.ManagerPhone,
		}); err != nil {
			return err
		}

		rows, err := s.apps.MarkVerifiedWithTx(tx, applicationID, time.Now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark manager application verified")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "manager application was decided concurrently")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventManagerApproved,
			AggregateType: enums.AggregateManagerApplication,
			AggregateID:   applicationID,
			Version:       1,
			Data: ManagerApprovedEvent{
				ApplicationID: applicationID,
				ManagerUserID: manager.ID,
				BusinessID:    application.BusinessID,
			},
		})
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return uuid.Nil, appErr
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve manager application")
	}

	s.metrics.IncDecision("manager", "approved")
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"application_id":  applicationID.String(),
		"manager_user_id": managerUserID.String(),
	}), "manager application approved")
	return managerUserID, nil
}

func (s *service) resolveManagerUser(tx *gorm.DB, application *models.ManagerApplication) (*models.User, error) {
	existing, err := s.users.FindByEmailWithTx(tx, application.ManagerEmail)
	if err == nil {
		if existing.Role != enums.UserRoleBusinessManager || !existing.IsVerified {
			if err := s.users.UpdateRoleWithTx(tx, existing.ID, enums.UserRoleBusinessManager, true); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upgrade manager role")
			}
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up manager user")
	}

	tempPassword, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate initial credential")
	}
	hash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash initial credential")
	}

	var phone *string
	if trimmed := strings.TrimSpace(application.ManagerPhone); trimmed != "" {
		phone = &trimmed
	}
	created, err := s.users.CreateWithTx(tx, users.CreateUserDTO{
		Email:        application.ManagerEmail,
		PasswordHash: hash,
		FirstName:    application.ManagerFirstName,
		LastName:     application.ManagerLastName,
		Phone:        phone,
		Role:         enums.UserRoleBusinessManager,
		IsVerified:   true,
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a user with this email or phone already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "provision manager user")
	}
	return created, nil
}

// Reject flips a pending delegation to rejected.
func (s *service) Reject(ctx context.Context, applicationID uuid.UUID) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.apps.FindByIDWithTx(tx, applicationID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "manager application not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load manager application")
		}

		rows, err := s.apps.MarkRejectedWithTx(tx, applicationID, time.Now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark manager application rejected")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "manager application is not pending")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventManagerRejected,
			AggregateType: enums.AggregateManagerApplication,
			AggregateID:   applicationID,
			Version:       1,
			Data:          ManagerRejectedEvent{ApplicationID: applicationID},
		})
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return appErr
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject manager application")
	}

	s.metrics.IncDecision("manager", "rejected")
	return nil
}

func (s *service) ListByOwner(ctx context.Context, businessOwnerID uuid.UUID) ([]ApplicationDTO, error) {
	applications, err := s.apps.ListByOwner(ctx, businessOwnerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list manager applications")
	}
	result := make([]ApplicationDTO, 0, len(applications))
	for _, application := range applications {
		result = append(result, FromModel(&application))
	}
	return result, nil
}

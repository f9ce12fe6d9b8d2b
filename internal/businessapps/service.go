package businessapps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqline/souqline-backend/internal/addresses"
	"github.com/souqline/souqline-backend/internal/onboarding"
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
	CreateWithTx(tx *gorm.DB, application *models.BusinessApplication) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.BusinessApplication, error)
	FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.BusinessApplication, error)
	ExistsPendingByContactEmail(ctx context.Context, email string) (bool, error)
	ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]models.BusinessApplication, error)
	MarkRejectedWithTx(tx *gorm.DB, id uuid.UUID, reason string, reviewedAt time.Time) (int64, error)
	MarkReopenedWithTx(tx *gorm.DB, id uuid.UUID, resubmittedAt time.Time) (int64, error)
}

type userRepository interface {
	FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.User, error)
	FindByEmailWithTx(tx *gorm.DB, email string) (*models.User, error)
	CreateWithTx(tx *gorm.DB, dto users.CreateUserDTO) (*models.User, error)
}

type addressRepository interface {
	CreateWithTx(tx *gorm.DB, input addresses.CreateAddressInput) (*models.Address, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type rejectionNotifier interface {
	NotifyRejection(ctx context.Context, email, businessName, reason string) error
}

type approvalCascade interface {
	Run(ctx context.Context, applicationID uuid.UUID, grantedRole enums.UserRole) (*onboarding.Result, error)
}

// BusinessRejectedEvent is the outbox payload for a rejected application.
// The publisher-side consumer drives the rejection email off it.
type BusinessRejectedEvent struct {
	ApplicationID uuid.UUID `json:"applicationId"`
	BusinessName  string    `json:"businessName"`
	ContactEmail  string    `json:"contactEmail"`
	Reason        string    `json:"reason"`
}

// BusinessReopenedEvent is the outbox payload for a resubmitted application.
type BusinessReopenedEvent struct {
	ApplicationID uuid.UUID `json:"applicationId"`
	OwnerUserID   uuid.UUID `json:"ownerUserId"`
}

// Service drives the business-application state machine.
type Service interface {
	Submit(ctx context.Context, dto SubmitApplicationDTO) (*ApplicationDTO, error)
	Reject(ctx context.Context, applicationID uuid.UUID, reason string) error
	Reopen(ctx context.Context, applicationID uuid.UUID) error
	Approve(ctx context.Context, applicationID uuid.UUID, grantedRole enums.UserRole) (*onboarding.Result, error)
	GetByID(ctx context.Context, applicationID uuid.UUID) (*ApplicationDTO, error)
	ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]ApplicationDTO, error)
}

// ServiceParams bundles the workflow dependencies.
type ServiceParams struct {
	Logger       *logger.Logger
	DB           txRunner
	Applications applicationRepository
	Users        userRepository
	Addresses    addressRepository
	Outbox       outboxEmitter
	Notifier     rejectionNotifier
	Cascade      approvalCascade
	Metrics      *metrics.WorkflowMetrics
	Password     config.PasswordConfig
}

type service struct {
	logg        *logger.Logger
	db          txRunner
	apps        applicationRepository
	users       userRepository
	addrs       addressRepository
	outbox      outboxEmitter
	notifier    rejectionNotifier
	cascade     approvalCascade
	metrics     *metrics.WorkflowMetrics
	passwordCfg config.PasswordConfig
}

// NewService wires the workflow, validating required dependencies. Notifier
// and metrics are optional; everything else is mandatory.
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
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.Addresses == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.Cascade == nil {
		return nil, fmt.Errorf("approval cascade required")
	}
	return &service{
		logg:        params.Logger,
		db:          params.DB,
		apps:        params.Applications,
		users:       params.Users,
		addrs:       params.Addresses,
		outbox:      params.Outbox,
		notifier:    params.Notifier,
		cascade:     params.Cascade,
		metrics:     params.Metrics,
		passwordCfg: params.Password,
	}, nil
}

// Submit registers a new pending application. The owner account is resolved
// in order: explicit ownerUserId, existing user with the contact email, or a
// freshly provisioned unverified business_owner account.
func (s *service) Submit(ctx context.Context, dto SubmitApplicationDTO) (*ApplicationDTO, error) {
	businessName := strings.TrimSpace(dto.BusinessName)
	legalName := strings.TrimSpace(dto.LegalName)
	contactEmail := strings.ToLower(strings.TrimSpace(dto.ContactEmail))
	if businessName == "" || legalName == "" || contactEmail == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "businessName, legalName and contactEmail are required")
	}

	pending, err := s.apps.ExistsPendingByContactEmail(ctx, contactEmail)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending applications")
	}
	if pending {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an application for this contact email is already pending")
	}

	var created *models.BusinessApplication
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		owner, err := s.resolveOwner(tx, dto, contactEmail)
		if err != nil {
			return err
		}

		var addressID *uuid.UUID
		if dto.Address != nil {
			address, err := s.addrs.CreateWithTx(tx, *dto.Address)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist address")
			}
			addressID = &address.ID
		}

		application := &models.BusinessApplication{
			OwnerUserID:          owner.ID,
			BusinessName:         businessName,
			LegalName:            legalName,
			ContactEmail:         contactEmail,
			ContactPhone:         strings.TrimSpace(dto.ContactPhone),
			TradeLicenseNumber:   strings.TrimSpace(dto.TradeLicenseNumber),
			TaxCertificateNumber: strings.TrimSpace(dto.TaxCertificateNumber),
			AddressID:            addressID,
			Status:               enums.ApplicationStatusPending,
			AppliedAt:            time.Now().UTC(),
		}
		if err := s.apps.CreateWithTx(tx, application); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist application")
		}
		created = application
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit application")
	}

	s.metrics.IncDecision("business", "submitted")
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"application_id": created.ID.String(),
		"owner_user_id":  created.OwnerUserID.String(),
	}), "business application submitted")
	result := FromModel(created)
	return &result, nil
}

func (s *service) resolveOwner(tx *gorm.DB, dto SubmitApplicationDTO, contactEmail string) (*models.User, error) {
	if dto.OwnerUserID != nil && *dto.OwnerUserID != uuid.Nil {
		owner, err := s.users.FindByIDWithTx(tx, *dto.OwnerUserID)
		if err == nil {
			return owner, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load owner user")
		}
	}

	owner, err := s.users.FindByEmailWithTx(tx, contactEmail)
	if err == nil {
		return owner, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up owner by email")
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
	if trimmed := strings.TrimSpace(dto.ContactPhone); trimmed != "" {
		phone = &trimmed
	}
	owner, err = s.users.CreateWithTx(tx, users.CreateUserDTO{
		Email:        contactEmail,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(dto.OwnerFirstName),
		LastName:     strings.TrimSpace(dto.OwnerLastName),
		Phone:        phone,
		Role:         enums.UserRoleBusinessOwner,
		IsVerified:   false,
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a user with this email or phone already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "provision owner user")
	}
	return owner, nil
}

// Reject moves a pending application to rejected and records the reason. The
// rejection email rides the outbox event; a direct best-effort send happens
// after commit as well so the applicant is not waiting on the publisher.
func (s *service) Reject(ctx context.Context, applicationID uuid.UUID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}

	var application *models.BusinessApplication
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		found, err := s.apps.FindByIDWithTx(tx, applicationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "business application not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
		}

		rows, err := s.apps.MarkRejectedWithTx(tx, applicationID, reason, time.Now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark application rejected")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "application is not pending")
		}

		application = found
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBusinessRejected,
			AggregateType: enums.AggregateBusinessApplication,
			AggregateID:   applicationID,
			Version:       1,
			Data: BusinessRejectedEvent{
				ApplicationID: applicationID,
				BusinessName:  found.BusinessName,
				ContactEmail:  found.ContactEmail,
				Reason:        reason,
			},
		})
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return appErr
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject application")
	}

	s.metrics.IncDecision("business", "rejected")
	if s.notifier != nil {
		if err := s.notifier.NotifyRejection(ctx, application.ContactEmail, application.BusinessName, reason); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "application_id", applicationID.String()),
				"rejection notification failed: "+err.Error())
		}
	}
	return nil
}

// Reopen flips a rejected application back to pending, clearing the rejection
// reason and stamping resubmittedAt.
func (s *service) Reopen(ctx context.Context, applicationID uuid.UUID) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		found, err := s.apps.FindByIDWithTx(tx, applicationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "business application not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
		}

		rows, err := s.apps.MarkReopenedWithTx(tx, applicationID, time.Now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark application reopened")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only rejected applications can be reopened")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBusinessReopened,
			AggregateType: enums.AggregateBusinessApplication,
			AggregateID:   applicationID,
			Version:       1,
			Data: BusinessReopenedEvent{
				ApplicationID: applicationID,
				OwnerUserID:   found.OwnerUserID,
			},
		})
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return appErr
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reopen application")
	}

	s.metrics.IncDecision("business", "reopened")
	return nil
}

// Approve hands off to the approval cascade after validating the granted role.
func (s *service) Approve(ctx context.Context, applicationID uuid.UUID, grantedRole enums.UserRole) (*onboarding.Result, error) {
	if grantedRole != enums.UserRoleBusinessOwner && grantedRole != enums.UserRoleBusinessManager {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported role: "+string(grantedRole))
	}

	result, err := s.cascade.Run(ctx, applicationID, grantedRole)
	if err != nil {
		return nil, err
	}

	s.metrics.IncDecision("business", "approved")
	return result, nil
}

func (s *service) GetByID(ctx context.Context, applicationID uuid.UUID) (*ApplicationDTO, error) {
	application, err := s.apps.FindByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
	}
	result := FromModel(application)
	return &result, nil
}

func (s *service) ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]ApplicationDTO, error) {
	applications, err := s.apps.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list applications")
	}
	result := make([]ApplicationDTO, 0, len(applications))
	for _, application := range applications {
		result = append(result, FromModel(&application))
	}
	return result, nil
}

package onboarding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqline/souqline-backend/internal/profiles"
	"github.com/souqline/souqline-backend/pkg/db/models"
	"github.com/souqline/souqline-backend/pkg/enums"
	pkgerrors "github.com/souqline/souqline-backend/pkg/errors"
	"github.com/souqline/souqline-backend/pkg/logger"
	"github.com/souqline/souqline-backend/pkg/metrics"
	"github.com/souqline/souqline-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type applicationRepository interface {
	FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.BusinessApplication, error)
	MarkVerifiedWithTx(tx *gorm.DB, id uuid.UUID, reviewedAt time.Time) (int64, error)
}

type userRepository interface {
	FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.User, error)
	UpdateRoleWithTx(tx *gorm.DB, id uuid.UUID, role enums.UserRole, verified bool) error
}

type businessRepository interface {
	CreateWithTx(tx *gorm.DB, business *models.Business) error
}

type managerMigrator interface {
	MigrateLinkedWithTx(tx *gorm.DB, linkedApplicationID, businessID uuid.UUID) (int64, error)
}

type profileProvisioner interface {
	ProvisionWithTx(tx *gorm.DB, input profiles.ProvisionInput) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Result reports what the approval cascade produced.
type Result struct {
	BusinessID           uuid.UUID
	MigratedManagerCount int64
}

// BusinessApprovedEvent is the outbox payload written when a business
// application clears review.
type BusinessApprovedEvent struct {
	ApplicationID        uuid.UUID `json:"applicationId"`
	BusinessID           uuid.UUID `json:"businessId"`
	OwnerUserID          uuid.UUID `json:"ownerUserId"`
	MigratedManagerCount int64     `json:"migratedManagerCount"`
}

// CascadeParams configures the approval cascade.
type CascadeParams struct {
	Logger          *logger.Logger
	DB              txRunner
	Applications    applicationRepository
	Users           userRepository
	Businesses      businessRepository
	Managers        managerMigrator
	Provisioner     profileProvisioner
	Outbox          outboxEmitter
	Metrics         *metrics.WorkflowMetrics
	LicenseValidity time.Duration
}

// Cascade runs the multi-table approval transaction for a business
// application. Writes happen in a fixed order: user role, business row,
// owner profile, manager-application pointer migration, application status.
type Cascade struct {
	logg            *logger.Logger
	db              txRunner
	apps            applicationRepository
	users           userRepository
	businesses      businessRepository
	managers        managerMigrator
	provisioner     profileProvisioner
	outbox          outboxEmitter
	metrics         *metrics.WorkflowMetrics
	licenseValidity time.Duration
	now             func() time.Time
}

const defaultLicenseValidity = 365 * 24 * time.Hour

// NewCascade builds the orchestrator, validating every dependency.
func NewCascade(params CascadeParams) (*Cascade, error) {
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
	if params.Businesses == nil {
		return nil, fmt.Errorf("business repository required")
	}
	if params.Managers == nil {
		return nil, fmt.Errorf("manager repository required")
	}
	if params.Provisioner == nil {
		return nil, fmt.Errorf("profile provisioner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	validity := params.LicenseValidity
	if validity <= 0 {
		validity = defaultLicenseValidity
	}
	return &Cascade{
		logg:            params.Logger,
		db:              params.DB,
		apps:            params.Applications,
		users:           params.Users,
		businesses:      params.Businesses,
		managers:        params.Managers,
		provisioner:     params.Provisioner,
		outbox:          params.Outbox,
		metrics:         params.Metrics,
		licenseValidity: validity,
		now:             time.Now,
	}, nil
}

// Run approves the application and provisions everything that hangs off it.
// Either every write commits or none do; a second concurrent approval of the
// same application observes a state conflict instead of a double-created
// business.
func (c *Cascade) Run(ctx context.Context, applicationID uuid.UUID, grantedRole enums.UserRole) (*Result, error) {
	start := c.now()
	var result Result

	err := c.db.WithTx(ctx, func(tx *gorm.DB) error {
		application, err := c.apps.FindByIDWithTx(tx, applicationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "business application not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeApprovalFailed, err, "load application")
		}
		if application.Status != enums.ApplicationStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "application is not pending")
		}

		owner, err := c.users.FindByIDWithTx(tx, application.OwnerUserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeApprovalFailed, err, "load owner user")
		}

		// An owner who already holds the granted role verified keeps it
		// untouched; a second approval must not re-flag them.
		if owner.Role != grantedRole || !owner.IsVerified {
			if err := c.users.UpdateRoleWithTx(tx, owner.ID, grantedRole, true); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeApprovalFailed, err, "update owner role")
			}
		}

		now := c.now().UTC()
		business := &models.Business{
			OwnerUserID:        application.OwnerUserID,
			BusinessName:       application.BusinessName,
			LegalName:          application.LegalName,
			AddressID:          application.AddressID,
			VerificationStatus: enums.VerificationStatusVerified,
			VerifiedAt:         &now,
			LicenseExpiryDate:  now.Add(c.licenseValidity),
		}
		if err := c.businesses.CreateWithTx(tx, business); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeApprovalFailed, err, "create business")
		}

		if err := c.provisioner.ProvisionWithTx(tx, profiles.ProvisionInput{
			UserID:             owner.ID,
			RoleType:           enums.ProfileRoleOwner,
			EmployerBusinessID: &business.ID,
			FirstName:          owner.FirstName,
			LastName:           owner.LastName,
			Email:              owner.Email,
			Phone:              stringValue(owner.Phone),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeApprovalFailed, err, "provision owner profile")
		}

		migrated, err := c.managers.MigrateLinkedWithTx(tx, application.ID, business.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeApprovalFailed, err, "migrate linked manager applications")
		}

		rows, err := c.apps.MarkVerifiedWithTx(tx, application.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeApprovalFailed, err, "mark application verified")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "application was decided concurrently")
		}

		if err := c.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBusinessApproved,
			AggregateType: enums.AggregateBusinessApplication,
			AggregateID:   application.ID,
			Version:       1,
			Data: BusinessApprovedEvent{
				ApplicationID:        application.ID,
				BusinessID:           business.ID,
				OwnerUserID:          owner.ID,
				MigratedManagerCount: migrated,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeApprovalFailed, err, "queue approval event")
		}

		result = Result{BusinessID: business.ID, MigratedManagerCount: migrated}
		return nil
	})
	if err != nil {
		c.metrics.IncCascadeFailure()
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeApprovalFailed, err, "approval cascade aborted")
	}

	c.metrics.ObserveCascade(c.now().Sub(start))
	c.logg.Info(c.logg.WithFields(ctx, map[string]any{
		"application_id":    applicationID.String(),
		"business_id":       result.BusinessID.String(),
		"migrated_managers": result.MigratedManagerCount,
	}), "business application approved")
	return &result, nil
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/souqline/souqline-backend/pkg/db/models"
	"github.com/souqline/souqline-backend/pkg/enums"
	"github.com/souqline/souqline-backend/pkg/logger"
	"github.com/souqline/souqline-backend/pkg/outbox"
)

const defaultExpiryWarning = 14 * 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type businessRepository interface {
	FindVerifiedExpiredBefore(ctx context.Context, cutoff time.Time) ([]models.Business, error)
	FindVerifiedExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Business, error)
	UpdateVerificationStatusWithTx(tx *gorm.DB, id uuid.UUID, status enums.VerificationStatus) error
}

type outboxEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// BusinessLicenseExpiredEvent is the outbox payload written when a verified
// business loses its status to an expired trade license.
type BusinessLicenseExpiredEvent struct {
	BusinessID        uuid.UUID `json:"businessId"`
	OwnerUserID       uuid.UUID `json:"ownerUserId"`
	LicenseExpiryDate time.Time `json:"licenseExpiryDate"`
	ExpiredAt         time.Time `json:"expiredAt"`
}

// BusinessLicenseExpiringEvent warns that a license is inside the expiry
// window.
type BusinessLicenseExpiringEvent struct {
	BusinessID        uuid.UUID `json:"businessId"`
	OwnerUserID       uuid.UUID `json:"ownerUserId"`
	LicenseExpiryDate time.Time `json:"licenseExpiryDate"`
}

// LicenseExpiryJobParams configures the scheduled license scan.
type LicenseExpiryJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Businesses    businessRepository
	Outbox        outboxEmitter
	WarningWindow time.Duration
}

// NewLicenseExpiryJob constructs the license expiry cron job.
func NewLicenseExpiryJob(params LicenseExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Businesses == nil {
		return nil, fmt.Errorf("business repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	warning := params.WarningWindow
	if warning <= 0 {
		warning = defaultExpiryWarning
	}
	return &licenseExpiryJob{
		logg:       params.Logger,
		db:         params.DB,
		businesses: params.Businesses,
		outbox:     params.Outbox,
		warning:    warning,
		now:        time.Now,
	}, nil
}

type licenseExpiryJob struct {
	logg       *logger.Logger
	db         txRunner
	businesses businessRepository
	outbox     outboxEmitter
	warning    time.Duration
	now        func() time.Time
}

func (j *licenseExpiryJob) Name() string { return "license-expiry" }

func (j *licenseExpiryJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.expireBusinesses(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.warnExpiring(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

// expireBusinesses drops verified businesses with a passed license expiry
// back to pending so they re-enter review.
func (j *licenseExpiryJob) expireBusinesses(ctx context.Context) error {
	now := j.now().UTC()
	expired, err := j.businesses.FindVerifiedExpiredBefore(ctx, now)
	if err != nil {
		return fmt.Errorf("query expired licenses: %w", err)
	}
	count := 0
	for _, business := range expired {
		if err := j.expireBusiness(ctx, business); err != nil {
			return err
		}
		count++
	}
	j.logg.Info(j.logg.WithField(ctx, "count", count), "license expiry loop complete")
	return nil
}

func (j *licenseExpiryJob) expireBusiness(ctx context.Context, business models.Business) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := j.businesses.UpdateVerificationStatusWithTx(tx, business.ID, enums.VerificationStatusPending); err != nil {
			return fmt.Errorf("demote business %s: %w", business.ID, err)
		}
		return j.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBusinessLicenseExpired,
			AggregateType: enums.AggregateBusiness,
			AggregateID:   business.ID,
			Version:       1,
			OccurredAt:    j.now().UTC(),
			Data: BusinessLicenseExpiredEvent{
				BusinessID:        business.ID,
				OwnerUserID:       business.OwnerUserID,
				LicenseExpiryDate: business.LicenseExpiryDate,
				ExpiredAt:         j.now().UTC(),
			},
		})
	})
}

func (j *licenseExpiryJob) warnExpiring(ctx context.Context) error {
	now := j.now().UTC()
	expiring, err := j.businesses.FindVerifiedExpiringBetween(ctx, now, now.Add(j.warning))
	if err != nil {
		return fmt.Errorf("query expiring licenses: %w", err)
	}
	count := 0
	for _, business := range expiring {
		if err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			return j.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventBusinessLicenseExpiring,
				AggregateType: enums.AggregateBusiness,
				AggregateID:   business.ID,
				Version:       1,
				OccurredAt:    j.now().UTC(),
				Data: BusinessLicenseExpiringEvent{
					BusinessID:        business.ID,
					OwnerUserID:       business.OwnerUserID,
					LicenseExpiryDate: business.LicenseExpiryDate,
				},
			})
		}); err != nil {
			return fmt.Errorf("queue warning event: %w", err)
		}
		count++
	}
	j.logg.Info(j.logg.WithField(ctx, "count", count), "license warn loop complete")
	return nil
}

package cron

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqline/souqline-backend/pkg/db/models"
	"github.com/souqline/souqline-backend/pkg/enums"
	"github.com/souqline/souqline-backend/pkg/logger"
	"github.com/souqline/souqline-backend/pkg/outbox"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeBusinessRepo struct {
	expired       []models.Business
	expiring      []models.Business
	statusUpdates map[uuid.UUID]enums.VerificationStatus
}

func newFakeBusinessRepo() *fakeBusinessRepo {
	return &fakeBusinessRepo{statusUpdates: map[uuid.UUID]enums.VerificationStatus{}}
}

func (f *fakeBusinessRepo) FindVerifiedExpiredBefore(_ context.Context, _ time.Time) ([]models.Business, error) {
	return f.expired, nil
}

func (f *fakeBusinessRepo) FindVerifiedExpiringBetween(_ context.Context, _, _ time.Time) ([]models.Business, error) {
	return f.expiring, nil
}

func (f *fakeBusinessRepo) UpdateVerificationStatusWithTx(_ *gorm.DB, id uuid.UUID, status enums.VerificationStatus) error {
	f.statusUpdates[id] = status
	return nil
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) EmitIfNotExists(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newTestJob(t *testing.T, repo *fakeBusinessRepo, sink *fakeOutbox) Job {
	t.Helper()
	job, err := NewLicenseExpiryJob(LicenseExpiryJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		DB:         fakeTxRunner{},
		Businesses: repo,
		Outbox:     sink,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	return job
}

func TestLicenseExpiryJobDemotesExpiredBusinesses(t *testing.T) {
	repo := newFakeBusinessRepo()
	sink := &fakeOutbox{}
	business := models.Business{
		ID:                 uuid.New(),
		OwnerUserID:        uuid.New(),
		VerificationStatus: enums.VerificationStatusVerified,
		LicenseExpiryDate:  time.Now().Add(-24 * time.Hour),
	}
	repo.expired = []models.Business{business}

	job := newTestJob(t, repo, sink)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.statusUpdates[business.ID] != enums.VerificationStatusPending {
		t.Fatalf("expected business demoted to pending")
	}
	if len(sink.events) != 1 || sink.events[0].EventType != enums.EventBusinessLicenseExpired {
		t.Fatalf("expected business_license_expired event")
	}
	if sink.events[0].AggregateID != business.ID {
		t.Fatalf("expected event keyed by business id")
	}
}

func TestLicenseExpiryJobWarnsExpiring(t *testing.T) {
	repo := newFakeBusinessRepo()
	sink := &fakeOutbox{}
	business := models.Business{
		ID:                 uuid.New(),
		OwnerUserID:        uuid.New(),
		VerificationStatus: enums.VerificationStatusVerified,
		LicenseExpiryDate:  time.Now().Add(7 * 24 * time.Hour),
	}
	repo.expiring = []models.Business{business}

	job := newTestJob(t, repo, sink)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.statusUpdates) != 0 {
		t.Fatalf("expected no status change for a warning")
	}
	if len(sink.events) != 1 || sink.events[0].EventType != enums.EventBusinessLicenseExpiring {
		t.Fatalf("expected business_license_expiring event")
	}
}

func TestLicenseExpiryJobNoWork(t *testing.T) {
	repo := newFakeBusinessRepo()
	sink := &fakeOutbox{}

	job := newTestJob(t, repo, sink)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.events) != 0 {
		t.Fatalf("expected no events")
	}
}

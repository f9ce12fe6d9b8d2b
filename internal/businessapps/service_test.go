package businessapps

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqline/souqline-backend/internal/addresses"
	"github.com/souqline/souqline-backend/internal/onboarding"
	"github.com/souqline/souqline-backend/internal/users"
	"github.com/souqline/souqline-backend/pkg/config"
	"github.com/souqline/souqline-backend/pkg/db/models"
	"github.com/souqline/souqline-backend/pkg/enums"
	pkgerrors "github.com/souqline/souqline-backend/pkg/errors"
	"github.com/souqline/souqline-backend/pkg/logger"
	"github.com/souqline/souqline-backend/pkg/outbox"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubAppRepo struct {
	byID          map[uuid.UUID]*models.BusinessApplication
	pendingEmails map[string]bool
	created       []*models.BusinessApplication
	rejectRows    int64
	reopenRows    int64
}

func newStubAppRepo() *stubAppRepo {
	return &stubAppRepo{
		byID:          map[uuid.UUID]*models.BusinessApplication{},
		pendingEmails: map[string]bool{},
	}
}

func (s *stubAppRepo) CreateWithTx(_ *gorm.DB, application *models.BusinessApplication) error {
	application.ID = uuid.New()
	s.created = append(s.created, application)
	s.byID[application.ID] = application
	return nil
}

func (s *stubAppRepo) FindByID(_ context.Context, id uuid.UUID) (*models.BusinessApplication, error) {
	return s.find(id)
}

func (s *stubAppRepo) FindByIDWithTx(_ *gorm.DB, id uuid.UUID) (*models.BusinessApplication, error) {
	return s.find(id)
}

func (s *stubAppRepo) find(id uuid.UUID) (*models.BusinessApplication, error) {
	application, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return application, nil
}

func (s *stubAppRepo) ExistsPendingByContactEmail(_ context.Context, email string) (bool, error) {
	return s.pendingEmails[email], nil
}

func (s *stubAppRepo) ListByOwner(_ context.Context, ownerUserID uuid.UUID) ([]models.BusinessApplication, error) {
	var result []models.BusinessApplication
	for _, application := range s.byID {
		if application.OwnerUserID == ownerUserID {
			result = append(result, *application)
		}
	}
	return result, nil
}

func (s *stubAppRepo) MarkRejectedWithTx(_ *gorm.DB, id uuid.UUID, reason string, reviewedAt time.Time) (int64, error) {
	if s.rejectRows > 0 {
		if application, ok := s.byID[id]; ok {
			application.Status = enums.ApplicationStatusRejected
			application.RejectionReason = &reason
			application.ReviewedAt = &reviewedAt
		}
	}
	return s.rejectRows, nil
}

func (s *stubAppRepo) MarkReopenedWithTx(_ *gorm.DB, id uuid.UUID, resubmittedAt time.Time) (int64, error) {
	if s.reopenRows > 0 {
		if application, ok := s.byID[id]; ok {
			application.Status = enums.ApplicationStatusPending
			application.RejectionReason = nil
			application.ResubmittedAt = &resubmittedAt
		}
	}
	return s.reopenRows, nil
}

type stubUserRepo struct {
	byID    map[uuid.UUID]*models.User
	byEmail map[string]*models.User
	created []users.CreateUserDTO
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: map[uuid.UUID]*models.User{}, byEmail: map[string]*models.User{}}
}

func (s *stubUserRepo) add(user *models.User) {
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user
}

func (s *stubUserRepo) FindByIDWithTx(_ *gorm.DB, id uuid.UUID) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) FindByEmailWithTx(_ *gorm.DB, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) CreateWithTx(_ *gorm.DB, dto users.CreateUserDTO) (*models.User, error) {
	s.created = append(s.created, dto)
	user := &models.User{
		ID:         uuid.New(),
		Email:      dto.Email,
		Role:       dto.Role,
		IsVerified: dto.IsVerified,
	}
	s.add(user)
	return user, nil
}

type stubAddrRepo struct {
	created []addresses.CreateAddressInput
}

func (s *stubAddrRepo) CreateWithTx(_ *gorm.DB, input addresses.CreateAddressInput) (*models.Address, error) {
	s.created = append(s.created, input)
	return &models.Address{ID: uuid.New()}, nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubNotifier struct {
	calls []string
	err   error
}

func (s *stubNotifier) NotifyRejection(_ context.Context, email, businessName, reason string) error {
	s.calls = append(s.calls, email+"|"+businessName+"|"+reason)
	return s.err
}

type stubCascade struct {
	result *onboarding.Result
	err    error
	calls  []uuid.UUID
}

func (s *stubCascade) Run(_ context.Context, applicationID uuid.UUID, _ enums.UserRole) (*onboarding.Result, error) {
	s.calls = append(s.calls, applicationID)
	return s.result, s.err
}

type serviceFixture struct {
	svc      Service
	apps     *stubAppRepo
	users    *stubUserRepo
	addrs    *stubAddrRepo
	outbox   *stubOutbox
	notifier *stubNotifier
	cascade  *stubCascade
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		apps:     newStubAppRepo(),
		users:    newStubUserRepo(),
		addrs:    &stubAddrRepo{},
		outbox:   &stubOutbox{},
		notifier: &stubNotifier{},
		cascade:  &stubCascade{result: &onboarding.Result{BusinessID: uuid.New()}},
	}
	svc, err := NewService(ServiceParams{
		Logger:       logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:           stubTxRunner{},
		Applications: f.apps,
		Users:        f.users,
		Addresses:    f.addrs,
		Outbox:       f.outbox,
		Notifier:     f.notifier,
		Cascade:      f.cascade,
		Password:     config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	f.svc = svc
	return f
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected coded error, got %v", err)
	}
	if appErr.Code() != code {
		t.Fatalf("expected code %s, got %s", code, appErr.Code())
	}
}

func TestSubmitRequiresCoreFields(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Submit(context.Background(), SubmitApplicationDTO{LegalName: "Fresh Mart LLC", ContactEmail: "a@b.com"})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestSubmitRejectsDuplicatePendingEmail(t *testing.T) {
	f := newServiceFixture(t)
	f.apps.pendingEmails["owner@freshmart.ae"] = true

	_, err := f.svc.Submit(context.Background(), SubmitApplicationDTO{
		BusinessName: "Fresh Mart",
		LegalName:    "Fresh Mart LLC",
		ContactEmail: "Owner@FreshMart.ae",
	})
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestSubmitProvisionsOwnerWhenUnknown(t *testing.T) {
	f := newServiceFixture(t)

	dto, err := f.svc.Submit(context.Background(), SubmitApplicationDTO{
		BusinessName:   "Fresh Mart",
		LegalName:      "Fresh Mart LLC",
		ContactEmail:   "Owner@FreshMart.ae",
		OwnerFirstName: "Omar",
		OwnerLastName:  "Said",
		Address:        &addresses.CreateAddressInput{Street: "1 Souq St", City: "Dubai", Country: "AE"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.Status != string(enums.ApplicationStatusPending) {
		t.Fatalf("expected pending status, got %s", dto.Status)
	}
	if len(f.users.created) != 1 {
		t.Fatalf("expected one provisioned user, got %d", len(f.users.created))
	}
	createdUser := f.users.created[0]
	if createdUser.Role != enums.UserRoleBusinessOwner || createdUser.IsVerified {
		t.Fatalf("expected unverified business_owner, got %s verified=%v", createdUser.Role, createdUser.IsVerified)
	}
	if createdUser.Email != "owner@freshmart.ae" {
		t.Fatalf("expected normalized email, got %s", createdUser.Email)
	}
	if createdUser.PasswordHash == "" {
		t.Fatalf("expected generated credential hash")
	}
	if len(f.addrs.created) != 1 {
		t.Fatalf("expected address persisted, got %d", len(f.addrs.created))
	}
	if len(f.apps.created) != 1 || f.apps.created[0].AddressID == nil {
		t.Fatalf("expected application with address reference")
	}
}

func TestSubmitReusesExistingOwnerByEmail(t *testing.T) {
	f := newServiceFixture(t)
	existing := &models.User{ID: uuid.New(), Email: "owner@freshmart.ae", Role: enums.UserRoleConsumer}
	f.users.add(existing)

	dto, err := f.svc.Submit(context.Background(), SubmitApplicationDTO{
		BusinessName: "Fresh Mart",
		LegalName:    "Fresh Mart LLC",
		ContactEmail: "owner@freshmart.ae",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dto.OwnerUserID != existing.ID {
		t.Fatalf("expected application bound to existing user")
	}
	if len(f.users.created) != 0 {
		t.Fatalf("expected no new user, got %d", len(f.users.created))
	}
}

func TestRejectRequiresReason(t *testing.T) {
	f := newServiceFixture(t)

	err := f.svc.Reject(context.Background(), uuid.New(), "   ")
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestRejectUnknownApplication(t *testing.T) {
	f := newServiceFixture(t)

	err := f.svc.Reject(context.Background(), uuid.New(), "invalid trade license")
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestRejectNonPendingConflicts(t *testing.T) {
	f := newServiceFixture(t)
	application := &models.BusinessApplication{ID: uuid.New(), Status: enums.ApplicationStatusVerified}
	f.apps.byID[application.ID] = application
	f.apps.rejectRows = 0

	err := f.svc.Reject(context.Background(), application.ID, "invalid trade license")
	requireCode(t, err, pkgerrors.CodeStateConflict)
	if len(f.outbox.events) != 0 {
		t.Fatalf("expected no event on conflict")
	}
}

func TestRejectEmitsEventAndNotifies(t *testing.T) {
	f := newServiceFixture(t)
	application := &models.BusinessApplication{
		ID:           uuid.New(),
		BusinessName: "Fresh Mart",
		ContactEmail: "owner@freshmart.ae",
		Status:       enums.ApplicationStatusPending,
	}
	f.apps.byID[application.ID] = application
	f.apps.rejectRows = 1

	err := f.svc.Reject(context.Background(), application.ID, "Invalid trade license")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if application.Status != enums.ApplicationStatusRejected || application.RejectionReason == nil {
		t.Fatalf("expected rejected status with reason")
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventBusinessRejected {
		t.Fatalf("expected business_rejected event")
	}
	if len(f.notifier.calls) != 1 {
		t.Fatalf("expected one notification, got %d", len(f.notifier.calls))
	}
}

func TestRejectSurvivesNotifierFailure(t *testing.T) {
	f := newServiceFixture(t)
	application := &models.BusinessApplication{
		ID:           uuid.New(),
		BusinessName: "Fresh Mart",
		ContactEmail: "owner@freshmart.ae",
		Status:       enums.ApplicationStatusPending,
	}
	f.apps.byID[application.ID] = application
	f.apps.rejectRows = 1
	f.notifier.err = context.DeadlineExceeded

	if err := f.svc.Reject(context.Background(), application.ID, "Invalid trade license"); err != nil {
		t.Fatalf("notifier failure must not fail the rejection: %v", err)
	}
}

func TestReopenOnlyRejected(t *testing.T) {
	f := newServiceFixture(t)
	application := &models.BusinessApplication{ID: uuid.New(), Status: enums.ApplicationStatusPending}
	f.apps.byID[application.ID] = application
	f.apps.reopenRows = 0

	err := f.svc.Reopen(context.Background(), application.ID)
	requireCode(t, err, pkgerrors.CodeStateConflict)
}

func TestReopenClearsRejection(t *testing.T) {
	f := newServiceFixture(t)
	reason := "invalid trade license"
	application := &models.BusinessApplication{
		ID:              uuid.New(),
		Status:          enums.ApplicationStatusRejected,
		RejectionReason: &reason,
	}
	f.apps.byID[application.ID] = application
	f.apps.reopenRows = 1

	if err := f.svc.Reopen(context.Background(), application.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if application.Status != enums.ApplicationStatusPending || application.RejectionReason != nil {
		t.Fatalf("expected pending status with cleared reason")
	}
	if application.ResubmittedAt == nil {
		t.Fatalf("expected resubmittedAt stamp")
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventBusinessReopened {
		t.Fatalf("expected business_reopened event")
	}
}

func TestApproveValidatesRole(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Approve(context.Background(), uuid.New(), enums.UserRole("superuser"))
	requireCode(t, err, pkgerrors.CodeValidation)
	if len(f.cascade.calls) != 0 {
		t.Fatalf("cascade must not run for a bad role")
	}
}

func TestApproveDelegatesToCascade(t *testing.T) {
	f := newServiceFixture(t)
	applicationID := uuid.New()

	result, err := f.svc.Approve(context.Background(), applicationID, enums.UserRoleBusinessOwner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.BusinessID != f.cascade.result.BusinessID {
		t.Fatalf("expected cascade result passthrough")
	}
	if len(f.cascade.calls) != 1 || f.cascade.calls[0] != applicationID {
		t.Fatalf("expected cascade invoked with application id")
	}
}

package roster

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqline/souqline-backend/pkg/db/models"
	"github.com/souqline/souqline-backend/pkg/enums"
	pkgerrors "github.com/souqline/souqline-backend/pkg/errors"
	"github.com/souqline/souqline-backend/pkg/logger"
)

type stubUserRepo struct {
	byID map[uuid.UUID]*models.User
}

func (s *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

type stubBusinessRepo struct {
	byOwner map[uuid.UUID][]models.Business
}

func (s *stubBusinessRepo) ListByOwner(_ context.Context, ownerUserID uuid.UUID) ([]models.Business, error) {
	return s.byOwner[ownerUserID], nil
}

type stubBusinessAppRepo struct {
	byOwner map[uuid.UUID][]models.BusinessApplication
}

func (s *stubBusinessAppRepo) ListByOwner(_ context.Context, ownerUserID uuid.UUID) ([]models.BusinessApplication, error) {
	return s.byOwner[ownerUserID], nil
}

type stubManagerAppRepo struct {
	byOwner map[uuid.UUID][]models.ManagerApplication
}

func (s *stubManagerAppRepo) ListByOwner(_ context.Context, businessOwnerID uuid.UUID) ([]models.ManagerApplication, error) {
	return s.byOwner[businessOwnerID], nil
}

type stubProfileRepo struct {
	profiles []models.CustomerProfile
	queried  [][]uuid.UUID
}

func (s *stubProfileRepo) ListManagersByBusinessIDs(_ context.Context, businessIDs []uuid.UUID) ([]models.CustomerProfile, error) {
	s.queried = append(s.queried, businessIDs)
	return s.profiles, nil
}

type rosterFixture struct {
	svc          Service
	users        *stubUserRepo
	businesses   *stubBusinessRepo
	businessApps *stubBusinessAppRepo
	managerApps  *stubManagerAppRepo
	profiles     *stubProfileRepo
}

func newRosterFixture(t *testing.T) *rosterFixture {
	t.Helper()
	f := &rosterFixture{
		users:        &stubUserRepo{byID: map[uuid.UUID]*models.User{}},
		businesses:   &stubBusinessRepo{byOwner: map[uuid.UUID][]models.Business{}},
		businessApps: &stubBusinessAppRepo{byOwner: map[uuid.UUID][]models.BusinessApplication{}},
		managerApps:  &stubManagerAppRepo{byOwner: map[uuid.UUID][]models.ManagerApplication{}},
		profiles:     &stubProfileRepo{},
	}
	svc, err := NewService(ServiceParams{
		Logger:       logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Users:        f.users,
		Businesses:   f.businesses,
		BusinessApps: f.businessApps,
		ManagerApps:  f.managerApps,
		Profiles:     f.profiles,
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	f.svc = svc
	return f
}

func TestListManagersUnknownOwner(t *testing.T) {
	f := newRosterFixture(t)

	_, err := f.svc.ListManagers(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestListManagersDeduplicatesApprovedManager(t *testing.T) {
	f := newRosterFixture(t)
	ownerID := uuid.New()
	businessID := uuid.New()
	managerUserID := uuid.New()
	f.users.byID[ownerID] = &models.User{ID: ownerID}
	f.businesses.byOwner[ownerID] = []models.Business{{ID: businessID, BusinessName: "Fresh Mart"}}
	f.managerApps.byOwner[ownerID] = []models.ManagerApplication{{
		ID:               uuid.New(),
		BusinessOwnerID:  ownerID,
		BusinessID:       &businessID,
		ManagerEmail:     "manager@freshmart.ae",
		ManagerFirstName: "Sami",
		ManagerLastName:  "Nasser",
		Status:           enums.ApplicationStatusVerified,
	}}
	f.profiles.profiles = []models.CustomerProfile{{
		UserID:             managerUserID,
		Email:              "manager@freshmart.ae",
		FirstName:          "Sami",
		LastName:           "Nasser",
		RoleType:           enums.ProfileRoleManager,
		EmployerBusinessID: &businessID,
	}}

	roster, err := f.svc.ListManagers(context.Background(), ownerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roster) != 1 {
		t.Fatalf("expected one deduplicated row, got %d", len(roster))
	}
	row := roster[0]
	if row.Source != SourceProfile {
		t.Fatalf("expected profile-sourced row, got %s", row.Source)
	}
	if row.ManagerUserID == nil || *row.ManagerUserID != managerUserID {
		t.Fatalf("expected manager user id from profile")
	}
	if row.BusinessName != "Fresh Mart" {
		t.Fatalf("expected resolved business name, got %q", row.BusinessName)
	}
}

func TestListManagersResolvesLinkedApplicationName(t *testing.T) {
	f := newRosterFixture(t)
	ownerID := uuid.New()
	linkedID := uuid.New()
	f.users.byID[ownerID] = &models.User{ID: ownerID}
	f.businessApps.byOwner[ownerID] = []models.BusinessApplication{{
		ID:           linkedID,
		OwnerUserID:  ownerID,
		BusinessName: "Fresh Mart",
		Status:       enums.ApplicationStatusPending,
	}}
	f.managerApps.byOwner[ownerID] = []models.ManagerApplication{{
		ID:                  uuid.New(),
		BusinessOwnerID:     ownerID,
		LinkedApplicationID: &linkedID,
		ManagerEmail:        "manager@freshmart.ae",
		Status:              enums.ApplicationStatusPending,
	}}

	roster, err := f.svc.ListManagers(context.Background(), ownerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roster) != 1 {
		t.Fatalf("expected one row, got %d", len(roster))
	}
	if roster[0].BusinessName != "Fresh Mart" {
		t.Fatalf("expected name from the linked application, got %q", roster[0].BusinessName)
	}
	if len(f.profiles.queried) != 0 {
		t.Fatalf("expected no profile query without businesses")
	}
}

func TestListManagersUnresolvedTargetShowsPendingSetup(t *testing.T) {
	f := newRosterFixture(t)
	ownerID := uuid.New()
	danglingID := uuid.New()
	f.users.byID[ownerID] = &models.User{ID: ownerID}
	f.managerApps.byOwner[ownerID] = []models.ManagerApplication{{
		ID:                  uuid.New(),
		BusinessOwnerID:     ownerID,
		LinkedApplicationID: &danglingID,
		ManagerEmail:        "manager@freshmart.ae",
		Status:              enums.ApplicationStatusPending,
	}}

	roster, err := f.svc.ListManagers(context.Background(), ownerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roster) != 1 {
		t.Fatalf("expected one row, got %d", len(roster))
	}
	if roster[0].BusinessName != PendingSetupBusinessName {
		t.Fatalf("expected %q placeholder, got %q", PendingSetupBusinessName, roster[0].BusinessName)
	}
}

func TestListManagersIncludesRejectedApplications(t *testing.T) {
	f := newRosterFixture(t)
	ownerID := uuid.New()
	f.users.byID[ownerID] = &models.User{ID: ownerID}
	f.managerApps.byOwner[ownerID] = []models.ManagerApplication{{
		ID:              uuid.New(),
		BusinessOwnerID: ownerID,
		ManagerEmail:    "rejected@freshmart.ae",
		Status:          enums.ApplicationStatusRejected,
	}}

	roster, err := f.svc.ListManagers(context.Background(), ownerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roster) != 1 {
		t.Fatalf("expected rejected application on the roster, got %d rows", len(roster))
	}
	if roster[0].Status != string(enums.ApplicationStatusRejected) {
		t.Fatalf("expected rejected status carried through, got %q", roster[0].Status)
	}
}

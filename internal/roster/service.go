package roster

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqline/souqline-backend/pkg/db/models"
	pkgerrors "github.com/souqline/souqline-backend/pkg/errors"
	"github.com/souqline/souqline-backend/pkg/logger"
)

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type businessRepository interface {
	ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]models.Business, error)
}

type businessAppRepository interface {
	ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]models.BusinessApplication, error)
}

type managerAppRepository interface {
	ListByOwner(ctx context.Context, businessOwnerID uuid.UUID) ([]models.ManagerApplication, error)
}

type profileRepository interface {
	ListManagersByBusinessIDs(ctx context.Context, businessIDs []uuid.UUID) ([]models.CustomerProfile, error)
}

// Service assembles the deduplicated manager roster for a business owner.
type Service interface {
	ListManagers(ctx context.Context, businessOwnerID uuid.UUID) ([]Entry, error)
}

// ServiceParams bundles the read-side dependencies.
type ServiceParams struct {
	Logger       *logger.Logger
	Users        userRepository
	Businesses   businessRepository
	BusinessApps businessAppRepository
	ManagerApps  managerAppRepository
	Profiles     profileRepository
}

type service struct {
	logg         *logger.Logger
	users        userRepository
	businesses   businessRepository
	businessApps businessAppRepository
	managerApps  managerAppRepository
	profiles     profileRepository
}

// NewService wires the reconciler, validating required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.Businesses == nil {
		return nil, fmt.Errorf("business repository required")
	}
	if params.BusinessApps == nil {
		return nil, fmt.Errorf("business application repository required")
	}
	if params.ManagerApps == nil {
		return nil, fmt.Errorf("manager application repository required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	return &service{
		logg:         params.Logger,
		users:        params.Users,
		businesses:   params.Businesses,
		businessApps: params.BusinessApps,
		managerApps:  params.ManagerApps,
		profiles:     params.Profiles,
	}, nil
}

// ListManagers merges delegation requests with live manager profiles across
// every business the owner holds. Every application row is included whatever
// its status; the merge keeps a provisioned profile over its application.
func (s *service) ListManagers(ctx context.Context, businessOwnerID uuid.UUID) ([]Entry, error) {
	if _, err := s.users.FindByID(ctx, businessOwnerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business owner not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business owner")
	}

	businesses, err := s.businesses.ListByOwner(ctx, businessOwnerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list owner businesses")
	}
	businessIDs := make([]uuid.UUID, 0, len(businesses))
	businessNames := make(map[uuid.UUID]string, len(businesses))
	for _, business := range businesses {
		businessIDs = append(businessIDs, business.ID)
		businessNames[business.ID] = business.BusinessName
	}

	pendingApplications, err := s.businessApps.ListByOwner(ctx, businessOwnerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list business applications")
	}
	applicationNames := make(map[uuid.UUID]string, len(pendingApplications))
	for _, pending := range pendingApplications {
		applicationNames[pending.ID] = pending.BusinessName
	}

	applications, err := s.managerApps.ListByOwner(ctx, businessOwnerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list manager applications")
	}
	applicationRows := make([]Entry, 0, len(applications))
	for _, application := range applications {
		applicationRows = append(applicationRows, applicationEntry(application, businessNames, applicationNames))
	}

	var profileRows []Entry
	if len(businessIDs) > 0 {
		managerProfiles, err := s.profiles.ListManagersByBusinessIDs(ctx, businessIDs)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list manager profiles")
		}
		profileRows = make([]Entry, 0, len(managerProfiles))
		for _, profile := range managerProfiles {
			profileRows = append(profileRows, profileEntry(profile, businessNames))
		}
	}

	return Merge(applicationRows, profileRows), nil
}

func applicationEntry(application models.ManagerApplication, businessNames, applicationNames map[uuid.UUID]string) Entry {
	applicationID := application.ID
	entry := Entry{
		Email:         application.ManagerEmail,
		FirstName:     application.ManagerFirstName,
		LastName:      application.ManagerLastName,
		Phone:         application.ManagerPhone,
		ApplicationID: &applicationID,
		BusinessID:    application.BusinessID,
		BusinessName:  PendingSetupBusinessName,
		Status:        string(application.Status),
		Source:        SourceApplication,
	}
	switch {
	case application.BusinessID != nil:
		if name, ok := businessNames[*application.BusinessID]; ok {
			entry.BusinessName = name
		}
	case application.LinkedApplicationID != nil:
		if name, ok := applicationNames[*application.LinkedApplicationID]; ok {
			entry.BusinessName = name
		}
	}
	return entry
}

func profileEntry(profile models.CustomerProfile, businessNames map[uuid.UUID]string) Entry {
	userID := profile.UserID
	entry := Entry{
		Email:         profile.Email,
		FirstName:     profile.FirstName,
		LastName:      profile.LastName,
		Phone:         profile.Phone,
		ManagerUserID: &userID,
		BusinessID:    profile.EmployerBusinessID,
		BusinessName:  PendingSetupBusinessName,
		Status:        "active",
		Source:        SourceProfile,
	}
	if profile.EmployerBusinessID != nil {
		if name, ok := businessNames[*profile.EmployerBusinessID]; ok {
			entry.BusinessName = name
		}
	}
	return entry
}

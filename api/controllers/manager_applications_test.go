package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/souqline/souqline-backend/api/middleware"
	"github.com/souqline/souqline-backend/internal/managerapps"
	"github.com/souqline/souqline-backend/internal/roster"
	pkgerrors "github.com/souqline/souqline-backend/pkg/errors"
)

type stubManagerService struct {
	propose func(ctx context.Context, ownerID uuid.UUID, dto managerapps.ProposeManagerDTO) (*managerapps.ApplicationDTO, error)
	approve func(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	reject  func(ctx context.Context, id uuid.UUID) error
}

func (s stubManagerService) Propose(ctx context.Context, ownerID uuid.UUID, dto managerapps.ProposeManagerDTO) (*managerapps.ApplicationDTO, error) {
	return s.propose(ctx, ownerID, dto)
}

func (s stubManagerService) Approve(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	return s.approve(ctx, id)
}

func (s stubManagerService) Reject(ctx context.Context, id uuid.UUID) error {
	return s.reject(ctx, id)
}

func (s stubManagerService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]managerapps.ApplicationDTO, error) {
	return nil, nil
}

type stubRoster struct {
	entries []roster.Entry
	err     error
}

func (s stubRoster) ListManagers(ctx context.Context, ownerID uuid.UUID) ([]roster.Entry, error) {
	return s.entries, s.err
}

func TestManagerApplicationProposeUsesContextOwner(t *testing.T) {
	owner := uuid.New()
	svc := stubManagerService{
		propose: func(ctx context.Context, ownerID uuid.UUID, dto managerapps.ProposeManagerDTO) (*managerapps.ApplicationDTO, error) {
			if ownerID != owner {
				t.Fatalf("expected owner %s got %s", owner, ownerID)
			}
			return &managerapps.ApplicationDTO{ID: uuid.New(), ManagerEmail: dto.ManagerEmail}, nil
		},
	}
	handler := ManagerApplicationPropose(svc, nil)

	body := []byte(`{"targetId":"` + uuid.NewString() + `","managerEmail":"m@x.example","managerFirstName":"Mo","managerLastName":"Ali"}`)
	req := httptest.NewRequest(http.MethodPost, "/managers", bytes.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), owner.String()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestManagerApplicationProposeForbiddenPassesThrough(t *testing.T) {
	svc := stubManagerService{
		propose: func(ctx context.Context, ownerID uuid.UUID, dto managerapps.ProposeManagerDTO) (*managerapps.ApplicationDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "target not owned by caller")
		},
	}
	handler := ManagerApplicationPropose(svc, nil)

	body := []byte(`{"targetId":"` + uuid.NewString() + `","managerEmail":"m@x.example","managerFirstName":"Mo","managerLastName":"Ali"}`)
	req := httptest.NewRequest(http.MethodPost, "/managers", bytes.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestManagerApplicationApproveReturnsUserID(t *testing.T) {
	managerID := uuid.New()
	svc := stubManagerService{
		approve: func(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
			return managerID, nil
		},
	}
	handler := ManagerApplicationApprove(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/approve", nil)
	req = withURLParam(req, "id", uuid.NewString())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			ManagerUserID uuid.UUID `json:"managerUserId"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ManagerUserID != managerID {
		t.Fatalf("expected %s got %s", managerID, envelope.Data.ManagerUserID)
	}
}

func TestManagerRosterReturnsEntries(t *testing.T) {
	owner := uuid.New()
	handler := ManagerRoster(stubRoster{entries: []roster.Entry{{Email: "m@x.example", Status: "active"}}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/roster", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), owner.String()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data struct {
			Managers []roster.Entry `json:"managers"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Managers) != 1 {
		t.Fatalf("expected one entry got %d", len(envelope.Data.Managers))
	}
}

func TestManagerRosterRejectsAnonymous(t *testing.T) {
	handler := ManagerRoster(stubRoster{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/roster", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

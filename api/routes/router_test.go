package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/souqline/souqline-backend/internal/businessapps"
	"github.com/souqline/souqline-backend/internal/managerapps"
	"github.com/souqline/souqline-backend/internal/onboarding"
	"github.com/souqline/souqline-backend/internal/roster"
	"github.com/souqline/souqline-backend/pkg/auth"
	"github.com/souqline/souqline-backend/pkg/config"
	"github.com/souqline/souqline-backend/pkg/enums"
	"github.com/souqline/souqline-backend/pkg/logger"
)

type stubBusinessAppService struct {
	submit  func(ctx context.Context, dto businessapps.SubmitApplicationDTO) (*businessapps.ApplicationDTO, error)
	approve func(ctx context.Context, id uuid.UUID, role enums.UserRole) (*onboarding.Result, error)
	reject  func(ctx context.Context, id uuid.UUID, reason string) error
	reopen  func(ctx context.Context, id uuid.UUID) error
}

func (s stubBusinessAppService) Submit(ctx context.Context, dto businessapps.SubmitApplicationDTO) (*businessapps.ApplicationDTO, error) {
	if s.submit != nil {
		return s.submit(ctx, dto)
	}
	return &businessapps.ApplicationDTO{ID: uuid.New()}, nil
}

func (s stubBusinessAppService) Reject(ctx context.Context, id uuid.UUID, reason string) error {
	if s.reject != nil {
		return s.reject(ctx, id, reason)
	}
	return nil
}

func (s stubBusinessAppService) Reopen(ctx context.Context, id uuid.UUID) error {
	if s.reopen != nil {
		return s.reopen(ctx, id)
	}
	return nil
}

func (s stubBusinessAppService) Approve(ctx context.Context, id uuid.UUID, role enums.UserRole) (*onboarding.Result, error) {
	if s.approve != nil {
		return s.approve(ctx, id, role)
	}
	return &onboarding.Result{BusinessID: uuid.New()}, nil
}

func (s stubBusinessAppService) GetByID(ctx context.Context, id uuid.UUID) (*businessapps.ApplicationDTO, error) {
	return &businessapps.ApplicationDTO{ID: id}, nil
}

func (s stubBusinessAppService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]businessapps.ApplicationDTO, error) {
	return nil, nil
}

type stubManagerAppService struct {
	propose func(ctx context.Context, ownerID uuid.UUID, dto managerapps.ProposeManagerDTO) (*managerapps.ApplicationDTO, error)
	approve func(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

func (s stubManagerAppService) Propose(ctx context.Context, ownerID uuid.UUID, dto managerapps.ProposeManagerDTO) (*managerapps.ApplicationDTO, error) {
	if s.propose != nil {
		return s.propose(ctx, ownerID, dto)
	}
	return &managerapps.ApplicationDTO{ID: uuid.New()}, nil
}

func (s stubManagerAppService) Approve(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	if s.approve != nil {
		return s.approve(ctx, id)
	}
	return uuid.New(), nil
}

func (s stubManagerAppService) Reject(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (s stubManagerAppService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]managerapps.ApplicationDTO, error) {
	return nil, nil
}

type stubRosterService struct {
	entries []roster.Entry
	err     error
}

func (s stubRosterService) ListManagers(ctx context.Context, ownerID uuid.UUID) ([]roster.Entry, error) {
	return s.entries, s.err
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60},
	}
}

func testRouter(t *testing.T, p RouterParams) http.Handler {
	t.Helper()
	if p.Config == nil {
		p.Config = testConfig()
	}
	if p.Logger == nil {
		p.Logger = logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	}
	if p.BusinessApplications == nil {
		p.BusinessApplications = stubBusinessAppService{}
	}
	if p.ManagerApplications == nil {
		p.ManagerApplications = stubManagerAppService{}
	}
	if p.Roster == nil {
		p.Roster = stubRosterService{}
	}
	return NewRouter(p)
}

func bearerToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func TestHealthLive(t *testing.T) {
	router := testRouter(t, RouterParams{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if env := resp.Header().Get("X-SouqLine-Env"); env != "test" {
		t.Fatalf("expected env header test got %q", env)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := testRouter(t, RouterParams{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestSubmitBusinessApplicationIsPublic(t *testing.T) {
	var got businessapps.SubmitApplicationDTO
	svc := stubBusinessAppService{
		submit: func(ctx context.Context, dto businessapps.SubmitApplicationDTO) (*businessapps.ApplicationDTO, error) {
			got = dto
			return &businessapps.ApplicationDTO{ID: uuid.New(), BusinessName: dto.BusinessName}, nil
		},
	}
	router := testRouter(t, RouterParams{BusinessApplications: svc})

	payload := map[string]string{
		"businessName": "Fresh Mart",
		"legalName":    "Fresh Mart LLC",
		"contactEmail": "owner@freshmart.example",
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/onboarding/businesses", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", resp.Code, resp.Body.String())
	}
	if got.BusinessName != "Fresh Mart" {
		t.Fatalf("expected dto to reach service, got %+v", got)
	}
}

func TestSubmitBusinessApplicationRejectsBadBody(t *testing.T) {
	router := testRouter(t, RouterParams{})

	body := []byte(`{"businessName":"Fresh Mart"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/onboarding/businesses", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminApproveRequiresAuth(t *testing.T) {
	router := testRouter(t, RouterParams{})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/onboarding/businesses/"+uuid.NewString()+"/approve", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminApproveRejectsNonAdmin(t *testing.T) {
	cfg := testConfig()
	router := testRouter(t, RouterParams{Config: cfg})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/onboarding/businesses/"+uuid.NewString()+"/approve", nil)
	req.Header.Set("Authorization", bearerToken(t, cfg, enums.UserRoleBusinessOwner))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestAdminApproveReturnsCascadeResult(t *testing.T) {
	cfg := testConfig()
	businessID := uuid.New()
	svc := stubBusinessAppService{
		approve: func(ctx context.Context, id uuid.UUID, role enums.UserRole) (*onboarding.Result, error) {
			if role != enums.UserRoleBusinessOwner {
				t.Fatalf("expected default role business_owner got %s", role)
			}
			return &onboarding.Result{BusinessID: businessID, MigratedManagerCount: 2}, nil
		},
	}
	router := testRouter(t, RouterParams{Config: cfg, BusinessApplications: svc})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/onboarding/businesses/"+uuid.NewString()+"/approve", nil)
	req.Header.Set("Authorization", bearerToken(t, cfg, enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			BusinessID           uuid.UUID `json:"businessId"`
			MigratedManagerCount int64     `json:"migratedManagerCount"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.BusinessID != businessID {
		t.Fatalf("expected business id %s got %s", businessID, envelope.Data.BusinessID)
	}
	if envelope.Data.MigratedManagerCount != 2 {
		t.Fatalf("expected migrated count 2 got %d", envelope.Data.MigratedManagerCount)
	}
}

func TestAdminRejectRequiresReason(t *testing.T) {
	cfg := testConfig()
	router := testRouter(t, RouterParams{Config: cfg})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/onboarding/businesses/"+uuid.NewString()+"/reject", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t, cfg, enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestProposeManagerRequiresAuth(t *testing.T) {
	router := testRouter(t, RouterParams{})

	body := []byte(`{"targetId":"` + uuid.NewString() + `","managerEmail":"m@x.example","managerFirstName":"Mo","managerLastName":"Ali"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/onboarding/managers", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestProposeManagerCreates(t *testing.T) {
	cfg := testConfig()
	svc := stubManagerAppService{
		propose: func(ctx context.Context, ownerID uuid.UUID, dto managerapps.ProposeManagerDTO) (*managerapps.ApplicationDTO, error) {
			if ownerID == uuid.Nil {
				t.Fatal("expected owner id from token")
			}
			return &managerapps.ApplicationDTO{ID: uuid.New(), ManagerEmail: dto.ManagerEmail}, nil
		},
	}
	router := testRouter(t, RouterParams{Config: cfg, ManagerApplications: svc})

	body := []byte(`{"targetId":"` + uuid.NewString() + `","managerEmail":"m@x.example","managerFirstName":"Mo","managerLastName":"Ali"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/onboarding/managers", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t, cfg, enums.UserRoleBusinessOwner))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", resp.Code, resp.Body.String())
	}
}

func TestRosterReturnsEntries(t *testing.T) {
	cfg := testConfig()
	svc := stubRosterService{entries: []roster.Entry{{Email: "m@x.example", Status: "active"}}}
	router := testRouter(t, RouterParams{Config: cfg, Roster: svc})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/onboarding/roster", nil)
	req.Header.Set("Authorization", bearerToken(t, cfg, enums.UserRoleBusinessOwner))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Managers []roster.Entry `json:"managers"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Managers) != 1 || envelope.Data.Managers[0].Email != "m@x.example" {
		t.Fatalf("unexpected roster payload: %+v", envelope.Data.Managers)
	}
}

func TestAdminManagerApproveReturnsUserID(t *testing.T) {
	cfg := testConfig()
	managerID := uuid.New()
	svc := stubManagerAppService{
		approve: func(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
			return managerID, nil
		},
	}
	router := testRouter(t, RouterParams{Config: cfg, ManagerApplications: svc})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/onboarding/managers/"+uuid.NewString()+"/approve", nil)
	req.Header.Set("Authorization", bearerToken(t, cfg, enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			ManagerUserID uuid.UUID `json:"managerUserId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ManagerUserID != managerID {
		t.Fatalf("expected manager id %s got %s", managerID, envelope.Data.ManagerUserID)
	}
}

func TestInvalidApplicationIDReturnsValidationError(t *testing.T) {
	cfg := testConfig()
	router := testRouter(t, RouterParams{Config: cfg})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/onboarding/businesses/not-a-uuid/approve", nil)
	req.Header.Set("Authorization", bearerToken(t, cfg, enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/talent-pool-api/internal/dto"
	"github.com/noah-isme/talent-pool-api/internal/middleware"
	"github.com/noah-isme/talent-pool-api/internal/models"
	appErrors "github.com/noah-isme/talent-pool-api/pkg/errors"
)

var (
	adminClaims    = &models.JWTClaims{UserID: "admin-1", Kind: models.ActorAdmin}
	companyXClaims = &models.JWTClaims{UserID: "user-x", Kind: models.ActorCompany, CompanyID: "company-x"}
)

type poolServiceMock struct {
	createErr error
	lastQuery dto.ListPoolsQuery
	deleted   []string
}

func (m *poolServiceMock) Create(ctx context.Context, req dto.CreatePoolRequest, actor *models.Actor) (*models.Pool, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.Pool{ID: "pool-1", Name: req.Name, CreatedBy: actor.ID}, nil
}

func (m *poolServiceMock) Update(ctx context.Context, id string, req dto.UpdatePoolRequest, actor *models.Actor) (*models.Pool, error) {
	return &models.Pool{ID: id}, nil
}

func (m *poolServiceMock) Archive(ctx context.Context, id string, actor *models.Actor) (*models.Pool, error) {
	return &models.Pool{ID: id, Status: models.PoolStatusArchived}, nil
}

func (m *poolServiceMock) Delete(ctx context.Context, id string, actor *models.Actor) error {
	if id == "main" {
		return appErrors.ErrProtectedResource
	}
	if !actor.IsAdmin() {
		return appErrors.ErrForbidden
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *poolServiceMock) Get(ctx context.Context, id string) (*models.Pool, error) {
	if id == "missing" {
		return nil, appErrors.ErrNotFound
	}
	return &models.Pool{ID: id}, nil
}

func (m *poolServiceMock) List(ctx context.Context, query dto.ListPoolsQuery) ([]models.Pool, *models.Pagination, error) {
	m.lastQuery = query
	return []models.Pool{{ID: "pool-1"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

type assignmentServiceMock struct {
	addResult *models.AddResult
	addErr    error
	listActor *models.Actor
}

func (m *assignmentServiceMock) Add(ctx context.Context, poolID string, req dto.AddCandidatesRequest, actor *models.Actor) (*models.AddResult, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	if m.addResult != nil {
		return m.addResult, nil
	}
	return &models.AddResult{Count: len(req.CandidateIDs)}, nil
}

func (m *assignmentServiceMock) Remove(ctx context.Context, assignmentID string, actor *models.Actor) error {
	return nil
}

func (m *assignmentServiceMock) ToggleFeatured(ctx context.Context, assignmentID string, actor *models.Actor) (*models.Assignment, error) {
	return &models.Assignment{ID: assignmentID, Featured: true}, nil
}

func (m *assignmentServiceMock) UpdatePriority(ctx context.Context, assignmentID string, req dto.UpdatePriorityRequest, actor *models.Actor) (*models.Assignment, error) {
	return &models.Assignment{ID: assignmentID, Priority: *req.Priority}, nil
}

func (m *assignmentServiceMock) ListByPool(ctx context.Context, poolID string, query dto.ListAssignmentsQuery, actor *models.Actor) ([]models.Assignment, *models.Pagination, error) {
	m.listActor = actor
	if actor.Kind == models.ActorCompany && actor.CompanyID != "company-x" {
		return nil, nil, appErrors.ErrPermissionDenied
	}
	return []models.Assignment{{ID: "a1", PoolID: poolID}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

type grantServiceMock struct {
	lastGrant dto.GrantAccessRequest
}

func (m *grantServiceMock) Grant(ctx context.Context, poolID string, req dto.GrantAccessRequest, actor *models.Actor) (*models.AccessGrant, error) {
	m.lastGrant = req
	return &models.AccessGrant{ID: "g1", PoolID: poolID, CompanyID: req.CompanyID, AccessLevel: req.AccessLevel}, nil
}

func (m *grantServiceMock) Update(ctx context.Context, grantID string, req dto.UpdateAccessRequest, actor *models.Actor) (*models.AccessGrant, error) {
	return &models.AccessGrant{ID: grantID}, nil
}

func (m *grantServiceMock) Revoke(ctx context.Context, grantID string, actor *models.Actor) error {
	if grantID == "missing" {
		return appErrors.ErrNotFound
	}
	return nil
}

func (m *grantServiceMock) ListByPool(ctx context.Context, poolID string, actor *models.Actor) ([]models.AccessGrant, error) {
	return []models.AccessGrant{}, nil
}

func (m *grantServiceMock) ListByCompany(ctx context.Context, companyID string, actor *models.Actor) ([]models.AccessGrantDetail, error) {
	return []models.AccessGrantDetail{}, nil
}

type selectionServiceMock struct {
	err  error
	last dto.RecordSelectionRequest
}

func (m *selectionServiceMock) Record(ctx context.Context, poolID string, req dto.RecordSelectionRequest, actor *models.Actor) (*models.Selection, error) {
	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Selection{ID: "s1", PoolID: poolID, CandidateID: req.CandidateID, SelectionType: req.SelectionType}, nil
}

func (m *selectionServiceMock) ListForCompany(ctx context.Context, poolID, companyID string, actor *models.Actor) ([]models.Selection, error) {
	return []models.Selection{}, nil
}

type statsServiceMock struct{}

func (statsServiceMock) PoolStats(ctx context.Context, poolID string, actor *models.Actor) (*models.PoolStats, error) {
	return &models.PoolStats{PoolID: poolID}, nil
}

func (statsServiceMock) CompanyPoolStats(ctx context.Context, poolID, companyID string, actor *models.Actor) (*models.CompanyPoolStats, error) {
	return &models.CompanyPoolStats{}, nil
}

func newTestContext(method, path, body string, claims *models.JWTClaims, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	c.Request = req
	c.Params = params
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

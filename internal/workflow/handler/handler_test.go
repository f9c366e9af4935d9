package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leadflow_backend/internal/adapters/storage"
	"leadflow_backend/internal/workflow/domain"
	"leadflow_backend/internal/workflow/repository"
	"leadflow_backend/internal/workflow/service"
	"leadflow_backend/internal/workflow/transport"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/phone"
	"leadflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	headerTestUser = "X-Test-User"
	headerTestRole = "X-Test-Role"
)

type fakeDocs struct {
	folders []string
}

func (f *fakeDocs) GenerateUploadURL(_ context.Context, bucket, folder, fileName, _ string, _ int64) (*storage.PresignedURL, error) {
	f.folders = append(f.folders, folder)
	key := folder + "/" + fileName
	return &storage.PresignedURL{URL: "https://objects.test/" + bucket + "/" + key, FileKey: key, ExpiresAt: time.Now().Add(time.Minute)}, nil
}

func (f *fakeDocs) GenerateDownloadURL(_ context.Context, bucket, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://objects.test/" + bucket + "/" + fileKey, FileKey: fileKey, ExpiresAt: time.Now().Add(time.Minute)}, nil
}

type testUser struct {
	id   uuid.UUID
	role string
}

var (
	adminUser    = testUser{id: uuid.New(), role: "admin"}
	officeUser   = testUser{id: uuid.New(), role: "office"}
	agentUser    = testUser{id: uuid.New(), role: "agent"}
	customerUser = testUser{id: uuid.New(), role: "customer"}
)

// fakeAuth stands in for the JWT middleware.
func fakeAuth(c *gin.Context) {
	id, err := uuid.Parse(c.GetHeader(headerTestUser))
	if err != nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	httpkit.SetIdentity(c, httpkit.Identity{UserID: id, Roles: []string{c.GetHeader(headerTestRole)}})
	c.Next()
}

func newRouter(t *testing.T, docs DocumentStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := service.New(repository.NewMemoryStore(), nil, phone.NewNormalizer("NL"), logger.NewDiscard())
	h := New(svc, validator.New(), docs, "lead-documents")

	r := gin.New()
	protected := r.Group("/api/v1", fakeAuth)
	admin := protected.Group("/admin", httpkit.RequireRole("admin"))
	h.RegisterRoutes(protected, admin)
	return r
}

func do(t *testing.T, r *gin.Engine, user *testUser, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set(headerTestUser, user.id.String())
		req.Header.Set(headerTestRole, user.role)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func createTemplate(t *testing.T, r *gin.Engine, body map[string]any) transport.TemplateResponse {
	t.Helper()
	w := do(t, r, &adminUser, http.MethodPost, "/api/v1/admin/step-templates", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[transport.TemplateResponse](t, w)
}

func createLead(t *testing.T, r *gin.Engine, phoneNumber string) transport.LeadDetailResponse {
	t.Helper()
	w := do(t, r, &officeUser, http.MethodPost, "/api/v1/leads", map[string]any{"name": "Jansen", "phone": phoneNumber})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[transport.LeadDetailResponse](t, w)
}

func TestTemplateRoutesRequireAdmin(t *testing.T) {
	r := newRouter(t, nil)

	w := do(t, r, &officeUser, http.MethodPost, "/api/v1/admin/step-templates",
		map[string]any{"name": "Survey", "orderIndex": 10, "allowedRoles": []string{"agent"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, nil, http.MethodGet, "/api/v1/step-templates", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateTemplatePlacement(t *testing.T) {
	r := newRouter(t, nil)

	first := createTemplate(t, r, map[string]any{"name": "Survey", "orderIndex": 10, "allowedRoles": []string{"agent"}})
	assert.Equal(t, 10, first.OrderIndex)
	assert.True(t, first.IsActive)

	after := createTemplate(t, r, map[string]any{"name": "Design", "insertAfter": first.ID.String(), "allowedRoles": []string{"office"}})
	assert.Greater(t, after.OrderIndex, first.OrderIndex)

	w := do(t, r, &adminUser, http.MethodPost, "/api/v1/admin/step-templates",
		map[string]any{"name": "Nowhere", "allowedRoles": []string{"office"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, &adminUser, http.MethodPost, "/api/v1/admin/step-templates",
		map[string]any{"name": "Duplicate", "orderIndex": 10, "allowedRoles": []string{"office"}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(domain.CodeDuplicateOrderIndex), decode[httpkit.ErrorResponse](t, w).Code)

	w = do(t, r, &adminUser, http.MethodPost, "/api/v1/admin/step-templates",
		map[string]any{"name": "Bad role", "orderIndex": 40, "allowedRoles": []string{"janitor"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, &adminUser, http.MethodPost, "/api/v1/admin/step-templates",
		map[string]any{"name": "Too far", "orderIndex": 3000000000, "allowedRoles": []string{"office"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, &adminUser, http.MethodPost, "/api/v1/admin/step-templates/"+first.ID.String()+"/reorder",
		map[string]any{"orderIndex": 3000000000})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, &agentUser, http.MethodGet, "/api/v1/step-templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[transport.TemplateListResponse](t, w)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "Survey", list.Items[0].Name)
}

func TestLeadLifecycleOverHTTP(t *testing.T) {
	r := newRouter(t, nil)
	survey := createTemplate(t, r, map[string]any{"name": "Survey", "orderIndex": 10, "allowedRoles": []string{"agent"}})
	loan := createTemplate(t, r, map[string]any{"name": "Loan", "orderIndex": 20, "allowedRoles": []string{"office"}, "remarksRequired": true})

	lead := createLead(t, r, "06 12345678")
	require.Len(t, lead.Timeline, 2)
	assert.Equal(t, "pending", lead.Timeline[0].Status)
	assert.Equal(t, "upcoming", lead.Timeline[1].Status)
	assert.Equal(t, "+31612345678", lead.Lead.Phone)

	base := "/api/v1/leads/" + lead.Lead.ID.String()

	w := do(t, r, &officeUser, http.MethodPost, base+"/steps/"+survey.ID.String()+"/complete", map[string]any{})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, &agentUser, http.MethodPost, base+"/steps/"+survey.ID.String()+"/complete", map[string]any{"remarks": "roof looks fine"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	step := decode[transport.LeadStepResponse](t, w)
	assert.Equal(t, "completed", step.Status)
	assert.JSONEq(t, `{"type":"note","text":"roof looks fine"}`, string(step.Remarks))

	w = do(t, r, &officeUser, http.MethodPost, base+"/steps/"+loan.ID.String()+"/complete", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(domain.CodeRemarksRequired), decode[httpkit.ErrorResponse](t, w).Code)

	w = do(t, r, &officeUser, http.MethodPost, base+"/steps/"+loan.ID.String()+"/complete",
		map[string]any{"remarks": map[string]any{"type": "loan", "bank": "ING", "amount": 12000}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, &officeUser, http.MethodGet, base+"/steps", nil)
	require.Equal(t, http.StatusOK, w.Code)
	timeline := decode[transport.TimelineResponse](t, w)
	for _, s := range timeline.Steps {
		assert.Equal(t, "completed", s.Status, s.Name)
	}

	w = do(t, r, &officeUser, http.MethodGet, base+"/activity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	activity := decode[transport.ActivityListResponse](t, w)
	assert.NotEmpty(t, activity.Items)

	w = do(t, r, &officeUser, http.MethodPost, base+"/close", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "closed", decode[transport.LeadResponse](t, w).Status)

	w = do(t, r, &officeUser, http.MethodPost, base+"/reopen", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, &adminUser, http.MethodPost, base+"/reopen", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInvalidIDAndUnknownLead(t *testing.T) {
	r := newRouter(t, nil)

	w := do(t, r, &officeUser, http.MethodGet, "/api/v1/leads/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, &officeUser, http.MethodGet, "/api/v1/leads/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, &officeUser, http.MethodPost, "/api/v1/leads", map[string]any{"name": "No phone"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION", decode[httpkit.ErrorResponse](t, w).Code)
}

func TestOverrideStepStatusIsAdminOnly(t *testing.T) {
	r := newRouter(t, nil)
	survey := createTemplate(t, r, map[string]any{"name": "Survey", "orderIndex": 10, "allowedRoles": []string{"agent"}})
	lead := createLead(t, r, "06 12345678")
	path := "/api/v1/admin/leads/" + lead.Lead.ID.String() + "/steps/" + survey.ID.String() + "/status"

	w := do(t, r, &officeUser, http.MethodPut, path, map[string]any{"status": "completed"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, &adminUser, http.MethodPut, path, map[string]any{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, &adminUser, http.MethodPut, path, map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "completed", decode[transport.LeadStepResponse](t, w).Status)
}

func TestLinkLead(t *testing.T) {
	r := newRouter(t, nil)
	lead := createLead(t, r, "06 12345678")

	w := do(t, r, &officeUser, http.MethodPost, "/api/v1/customers/me/link-lead", map[string]any{"phone": "0612345678", "name": "Jansen"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, &customerUser, http.MethodPost, "/api/v1/customers/me/link-lead", map[string]any{"phone": "+31 6 12345678", "name": "Jansen"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	linked := decode[transport.LinkLeadResponse](t, w)
	assert.Equal(t, service.LinkActionLinked, linked.Action)
	assert.Equal(t, lead.Lead.ID, linked.LeadID)

	other := testUser{id: uuid.New(), role: "customer"}
	w = do(t, r, &other, http.MethodPost, "/api/v1/customers/me/link-lead", map[string]any{"phone": "06 23456789", "name": "De Vries"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, service.LinkActionCreated, decode[transport.LinkLeadResponse](t, w).Action)

	w = do(t, r, &customerUser, http.MethodGet, "/api/v1/leads/"+lead.Lead.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDocumentURLs(t *testing.T) {
	docs := &fakeDocs{}
	r := newRouter(t, docs)
	survey := createTemplate(t, r, map[string]any{"name": "Survey", "orderIndex": 10, "allowedRoles": []string{"agent"}, "attachmentsAllowed": true})
	lead := createLead(t, r, "06 12345678")
	base := "/api/v1/leads/" + lead.Lead.ID.String()

	w := do(t, r, &agentUser, http.MethodPost, base+"/steps/"+survey.ID.String()+"/upload-url",
		map[string]any{"fileName": "roof.jpg", "contentType": "image/jpeg", "sizeBytes": 2048})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	upload := decode[transport.PresignedURLResponse](t, w)
	assert.True(t, strings.HasPrefix(upload.FileKey, service.DocumentFolder(lead.Lead.ID, survey.ID)))
	assert.Equal(t, []string{service.DocumentFolder(lead.Lead.ID, survey.ID)}, docs.folders)

	w = do(t, r, &officeUser, http.MethodGet, base+"/documents/download-url?fileKey="+upload.FileKey, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, upload.FileKey, decode[transport.PresignedURLResponse](t, w).FileKey)

	w = do(t, r, &officeUser, http.MethodGet, base+"/documents/download-url?fileKey=leads/"+uuid.NewString()+"/x.pdf", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, &officeUser, http.MethodGet, base+"/documents/download-url", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentURLsWithoutStorage(t *testing.T) {
	r := newRouter(t, nil)

	w := do(t, r, &officeUser, http.MethodGet, "/api/v1/leads/"+uuid.NewString()+"/documents/download-url?fileKey=x", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

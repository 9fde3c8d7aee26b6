package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"library-backend/internal/access"
	"library-backend/internal/domains/catalog/service"
	circulationService "library-backend/internal/domains/circulation/service"
	"library-backend/internal/infrastructure/memstore"
	"library-backend/internal/shared/middleware"
	"library-backend/internal/shared/response"
	"library-backend/pkg/cache"
	"library-backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type testEnv struct {
	router  *gin.Engine
	tokens  *jwt.Manager
	lending circulationService.ServiceInterface
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memstore.New()
	policy := access.DefaultPolicy()
	tokens := jwt.NewManager("test-secret", time.Hour)
	lending := circulationService.NewLendingService(store, store.Loans())
	catalog := service.NewService(store.Items(), cache.NewMemoryCache())
	h := NewHandler(catalog, lending, service.NewSyncNotifier(catalog))

	can := func(op access.Operation) gin.HandlerFunc { return middleware.RequirePermission(policy, op) }
	r := gin.New()
	items := r.Group("/api/v1/items", middleware.AuthMiddleware(tokens))
	items.GET("", can(access.OpViewCatalog), h.ListItems)
	items.GET("/export", can(access.OpExportCatalog), h.ExportCatalog)
	items.GET("/:id", can(access.OpViewCatalog), h.GetItem)
	items.GET("/:id/availability", can(access.OpViewCatalog), h.GetAvailability)
	items.POST("", can(access.OpCreateItem), h.CreateItem)
	items.PUT("/:id", can(access.OpUpdateItem), h.UpdateItem)
	items.PATCH("/:id/inventory", can(access.OpAdjustInventory), h.AdjustInventory)
	items.DELETE("/:id", can(access.OpDeleteItem), h.DeleteItem)

	return &testEnv{router: r, tokens: tokens, lending: lending}
}

func (e *testEnv) do(t *testing.T, method, path, role string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	token, err := e.tokens.GenerateAccessToken(uuid.NewString(), role)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func (e *testEnv) createItem(t *testing.T, copies int) string {
	t.Helper()
	w, resp := e.do(t, http.MethodPost, "/api/v1/items", "staff", gin.H{
		"title":  "Introduction to Algorithms",
		"author": "Thomas H. Cormen",
		"isbn":   "9780262033848",
		"copies": copies,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Book added successfully!", resp.Message)
	return resp.Data.(map[string]interface{})["id"].(string)
}

func TestCreateItem(t *testing.T) {
	env := newTestEnv(t)
	env.createItem(t, 4)

	t.Run("duplicate isbn", func(t *testing.T) {
		w, resp := env.do(t, http.MethodPost, "/api/v1/items", "admin", gin.H{
			"title": "CLRS", "author": "Cormen", "isbn": "9780262033848", "copies": 1,
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "DUPLICATE_ISBN", resp.Error.Code)
	})

	t.Run("validation", func(t *testing.T) {
		w, resp := env.do(t, http.MethodPost, "/api/v1/items", "admin", gin.H{"title": "", "isbn": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	})

	t.Run("borrower cannot create", func(t *testing.T) {
		w, _ := env.do(t, http.MethodPost, "/api/v1/items", "borrower", gin.H{
			"title": "X", "author": "Y", "isbn": "9780000000001", "copies": 1,
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestAdjustInventory(t *testing.T) {
	env := newTestEnv(t)
	id := env.createItem(t, 3)

	w, resp := env.do(t, http.MethodPatch, "/api/v1/items/"+id+"/inventory", "staff", gin.H{"total_copies": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := resp.Data.(map[string]interface{})
	assert.EqualValues(t, 1, data["total_copies"])
	assert.EqualValues(t, 1, data["available_copies"])

	w, _ = env.do(t, http.MethodPatch, "/api/v1/items/"+id+"/inventory", "staff", gin.H{"total_copies": -2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPatch, "/api/v1/items/"+id+"/inventory", "staff", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPatch, "/api/v1/items/"+uuid.NewString()+"/inventory", "staff", gin.H{"total_copies": 2})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteItem(t *testing.T) {
	env := newTestEnv(t)
	id := env.createItem(t, 1)
	itemID := uuid.MustParse(id)

	loan, err := env.lending.IssueCopy(context.Background(), itemID, uuid.New(), time.Now().UTC())
	require.NoError(t, err)

	w, resp := env.do(t, http.MethodDelete, "/api/v1/items/"+id, "admin", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ITEM_HAS_ACTIVE_LOANS", resp.Error.Code)

	_, err = env.lending.ReturnCopy(context.Background(), loan.ID, time.Now().UTC())
	require.NoError(t, err)

	w, _ = env.do(t, http.MethodDelete, "/api/v1/items/"+id, "admin", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/v1/items/"+id, "borrower", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReadEndpoints(t *testing.T) {
	env := newTestEnv(t)
	id := env.createItem(t, 2)

	w, resp := env.do(t, http.MethodGet, "/api/v1/items?search=algorithms", "borrower", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 1, resp.Meta.Total)

	w, resp = env.do(t, http.MethodGet, "/api/v1/items/"+id+"/availability", "borrower", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, resp.Data.(map[string]interface{})["available_copies"])

	w, _ = env.do(t, http.MethodGet, "/api/v1/items/not-a-uuid", "borrower", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	title := "Introduction to Algorithms, 3rd Edition"
	w, resp = env.do(t, http.MethodPut, "/api/v1/items/"+id, "staff", gin.H{"title": title})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, title, resp.Data.(map[string]interface{})["title"])
}

func TestExportCatalog(t *testing.T) {
	env := newTestEnv(t)
	env.createItem(t, 1)

	w, _ := env.do(t, http.MethodGet, "/api/v1/items/export", "borrower", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/v1/items/export", "admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "catalog_")
	assert.NotZero(t, w.Body.Len())
}

func TestAvailabilityFollowsInventoryChanges(t *testing.T) {
	env := newTestEnv(t)
	id := env.createItem(t, 3)
	path := "/api/v1/items/" + id + "/availability"

	w, resp := env.do(t, http.MethodGet, path, "borrower", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, resp.Data.(map[string]interface{})["available_copies"])

	w, _ = env.do(t, http.MethodPatch, "/api/v1/items/"+id+"/inventory", "staff", gin.H{"total_copies": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = env.do(t, http.MethodGet, path, "borrower", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.EqualValues(t, 1, data["total_copies"])
	assert.EqualValues(t, 1, data["available_copies"])

	w, _ = env.do(t, http.MethodDelete, "/api/v1/items/"+id, "admin", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodGet, path, "borrower", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoql/internal/engine"
	"repoql/internal/ir"
	"repoql/internal/testutil"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	st := testutil.OpenStore(t)
	spec := ir.RepositorySpec{
		Name:   "UserRepository",
		Record: "User",
		Operations: []ir.OperationDecl{
			{Name: "find_by_name", Args: []ir.ArgSpec{{Name: "name", Type: ir.TypeString}}},
			{Name: "find_all_by_status", Args: []ir.ArgSpec{{Name: "status", Type: ir.TypeString}}},
			{Name: "find_all_by_status_in", Args: []ir.ArgSpec{{Name: "statuses", Type: ir.TypeString, Collection: true}}},
			{Name: "deactivate_by_status", Modifying: true,
				Template: "UPDATE users SET status = 'inactive' WHERE status = {status}",
				Args:     []ir.ArgSpec{{Name: "status", Type: ir.TypeString}}},
		},
	}
	repo, err := engine.Register(context.Background(), st, spec, testutil.UserRecord(), hclog.NewNullLogger())
	require.NoError(t, err)
	testutil.SeedUsers(t, st)
	return NewServer([]*engine.Repository{repo}, hclog.NewNullLogger()).Router()
}

func do(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	router := testRouter(t)

	rec, body := do(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestList(t *testing.T) {
	router := testRouter(t)

	rec, body := do(t, router, http.MethodGet, "/api/UserRepository", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["records"], 5)
}

func TestGet(t *testing.T) {
	router := testRouter(t)

	rec, body := do(t, router, http.MethodGet, "/api/UserRepository/u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	record := body["record"].(map[string]any)
	assert.Equal(t, "John Doe", record["name"])

	rec, body = do(t, router, http.MethodGet, "/api/UserRepository/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["error"], "not found")
}

func TestCreate(t *testing.T) {
	router := testRouter(t)

	rec, body := do(t, router, http.MethodPost, "/api/UserRepository",
		map[string]any{"name": "Dora New", "status": "active"})
	require.Equal(t, http.StatusCreated, rec.Code)
	record := body["record"].(map[string]any)
	assert.NotEmpty(t, record["id"])
	assert.Equal(t, "Dora New", record["name"])
}

func TestCreate_BadBody(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/UserRepository", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdate(t *testing.T) {
	router := testRouter(t)

	rec, body := do(t, router, http.MethodPut, "/api/UserRepository/u1",
		map[string]any{"name": "John Renamed"})
	require.Equal(t, http.StatusOK, rec.Code)
	record := body["record"].(map[string]any)
	assert.Equal(t, "u1", record["id"])
	assert.Equal(t, "John Renamed", record["name"])

	rec, body = do(t, router, http.MethodGet, "/api/UserRepository/u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "John Renamed", body["record"].(map[string]any)["name"])
}

func TestUpdate_EmptyBody(t *testing.T) {
	router := testRouter(t)

	rec, body := do(t, router, http.MethodPut, "/api/UserRepository/u1", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "at least one field")

	// The row is untouched.
	rec, body = do(t, router, http.MethodGet, "/api/UserRepository/u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "John Doe", body["record"].(map[string]any)["name"])
}

func TestDelete(t *testing.T) {
	router := testRouter(t)

	rec, _ := do(t, router, http.MethodDelete, "/api/UserRepository/u5", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = do(t, router, http.MethodDelete, "/api/UserRepository/u5", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch_Many(t *testing.T) {
	router := testRouter(t)

	rec, body := do(t, router, http.MethodPost, "/api/UserRepository/search/find_all_by_status",
		map[string]any{"status": "active"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["records"], 3)
}

func TestSearch_Collection(t *testing.T) {
	router := testRouter(t)

	rec, body := do(t, router, http.MethodPost, "/api/UserRepository/search/find_all_by_status_in",
		map[string]any{"statuses": []string{"inactive", "pending"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["records"], 2)
}

func TestSearch_OneOrNone(t *testing.T) {
	router := testRouter(t)

	rec, body := do(t, router, http.MethodPost, "/api/UserRepository/search/find_by_name",
		map[string]any{"name": "Jane Smith"})
	require.Equal(t, http.StatusOK, rec.Code)
	record := body["record"].(map[string]any)
	assert.Equal(t, "u2", record["id"])

	// Absence is a successful outcome: 200 with a null record.
	rec, body = do(t, router, http.MethodPost, "/api/UserRepository/search/find_by_name",
		map[string]any{"name": "Nobody"})
	require.Equal(t, http.StatusOK, rec.Code)
	value, present := body["record"]
	assert.True(t, present)
	assert.Nil(t, value)
}

func TestSearch_Modifying(t *testing.T) {
	router := testRouter(t)

	rec, body := do(t, router, http.MethodPost, "/api/UserRepository/search/deactivate_by_status",
		map[string]any{"status": "active"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), body["rows_affected"])

	rec, body = do(t, router, http.MethodPost, "/api/UserRepository/search/find_all_by_status",
		map[string]any{"status": "inactive"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["records"], 4)
}

func TestSearch_UnknownOperation(t *testing.T) {
	router := testRouter(t)

	rec, body := do(t, router, http.MethodPost, "/api/UserRepository/search/find_by_nickname",
		map[string]any{"nickname": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["error"], "unknown or skipped operation")
}

func TestSearch_BadArguments(t *testing.T) {
	router := testRouter(t)

	rec, _ := do(t, router, http.MethodPost, "/api/UserRepository/search/find_by_name",
		map[string]any{"name": "Jane Smith", "extra": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRepository(t *testing.T) {
	router := testRouter(t)

	rec, body := do(t, router, http.MethodGet, "/api/OrderRepository", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["error"], "unknown repository")
}

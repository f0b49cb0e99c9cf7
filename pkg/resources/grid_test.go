package resources

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaflow/console/pkg/contextkeys"
	"github.com/novaflow/console/pkg/observability"
	"github.com/novaflow/console/pkg/session"
	"github.com/novaflow/console/pkg/upstream"
)

type fakeGridPlatform struct {
	mu       sync.Mutex
	rows     []upstream.RolePagePermission
	denyGet  bool
	denySave bool
}

func (f *fakeGridPlatform) handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/role-page-permissions/page/{id}", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch req.Method {
		case http.MethodGet:
			if f.denyGet {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			json.NewEncoder(w).Encode(f.rows)
		case http.MethodPut:
			if f.denySave {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			var rows []upstream.RolePagePermission
			json.NewDecoder(req.Body).Decode(&rows)
			f.rows = rows
			w.WriteHeader(http.StatusOK)
		}
	})
	return r
}

func newGridFixture(t *testing.T) (*fakeGridPlatform, *mux.Router) {
	t.Helper()
	platform := &fakeGridPlatform{}
	srv := httptest.NewServer(platform.handler())
	t.Cleanup(srv.Close)

	base, err := upstream.NewClient(srv.URL, 5*time.Second, nil)
	require.NoError(t, err)
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	handler := NewGridHandler(upstream.NewPermissionGridClient(base), logger, nil)

	router := mux.NewRouter()
	router.HandleFunc("/api/permissions/page/{pageId}", handler.GetForPage).Methods(http.MethodGet)
	router.HandleFunc("/api/permissions/page/{pageId}", handler.ReplaceForPage).Methods(http.MethodPut)
	return platform, router
}

func gridRequest(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	sess := &session.Session{
		ID:            "sess-1",
		Email:         "ops@novaflow.local",
		ExpiresAt:     time.Now().Add(time.Hour),
		UpstreamToken: "platform-token",
	}
	return req.WithContext(contextkeys.WithSession(req.Context(), sess))
}

func TestGridHandler_ReplaceThenReload(t *testing.T) {
	platform, router := newGridFixture(t)

	body := `[{"pageId":5,"roleName":"OPERATOR","permissionTypeId":1,"isGranted":true}]`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, gridRequest(http.MethodPut, "/api/permissions/page/5", body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ListResponse[upstream.RolePagePermission]
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "OPERATOR", resp.Items[0].RoleName)
	assert.Len(t, platform.rows, 1)
}

func TestGridHandler_RowForWrongPageRejected(t *testing.T) {
	platform, router := newGridFixture(t)

	body := `[{"pageId":9,"roleName":"OPERATOR","permissionTypeId":1,"isGranted":true}]`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, gridRequest(http.MethodPut, "/api/permissions/page/5", body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, platform.rows)
}

func TestGridHandler_DeniedGetDegradesToEmpty(t *testing.T) {
	platform, router := newGridFixture(t)
	platform.denyGet = true

	w := httptest.NewRecorder()
	router.ServeHTTP(w, gridRequest(http.MethodGet, "/api/permissions/page/5", ""))
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListResponse[upstream.RolePagePermission]
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Empty(t, resp.Items)
}

func TestGridHandler_DeniedSaveIsSurfaced(t *testing.T) {
	platform, router := newGridFixture(t)
	platform.denySave = true

	body := `[{"pageId":5,"roleName":"OPERATOR","permissionTypeId":1,"isGranted":true}]`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, gridRequest(http.MethodPut, "/api/permissions/page/5", body))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

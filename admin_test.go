package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/folio/internal/store"
)

func TestHashIPIsStableAndTruncated(t *testing.T) {
	srv, _ := newTestServer(t)
	a := srv.admin.hashIP("203.0.113.7")
	assert.Len(t, a, 16)
	assert.Equal(t, a, srv.admin.hashIP("203.0.113.7"))
	assert.NotEqual(t, a, srv.admin.hashIP("203.0.113.8"))
	assert.NotContains(t, a, "203")
}

func TestVisitorTracking(t *testing.T) {
	srv, _ := newTestServer(t)
	r := srv.router()

	do(t, r, httptest.NewRequest(http.MethodGet, "/", nil))
	do(t, r, httptest.NewRequest(http.MethodGet, "/projects", nil))

	dnt := httptest.NewRequest(http.MethodGet, "/about", nil)
	dnt.Header.Set("DNT", "1")
	do(t, r, dnt)
	do(t, r, htmxGet("/skills"))
	do(t, r, httptest.NewRequest(http.MethodGet, "/privacy", nil))
	do(t, r, httptest.NewRequest(http.MethodGet, "/nope", nil))

	visits, err := srv.store.RecentVisitors(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, visits, 2)
	paths := []string{visits[0].Path, visits[1].Path}
	assert.ElementsMatch(t, []string{"/", "/projects"}, paths)
	assert.Equal(t, srv.admin.hashIP("192.0.2.1"), visits[0].HashedIP)
}

func TestAdminRequiresLogin(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv.router(), httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/login", w.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: adminCookie, Value: "forged"})
	w = do(t, srv.router(), req)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestAdminLogin(t *testing.T) {
	srv, _ := newTestServer(t)
	r := srv.router()

	w := do(t, r, postForm("/admin/login", url.Values{"username": {"owner"}, "password": {"wrong"}}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")

	w = do(t, r, postForm("/admin/login", url.Values{"username": {"owner"}, "password": {"correct horse"}}))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/dashboard", w.Header().Get("Location"))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, adminCookie, cookies[0].Name)
	assert.Equal(t, srv.admin.token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func adminGet(srv *server, target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.AddCookie(&http.Cookie{Name: adminCookie, Value: srv.admin.token})
	return req
}

func TestAdminDashboardAndStats(t *testing.T) {
	srv, _ := newTestServer(t)
	r := srv.router()
	ctx := context.Background()

	require.NoError(t, srv.store.RecordVisit(ctx, store.Visit{HashedIP: "aaaa", Path: "/", At: testNow.Add(-time.Hour)}))
	require.NoError(t, srv.store.RecordSubmission(ctx, store.Submission{
		ID: "s1", Name: "Ada", Email: "ada@example.com", Subject: "Hello",
		SentVia: "emailjs", Status: store.StatusFailed, Error: "status 500", CreatedAt: testNow,
	}))

	w := do(t, r, adminGet(srv, "/admin/dashboard"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Contact messages")
	assert.Contains(t, w.Body.String(), "Hello")

	w = do(t, r, adminGet(srv, "/admin/api/stats"))
	require.Equal(t, http.StatusOK, w.Code)
	var stats store.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 1, stats.TotalVisitors)
	assert.EqualValues(t, 1, stats.FailedSubmissions)

	w = do(t, r, adminGet(srv, "/admin/export/stats"))
	assert.Equal(t, "attachment; filename=admin-stats.json", w.Header().Get("Content-Disposition"))

	w = do(t, r, adminGet(srv, "/admin/submissions"))
	assert.Contains(t, w.Body.String(), "status 500")
}

func TestPrivacyCleanupPurgesOldVisits(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, srv.store.RecordVisit(ctx, store.Visit{HashedIP: "old", Path: "/", At: testNow.AddDate(-2, 0, 0)}))
	require.NoError(t, srv.store.RecordVisit(ctx, store.Visit{HashedIP: "new", Path: "/", At: testNow.Add(-time.Hour)}))

	req := httptest.NewRequest(http.MethodPost, "/admin/privacy/delete-visitor-data", nil)
	req.AddCookie(&http.Cookie{Name: adminCookie, Value: srv.admin.token})
	w := do(t, srv.router(), req)
	require.Equal(t, http.StatusOK, w.Code)

	visits, err := srv.store.RecentVisitors(ctx, 10)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, "new", visits[0].HashedIP)
}

func TestRetentionLoopStopsWithContext(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.retentionLoop(ctx, time.Hour)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("retention loop did not stop")
	}
}

package http

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driverlog/internal/core"
	"driverlog/internal/ledger/memory"
	"driverlog/internal/photostore/local"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	photos, err := local.NewLocalPhotoStore(t.TempDir())
	require.NoError(t, err)
	srv := NewServer(":0", store, store, store, photos)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, store
}

func postForm(srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestIndexAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Driver Log")

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}

func TestCreateStandardRecord(t *testing.T) {
	srv, store := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/records", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = postForm(srv, "/records", url.Values{
		"date": {"2024-02-10"}, "mode": {"NORMAL"},
		"parcels": {"100"}, "collections": {"20"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, "missing route id")

	rr = postForm(srv, "/records", url.Values{
		"date": {"not-a-date"}, "mode": {"NORMAL"}, "route_id": {"dx1"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, "invalid date")

	rr = postForm(srv, "/records", url.Values{
		"date": {"2024-02-10"}, "mode": {"NORMAL"}, "route_id": {"dx1"},
		"parcels": {"100"}, "collections": {"20"},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Header().Get("HX-Trigger"), "record:created")

	records, err := store.ListRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	std, ok := records[0].(core.StandardRecord)
	require.True(t, ok)
	assert.Equal(t, "DX1", std.RouteID)
	assert.Equal(t, int64(11600), std.Total.Cents)
}

func TestCreateDailyRateRecord(t *testing.T) {
	srv, store := newTestServer(t)

	rr := postForm(srv, "/records", url.Values{
		"date": {"2024-02-15"}, "mode": {"DAILY"},
		"route_id_1": {"ab1"}, "route_id_2": {"cd2"}, "parcels": {"200"},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	records, err := store.ListRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	daily, ok := records[0].(core.DailyRateRecord)
	require.True(t, ok)
	assert.Equal(t, []string{"AB1", "CD2"}, daily.RouteIDs)
	assert.Equal(t, int64(30000), daily.Total.Cents)
	assert.Equal(t, core.Tier150To250, daily.TierLabel)
}

func TestCreateRecordWithPhoto(t *testing.T) {
	srv, store := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("date", "2024-02-10"))
	require.NoError(t, mw.WriteField("mode", "NORMAL"))
	require.NoError(t, mw.WriteField("route_id", "DX1"))
	require.NoError(t, mw.WriteField("parcels", "50"))
	part, err := mw.CreateFormFile("photos", "receipt.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake jpeg data"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/records", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	srv.Handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	records, err := store.ListRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].Meta().PhotoKeys, 1)

	photoRR := httptest.NewRecorder()
	srv.Handler.ServeHTTP(photoRR, httptest.NewRequest(http.MethodGet, "/photos/"+records[0].Meta().PhotoKeys[0], nil))
	assert.Equal(t, http.StatusOK, photoRR.Code)
	assert.Equal(t, "image/jpeg", photoRR.Header().Get("Content-Type"))
	assert.Equal(t, "fake jpeg data", photoRR.Body.String())
}

func TestDeleteRecord(t *testing.T) {
	srv, store := newTestServer(t)

	rec, err := core.NewStandardRecord("42", mustDate(t, "2024-02-10"), "DX1", 10, 0, nil, time.Now())
	require.NoError(t, err)
	_, err = store.Append(context.Background(), rec)
	require.NoError(t, err)

	rr := postForm(srv, "/records/delete", url.Values{})
	assert.Equal(t, http.StatusBadRequest, rr.Code, "missing id")

	rr = postForm(srv, "/records/delete", url.Values{"id": {"42"}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("HX-Trigger"), "record:deleted")

	records, err := store.ListRecords(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExportCSV(t *testing.T) {
	srv, store := newTestServer(t)

	rec, err := core.NewStandardRecord("1", mustDate(t, "2024-02-10"), "DX1", 100, 20, nil, time.Now())
	require.NoError(t, err)
	_, err = store.Append(context.Background(), rec)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/export.csv", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "driver_log_")
	assert.Contains(t, rr.Body.String(), "Date,Mode,RouteIds,ParcelCount,CollectionCount,TotalValue")
	assert.Contains(t, rr.Body.String(), `2024-02-10,NORMAL,"DX1",100,20,116.00`)
}

func TestDashboardAndHistoryPartials(t *testing.T) {
	srv, store := newTestServer(t)

	now := time.Now()
	rec, err := core.NewStandardRecord("1", core.NewDate(now.Year(), int(now.Month()), 10), "DX1", 100, 20, nil, now)
	require.NoError(t, err)
	_, err = store.Append(context.Background(), rec)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ui/dashboard", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Total earned")
	assert.Contains(t, rr.Body.String(), "R$ 116,00")

	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ui/history", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), rec.Date.MonthKey())

	// Mode filter that matches nothing.
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ui/history?mode=DAILY", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No records match")
}

func TestPhotoNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/photos/nope.jpg", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPhotoStoreUnavailable(t *testing.T) {
	store := memory.New()
	srv := NewServer(":0", store, store, store, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/photos/some.jpg", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	require.NoError(t, err)
	return d
}

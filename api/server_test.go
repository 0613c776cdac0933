package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accordlabs/checkin/config"
	"github.com/accordlabs/checkin/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.New(t.TempDir(), nil, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{
		ServerHost:          "127.0.0.1",
		ServerPort:          0,
		SimilarityThreshold: 0.7,
		MaxCandidates:       10,
		MinQueryLength:      3,
		MinPhoneQueryLength: 2,
	}
	s, err := NewServer(cfg, st, nil)
	require.NoError(t, err)
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func uploadRoster(t *testing.T, s *Server, csvBody string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "attendees.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csvBody))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

const testRoster = `Name,Phone
Ahmed Ali,5551
Sara Ahmed,5552
Mostafa Hassan,5553
Omar Khalid,5554
`

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestUploadRoster(t *testing.T) {
	s := newTestServer(t)

	rec := uploadRoster(t, s, testRoster)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4), decode(t, rec)["count"])

	rec = doJSON(t, s, http.MethodGet, "/api/attendees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4), decode(t, rec)["count"])
}

func TestUploadRosterRejectsBadFormat(t *testing.T) {
	s := newTestServer(t)

	rec := uploadRoster(t, s, "Name,Phone\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchAttendees(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, uploadRoster(t, s, testRoster).Code)

	rec := doJSON(t, s, http.MethodGet, "/api/attendees/search?q=mustafa", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	require.Equal(t, float64(1), body["count"])
	match := body["matches"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Mostafa Hassan", match["name"])
	assert.Equal(t, false, match["registered"])
}

func TestSearchReflectsRegistration(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, uploadRoster(t, s, testRoster).Code)

	rec := doJSON(t, s, http.MethodPost, "/api/register", map[string]string{"name": "Mostafa Hassan"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/attendees/search?q=mostafa", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	match := decode(t, rec)["matches"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, true, match["registered"])
}

func TestRegisterFlow(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, uploadRoster(t, s, testRoster).Code)

	rec := doJSON(t, s, http.MethodPost, "/api/register", map[string]string{"name": "ahmed ali"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "registered", body["status"])

	// Second attempt conflicts.
	rec = doJSON(t, s, http.MethodPost, "/api/register", map[string]string{"name": "Ahmed Ali"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown names are rejected.
	rec = doJSON(t, s, http.MethodPost, "/api/register", map[string]string{"name": "John Smith"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Missing name is a bad request.
	rec = doJSON(t, s, http.MethodPost, "/api/register", map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterAmbiguousNamesakes(t *testing.T) {
	s := newTestServer(t)
	roster := "Name,Phone\nAhmed Ali,5551\nAhmed Ali,5559\n"
	require.Equal(t, http.StatusOK, uploadRoster(t, s, roster).Code)

	rec := doJSON(t, s, http.MethodPost, "/api/register", map[string]string{"name": "Ahmed Ali"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "ambiguous", body["status"])
	require.Len(t, body["candidates"], 2)

	rec = doJSON(t, s, http.MethodPost, "/api/register/select", map[string]string{"name": "Ahmed Ali", "phone": "5559"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "registered", decode(t, rec)["status"])
}

func TestWalkIn(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/walkin", map[string]string{"name": "Guest One", "phone": "9999"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/walkin", map[string]string{"name": "Guest Two"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsAndReport(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, uploadRoster(t, s, testRoster).Code)

	doJSON(t, s, http.MethodPost, "/api/register", map[string]string{"name": "Ahmed Ali"})
	doJSON(t, s, http.MethodPost, "/api/walkin", map[string]string{"name": "Guest One", "phone": "9999"})

	rec := doJSON(t, s, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["total"])
	assert.Equal(t, float64(1), stats["official"])
	assert.Equal(t, float64(1), stats["walk_in"])
	assert.Equal(t, float64(4), body["roster_total"])

	rec = doJSON(t, s, http.MethodGet, "/api/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Ahmed Ali")
	assert.Contains(t, rec.Body.String(), "Walk-in")
}

func TestBatchPrintBadges(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, uploadRoster(t, s, testRoster).Code)

	doJSON(t, s, http.MethodPost, "/api/register", map[string]string{"name": "Ahmed Ali"})
	doJSON(t, s, http.MethodPost, "/api/walkin", map[string]string{"name": "Guest One", "phone": "9999"})

	rec := doJSON(t, s, http.MethodPost, "/api/print/badges", map[string]string{"filter": "official"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(1), body["count"])
	assert.Contains(t, body["document"], "Ahmed Ali")

	// The official badge is now issued; only the walk-in remains.
	rec = doJSON(t, s, http.MethodPost, "/api/print/badges", map[string]string{"filter": "all"})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, float64(1), body["count"])
	assert.Contains(t, body["document"], "Guest One")

	// Nothing left to print.
	rec = doJSON(t, s, http.MethodPost, "/api/print/badges", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["count"])
}

func TestSinglePrint(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, uploadRoster(t, s, testRoster).Code)

	rec := doJSON(t, s, http.MethodPost, "/api/register", map[string]string{"name": "Ahmed Ali"})
	require.Equal(t, http.StatusOK, rec.Code)
	reg := decode(t, rec)["registration"].(map[string]interface{})
	id := reg["id"].(string)

	rec = doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/certificates/%s/print", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec)["document"], "Ahmed Ali")

	rec = doJSON(t, s, http.MethodPost, "/api/badges/nope/print", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegistrationsSearch(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, uploadRoster(t, s, testRoster).Code)

	doJSON(t, s, http.MethodPost, "/api/register", map[string]string{"name": "Ahmed Ali"})
	doJSON(t, s, http.MethodPost, "/api/walkin", map[string]string{"name": "Guest One", "phone": "9999"})

	rec := doJSON(t, s, http.MethodGet, "/api/registrations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decode(t, rec)["count"])

	rec = doJSON(t, s, http.MethodGet, "/api/registrations?q=ahmed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["count"])
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	payload := map[string]interface{}{
		"event_name":       "Accord Summit",
		"auto_print_badges": true,
	}
	rec = doJSON(t, s, http.MethodPut, "/api/settings", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Accord Summit", body["event_name"])
	assert.Equal(t, true, body["auto_print_badges"])
}

func TestSettingsQuota(t *testing.T) {
	st, err := store.New(t.TempDir(), nil, 16)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{MaxCandidates: 10, SimilarityThreshold: 0.7, MinQueryLength: 3, MinPhoneQueryLength: 2}
	s, err := NewServer(cfg, st, nil)
	require.NoError(t, err)

	payload := map[string]interface{}{
		"badge_template": strings.Repeat("x", 64),
	}
	rec := doJSON(t, s, http.MethodPut, "/api/settings", payload)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestReset(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, uploadRoster(t, s, testRoster).Code)
	doJSON(t, s, http.MethodPost, "/api/register", map[string]string{"name": "Ahmed Ali"})

	rec := doJSON(t, s, http.MethodPost, "/api/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/attendees", nil)
	assert.Equal(t, float64(0), decode(t, rec)["count"])

	rec = doJSON(t, s, http.MethodGet, "/api/registrations", nil)
	assert.Equal(t, float64(0), decode(t, rec)["count"])
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwrk-planet/presence-relay/internal/domain"
	"github.com/cwrk-planet/presence-relay/internal/transport/ws"

	"github.com/stretchr/testify/require"
)

type stubLister struct {
	ps  []domain.Participant
	err error
}

func (s stubLister) Participants(context.Context) ([]domain.Participant, error) {
	return s.ps, s.err
}

func newTestRouter(lister ParticipantLister, opts RouterOptions) http.Handler {
	return NewRouter(NewHandler(lister), ws.NewServer(ws.NewHub(), nil, ws.Options{}), opts)
}

func TestRouter_Health(t *testing.T) {
	req := require.New(t)
	rec := httptest.NewRecorder()

	newTestRouter(stubLister{}, RouterOptions{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	req.Equal(http.StatusOK, rec.Code)
	req.Equal("ok", rec.Body.String())
}

func TestRouter_ListParticipants(t *testing.T) {
	req := require.New(t)
	joined := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	lister := stubLister{ps: []domain.Participant{
		{ChannelID: "c1", DisplayName: "Alice", Status: domain.StatusOnline, JoinedAt: joined},
		{ChannelID: "c2", DisplayName: "Bob", Status: domain.StatusOnline, JoinedAt: joined},
	}}
	rec := httptest.NewRecorder()

	newTestRouter(lister, RouterOptions{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/participants", nil))

	req.Equal(http.StatusOK, rec.Code)
	var resp ParticipantsResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	req.Equal(2, resp.Count)
	req.Equal("Alice", resp.Items[0].Name)
	req.Equal("online", resp.Items[0].Status)
	req.True(joined.Equal(resp.Items[1].JoinedAt))
}

func TestRouter_ListParticipantsEmpty(t *testing.T) {
	rec := httptest.NewRecorder()

	newTestRouter(stubLister{}, RouterOptions{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/participants", nil))

	require.JSONEq(t, `{"items":[],"count":0}`, rec.Body.String())
}

func TestRouter_ListParticipantsRelayDown(t *testing.T) {
	rec := httptest.NewRecorder()

	newTestRouter(stubLister{err: errors.New("relay stopped")}, RouterOptions{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/participants", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_StaticSite(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	req.NoError(os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>chat</h1>"), 0o644))
	router := newTestRouter(stubLister{}, RouterOptions{StaticDir: dir})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	req.Equal(http.StatusOK, rec.Code)
	req.Contains(rec.Body.String(), "<h1>chat</h1>")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing.css", nil))
	req.Equal(http.StatusNotFound, rec.Code)
}

func TestRouter_NoStaticDir(t *testing.T) {
	rec := httptest.NewRecorder()

	newTestRouter(stubLister{}, RouterOptions{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_CORS(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/participants", nil)
	r.Header.Set("Origin", "http://192.168.1.20:8080")
	rec := httptest.NewRecorder()

	newTestRouter(stubLister{}, RouterOptions{}).ServeHTTP(rec, r)

	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

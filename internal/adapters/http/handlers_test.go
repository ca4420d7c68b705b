package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dkeye/voicebridge/internal/app"
	"github.com/dkeye/voicebridge/internal/app/orch"
	"github.com/dkeye/voicebridge/internal/config"
	"github.com/dkeye/voicebridge/internal/core/mocks"
	"github.com/dkeye/voicebridge/internal/domain"
)

type stubWebhooks struct {
	err   error
	calls int
}

func (s *stubWebhooks) HandleWebhook(*http.Request) error {
	s.calls++
	return s.err
}

type testServer struct {
	rtc      *mocks.MockRTCService
	orch     *orch.Orchestrator
	webhooks *stubWebhooks
	router   *gin.Engine
	seq      int
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Mode:               "test",
		Port:               5000,
		StaticPath:         t.TempDir(),
		Secret:             "test-secret",
		AccountID:          "9900001",
		PhoneNumber:        "+19195551234",
		SipURI:             "sip:voicebridge.sip.livekit.cloud",
		IncomingCallLimit:  0,
		IncomingCallWindow: time.Minute,
	}
}

func newTestServer(t *testing.T, cfg *config.Config, policy app.Policy) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	ts := &testServer{rtc: mocks.NewMockRTCService(ctrl), webhooks: &stubWebhooks{}}
	ts.orch = orch.New(ts.rtc, policy, nil, time.Second)

	ts.rtc.EXPECT().ConnectURL().Return("wss://rtc.example.com").AnyTimes()
	ts.router = SetupRouter(context.Background(), cfg, ts.orch, ts.webhooks, nil)
	return ts
}

// expectParticipants makes the vendor mint participants p1, p2, ...
func (ts *testServer) expectParticipants() {
	ts.rtc.EXPECT().CreateParticipant(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ domain.ConferenceID, tag string, kind domain.ParticipantKind) (*domain.Participant, error) {
			ts.seq++
			id := domain.ParticipantID("p" + string(rune('0'+ts.seq)))
			return &domain.Participant{ID: id, Tag: tag, Kind: kind, Token: "jwt-" + string(id), CreatedAt: time.Now()}, nil
		}).AnyTimes()
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func incomingCall(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/incomingCall", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeInfo(t *testing.T, w *httptest.ResponseRecorder) ConnectionInfoResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var info ConnectionInfoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	return info
}

func TestConnectionInfoReusesConference(t *testing.T) {
	ts := newTestServer(t, testConfig(t), app.SimplePolicy{})
	ts.expectParticipants()
	ts.rtc.EXPECT().CreateSession(gomock.Any()).Return(domain.ConferenceID("conf-1"), nil).Times(1)
	ts.rtc.EXPECT().SessionExists(gomock.Any(), domain.ConferenceID("conf-1")).Return(true, nil)

	first := decodeInfo(t, ts.do(httptest.NewRequest(http.MethodGet, "/connectionInfo", nil)))
	second := decodeInfo(t, ts.do(httptest.NewRequest(http.MethodGet, "/connectionInfo", nil)))

	assert.Equal(t, domain.ConferenceID("conf-1"), first.ConferenceID)
	assert.Equal(t, first.ConferenceID, second.ConferenceID)
	assert.NotEqual(t, first.ParticipantID, second.ParticipantID)
	assert.Equal(t, "jwt-"+string(first.ParticipantID), first.Token)
	assert.Equal(t, "wss://rtc.example.com", first.URL)
	assert.Equal(t, "+19195551234", first.PhoneNumber)
	assert.Equal(t, "+19195551234", first.VoiceApplicationPhoneNumber)
}

func TestConnectionInfoNewConferenceAfterValidationFailure(t *testing.T) {
	ts := newTestServer(t, testConfig(t), app.SimplePolicy{})
	ts.expectParticipants()
	gomock.InOrder(
		ts.rtc.EXPECT().CreateSession(gomock.Any()).Return(domain.ConferenceID("conf-1"), nil),
		ts.rtc.EXPECT().SessionExists(gomock.Any(), domain.ConferenceID("conf-1")).Return(false, errors.New("404 room not found")),
		ts.rtc.EXPECT().CreateSession(gomock.Any()).Return(domain.ConferenceID("conf-2"), nil),
	)

	first := decodeInfo(t, ts.do(httptest.NewRequest(http.MethodGet, "/connectionInfo", nil)))
	second := decodeInfo(t, ts.do(httptest.NewRequest(http.MethodGet, "/connectionInfo", nil)))
	assert.NotEqual(t, first.ConferenceID, second.ConferenceID)
	assert.Equal(t, 1, ts.orch.Registry.Count())
}

func TestConnectionInfoVendorFailure(t *testing.T) {
	ts := newTestServer(t, testConfig(t), app.SimplePolicy{})
	ts.rtc.EXPECT().CreateSession(gomock.Any()).Return(domain.ConferenceID(""), errors.New("401 unauthorized"))

	w := ts.do(httptest.NewRequest(http.MethodGet, "/connectionInfo", nil))
	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrTypeExternal, resp.Error.Type)
	assert.NotEmpty(t, resp.Error.RequestID)
}

func TestConnectionInfoTagsParticipantWithClientToken(t *testing.T) {
	ts := newTestServer(t, testConfig(t), app.SimplePolicy{})
	ts.expectParticipants()
	ts.rtc.EXPECT().CreateSession(gomock.Any()).Return(domain.ConferenceID("conf-1"), nil)
	ts.rtc.EXPECT().SessionExists(gomock.Any(), gomock.Any()).Return(true, nil).AnyTimes()

	w := ts.do(httptest.NewRequest(http.MethodGet, "/connectionInfo", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/connectionInfo", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	require.Equal(t, http.StatusOK, ts.do(req).Code)

	roster := ts.orch.Roster()
	require.Len(t, roster.Participants, 2)
	assert.NotEmpty(t, roster.Participants[0].Tag)
	assert.Equal(t, roster.Participants[0].Tag, roster.Participants[1].Tag)
}

func TestIncomingCallTransfers(t *testing.T) {
	ts := newTestServer(t, testConfig(t), app.SimplePolicy{})
	ts.expectParticipants()
	ts.rtc.EXPECT().CreateSession(gomock.Any()).Return(domain.ConferenceID("conf-1"), nil)

	w := ts.do(incomingCall(`{"callId":"c1","from":"+15555550123"}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/xml"))
	body := w.Body.String()
	assert.Contains(t, body, `<Transfer transferCallerId="p1">`)
	assert.Contains(t, body, `<SipUri uui="jwt-p1;encoding=jwt">sip:conf-1@voicebridge.sip.livekit.cloud</SipUri>`)

	p, ok := ts.orch.Registry.Get("p1")
	require.True(t, ok)
	assert.Equal(t, domain.KindPhone, p.Kind)
	assert.Equal(t, "+15555550123", p.Tag)
}

func TestIncomingCallBadJSON(t *testing.T) {
	ts := newTestServer(t, testConfig(t), app.SimplePolicy{})
	w := ts.do(incomingCall(`{"callId":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIncomingCallConferenceFull(t *testing.T) {
	ts := newTestServer(t, testConfig(t), app.CapacityPolicy{Max: 1})
	ts.expectParticipants()
	ts.rtc.EXPECT().CreateSession(gomock.Any()).Return(domain.ConferenceID("conf-1"), nil)
	ts.rtc.EXPECT().SessionExists(gomock.Any(), gomock.Any()).Return(true, nil).AnyTimes()

	require.Equal(t, http.StatusOK, ts.do(incomingCall(`{"callId":"c1","from":"+15555550123"}`)).Code)
	w := ts.do(incomingCall(`{"callId":"c2","from":"+15555550199"}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<SpeakSentence")
	assert.Contains(t, w.Body.String(), "<Hangup>")
	assert.NotContains(t, w.Body.String(), "<Transfer")
}

func TestIncomingCallVendorFailure(t *testing.T) {
	ts := newTestServer(t, testConfig(t), app.SimplePolicy{})
	ts.rtc.EXPECT().CreateSession(gomock.Any()).Return(domain.ConferenceID(""), errors.New("timeout"))

	w := ts.do(incomingCall(`{"callId":"c1","from":"+15555550123"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), unavailableMessage)
}

func TestIncomingCallRateLimited(t *testing.T) {
	cfg := testConfig(t)
	cfg.IncomingCallLimit = 1
	ts := newTestServer(t, cfg, app.SimplePolicy{})
	ts.expectParticipants()
	ts.rtc.EXPECT().CreateSession(gomock.Any()).Return(domain.ConferenceID("conf-1"), nil)

	require.Contains(t, ts.do(incomingCall(`{"callId":"c1","from":"+15555550123"}`)).Body.String(), "<Transfer")
	w := ts.do(incomingCall(`{"callId":"c2","from":"+15555550123"}`))
	assert.Contains(t, w.Body.String(), "<Response><Hangup></Hangup></Response>")
	assert.Equal(t, 1, ts.orch.Registry.Count())
}

func TestCallStatus(t *testing.T) {
	ts := newTestServer(t, testConfig(t), app.SimplePolicy{})
	req := httptest.NewRequest(http.MethodPost, "/callStatus",
		strings.NewReader(`{"eventType":"disconnect","callId":"c1","cause":"hangup"}`))
	req.Header.Set("Content-Type", "application/json")

	assert.Equal(t, http.StatusOK, ts.do(req).Code)
}

func TestRTCWebhook(t *testing.T) {
	ts := newTestServer(t, testConfig(t), app.SimplePolicy{})

	w := ts.do(httptest.NewRequest(http.MethodPost, "/webhooks/rtc", strings.NewReader("{}")))
	assert.Equal(t, http.StatusOK, w.Code)

	ts.webhooks.err = errors.New("bad signature")
	w = ts.do(httptest.NewRequest(http.MethodPost, "/webhooks/rtc", strings.NewReader("{}")))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 2, ts.webhooks.calls)
}

func TestRemoveParticipantRoute(t *testing.T) {
	ts := newTestServer(t, testConfig(t), app.SimplePolicy{})
	ts.expectParticipants()
	ts.rtc.EXPECT().CreateSession(gomock.Any()).Return(domain.ConferenceID("conf-1"), nil)
	ts.rtc.EXPECT().RemoveParticipant(gomock.Any(), domain.ConferenceID("conf-1"), domain.ParticipantID("p1")).Return(nil)

	require.Equal(t, http.StatusOK, ts.do(incomingCall(`{"callId":"c1","from":"+15555550123"}`)).Code)

	w := ts.do(httptest.NewRequest(http.MethodDelete, "/participants/p1", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(httptest.NewRequest(http.MethodDelete, "/participants/p1", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(httptest.NewRequest(http.MethodGet, "/conference", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var roster orch.Roster
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &roster))
	assert.Equal(t, domain.ConferenceID("conf-1"), roster.ConferenceID)
	assert.Empty(t, roster.Participants)
}

func TestHealthAndReadiness(t *testing.T) {
	ts := newTestServer(t, testConfig(t), app.SimplePolicy{})
	gomock.InOrder(
		ts.rtc.EXPECT().Connect(gomock.Any()).Return(nil),
		ts.rtc.EXPECT().Connect(gomock.Any()).Return(errors.New("down")),
	)

	assert.Equal(t, http.StatusOK, ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	assert.Equal(t, http.StatusOK, ts.do(httptest.NewRequest(http.MethodGet, "/readyz", nil)).Code)
	assert.Equal(t, http.StatusServiceUnavailable, ts.do(httptest.NewRequest(http.MethodGet, "/readyz", nil)).Code)
	assert.Equal(t, http.StatusOK, ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil)).Code)
}

func TestStaticFallbackToIndex(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.StaticPath, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.StaticPath, "app.js"), []byte("console.log(1)"), 0o644))
	ts := newTestServer(t, cfg, app.SimplePolicy{})

	w := ts.do(httptest.NewRequest(http.MethodGet, "/some/client/route", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<html>app</html>")

	w = ts.do(httptest.NewRequest(http.MethodGet, "/app.js", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "console.log(1)")

	w = ts.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, w.Body.String(), "<html>app</html>")

	w = ts.do(httptest.NewRequest(http.MethodPost, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

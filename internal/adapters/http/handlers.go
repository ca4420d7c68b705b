package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicebridge/internal/adapters/bxml"
	"github.com/dkeye/voicebridge/internal/app/orch"
	"github.com/dkeye/voicebridge/internal/config"
	"github.com/dkeye/voicebridge/internal/domain"
	"github.com/dkeye/voicebridge/internal/metrics"
)

const (
	conferenceFullMessage = "Sorry, the conference is full. Please try again later."
	unavailableMessage    = "Sorry, we could not connect your call. Please try again later."
)

// WebhookReceiver verifies and applies vendor webhooks.
type WebhookReceiver interface {
	HandleWebhook(r *http.Request) error
}

type ConnectionInfoResponse struct {
	ConferenceID                domain.ConferenceID  `json:"conferenceId"`
	ParticipantID               domain.ParticipantID `json:"participantId"`
	Token                       string               `json:"token"`
	URL                         string               `json:"url"`
	PhoneNumber                 string               `json:"phoneNumber"`
	VoiceApplicationPhoneNumber string               `json:"voiceApplicationPhoneNumber"`
}

type IncomingCallRequest struct {
	EventType string `json:"eventType"`
	CallID    string `json:"callId"`
	From      string `json:"from"`
	To        string `json:"to"`
}

type CallStatusRequest struct {
	EventType string `json:"eventType"`
	CallID    string `json:"callId"`
	Cause     string `json:"cause"`
	From      string `json:"from"`
	To        string `json:"to"`
}

type Handlers struct {
	cfg      *config.Config
	orch     *orch.Orchestrator
	webhooks WebhookReceiver
	limiter  *CallerRateLimiter
}

func NewHandlers(cfg *config.Config, o *orch.Orchestrator, webhooks WebhookReceiver) *Handlers {
	return &Handlers{
		cfg:      cfg,
		orch:     o,
		webhooks: webhooks,
		limiter:  NewCallerRateLimiter(cfg.IncomingCallLimit, cfg.IncomingCallWindow),
	}
}

// ConnectionInfo creates a browser participant in the shared conference.
func (h *Handlers) ConnectionInfo(c *gin.Context) {
	p, conf, err := h.orch.ConnectionInfo(c.Request.Context(), c.GetString(ClientTokenKey))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, ConnectionInfoResponse{
		ConferenceID:                conf,
		ParticipantID:               p.ID,
		Token:                       p.Token,
		URL:                         h.orch.RTC.ConnectURL(),
		PhoneNumber:                 h.cfg.PhoneNumber,
		VoiceApplicationPhoneNumber: h.cfg.PhoneNumber,
	})
}

// IncomingCall answers the Voice API with BXML transferring the caller into
// the conference. Failures are answered with BXML too, so the caller hears
// something instead of dead air.
func (h *Handlers) IncomingCall(c *gin.Context) {
	var req IncomingCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, ErrTypeValidation, "invalid incoming call payload")
		return
	}

	if !h.limiter.Allow(req.From) {
		metrics.IncomingCalls.WithLabelValues("rate_limited").Inc()
		log.Warn().Str("module", "adapters.http").Str("call", req.CallID).Str("from", req.From).Msg("incoming call rate limited")
		h.writeBXML(c, bxml.HangupOnly())
		return
	}

	p, conf, err := h.orch.IncomingCall(c.Request.Context(), req.CallID, req.From)
	switch {
	case errors.Is(err, domain.ErrConferenceFull):
		metrics.IncomingCalls.WithLabelValues("rejected").Inc()
		h.writeBXML(c, bxml.Reject(conferenceFullMessage))
		return
	case err != nil:
		metrics.IncomingCalls.WithLabelValues("failed").Inc()
		log.Error().Err(err).Str("module", "adapters.http").Str("call", req.CallID).Msg("incoming call")
		h.writeBXML(c, bxml.Reject(unavailableMessage))
		return
	}

	metrics.IncomingCalls.WithLabelValues("transferred").Inc()
	h.writeBXML(c, bxml.TransferToConference(h.cfg.SipURI, conf, p))
	log.Info().Str("module", "adapters.http").Str("call", req.CallID).Str("conference", string(conf)).
		Str("participant", string(p.ID)).Msg("transferring call to conference")
}

// CallStatus only logs; call state lives with the Voice API.
func (h *Handlers) CallStatus(c *gin.Context) {
	var req CallStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, ErrTypeValidation, "invalid call status payload")
		return
	}
	log.Info().Str("module", "adapters.http").
		Str("event", req.EventType).
		Str("call", req.CallID).
		Str("cause", req.Cause).
		Msg("call status")
	c.Status(http.StatusOK)
}

func (h *Handlers) RTCWebhook(c *gin.Context) {
	if err := h.webhooks.HandleWebhook(c.Request); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("rejected rtc webhook")
		writeError(c, http.StatusUnauthorized, ErrTypeAuthentication, "invalid webhook signature")
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handlers) RemoveParticipant(c *gin.Context) {
	id := domain.ParticipantID(c.Param("id"))
	if err := h.orch.RemoveParticipant(c.Request.Context(), id); err != nil {
		WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) Conference(c *gin.Context) {
	c.JSON(http.StatusOK, h.orch.Roster())
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Readyz checks that the vendor API still answers.
func (h *Handlers) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.orch.RTC.Connect(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, ErrTypeExternal, "rtc vendor unreachable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *Handlers) writeBXML(c *gin.Context, r bxml.Response) {
	body, err := bxml.Render(r)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("render bxml")
		writeError(c, http.StatusInternalServerError, ErrTypeInternal, "render bxml")
		return
	}
	c.Data(http.StatusOK, bxml.ContentType, body)
}

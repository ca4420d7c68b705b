package rtc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicebridge/internal/core"
	"github.com/dkeye/voicebridge/internal/domain"
)

// rooms empty for this long are closed by LiveKit
const roomEmptyTimeout = 10 * time.Minute

// LiveKit SIP gives inbound callers the identity sip_<caller number>.
const sipIdentityPrefix = "sip_"

// roomService is the subset of lksdk.RoomServiceClient the adapter uses.
type roomService interface {
	CreateRoom(ctx context.Context, req *livekit.CreateRoomRequest) (*livekit.Room, error)
	ListRooms(ctx context.Context, req *livekit.ListRoomsRequest) (*livekit.ListRoomsResponse, error)
	ListParticipants(ctx context.Context, req *livekit.ListParticipantsRequest) (*livekit.ListParticipantsResponse, error)
	RemoveParticipant(ctx context.Context, req *livekit.RoomParticipantIdentity) (*livekit.RemoveParticipantResponse, error)
	UpdateSubscriptions(ctx context.Context, req *livekit.UpdateSubscriptionsRequest) (*livekit.UpdateSubscriptionsResponse, error)
}

type Options struct {
	URL       string
	APIKey    string
	APISecret string
	AccountID string
	TokenTTL  time.Duration
}

// LiveKit implements core.RTCService on top of the LiveKit server API.
// Events arrive through signed webhooks, see HandleWebhook.
type LiveKit struct {
	opts  Options
	rooms roomService
	keys  auth.KeyProvider

	mu          sync.RWMutex
	onPublished core.PublishedHandler
	onJoined    core.ParticipantHandler
	onLeft      core.ParticipantHandler
	onEnded     core.SessionHandler
}

var _ core.RTCService = (*LiveKit)(nil)

func NewLiveKit(opts Options) *LiveKit {
	return newLiveKit(opts, lksdk.NewRoomServiceClient(opts.URL, opts.APIKey, opts.APISecret))
}

func newLiveKit(opts Options, rooms roomService) *LiveKit {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 6 * time.Hour
	}
	return &LiveKit{
		opts:  opts,
		rooms: rooms,
		keys:  auth.NewSimpleKeyProvider(opts.APIKey, opts.APISecret),
	}
}

func (l *LiveKit) Connect(ctx context.Context) error {
	if _, err := l.rooms.ListRooms(ctx, &livekit.ListRoomsRequest{}); err != nil {
		return fmt.Errorf("connect livekit %s: %w", l.opts.URL, err)
	}
	log.Info().Str("module", "adapters.rtc").Str("url", l.opts.URL).Msg("livekit connected")
	return nil
}

// ConnectURL returns the websocket URL clients use, derived from the API URL.
func (l *LiveKit) ConnectURL() string {
	u := l.opts.URL
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

func (l *LiveKit) CreateSession(ctx context.Context) (domain.ConferenceID, error) {
	name := l.opts.AccountID + "-" + uuid.NewString()
	room, err := l.rooms.CreateRoom(ctx, &livekit.CreateRoomRequest{
		Name:         name,
		EmptyTimeout: uint32(roomEmptyTimeout.Seconds()),
		Metadata:     l.opts.AccountID,
	})
	if err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}
	return domain.ConferenceID(room.GetName()), nil
}

func (l *LiveKit) SessionExists(ctx context.Context, id domain.ConferenceID) (bool, error) {
	resp, err := l.rooms.ListRooms(ctx, &livekit.ListRoomsRequest{Names: []string{string(id)}})
	if err != nil {
		return false, fmt.Errorf("list rooms: %w", err)
	}
	for _, r := range resp.GetRooms() {
		if r.GetName() == string(id) {
			return true, nil
		}
	}
	return false, nil
}

type participantMetadata struct {
	Tag       string `json:"tag"`
	Kind      string `json:"kind"`
	AccountID string `json:"accountId"`
}

// CreateParticipant mints an identity and a join token for it. LiveKit has
// no participant until the token is used, so nothing is sent to the server.
func (l *LiveKit) CreateParticipant(_ context.Context, conf domain.ConferenceID, tag string, kind domain.ParticipantKind) (*domain.Participant, error) {
	id := identityFor(tag, kind)

	meta, err := json.Marshal(participantMetadata{Tag: tag, Kind: string(kind), AccountID: l.opts.AccountID})
	if err != nil {
		return nil, fmt.Errorf("participant metadata: %w", err)
	}

	canPublish := true
	canSubscribe := true
	at := auth.NewAccessToken(l.opts.APIKey, l.opts.APISecret)
	at.SetVideoGrant(&auth.VideoGrant{
		RoomJoin:     true,
		Room:         string(conf),
		CanPublish:   &canPublish,
		CanSubscribe: &canSubscribe,
	}).
		SetIdentity(string(id)).
		SetName(tag).
		SetMetadata(string(meta)).
		SetValidFor(l.opts.TokenTTL)

	token, err := at.ToJWT()
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &domain.Participant{
		ID:        id,
		Tag:       tag,
		Kind:      kind,
		Token:     token,
		CreatedAt: time.Now(),
	}, nil
}

// identityFor picks the identity the participant will have in the room.
// Phone legs are created by LiveKit SIP, so their identity is the one SIP
// assigns; the registry then recognises the leg when its events arrive.
func identityFor(tag string, kind domain.ParticipantKind) domain.ParticipantID {
	if kind == domain.KindPhone && tag != "" {
		return domain.ParticipantID(sipIdentityPrefix + tag)
	}
	return domain.ParticipantID(string(kind) + "-" + uuid.NewString())
}

func (l *LiveKit) RemoveParticipant(ctx context.Context, conf domain.ConferenceID, id domain.ParticipantID) error {
	_, err := l.rooms.RemoveParticipant(ctx, &livekit.RoomParticipantIdentity{
		Room:     string(conf),
		Identity: string(id),
	})
	if err != nil {
		return fmt.Errorf("remove participant %s: %w", id, err)
	}
	return nil
}

func (l *LiveKit) ListParticipants(ctx context.Context, conf domain.ConferenceID) ([]domain.ParticipantID, error) {
	resp, err := l.rooms.ListParticipants(ctx, &livekit.ListParticipantsRequest{Room: string(conf)})
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	ids := make([]domain.ParticipantID, 0, len(resp.GetParticipants()))
	for _, p := range resp.GetParticipants() {
		ids = append(ids, domain.ParticipantID(p.GetIdentity()))
	}
	return ids, nil
}

func (l *LiveKit) Subscribe(ctx context.Context, conf domain.ConferenceID, subscriber domain.ParticipantID, stream domain.StreamID) error {
	_, err := l.rooms.UpdateSubscriptions(ctx, &livekit.UpdateSubscriptionsRequest{
		Room:      string(conf),
		Identity:  string(subscriber),
		TrackSids: []string{string(stream)},
		Subscribe: true,
	})
	if err != nil {
		return fmt.Errorf("update subscriptions: %w", err)
	}
	return nil
}

func (l *LiveKit) OnParticipantPublished(fn core.PublishedHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onPublished = fn
}

func (l *LiveKit) OnParticipantJoined(fn core.ParticipantHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onJoined = fn
}

func (l *LiveKit) OnParticipantLeft(fn core.ParticipantHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onLeft = fn
}

func (l *LiveKit) OnSessionEnded(fn core.SessionHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onEnded = fn
}

package rtc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicebridge/internal/client"
)

var ErrNotConnected = errors.New("endpoint not connected")

// Endpoint joins a LiveKit room the way the browser does. Subscriptions
// are driven by the server, so auto-subscribe is off.
type Endpoint struct {
	mic       Microphone
	recordDir string

	mu            sync.Mutex
	room          *lksdk.Room
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	onAvailable   func(client.RemoteStream)
	onUnavailable func(string)
}

var _ client.Endpoint = (*Endpoint)(nil)

// NewEndpoint returns an endpoint publishing mic. When recordDir is set,
// every remote track is written there as <track sid>.ogg.
func NewEndpoint(mic Microphone, recordDir string) *Endpoint {
	if mic == nil {
		mic = Silence{}
	}
	return &Endpoint{mic: mic, recordDir: recordDir}
}

func (e *Endpoint) OnStreamAvailable(fn func(client.RemoteStream)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onAvailable = fn
}

func (e *Endpoint) OnStreamUnavailable(fn func(string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onUnavailable = fn
}

func (e *Endpoint) Connect(_ context.Context, url, token string) error {
	cb := lksdk.NewRoomCallback()
	cb.ParticipantCallback.OnTrackSubscribed = e.trackSubscribed
	cb.ParticipantCallback.OnTrackUnsubscribed = e.trackUnsubscribed
	cb.OnDisconnected = func() {
		log.Info().Str("module", "adapters.rtc").Msg("room disconnected")
	}

	room, err := lksdk.ConnectToRoomWithToken(url, token, cb, lksdk.WithAutoSubscribe(false))
	if err != nil {
		return fmt.Errorf("join room: %w", err)
	}

	e.mu.Lock()
	e.room = room
	e.mu.Unlock()

	log.Info().Str("module", "adapters.rtc").Str("room", room.Name()).Str("identity", room.LocalParticipant.Identity()).Msg("joined room")
	return nil
}

func (e *Endpoint) Publish(ctx context.Context) error {
	e.mu.Lock()
	room := e.room
	e.mu.Unlock()
	if room == nil {
		return ErrNotConnected
	}

	track, err := lksdk.NewLocalSampleTrack(webrtc.RTPCodecCapability{
		MimeType:  webrtc.MimeTypeOpus,
		ClockRate: 48000,
		Channels:  2,
	})
	if err != nil {
		return fmt.Errorf("create track: %w", err)
	}
	if _, err := room.LocalParticipant.PublishTrack(track, &lksdk.TrackPublicationOptions{Name: "microphone"}); err != nil {
		return fmt.Errorf("publish track: %w", err)
	}

	// the microphone outlives the publish call
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.mic.Run(runCtx, track); err != nil {
			log.Error().Err(err).Str("module", "adapters.rtc").Msg("microphone stopped")
		}
	}()
	return nil
}

func (e *Endpoint) Close() error {
	e.mu.Lock()
	room, cancel := e.room, e.cancel
	e.room, e.cancel = nil, nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if room != nil {
		room.Disconnect()
	}
	e.wg.Wait()
	return nil
}

func (e *Endpoint) trackSubscribed(track *webrtc.TrackRemote, pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
	log.Info().Str("module", "adapters.rtc").Str("track", pub.SID()).Str("publisher", rp.Identity()).
		Str("codec", track.Codec().MimeType).Msg("remote track subscribed")

	e.mu.Lock()
	fn := e.onAvailable
	e.mu.Unlock()
	if fn != nil {
		fn(client.RemoteStream{ID: pub.SID(), Publisher: rp.Identity()})
	}

	if e.recordDir != "" && track.Kind() == webrtc.RTPCodecTypeAudio {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.record(track, pub.SID())
		}()
	}
}

func (e *Endpoint) trackUnsubscribed(_ *webrtc.TrackRemote, pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
	log.Info().Str("module", "adapters.rtc").Str("track", pub.SID()).Str("publisher", rp.Identity()).Msg("remote track unsubscribed")
	e.mu.Lock()
	fn := e.onUnavailable
	e.mu.Unlock()
	if fn != nil {
		fn(pub.SID())
	}
}

// record writes RTP from track into an Ogg file until the track ends.
func (e *Endpoint) record(track *webrtc.TrackRemote, sid string) {
	if err := os.MkdirAll(e.recordDir, 0o755); err != nil {
		log.Error().Err(err).Str("module", "adapters.rtc").Msg("create record dir")
		return
	}
	name := filepath.Join(e.recordDir, sid+".ogg")
	ogg, err := oggwriter.New(name, 48000, 2)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.rtc").Str("file", name).Msg("create ogg")
		return
	}
	defer ogg.Close()

	log.Info().Str("module", "adapters.rtc").Str("file", name).Msg("recording remote audio")
	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			log.Debug().Err(err).Str("module", "adapters.rtc").Str("track", sid).Msg("remote track ended")
			return
		}
		if err := ogg.WriteRTP(pkt); err != nil {
			log.Error().Err(err).Str("module", "adapters.rtc").Str("file", name).Msg("write ogg")
			return
		}
	}
}

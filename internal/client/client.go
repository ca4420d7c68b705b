// Package client models the browser side of the bridge: fetch connection
// info, connect to the RTC vendor, publish the microphone and play whatever
// remote stream the server subscribes us to.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

type Phase int

const (
	Uninitialized Phase = iota
	Connecting
	Connected
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

var (
	ErrAlreadyStarted = errors.New("client already started")
	ErrClosed         = errors.New("client closed while starting")
)

const (
	connectedPrompt  = "Hooray! You're connected!"
	fallbackNumber   = "your Voice API phone number"
	dialPromptFormat = "Dial %s to chat with this browser"
)

// ConnectionInfo is the body of GET /connectionInfo.
type ConnectionInfo struct {
	ConferenceID                string `json:"conferenceId"`
	ParticipantID               string `json:"participantId"`
	Token                       string `json:"token"`
	URL                         string `json:"url"`
	PhoneNumber                 string `json:"phoneNumber"`
	VoiceApplicationPhoneNumber string `json:"voiceApplicationPhoneNumber"`
}

// RemoteStream identifies media the vendor is delivering to us.
type RemoteStream struct {
	ID        string
	Publisher string
}

type InfoSource interface {
	ConnectionInfo(ctx context.Context) (*ConnectionInfo, error)
}

// Endpoint is the vendor client SDK as the model sees it.
type Endpoint interface {
	Connect(ctx context.Context, url, token string) error
	// Publish starts sending the local microphone.
	Publish(ctx context.Context) error
	OnStreamAvailable(fn func(RemoteStream))
	OnStreamUnavailable(fn func(streamID string))
	Close() error
}

type State struct {
	Phase  Phase
	Remote *RemoteStream
	Info   *ConnectionInfo
}

type Client struct {
	info     InfoSource
	endpoint Endpoint

	mu       sync.RWMutex
	starting bool
	// bumped by Close so an in-flight Start can tell it was cancelled
	generation uint64
	phase      Phase
	remote   *RemoteStream
	conn     *ConnectionInfo
	onChange func(State)
}

func New(info InfoSource, endpoint Endpoint) *Client {
	c := &Client{info: info, endpoint: endpoint}
	endpoint.OnStreamAvailable(c.streamAvailable)
	endpoint.OnStreamUnavailable(c.streamUnavailable)
	return c
}

// OnChange is called after every state transition.
func (c *Client) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Start runs the whole join flow. On failure the client is back to
// Uninitialized and may be started again.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != Uninitialized || c.starting {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.starting = true
	gen := c.generation
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
	}()

	info, err := c.info.ConnectionInfo(ctx)
	if err != nil {
		return fmt.Errorf("fetch connection info: %w", err)
	}
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return ErrClosed
	}
	c.conn = info
	c.phase = Connecting
	c.mu.Unlock()
	c.notify()

	if err := c.endpoint.Connect(ctx, info.URL, info.Token); err != nil {
		c.setPhase(Uninitialized)
		return fmt.Errorf("connect: %w", err)
	}
	log.Info().Str("module", "client").Str("participant", info.ParticipantID).Msg("connected to rtc")
	if c.closedSince(gen) {
		return ErrClosed
	}

	if err := c.endpoint.Publish(ctx); err != nil {
		_ = c.endpoint.Close()
		c.setPhase(Uninitialized)
		return fmt.Errorf("publish microphone: %w", err)
	}
	log.Info().Str("module", "client").Msg("microphone is streaming")

	c.mu.Lock()
	if c.generation != gen || c.phase != Connecting {
		c.mu.Unlock()
		_ = c.endpoint.Close()
		return ErrClosed
	}
	c.phase = Connected
	c.mu.Unlock()
	c.notify()
	return nil
}

// closedSince closes the endpoint again if Close ran after Start began;
// the endpoint may have connected after that Close.
func (c *Client) closedSince(gen uint64) bool {
	c.mu.RLock()
	closed := c.generation != gen
	c.mu.RUnlock()
	if closed {
		_ = c.endpoint.Close()
	}
	return closed
}

// Close tears the connection down and resets the model.
func (c *Client) Close() error {
	c.mu.Lock()
	c.generation++
	if c.phase == Uninitialized {
		c.mu.Unlock()
		return nil
	}
	c.phase = Uninitialized
	c.remote = nil
	c.mu.Unlock()

	err := c.endpoint.Close()
	c.notify()
	return err
}

func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stateLocked()
}

func (c *Client) Phase() Phase {
	return c.State().Phase
}

// Prompt is the line the page shows to the user.
func (c *Client) Prompt() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.remote != nil {
		return connectedPrompt
	}
	number := fallbackNumber
	if c.conn != nil {
		switch {
		case c.conn.VoiceApplicationPhoneNumber != "":
			number = c.conn.VoiceApplicationPhoneNumber
		case c.conn.PhoneNumber != "":
			number = c.conn.PhoneNumber
		}
	}
	return fmt.Sprintf(dialPromptFormat, number)
}

func (c *Client) streamAvailable(s RemoteStream) {
	log.Info().Str("module", "client").Str("stream", s.ID).Msg("receiving remote audio")
	c.mu.Lock()
	c.remote = &s
	c.mu.Unlock()
	c.notify()
}

func (c *Client) streamUnavailable(id string) {
	c.mu.Lock()
	if c.remote == nil || (id != "" && c.remote.ID != id) {
		c.mu.Unlock()
		return
	}
	c.remote = nil
	c.mu.Unlock()
	log.Info().Str("module", "client").Str("stream", id).Msg("no longer receiving remote audio")
	c.notify()
}

func (c *Client) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
	c.notify()
}

func (c *Client) notify() {
	c.mu.RLock()
	fn := c.onChange
	st := c.stateLocked()
	c.mu.RUnlock()
	if fn != nil {
		fn(st)
	}
}

func (c *Client) stateLocked() State {
	st := State{Phase: c.phase, Info: c.conn}
	if c.remote != nil {
		r := *c.remote
		st.Remote = &r
	}
	return st
}

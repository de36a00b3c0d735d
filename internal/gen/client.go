// Package gen talks to the music generation backend. The backend streams a
// generated loop over a websocket as base64 PCM chunks; the client collects
// whatever arrives and decodes it into a sample buffer.
package gen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oblinof/AI-Sampler-Sequencer/internal/audio"
	apperrors "github.com/oblinof/AI-Sampler-Sequencer/internal/errors"
)

// Timeout defaults: the backend gets InitialTimeout to produce its first
// chunk; once audio is flowing the session ends CollectWindow after the
// first chunk even if the backend never says done.
const (
	DefaultInitialTimeout = 30 * time.Second
	DefaultCollectWindow  = 12 * time.Second
)

// Config configures the generation client.
type Config struct {
	// URL is the websocket endpoint of the backend.
	URL string
	// InitialTimeout bounds the wait for the first audio chunk.
	InitialTimeout time.Duration
	// CollectWindow bounds the whole stream once the first chunk arrived.
	CollectWindow time.Duration
}

// Request is what the client sends to start a generation.
type Request struct {
	Prompt string  `json:"prompt"`
	BPM    float64 `json:"bpm"`
}

// Result is a finished generation. Partial marks sessions that ended on a
// timeout or backend error after some audio had already arrived.
type Result struct {
	Buffer  *audio.Buffer
	Chunks  int
	Partial bool
}

// message is one backend frame: audio, done or error.
type message struct {
	Type    string `json:"type"`
	Data    string `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Client is a websocket client for the generation backend.
type Client struct {
	cfg Config
}

// NewClient creates a client, filling in default timeouts.
func NewClient(cfg Config) *Client {
	if cfg.InitialTimeout <= 0 {
		cfg.InitialTimeout = DefaultInitialTimeout
	}
	if cfg.CollectWindow <= 0 {
		cfg.CollectWindow = DefaultCollectWindow
	}
	return &Client{cfg: cfg}
}

// Generate runs one generation session. Any audio at all counts as
// success: a session cut short by a timeout or a backend error still
// returns the chunks that made it, marked partial. A session that ends
// with zero chunks returns a GenerationError.
func (c *Client) Generate(ctx context.Context, prompt string, bpm float64) (*Result, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return nil, apperrors.NewGenerationError("connect", "backend unreachable", err)
	}

	// the connection is torn down exactly once, whichever path ends the
	// session first
	var closeOnce sync.Once
	closeConn := func() { closeOnce.Do(func() { conn.Close() }) }
	defer closeConn()

	if err := conn.WriteJSON(Request{Prompt: prompt, BPM: bpm}); err != nil {
		return nil, apperrors.NewGenerationError("connect", "request not accepted", err)
	}

	stop := make(chan struct{})
	defer close(stop)

	msgs := make(chan message)
	readErr := make(chan error, 1)
	go func() {
		defer close(msgs)
		for {
			var m message
			if err := conn.ReadJSON(&m); err != nil {
				readErr <- err
				return
			}
			select {
			case msgs <- m:
			case <-stop:
				return
			}
		}
	}()

	var chunks []string
	deadline := time.NewTimer(c.cfg.InitialTimeout)
	defer deadline.Stop()

	finish := func(partial bool) (*Result, error) {
		closeConn()
		if len(chunks) == 0 {
			return nil, apperrors.NewGenerationError("stream", "no audio received", apperrors.ErrNoAudioReceived)
		}
		raw, err := audio.DecodeBase64Chunks(chunks)
		if err != nil {
			return nil, apperrors.NewGenerationError("decode", "bad audio chunk", err)
		}
		return &Result{
			Buffer:  audio.DecodePCM16(raw, audio.StreamSampleRate),
			Chunks:  len(chunks),
			Partial: partial,
		}, nil
	}

	for {
		select {
		case <-ctx.Done():
			return finish(true)

		case <-deadline.C:
			if len(chunks) == 0 {
				closeConn()
				return nil, apperrors.NewGenerationError("connect",
					"no response from backend", apperrors.ErrBackendTimeout)
			}
			// collection window expiry: keep what arrived
			return finish(true)

		case err := <-readErr:
			if len(chunks) == 0 {
				return nil, apperrors.NewGenerationError("stream", "connection lost", err)
			}
			return finish(true)

		case m, ok := <-msgs:
			if !ok {
				continue // reader exited; readErr delivers the cause
			}
			switch m.Type {
			case "audio":
				if len(chunks) == 0 {
					// first chunk: the collection window takes over
					if !deadline.Stop() {
						<-deadline.C
					}
					deadline.Reset(c.cfg.CollectWindow)
				}
				chunks = append(chunks, m.Data)

			case "done":
				return finish(false)

			case "error":
				if len(chunks) == 0 {
					return nil, apperrors.NewGenerationError("stream",
						fmt.Sprintf("backend error: %s", m.Message), nil)
				}
				return finish(true)
			}
		}
	}
}

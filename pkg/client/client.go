// Package client is the Go client for the Voxlate streaming endpoint. It
// speaks the protocol defined in [wire], keeps a live [Reconciler] view of
// the transcript and translation, and can snapshot a session to disk via
// [Recorder].
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/voxlate/voxlate/pkg/wire"
)

// Option configures a Client before it connects.
type Option func(*Client)

// WithOnEvent registers a callback invoked for every decoded server event,
// after the reconciler has applied it. The callback runs on the read loop;
// it must not block.
func WithOnEvent(fn func(wire.ServerEvent)) Option {
	return func(c *Client) { c.onEvent = fn }
}

// WithHTTPClient sets the HTTP client used for the WebSocket handshake.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// Client is a connection to a Voxlate server. Control messages and audio
// frames go up; the read loop feeds every event into the Reconciler until
// the connection ends. Safe for concurrent use.
type Client struct {
	conn       *websocket.Conn
	reconciler *Reconciler
	onEvent    func(wire.ServerEvent)
	httpClient *http.Client

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup

	errMu sync.Mutex
	err   error
}

// Dial connects to a Voxlate server at url (ws:// or wss://).
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	c := &Client{
		reconciler: NewReconciler(),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPClient: c.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", url, err)
	}
	c.conn = conn

	c.wg.Add(1)
	go c.readLoop()

	return c, nil
}

// Reconciler returns the live view of the session. It remains readable after
// the connection closes.
func (c *Client) Reconciler() *Reconciler {
	return c.reconciler
}

// Start asks the server to begin transcription.
func (c *Client) Start(ctx context.Context) error {
	return c.send(ctx, wire.ClientMessage{Type: wire.MsgStartTranscription})
}

// Stop asks the server to end transcription.
func (c *Client) Stop(ctx context.Context) error {
	return c.send(ctx, wire.ClientMessage{Type: wire.MsgStopTranscription})
}

// SetTargetLanguage changes the translation target for subsequent results.
func (c *Client) SetTargetLanguage(ctx context.Context, lang string) error {
	return c.send(ctx, wire.ClientMessage{Type: wire.MsgSetTargetLanguage, Language: lang})
}

// SetTranslationEnabled toggles translation of recognition results.
func (c *Client) SetTranslationEnabled(ctx context.Context, enabled bool) error {
	return c.send(ctx, wire.ClientMessage{Type: wire.MsgSetTranslationEnabled, Enabled: &enabled})
}

// SendFrame sends one frame of 16 kHz mono PCM16 audio.
func (c *Client) SendFrame(ctx context.Context, pcm []byte) error {
	select {
	case <-c.done:
		return errors.New("client: connection closed")
	default:
	}
	if err := c.conn.Write(ctx, websocket.MessageBinary, pcm); err != nil {
		return fmt.Errorf("client: send frame: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, msg wire.ClientMessage) error {
	select {
	case <-c.done:
		return errors.New("client: connection closed")
	default:
	}
	data, err := msg.Encode()
	if err != nil {
		return err
	}
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("client: send %s: %w", msg.Type, err)
	}
	return nil
}

// Close ends the connection and waits for the read loop to finish. Safe to
// call more than once.
func (c *Client) Close() error {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	})
	c.wg.Wait()
	return nil
}

// Err returns the terminal read error, if the connection failed rather than
// being closed by Close.
func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// readLoop decodes server events and applies them to the reconciler until
// the connection ends.
func (c *Client) readLoop() {
	defer c.wg.Done()

	for {
		typ, data, err := c.conn.Read(context.Background())
		if err != nil {
			select {
			case <-c.done:
				// Close initiated the shutdown.
			default:
				if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
					c.errMu.Lock()
					c.err = err
					c.errMu.Unlock()
				}
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		ev, err := wire.DecodeServerEvent(data)
		if err != nil {
			slog.Warn("client: skipping malformed server event", "err", err)
			continue
		}

		c.reconciler.Apply(ev)
		if c.onEvent != nil {
			c.onEvent(ev)
		}
	}
}

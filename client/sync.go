package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sprintdeck/internal/events"
)

const (
	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
)

// Subscriber keeps a TicketStore in sync with a project's event channel. It
// dials the WebSocket endpoint, folds pushed events into the store, and
// reconnects with exponential backoff when the connection drops. Cancelling
// the context tears it down.
type Subscriber struct {
	baseURL   string
	token     string
	projectID int64
	store     *TicketStore
	dialer    *websocket.Dialer
	logger    *zap.Logger
}

// NewSubscriber creates a subscriber for one project's events
func NewSubscriber(baseURL, token string, projectID int64, store *TicketStore, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		baseURL:   baseURL,
		token:     token,
		projectID: projectID,
		store:     store,
		dialer:    websocket.DefaultDialer,
		logger:    logger,
	}
}

// reconnectDelay returns the backoff before reconnect attempt n (0-based):
// the base delay doubled per attempt, capped at 30 seconds.
func reconnectDelay(attempt int) time.Duration {
	d := reconnectBaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= reconnectMaxDelay {
			return reconnectMaxDelay
		}
	}
	return d
}

// wsURL derives the WebSocket endpoint from the API base URL
func (s *Subscriber) wsURL() string {
	url := s.baseURL
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return fmt.Sprintf("%s/api/projects/%d/events", url, s.projectID)
}

// Run connects and processes events until the context is cancelled. Each
// successful connection resets the backoff counter.
func (s *Subscriber) Run(ctx context.Context) {
	attempt := 0

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := s.dial(ctx)
		if err != nil {
			delay := reconnectDelay(attempt)
			attempt++
			s.logger.Warn("Event channel connect failed",
				zap.Int("attempt", attempt),
				zap.Duration("retry_in", delay),
				zap.Error(err),
			)

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}

		attempt = 0
		s.logger.Info("Event channel connected", zap.Int64("project_id", s.projectID))

		s.readLoop(ctx, conn)
		conn.Close()

		if ctx.Err() != nil {
			return
		}

		delay := reconnectDelay(attempt)
		attempt++
		s.logger.Info("Event channel disconnected, reconnecting",
			zap.Duration("retry_in", delay),
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// dial opens the WebSocket connection
func (s *Subscriber) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if s.token != "" {
		header.Set("Authorization", "Bearer "+s.token)
	}

	conn, resp, err := s.dialer.DialContext(ctx, s.wsURL(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, err
	}
	return conn, nil
}

// readLoop folds incoming events into the store until the connection drops
// or the context is cancelled
func (s *Subscriber) readLoop(ctx context.Context, conn *websocket.Conn) {
	// Unblock the read when the context goes away
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("Event channel read error", zap.Error(err))
			}
			return
		}

		var env events.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.logger.Warn("Failed to decode event envelope", zap.Error(err))
			continue
		}

		s.store.ApplyEvent(env)
	}
}

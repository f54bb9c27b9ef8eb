package infra

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// FeedSession owns the event stream lifecycle: dial, read, dispatch,
// reconnect. Frames are forwarded untouched to the reconciler inbox; a
// full inbox drops the frame rather than stalling the read loop.
//
// Reconnection uses a fixed delay with a single in-flight retry: the
// connection loop itself is the only timer, so retries cannot stack.
type FeedSession struct {
	url        string
	inbox      chan<- []byte
	retryDelay time.Duration

	// onUp runs in its own goroutine per connection; its context is
	// canceled when that connection dies. onDown runs inline.
	onUp   func(ctx context.Context)
	onDown func()

	conn      *websocket.Conn
	mu        sync.RWMutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewFeedSession creates a session for the given websocket URL.
func NewFeedSession(url string, retryDelay time.Duration, inbox chan<- []byte, onUp func(ctx context.Context), onDown func()) *FeedSession {
	return &FeedSession{
		url:        url,
		inbox:      inbox,
		retryDelay: retryDelay,
		onUp:       onUp,
		onDown:     onDown,
	}
}

// Connect starts the connection loop in the background.
func (s *FeedSession) Connect(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.connectionLoop(ctx)
	return nil
}

func (s *FeedSession) connectionLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := s.dial(ctx); err != nil {
			slog.Warn("feed dial failed", slog.String("url", s.url), slog.Any("error", err))
			GlobalMetrics.RecordReconnect()
			if !s.sleep(ctx) {
				return
			}
			continue
		}

		slog.Info("feed connected", slog.String("url", s.url))
		connCtx, connCancel := context.WithCancel(ctx)
		if s.onUp != nil {
			go s.onUp(connCtx)
		}

		s.readLoop(ctx)
		connCancel()

		if s.onDown != nil {
			s.onDown()
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		slog.Warn("feed closed, retrying", slog.Duration("delay", s.retryDelay))
		GlobalMetrics.RecordReconnect()
		if !s.sleep(ctx) {
			return
		}
	}
}

// sleep waits out the retry delay. Returns false when ctx was canceled,
// which also cancels the pending retry.
func (s *FeedSession) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(s.retryDelay):
		return true
	}
}

func (s *FeedSession) dial(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	return nil
}

func (s *FeedSession) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.closeConnection()
			return
		default:
		}

		s.mu.RLock()
		conn := s.conn
		s.mu.RUnlock()
		if conn == nil {
			return
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			s.closeConnection()
			return
		}

		GlobalMetrics.RecordFrame()
		select {
		case s.inbox <- msg:
		default:
			// Never block the read loop on a slow consumer.
			GlobalMetrics.RecordFrameDropped()
			slog.Warn("inbox full, frame dropped")
		}
	}
}

// Connected reports whether a live connection exists.
func (s *FeedSession) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *FeedSession) closeConnection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connected = false
}

// Close cancels any pending retry, closes the connection and waits for
// the connection loop to exit.
func (s *FeedSession) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.closeConnection()
	s.wg.Wait()
}

package venue

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"TradeWolf/pkg/logger"

	"github.com/gorilla/websocket"
)

// Stream keeps a lightweight websocket session open to the venue. The loop
// uses it as its connectivity signal: a dropped session marks the venue
// unreachable until Reconnect succeeds.
type Stream struct {
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	cancel    context.CancelFunc
}

func NewStream(websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) *Stream {
	return &Stream{
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
	}
}

// Connect dials the venue and subscribes to ticker channels for the
// configured symbols. Keepalive and read loops run until Close.
func (s *Stream) Connect(ctx context.Context) error {
	streams := make([]string, 0, len(s.symbols))
	for _, sym := range s.symbols {
		streams = append(streams, strings.ToLower(sym)+"@miniTicker")
	}
	u := s.websocketURL + "/stream?streams=" + strings.Join(streams, "/")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("venue stream connect: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.cancel = cancel
	s.mu.Unlock()

	go s.pingLoop(loopCtx, conn)
	go s.readLoop(loopCtx, conn)

	s.log.Info("venue stream connected", logger.Int("streams", len(streams)))
	return nil
}

func (s *Stream) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				s.markDisconnected(conn)
				return
			}
		}
	}
}

// readLoop drains frames to keep the session healthy. A read error marks the
// stream disconnected; the control loop drives the reconnect.
func (s *Stream) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if _, _, err := conn.ReadMessage(); err != nil {
			if ctx.Err() == nil {
				s.log.Warn("venue stream read failed", logger.Error(err))
			}
			s.markDisconnected(conn)
			return
		}
	}
}

func (s *Stream) markDisconnected(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == conn {
		s.connected = false
	}
}

// IsConnected reports the session health.
func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Reconnect tears down the session and dials again after the configured
// delay.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.reconnectDelay):
	}
	return s.Connect(ctx)
}

// Close shuts the session down.
func (s *Stream) Close() error {
	s.mu.Lock()
	conn := s.conn
	cancel := s.cancel
	s.conn = nil
	s.cancel = nil
	s.connected = false
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}

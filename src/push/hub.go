package push

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Session is one open socket of a registered device.
type Session struct {
	ID       string
	Device   string
	Conn     *websocket.Conn
	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastSeen)
}

func (s *Session) writeJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.Conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return s.Conn.WriteJSON(v)
}

func (s *Session) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second))
}

// Hub tracks the open sessions of this process keyed by device token.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Session]struct{}
	logger   *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		sessions: make(map[string]map[*Session]struct{}),
		logger:   logger,
	}
}

// Add registers a socket for a device token.
func (h *Hub) Add(device string, conn *websocket.Conn) *Session {
	s := &Session{ID: uuid.NewString(), Device: device, Conn: conn, lastSeen: time.Now()}

	h.mu.Lock()
	if _, ok := h.sessions[device]; !ok {
		h.sessions[device] = make(map[*Session]struct{})
	}
	h.sessions[device][s] = struct{}{}
	total := len(h.sessions[device])
	h.mu.Unlock()

	h.logger.Debug("device connected", zap.String("device", device), zap.String("session", s.ID), zap.Int("sessions", total))
	return s
}

// Remove closes and forgets a session. Removing twice is harmless.
func (h *Hub) Remove(s *Session) {
	h.mu.Lock()
	if sessions, ok := h.sessions[s.Device]; ok {
		delete(sessions, s)
		if len(sessions) == 0 {
			delete(h.sessions, s.Device)
		}
	}
	h.mu.Unlock()

	_ = s.Conn.Close()
	h.logger.Debug("device disconnected", zap.String("device", s.Device), zap.String("session", s.ID))
}

// Send writes msg to every session of a device and returns how many accepted it.
func (h *Hub) Send(device string, msg Message) int {
	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions[device]))
	for s := range h.sessions[device] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		if err := s.writeJSON(msg); err != nil {
			h.logger.Warn("device write failed", zap.String("device", device), zap.String("session", s.ID), zap.Error(err))
			h.Remove(s)
			continue
		}
		delivered++
	}
	return delivered
}

func (h *Hub) Connected(device string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[device]) > 0
}

// Heartbeat pings every session and drops the ones that stopped answering.
func (h *Hub) Heartbeat(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.mu.RLock()
			var all []*Session
			for _, sessions := range h.sessions {
				for s := range sessions {
					all = append(all, s)
				}
			}
			h.mu.RUnlock()

			for _, s := range all {
				if s.idleFor() > 2*interval {
					h.Remove(s)
					continue
				}
				if err := s.ping(); err != nil {
					h.Remove(s)
				}
			}
		}
	}
}

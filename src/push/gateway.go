package push

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"github.com/theleywin/Backend-Pitch-Review/src/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	readTimeout  = 60 * time.Second
	maxReadBytes = 512
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier func(token string) (primitive.ObjectID, error)

type DeviceFinder interface {
	FindByToken(ctx context.Context, token string) (*models.Device, error)
	Touch(ctx context.Context, token string) error
}

// Gateway is the socket endpoint registered devices keep open to receive pushes.
type Gateway struct {
	hub      *Hub
	devices  DeviceFinder
	verify   TokenVerifier
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewGateway(hub *Hub, devices DeviceFinder, verify TokenVerifier, allowedOrigins []string, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		hub:     hub,
		devices: devices,
		verify:  verify,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Authenticate the user behind the socket
	userID, err := g.verify(bearerToken(r))
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// The device must be registered to that user
	deviceToken := strings.TrimSpace(r.URL.Query().Get("device"))
	if deviceToken == "" {
		http.Error(w, "missing device", http.StatusBadRequest)
		return
	}
	device, err := g.devices.FindByToken(r.Context(), deviceToken)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, http.StatusText(status), status)
		return
	}
	if device.User != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("socket upgrade failed", zap.Error(err))
		return
	}

	s := g.hub.Add(deviceToken, conn)
	// Record when the device was last seen
	if err := g.devices.Touch(r.Context(), deviceToken); err != nil {
		g.logger.Warn("device touch failed", zap.String("device", deviceToken), zap.Error(err))
	}

	conn.SetReadLimit(maxReadBytes)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		s.touch()
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	// Clients only send pings; reading keeps the deadline moving until close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		s.touch()
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	}

	g.hub.Remove(s)
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

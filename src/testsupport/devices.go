package testsupport

import (
	"context"
	"sync"
	"time"

	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"github.com/theleywin/Backend-Pitch-Review/src/push"
	"github.com/theleywin/Backend-Pitch-Review/src/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Devices struct {
	mu      sync.Mutex
	devices map[string]models.Device
}

func NewDevices() *Devices {
	return &Devices{devices: make(map[string]models.Device)}
}

func (d *Devices) Register(_ context.Context, userID primitive.ObjectID, token, platform string) (*models.Device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now().UTC()
	device, ok := d.devices[token]
	if !ok {
		device = models.Device{Id: primitive.NewObjectID(), Token: token, CreatedAt: now}
	}
	device.User = userID
	device.Platform = platform
	device.LastSeenAt = now
	d.devices[token] = device
	return &device, nil
}

func (d *Devices) Unregister(_ context.Context, userID primitive.ObjectID, token string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	device, ok := d.devices[token]
	if !ok || device.User != userID {
		return store.ErrNotFound
	}
	delete(d.devices, token)
	return nil
}

func (d *Devices) FindByToken(_ context.Context, token string) (*models.Device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	device, ok := d.devices[token]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &device, nil
}

func (d *Devices) ListForUser(_ context.Context, userID primitive.ObjectID) ([]models.Device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.Device, 0)
	for _, device := range d.devices {
		if device.User == userID {
			out = append(out, device)
		}
	}
	return out, nil
}

func (d *Devices) Touch(_ context.Context, token string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	device, ok := d.devices[token]
	if !ok {
		return store.ErrNotFound
	}
	device.LastSeenAt = time.Now().UTC()
	d.devices[token] = device
	return nil
}

// Pushed is one message handed to a Pusher.
type Pushed struct {
	User    primitive.ObjectID
	Message push.Message
}

// Pusher records pushes instead of delivering them.
type Pusher struct {
	mu     sync.Mutex
	pushed []Pushed
}

func (p *Pusher) Push(_ context.Context, userID primitive.ObjectID, msg push.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed = append(p.pushed, Pushed{User: userID, Message: msg})
}

func (p *Pusher) Pushed() []Pushed {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Pushed(nil), p.pushed...)
}

// For returns the messages pushed to userID.
func (p *Pusher) For(userID primitive.ObjectID) []push.Message {
	var out []push.Message
	for _, pushed := range p.Pushed() {
		if pushed.User == userID {
			out = append(out, pushed.Message)
		}
	}
	return out
}

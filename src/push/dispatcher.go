package push

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/theleywin/Backend-Pitch-Review/src/metrics"
	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type UserLookup interface {
	FindUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type DeviceLister interface {
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Device, error)
}

// Dispatcher fans a message out to every registered device of a user.
type Dispatcher struct {
	users     UserLookup
	devices   DeviceLister
	transport Transport
	workers   int
	logger    *zap.Logger
}

func NewDispatcher(users UserLookup, devices DeviceLister, transport Transport, workers int, logger *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		users:     users,
		devices:   devices,
		transport: transport,
		workers:   workers,
		logger:    logger,
	}
}

// Dispatch never fails: a user without devices or with push turned off is a
// no-op and delivery errors are logged per device.
func (d *Dispatcher) Dispatch(ctx context.Context, userID primitive.ObjectID, msg Message) {
	log := d.logger.With(zap.String("user_id", userID.Hex()), zap.String("notification_id", msg.NotificationID))

	user, err := d.users.FindUser(ctx, userID)
	if err != nil {
		log.Warn("push skipped, user lookup failed", zap.Error(err))
		return
	}
	if !user.PushEnabled() {
		metrics.PushDeliveries.WithLabelValues(metrics.PushSkipped).Inc()
		log.Debug("push disabled by user preference")
		return
	}

	devices, err := d.devices.ListForUser(ctx, userID)
	if err != nil {
		log.Warn("push skipped, device lookup failed", zap.Error(err))
		return
	}
	if len(devices) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(d.workers)
	for _, device := range devices {
		device := device
		g.Go(func() error {
			err := d.transport.Deliver(ctx, device, msg)
			switch {
			case err == nil:
				metrics.PushDeliveries.WithLabelValues(metrics.PushDelivered).Inc()
			case errors.Is(err, ErrOffline):
				metrics.PushDeliveries.WithLabelValues(metrics.PushOffline).Inc()
			default:
				metrics.PushDeliveries.WithLabelValues(metrics.PushFailed).Inc()
				log.Warn("push delivery failed", zap.String("device", device.Token), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Async runs dispatches in the background with their own deadline, detached
// from the request that triggered them.
type Async struct {
	dispatcher *Dispatcher
	timeout    time.Duration
	logger     *zap.Logger
	wg         sync.WaitGroup
}

func NewAsync(dispatcher *Dispatcher, timeout time.Duration, logger *zap.Logger) *Async {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Async{dispatcher: dispatcher, timeout: timeout, logger: logger}
}

func (a *Async) Push(ctx context.Context, userID primitive.ObjectID, msg Message) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("panic recovered in push dispatch", zap.Any("panic", r))
			}
		}()

		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		a.dispatcher.Dispatch(pushCtx, userID, msg)
	}()
}

// Wait blocks until every started dispatch has returned.
func (a *Async) Wait() {
	a.wg.Wait()
}

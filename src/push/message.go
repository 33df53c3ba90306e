// Package push fans rendered notifications out to the devices a user has
// registered. Delivery is best effort: failures are logged and never reach the
// request that produced the notification.
package push

import (
	"time"

	"github.com/theleywin/Backend-Pitch-Review/src/models"
)

// Message is what a device receives.
type Message struct {
	NotificationID string                  `json:"notificationId"`
	Type           models.NotificationType `json:"type"`
	Body           string                  `json:"body"`
	Badge          int64                   `json:"badge"`
	ActionRequired bool                    `json:"actionRequired,omitempty"`
	Payload        *models.Payload         `json:"payload,omitempty"`
	Reference      *models.Reference       `json:"referenceObject,omitempty"`
	CreatedAt      time.Time               `json:"createdAt"`
}

// NewMessage builds the push message for a stored notification.
func NewMessage(n *models.Notification, badge int64) Message {
	return Message{
		NotificationID: n.Id.Hex(),
		Type:           n.Type,
		Body:           n.Message,
		Badge:          badge,
		ActionRequired: n.Actionable(),
		Payload:        n.Payload,
		Reference:      n.ReferenceObject,
		CreatedAt:      n.CreatedAt,
	}
}

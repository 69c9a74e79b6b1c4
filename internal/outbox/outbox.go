package outbox

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openbid/auction-platform/internal/event"
	"github.com/openbid/auction-platform/internal/model"
)

// Enqueue writes the event into the outbox table using the caller's
// transaction, so the event commits or rolls back with the business write
// that produced it.
func Enqueue(tx *gorm.DB, env event.Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return err
	}
	row := &model.OutboxEvent{
		ID:        env.ID,
		AuctionID: env.AuctionID,
		EventType: string(env.Type),
		Payload:   string(data),
		Status:    model.OutboxPending,
		CreatedAt: env.Timestamp,
	}
	if err := tx.Create(row).Error; err != nil {
		return fmt.Errorf("enqueue outbox %s: %w", env.Type, err)
	}
	return nil
}

// FetchPending returns Pending rows created before the cutoff, oldest first.
func FetchPending(db *gorm.DB, cutoff time.Time, limit int) ([]model.OutboxEvent, error) {
	var rows []model.OutboxEvent
	err := db.Where("status = ? AND created_at <= ?", model.OutboxPending, cutoff).
		Order("created_at").Limit(limit).Find(&rows).Error
	return rows, err
}

// MarkDelivered flags a row after the bus acknowledged the publish.
func MarkDelivered(db *gorm.DB, id interface{}) error {
	now := time.Now().UTC()
	return db.Model(&model.OutboxEvent{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": model.OutboxDelivered, "delivered_at": &now}).Error
}

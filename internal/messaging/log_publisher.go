// Package messaging содержит publisher'ы чеков, не требующие брокера.
package messaging

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/concessions/internal/domain"
)

// LogPublisher пишет чек в лог вместо брокера. Используется, когда брокер не настроен.
type LogPublisher struct {
	logger *log.Entry
}

// NewLogPublisher создаёт LogPublisher; nil logger — стандартный logrus.
func NewLogPublisher(logger *log.Entry) *LogPublisher {
	if logger == nil {
		logger = log.WithField("component", "receipt-log-publisher")
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(event domain.OutboxMessage) error {
	entry := p.logger.WithFields(log.Fields{
		"outbox_id":  event.ID,
		"cart_id":    event.AggregateID,
		"event_type": event.EventType,
	})

	if event.EventType == domain.EventTypeReceiptIssued {
		if receipt, err := domain.UnmarshalReceipt(event.Payload); err == nil {
			entry.WithFields(log.Fields{
				"receipt_id": receipt.ID,
				"seat":       receipt.SeatNumber,
				"total":      receipt.Total.StringFixed(2),
				"lines":      len(receipt.Lines),
			}).Info("receipt issued")
			return nil
		}
	}

	entry.WithField("payload", string(event.Payload)).Info("outbox message published to log")
	return nil
}

var _ domain.OutboxPublisher = (*LogPublisher)(nil)

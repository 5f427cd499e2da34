package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"passage-server/internal/interfaces"
	"passage-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var _ interfaces.VisitRecorder = (*VisitPublisher)(nil)

// VisitPublisher hands visits to the queue for asynchronous storage.
type VisitPublisher struct {
	conn      *amqp.Connection
	queueName string
	logger    *zap.Logger
}

// NewVisitPublisher declares the queue once so a misconfigured broker fails
// at startup rather than on the first visit.
func NewVisitPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*VisitPublisher, error) {
	if conn == nil {
		return nil, errors.New("rabbitmq connection is nil")
	}
	p := &VisitPublisher{
		conn:      conn,
		queueName: queueName,
		logger:    logger.Named("VisitPublisher").With(zap.String("queue", queueName)),
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()
	if _, err := declareVisitQueue(ch, queueName); err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}
	return p, nil
}

func (p *VisitPublisher) RecordVisit(ctx context.Context, visit models.VisitEvent) error {
	body, err := json.Marshal(visit)
	if err != nil {
		return fmt.Errorf("marshal visit: %w", err)
	}

	ch, err := p.conn.Channel()
	if err != nil {
		p.logger.Error("Failed to open channel for publishing", zap.Error(err))
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	err = ch.PublishWithContext(ctx,
		"",          // default exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    visit.ID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish visit", zap.String("visitID", visit.ID), zap.Error(err))
		visitsPublishedTotal.WithLabelValues(outcomeFailed).Inc()
		return fmt.Errorf("publish visit: %w", err)
	}
	visitsPublishedTotal.WithLabelValues(outcomePublished).Inc()
	p.logger.Debug("Visit published", zap.String("visitID", visit.ID), zap.String("passageID", visit.PassageID))
	return nil
}

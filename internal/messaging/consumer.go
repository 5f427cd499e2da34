package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"passage-server/internal/interfaces"
	"passage-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// VisitConsumer drains the visit queue with a fixed pool of workers.
type VisitConsumer struct {
	conn        *amqp.Connection
	logger      *zap.Logger
	queueName   string
	concurrency int
	processor   *Processor
	stopChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewVisitConsumer(conn *amqp.Connection, queueName string, concurrency int, processor *Processor, logger *zap.Logger) *VisitConsumer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &VisitConsumer{
		conn:        conn,
		logger:      logger.Named("VisitConsumer"),
		queueName:   queueName,
		concurrency: concurrency,
		processor:   processor,
		stopChannel: make(chan struct{}),
	}
}

// Start blocks until Stop is called or the delivery channel closes.
func (c *VisitConsumer) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	q, err := declareVisitQueue(ch, c.queueName)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", c.queueName, err)
	}
	if err := ch.Qos(c.concurrency, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"visit-consumer",
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}
	c.logger.Info("Consumer started", zap.String("queue", q.Name), zap.Int("concurrency", c.concurrency))

	done := make(chan struct{})
	var closeDone sync.Once

	c.wg.Add(c.concurrency)
	for i := 0; i < c.concurrency; i++ {
		go func(workerID int) {
			defer c.wg.Done()
			logger := c.logger.With(zap.Int("worker_id", workerID))
			for {
				select {
				case <-ctx.Done():
					return
				case <-c.stopChannel:
					return
				case d, ok := <-msgs:
					if !ok {
						logger.Info("Delivery channel closed, worker exiting")
						closeDone.Do(func() { close(done) })
						return
					}
					c.processor.ProcessMessage(ctx, d)
				}
			}
		}(i)
	}

	select {
	case <-c.stopChannel:
		c.logger.Info("Stop requested, waiting for workers")
	case <-done:
		c.logger.Warn("Delivery channel closed, stopping consumer")
	}
	cancel()
	c.wg.Wait()
	c.logger.Info("All consumer workers stopped")
	return nil
}

func (c *VisitConsumer) Stop() {
	c.stopOnce.Do(func() { close(c.stopChannel) })
}

// Processor turns one delivery into a stored visit.
type Processor struct {
	recorder interfaces.VisitRecorder
	timeout  time.Duration
	logger   *zap.Logger
}

func NewProcessor(recorder interfaces.VisitRecorder, logger *zap.Logger) *Processor {
	return &Processor{
		recorder: recorder,
		timeout:  10 * time.Second,
		logger:   logger.Named("VisitProcessor"),
	}
}

// ProcessMessage acks stored visits, drops undecodable ones and requeues a
// failed write once.
func (p *Processor) ProcessMessage(ctx context.Context, d amqp.Delivery) {
	logFields := []zap.Field{zap.Uint64("delivery_tag", d.DeliveryTag), zap.Bool("redelivered", d.Redelivered)}

	var visit models.VisitEvent
	if err := json.Unmarshal(d.Body, &visit); err != nil || visit.PassageID == "" {
		if err == nil {
			err = errors.New("visit without passage_id")
		}
		p.logger.Error("Dropping undecodable visit message", append(logFields, zap.Error(err), zap.ByteString("body", d.Body))...)
		visitMessagesTotal.WithLabelValues(outcomeDropped).Inc()
		if nackErr := d.Nack(false, false); nackErr != nil {
			p.logger.Error("Failed to nack message", append(logFields, zap.Error(nackErr))...)
		}
		return
	}

	processCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.recorder.RecordVisit(processCtx, visit); err != nil {
		requeue := !d.Redelivered
		if requeue {
			visitMessagesTotal.WithLabelValues(outcomeRetried).Inc()
		} else {
			visitMessagesTotal.WithLabelValues(outcomeFailed).Inc()
		}
		p.logger.Error("Failed to store visit",
			append(logFields, zap.String("visitID", visit.ID), zap.Bool("requeue", requeue), zap.Error(err))...)
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			p.logger.Error("Failed to nack message", append(logFields, zap.Error(nackErr))...)
		}
		return
	}

	visitMessagesTotal.WithLabelValues(outcomeStored).Inc()
	if ackErr := d.Ack(false); ackErr != nil {
		p.logger.Error("Failed to ack message", append(logFields, zap.Error(ackErr))...)
	}
}

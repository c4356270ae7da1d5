package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"facelyze-api/internal/model"
	"facelyze-api/internal/platform/rabbitmq"
)

// AnalysisStore is the write side the worker persists into.
type AnalysisStore interface {
	Create(analysis *model.Analysis) error
}

type AnalysisPersistWorker struct {
	conn      *amqp.Connection
	store     AnalysisStore
	queueName string
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewAnalysisPersistWorker(conn *amqp.Connection, store AnalysisStore, queueName string, logger *zap.Logger) *AnalysisPersistWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisPersistWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		logger:    logger.Named("analysis_persist_worker"),
	}
}

func (w *AnalysisPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}
	if err := ch.Qos(8, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()
		w.consume(workerCtx, deliveries)
	}()

	w.logger.Info("worker started", zap.String("queue", w.queueName))
	return nil
}

func (w *AnalysisPersistWorker) consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				w.logger.Warn("delivery channel closed")
				return
			}
			if err := w.Handle(d.Body); err != nil {
				w.logger.Error("persist analysis failed", zap.String("message_id", d.MessageId), zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes and stores one message body.
func (w *AnalysisPersistWorker) Handle(body []byte) error {
	var analysis model.Analysis
	if err := json.Unmarshal(body, &analysis); err != nil {
		return fmt.Errorf("decode analysis failed: %w", err)
	}
	if analysis.PublicID == "" || analysis.UserID == 0 {
		return fmt.Errorf("analysis message missing id or user")
	}
	analysis.ID = 0
	if err := w.store.Create(&analysis); err != nil {
		return err
	}
	w.logger.Debug("analysis persisted", zap.String("analysis_id", analysis.PublicID), zap.Uint("user_id", analysis.UserID))
	return nil
}

func (w *AnalysisPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

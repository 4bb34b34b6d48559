package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-image-optimizer/internal/adapter"
	"github.com/feral-file/ff-image-optimizer/internal/domain"
	"github.com/feral-file/ff-image-optimizer/internal/logger"
	"github.com/feral-file/ff-image-optimizer/internal/media/optimizer"
)

const DEFAULT_CONCURRENCY = 4

// Config holds the configuration for the event bridge
type Config struct {
	URL            string
	StreamName     string
	ConsumerName   string
	FilterSubject  string
	PublishPrefix  string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	AckWaitTimeout time.Duration
	MaxDeliver     int
	Concurrency    int
}

// OptimizedEvent is published after each handled image-saved event
type OptimizedEvent struct {
	ID         string          `json:"id"`
	Image      domain.Image    `json:"image"`
	Decision   domain.Decision `json:"decision"`
	URL        string          `json:"url,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Bridge feeds image-saved events from JetStream into the optimizer
type Bridge interface {
	// Run consumes until ctx is done
	Run(ctx context.Context) error
	// Close closes the bridge and cleans up resources
	Close()
}

type bridge struct {
	nc        adapter.NatsConn
	js        adapter.JetStream
	optimizer optimizer.Optimizer
	config    Config
	now       func() time.Time
}

// NewBridge connects to NATS and creates a new event bridge
func NewBridge(cfg Config, natsJS adapter.NatsJetStream, opt optimizer.Optimizer) (Bridge, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DEFAULT_CONCURRENCY
	}

	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(fmt.Errorf("disconnected from NATS: %w", err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	return &bridge{
		nc:        nc,
		js:        js,
		optimizer: opt,
		config:    cfg,
		now:       time.Now,
	}, nil
}

// Run creates the durable consumer and handles messages on a bounded pool
func (b *bridge) Run(ctx context.Context) error {
	logger.Info("Starting event bridge",
		zap.String("stream", b.config.StreamName),
		zap.String("consumer", b.config.ConsumerName),
		zap.String("subject", b.config.FilterSubject),
	)

	consumerConfig := jetstream.ConsumerConfig{
		Durable:       b.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       b.config.AckWaitTimeout,
		MaxDeliver:    b.config.MaxDeliver,
		FilterSubject: b.config.FilterSubject,
	}

	consumer, err := b.js.CreateOrUpdateConsumer(ctx, b.config.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	consumerInfo, err := consumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.Info("Consumer created/retrieved", zap.String("consumer", consumerInfo.Name))

	pool := pond.NewPool(b.config.Concurrency)
	defer pool.StopAndWait()

	sub, err := consumer.Consume(func(msg adapter.Message) {
		pool.Submit(func() {
			b.handleMessage(ctx, msg)
		})
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	logger.Info("Started consuming messages")

	<-ctx.Done()
	logger.Info("Shutting down event bridge")
	return ctx.Err()
}

// handleMessage acks handled events, naks storage failures and terminates
// events that can never be handled
func (b *bridge) handleMessage(ctx context.Context, msg adapter.Message) {
	var deliveries uint64
	if metadata, err := msg.Metadata(); err == nil && metadata != nil {
		deliveries = metadata.NumDelivered
	}

	var img domain.Image
	if err := json.Unmarshal(msg.Data(), &img); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to unmarshal image event: %w", err), zap.String("subject", msg.Subject()))
		terminate(ctx, msg)
		return
	}

	fields := []zap.Field{
		zap.String("subject", msg.Subject()),
		zap.String("baseFile", img.BaseFile),
		zap.String("subdir", img.DestinationSubdir),
		zap.Uint64("deliveryCount", deliveries),
	}
	logger.DebugCtx(ctx, "Received image event", fields...)

	decision, err := b.optimizer.OnImageSaved(ctx, img)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidImage) {
			logger.WarnCtx(ctx, "Dropping invalid image event", append(fields, zap.Error(err))...)
			terminate(ctx, msg)
			return
		}
		logger.ErrorCtx(ctx, fmt.Errorf("failed to optimize image: %w", err), fields...)
		if err := msg.Nak(); err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to NAK message: %w", err))
		}
		return
	}

	if err := b.publish(ctx, img, decision); err != nil {
		logger.WarnCtx(ctx, "Failed to publish optimization result", append(fields, zap.Error(err))...)
	}

	if err := msg.Ack(); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to ACK message: %w", err))
	}
}

func (b *bridge) publish(ctx context.Context, img domain.Image, decision domain.Decision) error {
	if b.config.PublishPrefix == "" {
		return nil
	}

	event := OptimizedEvent{
		ID:         uuid.NewString(),
		Image:      img,
		Decision:   decision,
		OccurredAt: b.now().UTC(),
	}
	if url, err := b.optimizer.ResolveURL(ctx, img); err == nil {
		event.URL = url
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := strings.TrimSuffix(b.config.PublishPrefix, ".") + "." + string(decision)
	if _, err := b.js.Publish(ctx, subject, data, jetstream.WithMsgID(event.ID)); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

func terminate(ctx context.Context, msg adapter.Message) {
	if err := msg.Term(); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to terminate message: %w", err))
	}
}

// Close closes the bridge and cleans up resources
func (b *bridge) Close() {
	if b.nc == nil {
		return
	}

	b.nc.Close()
}

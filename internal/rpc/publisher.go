package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"danledger/internal/event"
)

// OutboundStream holds committed ledger events for downstream consumers.
const OutboundStream = "DAN_LEDGER_EVENTS"

// OutboundPublisher drains the engine's event channel into JetStream.
// Subjects follow dan.ledger.events.{event_type}.
type OutboundPublisher struct {
	js        jetstream.JetStream
	inputChan <-chan event.Envelope
	done      chan struct{}
	log       zerolog.Logger
}

func NewOutboundPublisher(js jetstream.JetStream, inputChan <-chan event.Envelope, log zerolog.Logger) *OutboundPublisher {
	return &OutboundPublisher{
		js:        js,
		inputChan: inputChan,
		done:      make(chan struct{}),
		log:       log,
	}
}

// Run starts the outbound publisher loop. On cancellation it flushes whatever
// is already buffered before returning.
func (op *OutboundPublisher) Run(ctx context.Context) error {
	defer close(op.done)
	for {
		select {
		case <-ctx.Done():
			op.drain()
			return ctx.Err()

		case env, ok := <-op.inputChan:
			if !ok {
				return nil
			}
			if err := op.publish(ctx, env); err != nil {
				// Non-fatal: consumers can re-read ledger state directly.
				op.log.Warn().Int64("sequence", env.Sequence).Err(err).Msg("outbound publish failed")
			}
		}
	}
}

// Done is closed once the run loop has exited and buffered events are flushed.
func (op *OutboundPublisher) Done() <-chan struct{} {
	return op.done
}

// drain publishes the envelopes buffered at shutdown. The run context is
// already cancelled, so publishes get their own bounded context.
func (op *OutboundPublisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case env, ok := <-op.inputChan:
			if !ok {
				return
			}
			if err := op.publish(ctx, env); err != nil {
				op.log.Warn().Int64("sequence", env.Sequence).Err(err).Msg("outbound publish failed")
			}
		default:
			return
		}
	}
}

func (op *OutboundPublisher) publish(ctx context.Context, env event.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := fmt.Sprintf("dan.ledger.events.%s", env.EventType.Wire())
	_, err = op.js.Publish(ctx, subject, data,
		jetstream.WithMsgID(env.IdempotencyKey))
	return err
}

// EnsureOutboundStream creates the outbound events stream if absent.
func EnsureOutboundStream(ctx context.Context, js jetstream.JetStream, log zerolog.Logger) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      OutboundStream,
		Subjects:  []string{"dan.ledger.events.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create outbound stream: %w", err)
	}
	log.Info().Str("stream", OutboundStream).Msg("ensured outbound stream")
	return nil
}

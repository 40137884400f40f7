package rpc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"danledger/internal/event"
)

// fakeJetStream records published subjects; the embedded interface panics on
// anything the publisher is not expected to call.
type fakeJetStream struct {
	jetstream.JetStream
	published []string
}

func (f *fakeJetStream) Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	f.published = append(f.published, subject)
	return &jetstream.PubAck{Stream: OutboundStream}, nil
}

func TestPublisherFlushesBufferedEventsOnShutdown(t *testing.T) {
	js := &fakeJetStream{}
	input := make(chan event.Envelope, 8)
	for i := 0; i < 3; i++ {
		input <- event.Envelope{
			Sequence:       int64(i),
			IdempotencyKey: fmt.Sprintf("evt-%d", i),
			EventType:      event.EventTypeLedgerRegistered,
		}
	}

	pub := NewOutboundPublisher(js, input, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errChan := make(chan error, 1)
	go func() { errChan <- pub.Run(ctx) }()

	select {
	case <-pub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("publisher did not signal drain completion")
	}
	if err := <-errChan; !errors.Is(err, context.Canceled) {
		t.Errorf("run err = %v, want context.Canceled", err)
	}
	if len(js.published) != 3 {
		t.Errorf("published %d events at shutdown, want 3", len(js.published))
	}
}

func TestPublisherDoneAfterEmptyShutdown(t *testing.T) {
	pub := NewOutboundPublisher(&fakeJetStream{}, make(chan event.Envelope), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	go pub.Run(ctx)

	select {
	case <-pub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("publisher with empty buffer did not finish promptly")
	}
}

package events

import (
	"context"
	"io"
	"sync"

	"github.com/tradeforge/insight-mining-service/internal/contracts"
)

// MemoryConsumer is a FIFO in-process consumer used when no broker is
// configured, and by the worker tests.
type MemoryConsumer struct {
	mu     sync.Mutex
	events []contracts.EventEnvelope
}

func NewMemoryConsumer() *MemoryConsumer {
	return &MemoryConsumer{events: []contracts.EventEnvelope{}}
}

func (c *MemoryConsumer) Seed(events []contracts.EventEnvelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, events...)
}

func (c *MemoryConsumer) Receive(_ context.Context) (*contracts.EventEnvelope, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		return nil, io.EOF
	}
	e := c.events[0]
	c.events = c.events[1:]
	return &e, nil
}

// LoggingDLQPublisher records dead letters in the log only. It keeps the
// worker loop functional in broker-less deployments.
type LoggingDLQPublisher struct {
	mu      sync.Mutex
	records []contracts.DLQRecord
}

func NewLoggingDLQPublisher() *LoggingDLQPublisher {
	return &LoggingDLQPublisher{}
}

func (p *LoggingDLQPublisher) PublishDLQ(_ context.Context, record contracts.DLQRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, record)
	return nil
}

func (p *LoggingDLQPublisher) Records() []contracts.DLQRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]contracts.DLQRecord, len(p.records))
	copy(out, p.records)
	return out
}

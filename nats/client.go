package nats

import (
	"context"
	"fmt"

	"github.com/arloliu/tracedsvc"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Client publishes user events to JetStream through a traced Publisher.
type Client struct {
	conn      *nats.Conn
	publisher *Publisher
	subject   string
}

// Connect dials the NATS server in cfg and, when cfg.Stream is set, creates
// or updates the stream capturing cfg.Subject.
func Connect(ctx context.Context, cfg tracedsvc.EventsConfig, tel *tracedsvc.Telemetry, opts ...nats.Option) (*Client, error) {
	conn, err := nats.Connect(cfg.NATSURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.NATSURL, err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create jetstream: %w", err)
	}

	if cfg.Stream != "" {
		_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     cfg.Stream,
			Subjects: []string{cfg.Subject},
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("create stream %s: %w", cfg.Stream, err)
		}
	}

	return NewClient(conn, NewPublisher(js, tel, WithStream(cfg.Stream)), cfg.Subject), nil
}

// NewClient assembles a Client from an existing connection and publisher.
// conn may be nil when the caller manages the connection.
func NewClient(conn *nats.Conn, publisher *Publisher, subject string) *Client {
	return &Client{conn: conn, publisher: publisher, subject: subject}
}

// PublishEvent publishes data on the configured subject.
func (c *Client) PublishEvent(ctx context.Context, data []byte) error {
	if _, err := c.publisher.Publish(ctx, c.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", c.subject, err)
	}

	return nil
}

// Close drains the connection, flushing pending publishes.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}

	return c.conn.Drain()
}

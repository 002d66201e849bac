// Package nats publishes lifecycle events to NATS JetStream for external
// consumers. The relay is optional; the service runs fully without it.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/harpoonmedia/harpoon/internal/config"
	"github.com/harpoonmedia/harpoon/pkg/interfaces"
)

// Client wraps the NATS connection and its JetStream context.
type Client struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger interfaces.Logger
}

// NewClient connects to NATS and ensures the event stream exists. The
// returned cleanup drains and closes the connection.
func NewClient(cfg config.NATSConfig, logger interfaces.Logger) (*Client, func(), error) {
	opts := []nats.Option{
		nats.Name("harpoon"),
		nats.MaxReconnects(cfg.MaxReconnect),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error("nats disconnected", interfaces.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", interfaces.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("nats connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	client := &Client{nc: nc, js: js, logger: logger}
	if err := client.ensureStream(context.Background(), cfg.StreamName); err != nil {
		nc.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := nc.Drain(); err != nil {
			logger.Error("failed to drain nats connection", interfaces.Error(err))
		}
		nc.Close()
	}

	logger.Info("nats client initialized",
		interfaces.String("url", cfg.URL),
		interfaces.String("stream", cfg.StreamName))
	return client, cleanup, nil
}

// ensureStream creates or updates the single stream carrying all lifecycle
// event subjects.
func (c *Client) ensureStream(ctx context.Context, name string) error {
	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        name,
		Description: "Acquisition request lifecycle events",
		Subjects:    []string{"request.>", "season.>", "episode.>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Discard:     jetstream.DiscardOld,
		Replicas:    1,
		MaxMsgs:     -1,
		MaxBytes:    -1,
	})
	if err != nil {
		return fmt.Errorf("failed to create event stream: %w", err)
	}
	return nil
}

// Publish marshals the payload and publishes it to the subject.
func (c *Client) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := c.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	c.logger.Debug("published event", interfaces.String("subject", subject))
	return nil
}

// IsConnected reports whether the underlying connection is up.
func (c *Client) IsConnected() bool {
	return c.nc.IsConnected()
}

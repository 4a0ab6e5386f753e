package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"multichain-proxy/internal/bridge"
	"multichain-proxy/internal/clients"
	"multichain-proxy/internal/config"

	"github.com/sirupsen/logrus"
)

var (
	natsClient *clients.NATSClient
	natsOnce   sync.Once
)

// NATSPublisher emits RequestSent notifications on the configured
// subject. Subjects follow bridge.<chain>.RequestSent so per-chain
// consumers can subscribe with a wildcard.
type NATSPublisher struct {
	client  *clients.NATSClient
	subject string
}

// InitNATSPublisher connects the process-wide NATS client once and
// returns a publisher bound to the configured subject. Deployments
// without NATS configured get a no-op publisher.
func InitNATSPublisher() (bridge.EventPublisher, error) {
	if config.AppConfig == nil || config.AppConfig.NATS.URL == "" {
		logrus.Info("NATS not configured, request events will not be published")
		return NoopPublisher{}, nil
	}

	var initErr error
	natsOnce.Do(func() {
		client, err := clients.NewNATSClient(config.AppConfig.NATS.URL)
		if err != nil {
			initErr = fmt.Errorf("failed to create NATS client: %w", err)
			return
		}
		natsClient = client
		logrus.WithField("url", config.AppConfig.NATS.URL).Info("NATS client initialized")
	})
	if initErr != nil {
		return nil, initErr
	}
	if natsClient == nil {
		return nil, fmt.Errorf("NATS client not initialized")
	}

	return &NATSPublisher{
		client:  natsClient,
		subject: config.AppConfig.NATS.Subject,
	}, nil
}

// PublishRequestSent implements bridge.EventPublisher.
func (p *NATSPublisher) PublishRequestSent(ctx context.Context, event bridge.RequestSentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal RequestSent: %w", err)
	}
	return p.client.Publish(p.subject, data)
}

// CloseNATS shuts the shared connection down on server exit.
func CloseNATS() {
	if natsClient != nil {
		natsClient.Close()
	}
}

// NoopPublisher drops events. Used when NATS is not configured and in
// deployments that rely on chain logs alone.
type NoopPublisher struct{}

// PublishRequestSent implements bridge.EventPublisher.
func (NoopPublisher) PublishRequestSent(ctx context.Context, event bridge.RequestSentEvent) error {
	return nil
}

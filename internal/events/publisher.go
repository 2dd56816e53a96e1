package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Catalog event types
const (
	CategoryCreated = "catalog.category.created"
	CategoryUpdated = "catalog.category.updated"
	CategoryDeleted = "catalog.category.deleted"
	ProductCreated  = "catalog.product.created"
	ProductUpdated  = "catalog.product.updated"
	ProductDeleted  = "catalog.product.deleted"
	ShowcaseUpdated = "catalog.showcase.updated"
	FeaturedUpdated = "catalog.featured.updated"
)

// CatalogEvent represents a catalog change event. Storefront consumers use
// these to refresh cached views; ordering changes fan out as showcase/
// featured updates so the homepage re-renders.
type CatalogEvent struct {
	EventType  string    `json:"eventType"`
	EntityID   string    `json:"entityId"`
	CategoryID string    `json:"categoryId,omitempty"`
	Action     string    `json:"action,omitempty"` // promote, demote, reorder, repair
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher publishes catalog events to NATS. Publishing is fire-and-forget:
// a failed publish is logged, never surfaced to the admin operation that
// triggered it.
type Publisher struct {
	conn   *nats.Conn
	logger *logrus.Entry
}

// NewPublisher creates a new catalog events publisher
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	if natsURL == "" {
		natsURL = nats.DefaultURL
	}

	conn, err := nats.Connect(natsURL,
		nats.Name("catalog-service"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Publisher{
		conn:   conn,
		logger: logger.WithField("component", "events.publisher"),
	}, nil
}

func (p *Publisher) publish(event *CatalogEvent) {
	event.Timestamp = time.Now().UTC()
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to marshal catalog event")
		return
	}
	if err := p.conn.Publish(event.EventType, data); err != nil {
		p.logger.WithError(err).WithField("event_type", event.EventType).
			Warn("Failed to publish catalog event")
	}
}

// PublishCategoryChange publishes a category lifecycle event
func (p *Publisher) PublishCategoryChange(ctx context.Context, eventType, categoryID string) {
	p.publish(&CatalogEvent{EventType: eventType, EntityID: categoryID})
}

// PublishProductChange publishes a product lifecycle event
func (p *Publisher) PublishProductChange(ctx context.Context, eventType, productID, categoryID string) {
	p.publish(&CatalogEvent{EventType: eventType, EntityID: productID, CategoryID: categoryID})
}

// PublishShowcaseUpdated signals that the homepage showcase ordering changed
func (p *Publisher) PublishShowcaseUpdated(ctx context.Context, categoryID, action string) {
	p.publish(&CatalogEvent{EventType: ShowcaseUpdated, EntityID: categoryID, Action: action})
}

// PublishFeaturedUpdated signals that a category's featured ordering changed
func (p *Publisher) PublishFeaturedUpdated(ctx context.Context, productID, categoryID, action string) {
	p.publish(&CatalogEvent{EventType: FeaturedUpdated, EntityID: productID, CategoryID: categoryID, Action: action})
}

// IsConnected returns true if connected to NATS
func (p *Publisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

// Close drains and closes the NATS connection
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

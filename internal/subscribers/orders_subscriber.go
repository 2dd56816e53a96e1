package subscribers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/repository"
)

// OrderPlaced is the subject the order flow publishes on checkout
const OrderPlaced = "orders.order.placed"

// OrderLine is one purchased variant cell in an order.placed event
type OrderLine struct {
	ProductID uuid.UUID `json:"productId"`
	SizeID    string    `json:"sizeId"`
	ColorID   string    `json:"colorId"`
	Quantity  int       `json:"quantity"`
}

// OrderPlacedEvent is the payload of an order.placed event
type OrderPlacedEvent struct {
	OrderID uuid.UUID   `json:"orderId"`
	Lines   []OrderLine `json:"lines"`
}

// OrdersSubscriber deducts variant stock when orders are placed. Deductions
// clamp at zero; an oversell is corrected, not rejected, since payment
// already went through.
type OrdersSubscriber struct {
	conn   *nats.Conn
	sub    *nats.Subscription
	repo   *repository.ProductsRepository
	logger *logrus.Entry
}

// NewOrdersSubscriber creates a subscriber for order.placed events
func NewOrdersSubscriber(natsURL string, repo *repository.ProductsRepository, logger *logrus.Logger) (*OrdersSubscriber, error) {
	if natsURL == "" {
		natsURL = nats.DefaultURL
	}

	conn, err := nats.Connect(natsURL,
		nats.Name("catalog-service-orders"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &OrdersSubscriber{
		conn:   conn,
		repo:   repo,
		logger: logger.WithField("component", "subscribers.orders"),
	}, nil
}

// Start subscribes to order.placed in a queue group so multiple instances
// share the work.
func (s *OrdersSubscriber) Start() error {
	sub, err := s.conn.QueueSubscribe(OrderPlaced, "catalog-service", s.handleOrderPlaced)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", OrderPlaced, err)
	}
	s.sub = sub
	s.logger.WithField("subject", OrderPlaced).Info("Orders subscriber started")
	return nil
}

func (s *OrdersSubscriber) handleOrderPlaced(msg *nats.Msg) {
	var event OrderPlacedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logger.WithError(err).Error("Failed to decode order.placed event")
		return
	}

	for _, line := range event.Lines {
		if line.Quantity <= 0 {
			continue
		}
		err := s.repo.AdjustVariantStock(line.ProductID.String(), line.ColorID, line.SizeID, -line.Quantity)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"order_id":   event.OrderID,
				"product_id": line.ProductID,
				"size_id":    line.SizeID,
				"color_id":   line.ColorID,
			}).Error("Failed to deduct variant stock")
			continue
		}
		s.logger.WithFields(logrus.Fields{
			"order_id":   event.OrderID,
			"product_id": line.ProductID,
			"quantity":   line.Quantity,
		}).Debug("Variant stock deducted")
	}
}

// Stop drains the subscription and closes the connection
func (s *OrdersSubscriber) Stop() {
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
	}
	if s.conn != nil {
		s.conn.Close()
	}
	s.logger.Info("Orders subscriber stopped")
}

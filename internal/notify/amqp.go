package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/codr1/fieldbook/internal/booking"
)

const (
	RoutingKeyReservationCreated = "reservation.created"
	RoutingKeyWaitlistPromoted   = "waitlist.promoted"

	publishTimeout = 5 * time.Second
)

// JSONPublisher publishes a JSON body under a routing key.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Publisher publishes events to a durable topic exchange.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         b,
	})
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

type ReservationCreatedEvent struct {
	SeriesID       string   `json:"series_id,omitempty"`
	UserID         int64    `json:"user_id"`
	FieldID        int64    `json:"field_id"`
	ReservationIDs []int64  `json:"reservation_ids"`
	Slots          []string `json:"slots"`
}

type WaitlistPromotedEvent struct {
	WaitlistID int64     `json:"waitlist_id"`
	UserID     int64     `json:"user_id"`
	FieldID    int64     `json:"field_id"`
	Slot       string    `json:"slot"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// AMQPNotifier publishes outcomes as JSON events for other services.
type AMQPNotifier struct {
	publisher JSONPublisher
}

func NewAMQPNotifier(publisher JSONPublisher) *AMQPNotifier {
	return &AMQPNotifier{publisher: publisher}
}

func (n *AMQPNotifier) ReservationCreated(ctx context.Context, reservations []booking.Reservation) {
	if len(reservations) == 0 {
		return
	}
	event := ReservationCreatedEvent{
		SeriesID: reservations[0].SeriesID,
		UserID:   reservations[0].UserID,
		FieldID:  reservations[0].FieldID,
	}
	for _, r := range reservations {
		event.ReservationIDs = append(event.ReservationIDs, r.ID)
		event.Slots = append(event.Slots, r.Slot.String())
	}
	n.publish(ctx, RoutingKeyReservationCreated, event)
}

func (n *AMQPNotifier) WaitlistPromoted(ctx context.Context, promotion booking.Promotion) {
	n.publish(ctx, RoutingKeyWaitlistPromoted, WaitlistPromotedEvent{
		WaitlistID: promotion.EntryID,
		UserID:     promotion.UserID,
		FieldID:    promotion.FieldID,
		Slot:       promotion.Slot.String(),
		ExpiresAt:  promotion.ExpiresAt,
	})
}

func (n *AMQPNotifier) publish(ctx context.Context, key string, event any) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := n.publisher.PublishJSON(pubCtx, key, event); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("routing_key", key).Msg("Failed to publish event")
	}
}

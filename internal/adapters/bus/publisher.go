package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	nats "github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

type conn interface {
	Publish(subject string, data []byte) error
}

// Message is the body published for every committed room transition.
type Message struct {
	Kind       domain.ChangeKind `json:"kind"`
	RoomID     domain.RoomID     `json:"roomId"`
	SessionID  domain.SessionID  `json:"sessionId"`
	Actor      domain.UserID     `json:"actor,omitempty"`
	Target     domain.UserID     `json:"target,omitempty"`
	IsActive   bool              `json:"isActive"`
	Members    []domain.UserID   `json:"members"`
	Recording  bool              `json:"isBeingRecorded"`
	Closed     bool              `json:"isSessionClosed"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// Publisher forwards domain changes to NATS as
// <prefix>.session.<sessionId>.<kind>.
type Publisher struct {
	nc     *nats.Conn
	conn   conn
	prefix string
	now    func() time.Time
}

func Connect(url, prefix string) (*Publisher, error) {
	nc, err := nats.Connect(
		url,
		nats.Name("live-presence"),
		nats.DrainTimeout(5*time.Second),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				log.Error().Err(err).Str("module", "adapters.bus").Str("subject", s.Subject).Msg("async NATS error")
				return
			}
			log.Error().Err(err).Str("module", "adapters.bus").Msg("async NATS error outside subscription")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Str("module", "adapters.bus").Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("module", "adapters.bus").Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	log.Info().Str("module", "adapters.bus").Str("url", url).Msg("NATS connected")
	return &Publisher{nc: nc, conn: nc, prefix: prefix, now: time.Now}, nil
}

func (p *Publisher) Subject(c domain.Change) string {
	return fmt.Sprintf("%s.session.%s.%s", p.prefix, c.Room.Session, c.Kind)
}

// Publish implements app.EventSink.
func (p *Publisher) Publish(_ context.Context, c domain.Change) error {
	msg := Message{
		Kind:       c.Kind,
		RoomID:     c.Room.ID,
		SessionID:  c.Room.Session,
		Actor:      c.Actor,
		Target:     c.Target,
		IsActive:   c.Room.IsActive,
		Members:    c.Room.Participants,
		OccurredAt: p.now(),
	}
	if c.Session != nil {
		msg.Recording = c.Session.IsBeingRecorded
		msg.Closed = c.Session.IsSessionClosed
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.Subject(c), body); err != nil {
		return fmt.Errorf("publish %s: %w", c.Kind, err)
	}
	return nil
}

// Close drains pending publishes before closing the connection.
func (p *Publisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}

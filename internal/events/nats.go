package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ignatzorin/taskbounty-backend/internal/metrics"
	"github.com/ignatzorin/taskbounty-backend/internal/models"
)

// NATSPublisher публикует события в subject <prefix>.<kind>, например
// taskbounty.events.task.approved.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

func NewNATSPublisher(conn *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// ConnectNATS подключается к серверу NATS с повторными попытками.
func ConnectNATS(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("taskbounty-backend"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("events: не удалось подключиться к NATS %s: %w", url, err)
	}
	return nc, nil
}

// Subject возвращает subject для вида события.
func (p *NATSPublisher) Subject(kind string) string {
	return p.prefix + "." + kind
}

func (p *NATSPublisher) Publish(_ context.Context, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: не удалось сериализовать событие %d: %w", event.Seq, err)
	}
	if err := p.conn.Publish(p.Subject(event.Kind), data); err != nil {
		return fmt.Errorf("events: не удалось опубликовать событие %d: %w", event.Seq, err)
	}
	metrics.EventsPublished.WithLabelValues("nats").Inc()
	return nil
}

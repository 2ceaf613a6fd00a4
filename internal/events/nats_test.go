package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/taskbounty-backend/internal/models"
)

func startTestNATSServer(t *testing.T) *natsserver.Server {
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	}

	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	return server
}

func TestNATSPublisher_Publish(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	sub, err := nc.SubscribeSync("taskbounty.events.>")
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	publisher := NewNATSPublisher(nc, "taskbounty.events")
	event := models.Event{
		Seq:        7,
		TaskID:     1,
		Kind:       models.EventTaskApproved,
		Actor:      uuid.New(),
		Height:     42,
		Payload:    `{"rating":5}`,
		Recipients: []uuid.UUID{uuid.New()},
	}
	require.NoError(t, publisher.Publish(context.Background(), event))

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "taskbounty.events.task.approved", msg.Subject)

	var got models.Event
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, event.Seq, got.Seq)
	assert.Equal(t, event.Actor, got.Actor)
	assert.Equal(t, event.Payload, got.Payload)
	assert.Nil(t, got.Recipients)
}

type recordingPublisher struct {
	events []models.Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, e models.Event) error {
	r.events = append(r.events, e)
	return r.err
}

func TestMulti_Publish(t *testing.T) {
	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("boom")}

	err := Multi{ok, nil, failing}.Publish(context.Background(), models.Event{Seq: 1})
	assert.Error(t, err)
	assert.Len(t, ok.events, 1)
	assert.Len(t, failing.events, 1)

	assert.NoError(t, Multi{ok}.Publish(context.Background(), models.Event{Seq: 2}))
	assert.NoError(t, Nop{}.Publish(context.Background(), models.Event{}))
}

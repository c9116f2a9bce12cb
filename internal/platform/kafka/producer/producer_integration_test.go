//go:build integration

package producer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"conforma/internal/platform/kafka/consumer"
	"conforma/internal/platform/kafka/producer"
	"conforma/pkg/testutil/containers"
)

type capture struct {
	received chan *consumer.Message
}

func (c *capture) Handle(_ context.Context, msg *consumer.Message) error {
	c.received <- msg
	return nil
}

func TestProduceConsumeRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	broker := containers.GetManager().GetRedpanda(t).Broker
	topic := "conforma.audit.test"

	prod, err := producer.New([]string{broker}, topic)
	require.NoError(t, err)
	defer prod.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, prod.EnsureTopic(ctx, 1))
	require.NoError(t, prod.Publish(ctx, "K123456R001", []byte(`{"Action":"evaluation_completed"}`)))

	handler := &capture{received: make(chan *consumer.Message, 1)}
	cons, err := consumer.New([]string{broker}, "conforma-test", []string{topic}, handler)
	require.NoError(t, err)
	defer cons.Close()

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		_ = cons.Run(runCtx)
	}()

	select {
	case msg := <-handler.received:
		require.Equal(t, topic, msg.Topic)
		require.Equal(t, "K123456R001", string(msg.Key))
		require.JSONEq(t, `{"Action":"evaluation_completed"}`, string(msg.Value))
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

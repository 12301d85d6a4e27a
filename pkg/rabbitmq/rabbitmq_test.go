package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	declared  []string
	published []amqp.Publishing
	keys      []string
	failWith  error
	closed    bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.declared = append(f.declared, name+":"+kind)
	return nil
}

func (f *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.keys = append(f.keys, exchange+"/"+key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublishEncodesJSON(t *testing.T) {
	ch := &fakeChannel{}
	client, err := NewWithChannel(ch, "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultExchange + ":topic"}, ch.declared)

	require.NoError(t, client.Publish(context.Background(), "order.created", map[string]string{"id": "o1"}))
	require.Len(t, ch.published, 1)
	assert.Equal(t, []string{DefaultExchange + "/order.created"}, ch.keys)
	assert.Equal(t, "application/json", ch.published[0].ContentType)
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)

	var body map[string]string
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &body))
	assert.Equal(t, "o1", body["id"])
}

func TestPublishErrors(t *testing.T) {
	ch := &fakeChannel{failWith: errors.New("channel closed by server")}
	client, err := NewWithChannel(ch, "shop", nil)
	require.NoError(t, err)

	err = client.Publish(context.Background(), "order.created", struct{}{})
	assert.ErrorContains(t, err, "channel closed by server")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, client.Publish(ctx, "order.created", struct{}{}), context.Canceled)

	require.NoError(t, client.Close())
	assert.True(t, ch.closed)
	assert.Error(t, client.Publish(context.Background(), "order.created", struct{}{}))
}

func TestNewWithChannelRequiresChannel(t *testing.T) {
	_, err := NewWithChannel(nil, "", nil)
	assert.Error(t, err)
}

package messaging_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/rate-limiter-go/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type mockPublisher struct {
	published  map[string][]*message.Message
	publishErr error
	closed     bool
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{published: make(map[string][]*message.Message)}
}

func (m *mockPublisher) Publish(topic string, messages ...*message.Message) error {
	if m.publishErr != nil {
		return m.publishErr
	}

	m.published[topic] = append(m.published[topic], messages...)

	return nil
}

func (m *mockPublisher) Close() error {
	m.closed = true

	return nil
}

func TestNewPublishFunc(t *testing.T) {
	t.Run("publishes the event as json to its topic", func(t *testing.T) {
		pub := newMockPublisher()
		publish := messaging.NewPublishFunc[testEvent](pub, "test.topic")

		err := publish(&testEvent{Name: "window", Count: 3})

		require.NoError(t, err)
		require.Len(t, pub.published["test.topic"], 1)

		msg := pub.published["test.topic"][0]
		assert.NotEmpty(t, msg.UUID)

		var got testEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, "window", got.Name)
		assert.Equal(t, 3, got.Count)
	})

	t.Run("propagates publish errors", func(t *testing.T) {
		pub := newMockPublisher()
		pub.publishErr = errors.New("broker down")

		publish := messaging.NewPublishFunc[testEvent](pub, "test.topic")

		err := publish(&testEvent{})

		assert.Error(t, err)
	})
}

func TestPublisherGroup_Shutdown(t *testing.T) {
	pub := newMockPublisher()
	group := messaging.NewPublisherGroup(pub)

	require.NoError(t, group.Shutdown())
	assert.True(t, pub.closed)
}

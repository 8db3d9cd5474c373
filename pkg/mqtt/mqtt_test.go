package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/modlog"
	"github.com/goccy/go-json"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type published struct {
	topic   string
	payload []byte
}

// fakeClient implements only what the communicator calls.
type fakeClient struct {
	mqtt.Client
	published []published
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.published = append(c.published, published{topic, payload.([]byte)})
	return doneToken{}
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	return doneToken{}
}

func TestTopicMatch(t *testing.T) {
	tests := []struct {
		pattern, topic string
		want           bool
	}{
		{"punishments/get", "punishments/get", true},
		{"punishments/+", "punishments/get", true},
		{"punishments/+", "punishments/get/extra", false},
		{"punishments/#", "punishments", true},
		{"punishments/#", "punishments/a/b", true},
		{"+/get", "policies/get", true},
		{"punishments/get", "punishments/list", false},
		{"a/b/c", "a/b", false},
	}
	for _, tt := range tests {
		if got := topicMatch(tt.pattern, tt.topic); got != tt.want {
			t.Errorf("topicMatch(%q, %q) = %v, want %v", tt.pattern, tt.topic, got, tt.want)
		}
	}
}

func TestDispatchRespondsOnCorrelationTopic(t *testing.T) {
	client := &fakeClient{}
	mc := newCommunicator(client, "pancymod/")

	var gotTopic interface{}
	mc.On("punishments/+", func(payload map[string]interface{}) (interface{}, error) {
		gotTopic = payload["_topic"]
		return map[string]interface{}{"id": payload["id"]}, nil
	})
	mc.On("policies/get", func(payload map[string]interface{}) (interface{}, error) {
		return nil, errors.New("policy not found")
	})

	mc.dispatch("pancymod/request/punishments/get", []byte(`{"correlationId":"c1","payload":{"id":7}}`))
	mc.dispatch("pancymod/request/policies/get", []byte(`{"correlationId":"c2"}`))
	mc.dispatch("pancymod/request/unknown", []byte(`{"correlationId":"c3"}`))
	mc.dispatch("pancymod/request/punishments/get", []byte(`not json`))

	if gotTopic != "punishments/get" {
		t.Errorf("_topic = %v", gotTopic)
	}
	if len(client.published) != 2 {
		t.Fatalf("published = %d, want 2", len(client.published))
	}

	if client.published[0].topic != "pancymod/response/punishments/get/c1" {
		t.Errorf("topic = %q", client.published[0].topic)
	}
	var ok MqttResponse
	if err := json.Unmarshal(client.published[0].payload, &ok); err != nil {
		t.Fatal(err)
	}
	if ok.CorrelationID != "c1" || ok.Error != "" {
		t.Errorf("response = %+v", ok)
	}

	var failed MqttResponse
	_ = json.Unmarshal(client.published[1].payload, &failed)
	if failed.Error != "policy not found" {
		t.Errorf("error response = %+v", failed)
	}
}

type recordingPublisher struct {
	topics   []string
	payloads []interface{}
	err      error
}

func (p *recordingPublisher) Publish(topic string, payload interface{}) error {
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return p.err
}

func TestPunishmentSink(t *testing.T) {
	pub := &recordingPublisher{}
	sink := NewPunishmentSink(pub, "pancymod")
	ev := modlog.Event{ID: "e1", Kind: modlog.KindRemoved, GuildID: "g1", PunishmentID: 3}

	if err := sink.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish() returned error: %v", err)
	}
	if len(pub.topics) != 1 || pub.topics[0] != "pancymod/events/g1/removed" {
		t.Errorf("topics = %v", pub.topics)
	}
	if pub.payloads[0].(modlog.Event).ID != "e1" {
		t.Errorf("payload = %+v", pub.payloads[0])
	}

	pub.err = errors.New("not connected")
	if err := sink.Publish(context.Background(), ev); err == nil {
		t.Error("publisher errors should be returned")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sink.Publish(ctx, ev); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled ctx error = %v", err)
	}
}

func TestPublishEncodesJSON(t *testing.T) {
	client := &fakeClient{}
	mc := newCommunicator(client, "pancymod")
	if err := mc.Publish("pancymod/x", map[string]int{"n": 1}); err != nil {
		t.Fatal(err)
	}
	if string(client.published[0].payload) != `{"n":1}` {
		t.Errorf("payload = %s", client.published[0].payload)
	}
}

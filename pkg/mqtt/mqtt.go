// Package mqtt publishes moderation events to an MQTT broker and answers
// lookup requests from other services on the same broker.
package mqtt

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MqttRequest is the envelope of an incoming request.
type MqttRequest struct {
	CorrelationID string                 `json:"correlationId"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
}

// MqttResponse is published to <base>/response/<topic>/<correlationId>.
type MqttResponse struct {
	CorrelationID string      `json:"correlationId"`
	Data          interface{} `json:"data"`
	Error         string      `json:"error,omitempty"`
}

// RequestHandler answers one request. payload["_topic"] holds the request
// topic relative to <base>/request/.
type RequestHandler func(payload map[string]interface{}) (interface{}, error)

// MqttCommunicator wraps a paho client.
type MqttCommunicator struct {
	client   mqtt.Client
	base     string
	handlers map[string]RequestHandler
	mu       sync.RWMutex
	subOnce  sync.Once
}

var (
	communicator *MqttCommunicator
	once         sync.Once
)

// Init initializes the global communicator.
func Init(host, port, username, password, clientID, base string) *MqttCommunicator {
	once.Do(func() {
		communicator = NewMqttCommunicator(host, port, username, password, clientID, base)
	})
	return communicator
}

// Get returns the global communicator, nil before Init.
func Get() *MqttCommunicator {
	return communicator
}

// NewMqttCommunicator connects to tcp://host:port. A failed first attempt
// is logged; paho keeps retrying in the background.
func NewMqttCommunicator(host, port, username, password, clientID, base string) *MqttCommunicator {
	uniqueID := fmt.Sprintf("%s_%s", clientID, uuid.New().String())

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%s", host, port)).
		SetClientID(uniqueID).
		SetUsername(username).
		SetPassword(password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			logger.Success(fmt.Sprintf("Conectado al broker MQTT como %s", clientID), "MQTT")
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			logger.Error(fmt.Sprintf("Conexión MQTT perdida: %v", err), "MQTT")
		})

	mc := newCommunicator(mqtt.NewClient(opts), base)

	token := mc.client.Connect()
	if token.Wait() && token.Error() != nil {
		logger.Error(fmt.Sprintf("Error de conexión MQTT: %v", token.Error()), "MQTT")
	}
	return mc
}

func newCommunicator(client mqtt.Client, base string) *MqttCommunicator {
	return &MqttCommunicator{
		client:   client,
		base:     strings.TrimSuffix(base, "/"),
		handlers: make(map[string]RequestHandler),
	}
}

// Destroy closes the connection.
func (mc *MqttCommunicator) Destroy() {
	if mc.client != nil && mc.client.IsConnected() {
		mc.client.Disconnect(250)
		logger.System("Conexión MQTT cerrada exitosamente.", "MQTT")
	} else {
		logger.Warn("El cliente MQTT no estaba conectado, no se necesita cerrar.", "MQTT")
	}
}

func (mc *MqttCommunicator) IsConnected() bool {
	return mc.client != nil && mc.client.IsConnected()
}

// Base returns the topic prefix of this communicator.
func (mc *MqttCommunicator) Base() string {
	return mc.base
}

// Publish sends payload as JSON to topic with QoS 0.
func (mc *MqttCommunicator) Publish(topic string, payload interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	token := mc.client.Publish(topic, 0, false, jsonData)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

// On registers a handler for <base>/request/<pattern>. The pattern may use
// the '+' and '#' wildcards.
func (mc *MqttCommunicator) On(pattern string, callback RequestHandler) {
	mc.mu.Lock()
	mc.handlers[pattern] = callback
	mc.mu.Unlock()

	mc.subOnce.Do(func() {
		topic := mc.base + "/request/#"
		token := mc.client.Subscribe(topic, 0, func(c mqtt.Client, msg mqtt.Message) {
			defer errors.RecoverMiddleware()()
			mc.dispatch(msg.Topic(), msg.Payload())
		})
		if token.Wait() && token.Error() != nil {
			logger.Error(fmt.Sprintf("Error subscribing to topic %s: %v", topic, token.Error()), "MQTT")
		}
	})
}

func (mc *MqttCommunicator) handlerFor(requestTopic string) (RequestHandler, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if h, ok := mc.handlers[requestTopic]; ok {
		return h, true
	}
	for pattern, h := range mc.handlers {
		if topicMatch(pattern, requestTopic) {
			return h, true
		}
	}
	return nil, false
}

func (mc *MqttCommunicator) dispatch(topic string, raw []byte) {
	requestTopic := strings.TrimPrefix(topic, mc.base+"/request/")

	var request MqttRequest
	if err := json.Unmarshal(raw, &request); err != nil {
		logger.Error(fmt.Sprintf("Error parsing MQTT request: %v", err), "MQTT")
		return
	}

	handler, ok := mc.handlerFor(requestTopic)
	if !ok {
		logger.Debug("Petición MQTT sin handler: "+requestTopic, "MQTT")
		return
	}

	payload := request.Payload
	if payload == nil {
		payload = make(map[string]interface{})
	}
	payload["_topic"] = requestTopic

	response := MqttResponse{CorrelationID: request.CorrelationID}
	data, err := handler(payload)
	if err != nil {
		response.Error = err.Error()
	} else {
		response.Data = data
	}

	responseTopic := fmt.Sprintf("%s/response/%s/%s", mc.base, requestTopic, request.CorrelationID)
	if err := mc.Publish(responseTopic, response); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo responder a %s: %v", responseTopic, err), "MQTT")
	}
}

// topicMatch checks if a received topic matches a pattern (with wildcards)
// '+' matches exactly one topic level
// '#' matches zero or more topic levels and must be the last character
func topicMatch(pattern, topic string) bool {
	patternParts := strings.Split(pattern, "/")
	topicParts := strings.Split(topic, "/")

	for i, part := range patternParts {
		if part == "#" {
			return true
		}
		if i >= len(topicParts) {
			return false
		}
		if part != "+" && part != topicParts[i] {
			return false
		}
	}
	return len(patternParts) == len(topicParts)
}

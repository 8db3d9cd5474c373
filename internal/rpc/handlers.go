// Package rpc answers punishment queries received over MQTT
// (<base>/request/punishments/...).
package rpc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/mqtt"
	"github.com/PancyStudios/PancyModGo/pkg/punishment"
)

const requestTimeout = 5 * time.Second

var errMissingField = errors.New("missing field")

// Registrar is the slice of the MQTT communicator used here.
type Registrar interface {
	On(pattern string, callback mqtt.RequestHandler)
}

// Handlers serves read-only punishment lookups.
type Handlers struct {
	repo punishment.Repository
}

// Register binds the punishment topics on comm.
func Register(comm Registrar, repo punishment.Repository) *Handlers {
	h := &Handlers{repo: repo}
	comm.On("punishments/get", h.Get)
	comm.On("punishments/user", h.ListForUser)
	comm.On("punishments/active", h.Active)
	return h
}

func stringField(payload map[string]interface{}, key string) (string, error) {
	v, ok := payload[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%w %q", errMissingField, key)
	}
	return v, nil
}

// idField accepts JSON numbers and numeric strings.
func idField(payload map[string]interface{}, key string) (int64, error) {
	switch v := payload[key].(type) {
	case float64:
		return int64(v), nil
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %q: %w", key, err)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("%w %q", errMissingField, key)
	}
}

func optionalType(payload map[string]interface{}) (*punishment.Type, error) {
	raw, ok := payload["type"].(string)
	if !ok || raw == "" {
		return nil, nil
	}
	t, err := punishment.ParseType(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Get answers {guildId, id} with the record or an error.
func (h *Handlers) Get(payload map[string]interface{}) (interface{}, error) {
	guildID, err := stringField(payload, "guildId")
	if err != nil {
		return nil, err
	}
	id, err := idField(payload, "id")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	p, err := h.repo.GetByID(ctx, guildID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, punishment.ErrNotFound
	}
	return p, nil
}

// ListForUser answers {guildId, userId, type?} with the user's history.
func (h *Handlers) ListForUser(payload map[string]interface{}) (interface{}, error) {
	guildID, err := stringField(payload, "guildId")
	if err != nil {
		return nil, err
	}
	userID, err := stringField(payload, "userId")
	if err != nil {
		return nil, err
	}
	t, err := optionalType(payload)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	return h.repo.ListForUser(ctx, guildID, userID, t)
}

// Active answers {guildId, userId, type} with the active record, or null.
func (h *Handlers) Active(payload map[string]interface{}) (interface{}, error) {
	guildID, err := stringField(payload, "guildId")
	if err != nil {
		return nil, err
	}
	userID, err := stringField(payload, "userId")
	if err != nil {
		return nil, err
	}
	t, err := optionalType(payload)
	if err != nil {
		return nil, err
	}
	if t == nil || !t.Durable() {
		return nil, fmt.Errorf("%w %q: BAN or MUTE", errMissingField, "type")
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	return h.repo.GetActive(ctx, guildID, userID, *t)
}

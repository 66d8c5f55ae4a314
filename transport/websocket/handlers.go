package websocket

import (
	"context"
	"encoding/json"
	"fmt"
)

func (that *Server) handleJoin(_ context.Context, client *client, message *Message) error {
	var payload JoinPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	client.controller.Join(payload.Name)

	return nil
}

func (that *Server) handleClick(_ context.Context, client *client, message *Message) error {
	var payload ClickPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	client.controller.ClickCell(payload.Cell)

	return nil
}

func (that *Server) handleRestart(_ context.Context, client *client, _ *Message) error {
	client.controller.Restart()

	return nil
}

func (that *Server) handleClear(_ context.Context, client *client, _ *Message) error {
	client.controller.Clear()

	return nil
}

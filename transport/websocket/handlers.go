package websocket

import (
	"context"
	"encoding/json"
	"fmt"
)

func (that *Server) handleConnect(ctx context.Context, msg *Message, c *client) error {
	log := that.logger.With("method", "handleConnect")

	var payloadReq ConnectRequest
	if err := decodePayload(msg, &payloadReq); err != nil {
		c.sendError(msg.Action, errMalformedMessage)
		return err
	}

	if c.sessionID != "" && c.sessionID != payloadReq.SessionID {
		that.uGame.Disconnect(ctx, c.sessionID, c)
		c.sessionID = ""
	}

	// events raised after the snapshot wait for the reply carrying it
	c.hold()
	defer c.release()

	sessionID, session, err := that.uGame.Connect(ctx, payloadReq.SessionID, c)
	if err != nil {
		c.sendError(msg.Action, err)
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.sessionID = sessionID

	if err = c.send(msg.Action, ConnectResponse{SessionID: sessionID, Session: session}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("successfully connected session", "session", sessionID)

	return nil
}

func (that *Server) handleStartSession(ctx context.Context, msg *Message, c *client) error {
	if c.sessionID == "" {
		c.sendError(msg.Action, errNotConnected)
		return nil
	}

	var payloadReq StartRequest
	if err := decodePayload(msg, &payloadReq); err != nil {
		c.sendError(msg.Action, errMalformedMessage)
		return err
	}

	if err := that.uGame.StartSession(ctx, c.sessionID, payloadReq.Mode); err != nil {
		c.sendError(msg.Action, err)
		return fmt.Errorf("failed to start session: %w", err)
	}

	return nil
}

func (that *Server) handleMove(ctx context.Context, msg *Message, c *client) error {
	if c.sessionID == "" {
		c.sendError(msg.Action, errNotConnected)
		return nil
	}

	var payloadReq MoveRequest
	if err := decodePayload(msg, &payloadReq); err != nil {
		c.sendError(msg.Action, errMalformedMessage)
		return err
	}

	if payloadReq.Cell == nil {
		c.sendError(msg.Action, errCellRequired)
		return nil
	}

	// rejected moves produce no events and no reply
	if _, err := that.uGame.MakeTurn(ctx, c.sessionID, *payloadReq.Cell); err != nil {
		c.sendError(msg.Action, err)
		return fmt.Errorf("failed to make turn: %w", err)
	}

	return nil
}

func (that *Server) handleNextRound(ctx context.Context, msg *Message, c *client) error {
	return that.handleRequest(ctx, msg, c, that.uGame.NextRound)
}

func (that *Server) handleRestartRound(ctx context.Context, msg *Message, c *client) error {
	return that.handleRequest(ctx, msg, c, that.uGame.RestartRound)
}

func (that *Server) handleResetSession(ctx context.Context, msg *Message, c *client) error {
	return that.handleRequest(ctx, msg, c, that.uGame.ResetSession)
}

func (that *Server) handleBackToMenu(ctx context.Context, msg *Message, c *client) error {
	return that.handleRequest(ctx, msg, c, func(ctx context.Context, id string) (bool, error) {
		return true, that.uGame.BackToMenu(ctx, id)
	})
}

func (that *Server) handleRequest(
	ctx context.Context,
	msg *Message,
	c *client,
	request func(ctx context.Context, id string) (bool, error),
) error {
	if c.sessionID == "" {
		c.sendError(msg.Action, errNotConnected)
		return nil
	}

	accepted, err := request(ctx, c.sessionID)
	if err != nil {
		c.sendError(msg.Action, err)
		return fmt.Errorf("failed to handle %s: %w", msg.Action, err)
	}

	if !accepted {
		that.logger.Debug("request ignored", "action", msg.Action, "session", c.sessionID)
	}

	return nil
}

func decodePayload(msg *Message, target any) error {
	if len(msg.Payload) == 0 {
		return nil
	}

	if err := json.Unmarshal(msg.Payload, target); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return nil
}

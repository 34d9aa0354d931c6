// Package chatmcp exposes the chat service as MCP tools.
package chatmcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"nova-api/internal/chat"
	"nova-api/internal/history"
)

// SendParams are the arguments of the chat_send tool.
type SendParams struct {
	Message   *string `json:"message" mcp:"the user message to answer"`
	SessionID string  `json:"session_id,omitempty" mcp:"existing session id; a new session is created when empty"`
	UserID    string  `json:"user_id,omitempty" mcp:"id of the calling user (default: agent)"`
}

// SessionParams identify a session for the history tools.
type SessionParams struct {
	SessionID string `json:"session_id" mcp:"the session id"`
}

// Tools implements the MCP tool handlers.
type Tools struct {
	chat *chat.Service
}

func NewTools(svc *chat.Service) *Tools {
	return &Tools{chat: svc}
}

// NewServer builds an MCP server with the chat tools registered.
func NewServer(svc *chat.Service, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "nova-chat",
		Version: version,
	}, nil)

	t := NewTools(svc)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "chat_send",
		Description: "Sends a message to the assistant and records the exchange in the session history",
	}, t.Send)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "chat_history",
		Description: "Returns the ordered message history of a chat session",
	}, t.History)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "chat_clear",
		Description: "Deletes the message history of a chat session",
	}, t.Clear)

	return server
}

// NewHandler serves server over the MCP SSE transport.
func NewHandler(server *mcp.Server) http.Handler {
	return mcp.NewSSEHandler(func(*http.Request) *mcp.Server { return server })
}

func (t *Tools) Send(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[SendParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	// An empty message is valid, as over HTTP; only a missing one is rejected.
	if args.Message == nil {
		return errorResult("message parameter is required"), nil
	}
	resp, err := t.chat.Send(ctx, chat.Request{
		Message:   *args.Message,
		SessionID: args.SessionID,
		UserID:    args.UserID,
	})
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(resp)
}

func (t *Tools) History(_ context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[SessionParams]) (*mcp.CallToolResultFor[any], error) {
	sessionID := params.Arguments.SessionID
	if sessionID == "" {
		return errorResult("session_id parameter is required"), nil
	}
	h, err := t.chat.History(sessionID)
	if err != nil {
		return sessionError(sessionID, err), nil
	}
	return jsonResult(h)
}

func (t *Tools) Clear(_ context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[SessionParams]) (*mcp.CallToolResultFor[any], error) {
	sessionID := params.Arguments.SessionID
	if sessionID == "" {
		return errorResult("session_id parameter is required"), nil
	}
	if err := t.chat.Clear(sessionID); err != nil {
		return sessionError(sessionID, err), nil
	}
	return textResult(fmt.Sprintf("History of session %s cleared", sessionID)), nil
}

func sessionError(sessionID string, err error) *mcp.CallToolResultFor[any] {
	if errors.Is(err, history.ErrSessionNotFound) {
		return errorResult(fmt.Sprintf("session %s not found", sessionID))
	}
	return errorResult(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResultFor[any], error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return textResult(string(data)), nil
}

func textResult(text string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

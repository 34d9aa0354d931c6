package chatmcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"nova-api/internal/chat"
	"nova-api/internal/history"
	"nova-api/internal/responder"
)

func newTools() *Tools {
	return NewTools(chat.NewService(history.NewStore(), responder.NewSimulator(nil)))
}

func text(t *testing.T, res *mcp.CallToolResultFor[any]) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("want 1 content item, got %d", len(res.Content))
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("want text content, got %T", res.Content[0])
	}
	return tc.Text
}

func TestSendHistoryClear(t *testing.T) {
	tools := newTools()
	ctx := context.Background()

	res, err := tools.Send(ctx, nil, &mcp.CallToolParamsFor[SendParams]{Arguments: SendParams{Message: ptr("bonjour"), SessionID: "abc"}})
	if err != nil || res.IsError {
		t.Fatalf("send failed: %v %+v", err, res)
	}
	var resp chat.Response
	if err := json.Unmarshal([]byte(text(t, res)), &resp); err != nil {
		t.Fatalf("decode send result: %v", err)
	}
	if resp.SessionID != "abc" || !strings.HasPrefix(resp.Content, "🚀 Bonjour") {
		t.Fatalf("unexpected response: %+v", resp)
	}

	res, err = tools.History(ctx, nil, &mcp.CallToolParamsFor[SessionParams]{Arguments: SessionParams{SessionID: "abc"}})
	if err != nil || res.IsError {
		t.Fatalf("history failed: %v %+v", err, res)
	}
	var h chat.History
	if err := json.Unmarshal([]byte(text(t, res)), &h); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if h.MessageCount != 1 {
		t.Fatalf("want 1 message, got %d", h.MessageCount)
	}

	res, err = tools.Clear(ctx, nil, &mcp.CallToolParamsFor[SessionParams]{Arguments: SessionParams{SessionID: "abc"}})
	if err != nil || res.IsError {
		t.Fatalf("clear failed: %v %+v", err, res)
	}

	res, _ = tools.History(ctx, nil, &mcp.CallToolParamsFor[SessionParams]{Arguments: SessionParams{SessionID: "abc"}})
	if !res.IsError || !strings.Contains(text(t, res), "not found") {
		t.Fatalf("expected not found after clear, got %+v", res)
	}
}

func ptr(s string) *string { return &s }

func TestSendAcceptsEmptyMessage(t *testing.T) {
	tools := newTools()
	ctx := context.Background()

	res, err := tools.Send(ctx, nil, &mcp.CallToolParamsFor[SendParams]{Arguments: SendParams{Message: ptr(""), SessionID: "empty"}})
	if err != nil || res.IsError {
		t.Fatalf("empty message should be answered: %v %+v", err, res)
	}
	res, _ = tools.History(ctx, nil, &mcp.CallToolParamsFor[SessionParams]{Arguments: SessionParams{SessionID: "empty"}})
	var h chat.History
	if err := json.Unmarshal([]byte(text(t, res)), &h); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if h.MessageCount != 1 || h.Messages[0].UserMessage != "" {
		t.Fatalf("empty message turn not recorded: %+v", h)
	}
}

func TestToolArgumentValidation(t *testing.T) {
	tools := newTools()
	ctx := context.Background()

	res, _ := tools.Send(ctx, nil, &mcp.CallToolParamsFor[SendParams]{})
	if !res.IsError {
		t.Fatalf("send without message should fail")
	}
	res, _ = tools.Clear(ctx, nil, &mcp.CallToolParamsFor[SessionParams]{})
	if !res.IsError {
		t.Fatalf("clear without session id should fail")
	}
	res, _ = tools.Clear(ctx, nil, &mcp.CallToolParamsFor[SessionParams]{Arguments: SessionParams{SessionID: "missing"}})
	if !res.IsError || !strings.Contains(text(t, res), "missing not found") {
		t.Fatalf("clear of unknown session should fail: %+v", res)
	}
}

func TestNewServerAndHandler(t *testing.T) {
	svc := chat.NewService(history.NewStore(), responder.NewSimulator(nil))
	server := NewServer(svc, "test")
	if server == nil {
		t.Fatalf("nil server")
	}
	if NewHandler(server) == nil {
		t.Fatalf("nil handler")
	}
}

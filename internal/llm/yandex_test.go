package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Morwran/yagpt"
)

type fakeYaGPT struct {
	gotToken string
	gotMsgs  []yagpt.Message
	resp     *yagpt.CompletionResponse
	err      error
}

func (f *fakeYaGPT) CompletionWithCtx(_ context.Context, iamTok string, m []yagpt.Message) (*yagpt.CompletionResponse, error) {
	f.gotToken = iamTok
	f.gotMsgs = m
	return f.resp, f.err
}

func (f *fakeYaGPT) Completion(iamTok string, m []yagpt.Message) (*yagpt.CompletionResponse, error) {
	return f.CompletionWithCtx(context.Background(), iamTok, m)
}

type fakeIAM struct {
	calls int
	ttl   time.Duration
	now   time.Time
}

func (f *fakeIAM) Create() (*yagpt.IamTokenResponse, error) {
	return f.CreateWithCtx(context.Background())
}

func (f *fakeIAM) CreateWithCtx(context.Context) (*yagpt.IamTokenResponse, error) {
	f.calls++
	return &yagpt.IamTokenResponse{IamToken: fmt.Sprintf("iam-%d", f.calls), ExpiresAt: f.now.Add(f.ttl)}, nil
}

func (f *fakeIAM) Close() error { return nil }

func TestToYandexMessages(t *testing.T) {
	in := []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	}
	out := toYandexMessages(in)
	if len(out) != len(in) {
		t.Fatalf("want %d messages, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i].Role != in[i].Role || out[i].Content != in[i].Content {
			t.Fatalf("message %d: want %+v, got %+v", i, in[i], out[i])
		}
	}
}

func TestYandexGenerate(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ya := &fakeYaGPT{resp: &yagpt.CompletionResponse{
		Alternatives: []yagpt.Alternative{{Message: yagpt.Message{Role: RoleAssistant, Content: "privet"}}},
		Usage:        yagpt.ContentUsage{InputTextTokens: 3, CompletionTokens: 2, TotalTokens: 5},
	}}
	iam := &fakeIAM{ttl: time.Hour, now: now}
	c := newYandexClient(ya, iam)
	c.now = func() time.Time { return now }

	resp, err := c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Content != "privet" || resp.Model != yagpt.YaModelLite || resp.TotalTokens != 5 || resp.PromptTokens != 3 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if ya.gotToken != "iam-1" || len(ya.gotMsgs) != 1 || ya.gotMsgs[0].Content != "hi" {
		t.Fatalf("unexpected request: token=%q msgs=%+v", ya.gotToken, ya.gotMsgs)
	}

	if _, err := c.Generate(context.Background(), nil); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if iam.calls != 1 {
		t.Fatalf("token should be reused while valid, got %d exchanges", iam.calls)
	}

	c.now = func() time.Time { return now.Add(58 * time.Minute) }
	if _, err := c.Generate(context.Background(), nil); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if iam.calls != 2 || ya.gotToken != "iam-2" {
		t.Fatalf("token should be renewed near expiry: calls=%d token=%q", iam.calls, ya.gotToken)
	}
}

func TestYandexGenerateErrors(t *testing.T) {
	iam := &fakeIAM{ttl: time.Hour, now: time.Now()}

	c := newYandexClient(&fakeYaGPT{resp: &yagpt.CompletionResponse{}}, iam)
	if _, err := c.Generate(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty alternatives")
	}

	boom := errors.New("boom")
	c = newYandexClient(&fakeYaGPT{err: boom}, iam)
	if _, err := c.Generate(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
}

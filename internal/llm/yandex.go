package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Morwran/yagpt"
)

// iamRefreshMargin renews the IAM token this long before it expires.
const iamRefreshMargin = 5 * time.Minute

// YandexClient talks to YandexGPT. The IAM token is exchanged from the OAuth
// token on first use and renewed shortly before it expires.
type YandexClient struct {
	ya  yagpt.YaGPTFace
	iam yagpt.IamFace
	now func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewYandex(oauthToken, folderID string) (*YandexClient, error) {
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init yandex iam: %w", err)
	}
	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to init yagpt: %w", err)
	}
	c := newYandexClient(ya, iam)
	if _, err := c.iamToken(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}

func newYandexClient(ya yagpt.YaGPTFace, iam yagpt.IamFace) *YandexClient {
	return &YandexClient{ya: ya, iam: iam, now: time.Now}
}

func (c *YandexClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	token, err := c.iamToken(ctx)
	if err != nil {
		return Response{}, err
	}
	resp, err := c.ya.CompletionWithCtx(ctx, token, toYandexMessages(messages))
	if err != nil {
		return Response{}, fmt.Errorf("yagpt completion failed: %w", err)
	}
	return fromYandexResponse(resp)
}

func (c *YandexClient) iamToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Add(iamRefreshMargin).Before(c.expiresAt) {
		return c.token, nil
	}
	resp, err := c.iam.CreateWithCtx(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create iam token: %w", err)
	}
	c.token, c.expiresAt = resp.IamToken, resp.ExpiresAt
	return c.token, nil
}

func toYandexMessages(messages []Message) []yagpt.Message {
	out := make([]yagpt.Message, len(messages))
	for i, m := range messages {
		out[i] = yagpt.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

func fromYandexResponse(resp *yagpt.CompletionResponse) (Response, error) {
	if resp == nil || len(resp.Alternatives) == 0 {
		return Response{}, errors.New("yagpt returned empty response")
	}
	return Response{
		Content:          resp.Alternatives[0].Message.Content,
		Model:            yagpt.YaModelLite,
		PromptTokens:     int(resp.Usage.InputTextTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}, nil
}

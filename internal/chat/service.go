// Package chat runs one chat exchange end to end: it resolves the session,
// asks the responder for a reply, records the turn and builds the response.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"nova-api/internal/history"
	"nova-api/internal/metrics"
	"nova-api/internal/responder"
	"nova-api/internal/storage"
)

// DefaultUserID is used when a request carries no user id.
const DefaultUserID = "agent"

// ErrReplyFailed wraps any failure of the responder.
var ErrReplyFailed = errors.New("reply generation failed")

type Request struct {
	Message   string
	UserID    string
	SessionID string
}

type Response struct {
	ID             string    `json:"id"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	ModelUsed      string    `json:"model_used"`
	ProcessingTime float64   `json:"processing_time"`
	SessionID      string    `json:"session_id"`
}

type History struct {
	SessionID    string         `json:"session_id"`
	MessageCount int            `json:"message_count"`
	Messages     []history.Turn `json:"messages"`
}

type Service struct {
	store     *history.Store
	responder responder.Responder
	recorder  storage.Recorder
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

// WithRecorder mirrors every successful turn to r.
func WithRecorder(r storage.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store *history.Store, r responder.Responder, opts ...Option) *Service {
	s := &Service{
		store:     store,
		responder: r,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send generates a reply for req and appends the exchange to the session.
// On ErrReplyFailed nothing is recorded.
func (s *Service) Send(ctx context.Context, req Request) (Response, error) {
	sessionID := s.store.ResolveOrCreate(req.SessionID)
	userID := req.UserID
	if userID == "" {
		userID = DefaultUserID
	}

	prior, err := s.store.Get(sessionID)
	if err != nil && !errors.Is(err, history.ErrSessionNotFound) {
		return Response{}, err
	}

	start := s.now()
	reply, err := s.generate(ctx, responder.Prompt{
		SessionID: sessionID,
		UserID:    userID,
		Message:   req.Message,
		History:   prior,
	})
	elapsed := s.now().Sub(start)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObserveFailure()
		}
		s.logger.Error("reply generation failed", "session_id", sessionID, "error", err)
		return Response{}, fmt.Errorf("%w: %w", ErrReplyFailed, err)
	}

	at := s.now()
	s.store.Append(sessionID, history.Turn{
		UserMessage: req.Message,
		AIResponse:  reply.Content,
		Timestamp:   at,
	})
	s.record(storage.Event{
		Timestamp:   at,
		SessionID:   sessionID,
		UserID:      userID,
		UserMessage: req.Message,
		AIResponse:  reply.Content,
		Model:       reply.Model,
	})
	if s.metrics != nil {
		s.metrics.ObserveReply(reply.Model, elapsed)
		s.updateStoreSize()
	}

	s.logger.Debug("chat reply", "session_id", sessionID, "user_id", userID, "model", reply.Model, "elapsed", elapsed)

	return Response{
		ID:             uuid.NewString(),
		Content:        reply.Content,
		Timestamp:      at,
		ModelUsed:      reply.Model,
		ProcessingTime: elapsed.Seconds(),
		SessionID:      sessionID,
	}, nil
}

func (s *Service) History(sessionID string) (History, error) {
	turns, err := s.store.Get(sessionID)
	if err != nil {
		return History{}, err
	}
	return History{
		SessionID:    sessionID,
		MessageCount: len(turns),
		Messages:     turns,
	}, nil
}

func (s *Service) Clear(sessionID string) error {
	err := s.store.Clear(sessionID)
	if s.metrics != nil {
		s.metrics.ObserveClear(err == nil)
		s.updateStoreSize()
	}
	if err != nil {
		return err
	}
	s.logger.Info("session history cleared", "session_id", sessionID)
	return nil
}

// Stats reports the current size of the session store.
func (s *Service) Stats() history.Stats {
	return s.store.Stats()
}

// generate calls the responder and turns a panic into an error so one bad
// request never takes the process down.
func (s *Service) generate(ctx context.Context, p responder.Prompt) (reply responder.Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("responder panic: %v", r)
		}
	}()
	return s.responder.Reply(ctx, p)
}

func (s *Service) record(ev storage.Event) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.AppendInteraction(ev); err != nil {
		s.logger.Warn("failed to record transcript", "session_id", ev.SessionID, "error", err)
	}
}

func (s *Service) updateStoreSize() {
	st := s.store.Stats()
	s.metrics.SetStoreSize(st.Sessions, st.Turns)
}

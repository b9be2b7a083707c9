package panelsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	clanbattleservice "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/application"
	clanbattledomain "github.com/Black-And-White-Club/clanbattle-bot/app/modules/clanbattle/domain"
	"github.com/Black-And-White-Club/clanbattle-bot/internal/observability"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Messenger posts and edits rendered panels on the chat surface.
type Messenger interface {
	CreateMessage(ctx context.Context, channelID string, model *clanbattledomain.RenderModel) (string, error)
	EditMessage(ctx context.Context, channelID, messageID string, model *clanbattledomain.RenderModel) error
}

// RefStore persists the last known message per panel key.
type RefStore interface {
	ListPanelRefs(ctx context.Context, db bun.IDB) ([]clanbattledomain.PanelRef, error)
	UpsertPanelRef(ctx context.Context, db bun.IDB, ref clanbattledomain.PanelRef) error
}

const (
	outcomeEdited  = "edited"
	outcomeCreated = "created"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
)

// Syncer keeps one live message per panel key. Writers for the same key
// are serialized so two concurrent syncs never both create a message.
type Syncer struct {
	messenger Messenger
	store     RefStore
	logger    *slog.Logger
	metrics   observability.Metrics
	tracer    trace.Tracer
	now       func() time.Time

	mu    sync.Mutex
	cache map[string]string
	locks map[string]*sync.Mutex
}

func NewSyncer(messenger Messenger, store RefStore, logger *slog.Logger, metrics observability.Metrics, tracer trace.Tracer) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NewNoopMetrics()
	}
	return &Syncer{
		messenger: messenger,
		store:     store,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		now:       time.Now,
		cache:     make(map[string]string),
		locks:     make(map[string]*sync.Mutex),
	}
}

var _ clanbattleservice.PanelSyncer = (*Syncer)(nil)

// Restore loads persisted refs into the cache. Existing cache entries win.
func (s *Syncer) Restore(ctx context.Context) (int, error) {
	refs, err := s.store.ListPanelRefs(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("panelsync.Restore: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ref := range refs {
		if ref.MessageID == "" {
			continue
		}
		if _, ok := s.cache[ref.Key]; ok {
			continue
		}
		s.cache[ref.Key] = ref.MessageID
		n++
	}
	return n, nil
}

// Tracked reports whether a message is known for target.
func (s *Syncer) Tracked(target clanbattledomain.PanelTarget) bool {
	_, ok := s.cached(target.Key())
	return ok
}

// Sync edits the tracked message in place. Without one, or when the edit
// fails, it creates a new message and tracks that instead.
func (s *Syncer) Sync(ctx context.Context, target clanbattledomain.PanelTarget, build clanbattleservice.BuildFunc) error {
	return s.run(ctx, "panelsync.Sync", target, build, false)
}

// PostNew always creates a new message and tracks it.
func (s *Syncer) PostNew(ctx context.Context, target clanbattledomain.PanelTarget, build clanbattleservice.BuildFunc) error {
	return s.run(ctx, "panelsync.PostNew", target, build, true)
}

func (s *Syncer) run(ctx context.Context, op string, target clanbattledomain.PanelTarget, build clanbattleservice.BuildFunc, fresh bool) (err error) {
	key := target.Key()
	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("panel_key", key)))
		defer func() {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}()
	}

	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	model, err := build(ctx)
	if err != nil {
		s.metrics.RecordPanelSync(ctx, string(target.Kind), outcomeFailed)
		return fmt.Errorf("%s: build %s: %w", op, key, err)
	}
	if model == nil {
		s.metrics.RecordPanelSync(ctx, string(target.Kind), outcomeSkipped)
		return nil
	}

	if !fresh {
		if messageID, ok := s.cached(key); ok {
			editErr := s.messenger.EditMessage(ctx, target.ChannelID, messageID, model)
			if editErr == nil {
				s.metrics.RecordPanelSync(ctx, string(target.Kind), outcomeEdited)
				return nil
			}
			s.logger.WarnContext(ctx, "Panel edit failed, posting a new one",
				observability.CorrelationID(ctx),
				slog.String("panel_key", key),
				slog.String("message_id", messageID),
				slog.Any("error", editErr),
			)
		}
	}

	messageID, err := s.messenger.CreateMessage(ctx, target.ChannelID, model)
	if err != nil {
		s.metrics.RecordPanelSync(ctx, string(target.Kind), outcomeFailed)
		if !errors.Is(err, clanbattledomain.ErrTransport) {
			err = fmt.Errorf("%w: %w", clanbattledomain.ErrTransport, err)
		}
		return fmt.Errorf("%s: create %s: %w", op, key, err)
	}

	s.mu.Lock()
	s.cache[key] = messageID
	s.mu.Unlock()
	s.metrics.RecordPanelSync(ctx, string(target.Kind), outcomeCreated)

	// The message is live; a lost ref only costs a duplicate post after restart.
	ref := clanbattledomain.PanelRef{Key: key, ChannelID: target.ChannelID, MessageID: messageID, UpdatedAt: s.now().UTC()}
	if err := s.store.UpsertPanelRef(ctx, nil, ref); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist panel ref",
			observability.CorrelationID(ctx),
			slog.String("panel_key", key),
			slog.Any("error", err),
		)
	}
	return nil
}

func (s *Syncer) cached(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.cache[key]
	return id, ok
}

func (s *Syncer) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

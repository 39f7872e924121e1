package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/profilewizard/autosave"
	"github.com/kbukum/profilewizard/component"
	"github.com/kbukum/profilewizard/logger"
	"github.com/kbukum/profilewizard/observability"
	"github.com/kbukum/profilewizard/snapshot"
	"github.com/kbukum/profilewizard/wizard"
)

// Session is one resumable run of the profile wizard. It owns the draft,
// gates forward navigation on the draft's completeness and autosaves every
// change, including step changes.
//
// Lock order is router, then session, then persister. Status listeners
// passed through WithAutosave must not call back into the Session.
type Session struct {
	key       string
	store     snapshot.Store[Draft]
	router    *wizard.Router
	persister *autosave.Persister[Draft]
	log       *logger.Logger
	now       func() time.Time

	mu        sync.Mutex
	draft     Draft
	discarded bool
}

var (
	_ component.Component   = (*Session)(nil)
	_ component.Describable = (*Session)(nil)
)

// Option configures a Session.
type Option func(*options)

type options struct {
	log      *logger.Logger
	now      func() time.Time
	autosave []autosave.Option[Draft]
}

// WithLogger sets the session logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithNow overrides the clock used for Draft.UpdatedAt.
func WithNow(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithAutosave passes options to the underlying persister. WithOnLoad is
// reserved by the session and ignored.
func WithAutosave(opts ...autosave.Option[Draft]) Option {
	return func(o *options) { o.autosave = append(o.autosave, opts...) }
}

// New creates a session stored under key. Call Start to resume a saved draft.
func New(key string, store snapshot.Store[Draft], opts ...Option) (*Session, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get("session")
	}

	s := &Session{
		key:   key,
		store: store,
		log:   o.log.WithFields(logger.Fields(logger.FieldSessionKey, key)),
		now:   o.now,
	}

	router, err := wizard.NewRouter(StepCount,
		wizard.WithGuard(s.ready),
		wizard.WithOnStepChange(s.stepChanged),
		wizard.WithLogger(o.log),
	)
	if err != nil {
		return nil, err
	}
	s.router = router

	popts := make([]autosave.Option[Draft], 0, len(o.autosave)+2)
	popts = append(popts, autosave.WithLogger[Draft](o.log))
	popts = append(popts, o.autosave...)
	popts = append(popts, autosave.WithOnLoad(s.restore))
	persister, err := autosave.New(key, store, Draft{}, popts...)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	s.persister = persister
	return s, nil
}

// ready is the router guard. It runs with the router locked.
func (s *Session) ready(step int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Ready(step)
}

func (s *Session) stepChanged(from, to int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Step = to
	s.draft.UpdatedAt = s.now()
	if !s.discarded {
		s.persister.Update(s.draft.Clone())
	}
	s.log.Debug("step changed", logger.Fields("from", StepName(from), logger.FieldStep, StepName(to)))
}

// restore adopts a loaded draft. The saved step is trusted and only clamped.
func (s *Session) restore(snap snapshot.Snapshot[Draft]) {
	step := s.router.Restore(snap.Payload.Step)

	s.mu.Lock()
	s.draft = snap.Payload.Clone()
	s.draft.Step = step
	s.mu.Unlock()

	s.log.Info("session resumed", logger.Fields(
		logger.FieldStep, StepName(step),
		"saved_at", snap.SavedAt,
	))
}

// Key returns the storage key of the session.
func (s *Session) Key() string { return s.key }

// Name implements component.Component.
func (s *Session) Name() string { return "session" }

// Start resumes the saved draft, if any. Nothing is written by resuming.
func (s *Session) Start(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanSessionStart)
	defer span.End()
	span.SetAttributes(attribute.String(observability.AttrSessionKey, s.key))
	return s.persister.Start(ctx)
}

// Leave writes the draft now and stops autosaving. The persister is
// stopped even when the final write fails; that error is returned.
// Leaving a discarded session writes nothing.
func (s *Session) Leave(ctx context.Context) error {
	if s.isDiscarded() {
		return nil
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanSessionLeave)
	defer span.End()
	span.SetAttributes(attribute.String(observability.AttrSessionKey, s.key))

	saveErr := s.persister.ForceSave(ctx)
	if err := s.persister.Stop(ctx); err != nil && saveErr == nil {
		saveErr = err
	}
	if saveErr != nil {
		observability.SetSpanError(ctx, saveErr)
		s.log.Warn("final save failed", logger.Fields(logger.FieldError, saveErr.Error()))
	}
	return saveErr
}

// Stop implements component.Component by leaving the session.
func (s *Session) Stop(ctx context.Context) error { return s.Leave(ctx) }

// Discard stops autosaving without a final write, resets the session to an
// empty draft on the first step and deletes the saved draft, typically after
// the profile was submitted. Nothing is written for the session afterwards.
func (s *Session) Discard(ctx context.Context) error {
	s.mu.Lock()
	s.discarded = true
	s.mu.Unlock()
	if err := s.persister.Stop(ctx); err != nil {
		return err
	}

	s.router.Restore(0)
	s.mu.Lock()
	s.draft = Draft{UpdatedAt: s.now()}
	s.mu.Unlock()

	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("session: discard %q: %w", s.key, err)
	}
	s.log.Info("saved draft discarded")
	return nil
}

// Health implements component.Component.
func (s *Session) Health(ctx context.Context) component.Health {
	h := s.persister.Health(ctx)
	h.Name = s.Name()
	return h
}

// Describe implements component.Describable.
func (s *Session) Describe() component.Description {
	return component.Description{
		Name:    "Wizard Session",
		Type:    "session",
		Details: fmt.Sprintf("key=%s steps=%d", s.key, StepCount),
	}
}

// Next moves to the following step if the current data allows it.
func (s *Session) Next() wizard.Result { return s.router.GoNext() }

// Prev moves to the previous step.
func (s *Session) Prev() wizard.Result { return s.router.GoPrev() }

// Jump moves to step. Forward jumps need every earlier step complete.
func (s *Session) Jump(step int) wizard.Result { return s.router.SetStep(step) }

// CanEnter reports whether step can be shown now.
func (s *Session) CanEnter(step int) bool { return s.router.CanEnter(step) }

// Missing lists what blocks entering step.
func (s *Session) Missing(step int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Missing(step)
}

// Position returns the visible step.
func (s *Session) Position() wizard.Position { return s.router.Position() }

// Progress returns the step indicator fraction.
func (s *Session) Progress() float64 { return s.router.Progress() }

// Draft returns a copy of the current draft.
func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// Update edits the draft and schedules an autosave. fn must not change
// Step; navigation goes through Next, Prev and Jump. Edits after Discard
// stay in memory only.
func (s *Session) Update(fn func(*Draft)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	step := s.draft.Step
	fn(&s.draft)
	s.draft.Step = step
	s.draft.UpdatedAt = s.now()
	if !s.discarded {
		s.persister.Update(s.draft.Clone())
	}
}

// Save writes the draft now. It does nothing after Discard.
func (s *Session) Save(ctx context.Context) error {
	if s.isDiscarded() {
		return nil
	}
	return s.persister.ForceSave(ctx)
}

func (s *Session) isDiscarded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discarded
}

// Status returns the autosave status.
func (s *Session) Status() autosave.Status { return s.persister.Status() }

// Err returns the last autosave error.
func (s *Session) Err() error { return s.persister.Err() }

// SavedAt returns when the draft was last written.
func (s *Session) SavedAt() time.Time { return s.persister.SavedAt() }

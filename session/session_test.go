package session

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/profilewizard/autosave"
	"github.com/kbukum/profilewizard/component"
	"github.com/kbukum/profilewizard/errors"
	"github.com/kbukum/profilewizard/logger"
	"github.com/kbukum/profilewizard/snapshot"
	"github.com/kbukum/profilewizard/wizard"
)

const testKey = "wizard:u1"

// manualClock runs due timers when Advance is called.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	c    *manualClock
	at   time.Time
	f    func()
	done bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) autosave.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{c: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.done && !t.at.After(c.now) {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

// countingStore counts writes and can be told to fail them.
type countingStore struct {
	*snapshot.MemoryStore[Draft]

	mu      sync.Mutex
	saves   int
	saveErr error
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: snapshot.NewMemoryStore[Draft]()}
}

func (s *countingStore) Save(ctx context.Context, snap *snapshot.Snapshot[Draft]) error {
	s.mu.Lock()
	err := s.saveErr
	if err == nil {
		s.saves++
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.Save(ctx, snap)
}

func (s *countingStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *countingStore) stored(t *testing.T) Draft {
	t.Helper()
	snap, err := s.MemoryStore.Load(context.Background(), testKey)
	if err != nil || snap == nil {
		t.Fatalf("expected stored snapshot, got %v, %v", snap, err)
	}
	return snap.Payload
}

func newTestSession(t *testing.T, store snapshot.Store[Draft], clock *manualClock) *Session {
	t.Helper()
	s, err := New(testKey, store,
		WithLogger(logger.NewNop()),
		WithNow(clock.Now),
		WithAutosave(autosave.WithClock[Draft](clock)),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

func TestSession_GuardsFollowDraft(t *testing.T) {
	clock := newManualClock()
	s := newTestSession(t, newCountingStore(), clock)

	if r := s.Next(); r != wizard.ResultBlocked {
		t.Fatalf("expected blocked on empty skills, got %s", r)
	}
	if m := s.Missing(StepExperience); len(m) != 1 || m[0] != "skills: add at least one entry" {
		t.Errorf("unexpected missing %q", m)
	}

	s.Update(func(d *Draft) { d.Skills = append(d.Skills, goSkill) })
	if !s.CanEnter(StepExperience) {
		t.Fatal("experience should be enterable with a valid skill")
	}
	if r := s.Next(); !r.Moved() {
		t.Fatalf("expected moved, got %s", r)
	}
	if r := s.Jump(StepReview); r != wizard.ResultBlocked {
		t.Errorf("expected jump to review blocked, got %s", r)
	}
	if r := s.Jump(StepCount); r != wizard.ResultOutOfRange {
		t.Errorf("expected out of range, got %s", r)
	}
	if r := s.Prev(); !r.Moved() || s.Position().Step != StepSkills {
		t.Errorf("expected back on skills, got %s at %d", r, s.Position().Step)
	}

	s.Update(func(d *Draft) {
		d.Experience = []Experience{acmeJob}
		d.Education = []Education{uniEdu}
	})
	if r := s.Jump(StepReview); !r.Moved() {
		t.Fatalf("expected jump to review, got %s", r)
	}
	if got := s.Progress(); got != 1 {
		t.Errorf("expected full progress, got %v", got)
	}
}

func TestSession_UpdateKeepsStep(t *testing.T) {
	s := newTestSession(t, newCountingStore(), newManualClock())
	s.Update(func(d *Draft) {
		d.Step = StepReview
		d.Skills = []Skill{goSkill}
	})
	if s.Position().Step != StepSkills || s.Draft().Step != StepSkills {
		t.Errorf("Update must not navigate, router at %d draft at %d", s.Position().Step, s.Draft().Step)
	}
}

func TestSession_AutosavesEditsAndSteps(t *testing.T) {
	clock := newManualClock()
	store := newCountingStore()
	s := newTestSession(t, store, clock)

	s.Update(func(d *Draft) { d.Skills = []Skill{goSkill} })
	clock.Advance(time.Second)
	s.Next()
	if s.Status() != autosave.StatusPending {
		t.Fatalf("expected pending, got %s", s.Status())
	}
	clock.Advance(2 * time.Second)
	if store.Saves() != 0 {
		t.Fatal("the step change restarted the delay, nothing should be written yet")
	}
	clock.Advance(time.Second)

	if store.Saves() != 1 {
		t.Fatalf("expected one write, got %d", store.Saves())
	}
	got := store.stored(t)
	if got.Step != StepExperience || len(got.Skills) != 1 {
		t.Errorf("unexpected stored draft %+v", got)
	}
	if s.Status() != autosave.StatusSaved || !s.SavedAt().Equal(clock.Now()) {
		t.Errorf("expected saved at %v, got %s at %v", clock.Now(), s.Status(), s.SavedAt())
	}
}

func TestSession_ResumesWhereUserLeft(t *testing.T) {
	ctx := context.Background()
	clock := newManualClock()
	store := newCountingStore()

	first := newTestSession(t, store, clock)
	first.Update(func(d *Draft) {
		d.Skills = []Skill{goSkill}
		d.Experience = []Experience{acmeJob}
	})
	first.Next()
	first.Next()
	if err := first.Leave(ctx); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	writes := store.Saves()

	second := newTestSession(t, store, clock)
	if got := second.Position().Step; got != StepEducation {
		t.Fatalf("expected to resume on education, got %s", StepName(got))
	}
	d := second.Draft()
	if len(d.Skills) != 1 || d.Experience[0].Company != "Acme" {
		t.Errorf("unexpected resumed draft %+v", d)
	}
	if store.Saves() != writes {
		t.Error("resuming must not write")
	}
	if err := second.Leave(ctx); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if store.Saves() != writes {
		t.Error("leaving an unchanged resumed session must not write")
	}
}

func TestSession_RestoredStepIsTrusted(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		saved int
		want  int
	}{
		{"incomplete data past the guard", StepReview, StepReview},
		{"step above range", 9, StepReview},
		{"negative step", -2, StepSkills},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newCountingStore()
			if err := store.MemoryStore.Save(ctx, &snapshot.Snapshot[Draft]{Key: testKey, Payload: Draft{Step: tc.saved}}); err != nil {
				t.Fatal(err)
			}
			s := newTestSession(t, store, newManualClock())
			if got := s.Position().Step; got != tc.want {
				t.Errorf("expected step %d, got %d", tc.want, got)
			}
			if s.Draft().Step != tc.want {
				t.Errorf("draft step not clamped: %d", s.Draft().Step)
			}
		})
	}
}

func TestSession_GuardsApplyAfterRestore(t *testing.T) {
	store := newCountingStore()
	_ = store.MemoryStore.Save(context.Background(), &snapshot.Snapshot[Draft]{Key: testKey, Payload: Draft{Step: StepEducation}})
	s := newTestSession(t, store, newManualClock())

	if r := s.Prev(); !r.Moved() {
		t.Fatalf("going back is never guarded, got %s", r)
	}
	if r := s.Next(); r != wizard.ResultBlocked {
		t.Errorf("expected forward move blocked on incomplete data, got %s", r)
	}
}

func TestSession_LeaveWritesImmediately(t *testing.T) {
	clock := newManualClock()
	store := newCountingStore()
	s := newTestSession(t, store, clock)

	s.Update(func(d *Draft) { d.Skills = []Skill{goSkill} })
	if err := s.Leave(context.Background()); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if store.Saves() != 1 || store.stored(t).Skills[0].Name != "Go" {
		t.Fatalf("expected the edit to be written on leave, saves=%d", store.Saves())
	}

	s.Update(func(d *Draft) { d.Skills = nil })
	clock.Advance(time.Minute)
	if store.Saves() != 1 {
		t.Error("no autosave after leaving")
	}
}

func TestSession_LeaveReportsSaveError(t *testing.T) {
	store := newCountingStore()
	s := newTestSession(t, store, newManualClock())
	boom := stderrors.New("quota exceeded")
	store.mu.Lock()
	store.saveErr = boom
	store.mu.Unlock()

	s.Update(func(d *Draft) { d.Skills = []Skill{goSkill} })
	err := s.Leave(context.Background())
	if !stderrors.Is(err, boom) || !errors.HasCode(err, errors.ErrCodeSaveFailed) {
		t.Fatalf("expected SAVE_FAILED wrapping the cause, got %v", err)
	}
	if s.Status() != autosave.StatusError {
		t.Errorf("expected error status, got %s", s.Status())
	}
	if h := s.Health(context.Background()); h.Status != component.StatusDegraded || h.Name != "session" {
		t.Errorf("unexpected health %+v", h)
	}
	if len(s.Draft().Skills) != 1 {
		t.Error("a failed save must keep the in-memory draft")
	}
}

func TestSession_Discard(t *testing.T) {
	ctx := context.Background()
	clock := newManualClock()
	store := newCountingStore()
	s := newTestSession(t, store, clock)

	s.Update(func(d *Draft) { d.Skills = []Skill{goSkill} })
	if err := s.Save(ctx); err != nil {
		t.Fatal(err)
	}
	s.Update(func(d *Draft) { d.Skills = nil })
	if err := s.Discard(ctx); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	clock.Advance(time.Minute)
	if err := s.Leave(ctx); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if snap, _ := store.Load(ctx, testKey); snap != nil {
		t.Errorf("expected snapshot removed, got %+v", snap)
	}
}

func TestSession_DiscardResetsDraft(t *testing.T) {
	ctx := context.Background()
	clock := newManualClock()
	store := newCountingStore()
	s := newTestSession(t, store, clock)

	s.Update(func(d *Draft) { d.Skills = []Skill{goSkill} })
	if r := s.Next(); !r.Moved() {
		t.Fatalf("expected to reach experience, got %s", r)
	}
	if err := s.Save(ctx); err != nil {
		t.Fatal(err)
	}
	saves := store.Saves()

	if err := s.Discard(ctx); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if d := s.Draft(); len(d.Skills) != 0 || d.Step != StepSkills {
		t.Errorf("expected an empty draft, got %+v", d)
	}
	if p := s.Position(); p.Step != StepSkills {
		t.Errorf("expected first step after discard, got %d", p.Step)
	}

	s.Update(func(d *Draft) { d.Skills = append(d.Skills, goSkill) })
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Next()
	clock.Advance(time.Minute)
	if err := s.Leave(ctx); err != nil {
		t.Fatal(err)
	}

	if n := store.Saves(); n != saves {
		t.Errorf("expected no writes after discard, got %d more", n-saves)
	}
	if snap, _ := store.Load(ctx, testKey); snap != nil {
		t.Errorf("discarded draft came back: %+v", snap.Payload)
	}
}

func TestSession_Component(t *testing.T) {
	s := newTestSession(t, newCountingStore(), newManualClock())
	var _ component.Component = s
	if s.Name() != "session" || s.Key() != testKey {
		t.Errorf("unexpected identity %q %q", s.Name(), s.Key())
	}
	if h := s.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %+v", h)
	}
	if d := s.Describe(); d.Type != "session" {
		t.Errorf("unexpected description %+v", d)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

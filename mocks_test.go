package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/uptrace/bun"

	auth "github.com/kiranaher5171/jobportal-auth"
	repository "github.com/goliatone/go-repository-bun"
)

// fakeScheduler is a virtual clock and timer wheel. Advance moves time
// forward firing due callbacks in deadline order, outside its own lock so
// callbacks may re-arm timers.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	sched    *fakeScheduler
	deadline time.Time
	fn       func()
	stopped  bool
	fired    bool
}

func (t *fakeTimer) Stop() bool {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func newFakeScheduler(start time.Time) *fakeScheduler {
	return &fakeScheduler{now: start}
}

func (s *fakeScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *fakeScheduler) Schedule(d time.Duration, fn func()) auth.TimerHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{
		sched:    s,
		deadline: s.now.Add(d),
		fn:       fn,
	}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)

	for {
		var next *fakeTimer
		for _, t := range s.timers {
			if t.stopped || t.fired || t.deadline.After(target) {
				continue
			}
			if next == nil || t.deadline.Before(next.deadline) {
				next = t
			}
		}
		if next == nil {
			break
		}

		if next.deadline.After(s.now) {
			s.now = next.deadline
		}
		next.fired = true
		fn := next.fn
		s.mu.Unlock()
		fn()
		s.mu.Lock()
	}

	s.now = target
	s.mu.Unlock()
}

// pendingTimers counts armed timers that have neither fired nor been
// stopped.
func (s *fakeScheduler) pendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// stubGateway answers from its function fields; nil fields fail the call.
type stubGateway struct {
	mu          sync.Mutex
	loginFn     func(ctx context.Context, email, password string) (*auth.TokenPair, *auth.SessionObject, error)
	verifyFn    func(ctx context.Context, accessToken string) (*auth.SessionObject, error)
	refreshFn   func(ctx context.Context, refreshToken string) (string, error)
	logoutCalls []string
}

func (g *stubGateway) Login(ctx context.Context, email, password string) (*auth.TokenPair, *auth.SessionObject, error) {
	if g.loginFn == nil {
		return nil, nil, auth.ErrInvalidCredentials
	}
	return g.loginFn(ctx, email, password)
}

func (g *stubGateway) Verify(ctx context.Context, accessToken string) (*auth.SessionObject, error) {
	if g.verifyFn == nil {
		return nil, auth.ErrTokenMalformed
	}
	return g.verifyFn(ctx, accessToken)
}

func (g *stubGateway) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if g.refreshFn == nil {
		return "", auth.ErrRefreshRejected
	}
	return g.refreshFn(ctx, refreshToken)
}

func (g *stubGateway) LogoutNotify(_ context.Context, refreshToken string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.logoutCalls = append(g.logoutCalls, refreshToken)
	return nil
}

func (g *stubGateway) logoutNotifyCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.logoutCalls)
}

// recordingPrompter captures the warning UI interactions.
type recordingPrompter struct {
	mu        sync.Mutex
	warnings  int
	dismissed int
	ended     []auth.LogoutReason
}

func (p *recordingPrompter) ShowWarning(time.Time, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.warnings++
}

func (p *recordingPrompter) DismissWarning() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dismissed++
}

func (p *recordingPrompter) SessionEnded(reason auth.LogoutReason) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ended = append(p.ended, reason)
}

func (p *recordingPrompter) warningCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.warnings
}

func (p *recordingPrompter) endedReasons() []auth.LogoutReason {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]auth.LogoutReason, len(p.ended))
	copy(out, p.ended)
	return out
}

// recordingSink collects activity events.
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) eventTypes() []auth.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auth.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

// testIdentity is a plain Identity value.
type testIdentity struct {
	id          string
	email       string
	role        auth.Role
	displayName string
}

func (i testIdentity) ID() string            { return i.id }
func (i testIdentity) Email() string         { return i.email }
func (i testIdentity) Role() auth.Role       { return i.role }
func (i testIdentity) DisplayName() string   { return i.displayName }

// fakeCredentials is an in-memory Credentials store keyed by partition and
// normalized email.
type fakeCredentials struct {
	mu       sync.Mutex
	users    map[string]*auth.Credential
	admins   map[string]*auth.Credential
	attempts int
	resets   int
}

func newFakeCredentials() *fakeCredentials {
	return &fakeCredentials{
		users:  map[string]*auth.Credential{},
		admins: map[string]*auth.Credential{},
	}
}

func (f *fakeCredentials) addCredential(c *auth.Credential) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email := auth.NormalizeEmail(c.Email)
	if c.Role == auth.RoleAdmin {
		f.admins[email] = c
	} else {
		f.users[email] = c
	}
}

func (f *fakeCredentials) FindByEmail(_ context.Context, email string, roles ...auth.Role) (*auth.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := auth.NormalizeEmail(email)
	partitions := []map[string]*auth.Credential{f.users, f.admins}
	if len(roles) > 0 {
		if roles[0] == auth.RoleAdmin {
			partitions = []map[string]*auth.Credential{f.admins}
		} else {
			partitions = []map[string]*auth.Credential{f.users}
		}
	}

	for _, p := range partitions {
		if c, ok := p[key]; ok {
			return c, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (f *fakeCredentials) FindByID(_ context.Context, id string, roles ...auth.Role) (*auth.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range []map[string]*auth.Credential{f.users, f.admins} {
		for _, c := range p {
			if c.ID.String() == id {
				return c, nil
			}
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (f *fakeCredentials) Register(_ context.Context, record *auth.Credential) (*auth.Credential, error) {
	f.addCredential(record)
	return record, nil
}

func (f *fakeCredentials) RegisterTx(_ context.Context, _ bun.IDB, record *auth.Credential) (*auth.Credential, error) {
	f.addCredential(record)
	return record, nil
}

func (f *fakeCredentials) TrackAttemptedLogin(_ context.Context, record *auth.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	now := time.Now()
	record.LoginAttempts++
	record.LoginAttemptAt = &now
	return nil
}

func (f *fakeCredentials) TrackSuccessfulLogin(_ context.Context, record *auth.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	record.LoginAttempts = 0
	record.LoginAttemptAt = nil
	return nil
}

func (f *fakeCredentials) Users() repository.Repository[*auth.User]   { return nil }
func (f *fakeCredentials) Admins() repository.Repository[*auth.Admin] { return nil }

var _ auth.Credentials = (*fakeCredentials)(nil)
var _ auth.Gateway = (*stubGateway)(nil)
var _ auth.Scheduler = (*fakeScheduler)(nil)
var _ auth.ActivitySource = (*auth.SignalBroadcaster)(nil)

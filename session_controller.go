package auth

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// SessionState is the client session lifecycle position.
type SessionState string

const (
	SessionStateUnauthenticated SessionState = "unauthenticated"
	SessionStateAuthenticating  SessionState = "authenticating"
	SessionStateAuthenticated   SessionState = "authenticated"
	SessionStateWarningShown    SessionState = "warning_shown"
	SessionStateRefreshing      SessionState = "refreshing"
	SessionStateLoggedOut       SessionState = "logged_out"
)

// LogoutReason explains why a session ended. The host uses it to decide
// what to show the user after the redirect.
type LogoutReason string

const (
	LogoutReasonUser     LogoutReason = "user_initiated"
	LogoutReasonExpired  LogoutReason = "inactivity_expired"
	LogoutReasonRejected LogoutReason = "refresh_rejected"
)

// ErrLoginSuperseded is returned when a login completed over the network
// after a logout had already torn the session epoch down. The result is
// discarded and never installed.
var ErrLoginSuperseded = goerrors.New("login superseded by logout", goerrors.CategoryConflict).
	WithTextCode(TextCodeLoginSuperseded).
	WithCode(goerrors.CodeConflict)

// WarningPrompter is the host-side UI contract for the inactivity warning.
// All methods are invoked outside the controller lock, so implementations
// may call back into the controller (ContinueSession, CancelSession).
type WarningPrompter interface {
	ShowWarning(deadline time.Time, remaining time.Duration)
	DismissWarning()
	SessionEnded(reason LogoutReason)
}

type noopWarningPrompter struct{}

func (noopWarningPrompter) ShowWarning(time.Time, time.Duration) {}
func (noopWarningPrompter) DismissWarning()                      {}
func (noopWarningPrompter) SessionEnded(LogoutReason)            {}

func normalizeWarningPrompter(p WarningPrompter) WarningPrompter {
	if p == nil {
		return noopWarningPrompter{}
	}
	return p
}

const (
	defaultWarningInterval  = time.Minute
	defaultWarningCountdown = 10 * time.Second
	defaultSessionTimeout   = 5 * time.Minute
	defaultRequestTimeout   = 15 * time.Second
)

// ControllerOption customizes session controller construction.
type ControllerOption func(*SessionController)

// WithControllerLogger overrides the controller logger.
func WithControllerLogger(logger Logger) ControllerOption {
	return func(c *SessionController) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithControllerClock injects a custom clock (useful for tests).
func WithControllerClock(clock func() time.Time) ControllerOption {
	return func(c *SessionController) {
		if clock != nil {
			c.clock = ClockFunc(clock)
		}
	}
}

// WithControllerScheduler replaces the timer scheduler (useful for tests).
func WithControllerScheduler(s Scheduler) ControllerOption {
	return func(c *SessionController) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// WithControllerStore sets the persistent session snapshot store.
func WithControllerStore(store SessionStore) ControllerOption {
	return func(c *SessionController) {
		if store != nil {
			c.store = store
		}
	}
}

// WithControllerPrompter sets the inactivity warning UI surface.
func WithControllerPrompter(p WarningPrompter) ControllerOption {
	return func(c *SessionController) {
		c.prompter = normalizeWarningPrompter(p)
	}
}

// WithControllerActivitySink sets the ActivitySink used to publish
// session lifecycle events.
func WithControllerActivitySink(sink ActivitySink) ControllerOption {
	return func(c *SessionController) {
		c.activitySink = normalizeActivitySink(sink)
	}
}

// WithControllerActivitySource binds a host input source. The controller
// subscribes it while a session is live and every signal becomes a Touch.
func WithControllerActivitySource(src ActivitySource) ControllerOption {
	return func(c *SessionController) {
		c.activitySource = src
	}
}

// SessionController drives the client session lifecycle: login, stored
// session revalidation, inactivity tracking with a warning prompt, and
// logout with atomic local cleanup. All public operations and timer
// callbacks serialize on one mutex; UI and network work happen outside it.
type SessionController struct {
	mu sync.Mutex

	gateway      Gateway
	store        SessionStore
	prompter     WarningPrompter
	activitySink ActivitySink
	logger       Logger
	clock        Clock
	scheduler    Scheduler

	activitySource ActivitySource
	releaseSource  func()

	warningInterval  time.Duration
	warningCountdown time.Duration
	sessionTimeout   time.Duration
	requestTimeout   time.Duration

	state         SessionState
	lastReason    LogoutReason
	principal     *SessionObject
	accessToken   string
	refreshToken  string
	lastActivity  time.Time
	loginInFlight bool

	// generation counts session epochs; it bumps on every install and
	// teardown so callbacks armed for a dead epoch become no-ops.
	generation uint64

	warningTimer   TimerHandle
	hardTimer      TimerHandle
	countdownTimer TimerHandle
}

// NewSessionController builds a controller over the given gateway.
// Intervals come from cfg; zero or negative values fall back to defaults.
func NewSessionController(gateway Gateway, cfg Config, opts ...ControllerOption) *SessionController {
	c := &SessionController{
		gateway:      gateway,
		store:        NewMemorySessionStore(),
		prompter:     noopWarningPrompter{},
		activitySink: noopActivitySink{},
		logger:       defLogger{},
		clock:        SystemClock,
		scheduler:    SystemScheduler,
		state:        SessionStateUnauthenticated,
	}

	if cfg != nil {
		c.warningInterval = cfg.GetWarningInterval()
		c.warningCountdown = cfg.GetWarningCountdown()
		c.sessionTimeout = cfg.GetSessionTimeout()
		c.requestTimeout = cfg.GetRequestTimeout()
	}

	if c.warningInterval <= 0 {
		c.warningInterval = defaultWarningInterval
	}
	if c.warningCountdown <= 0 {
		c.warningCountdown = defaultWarningCountdown
	}
	if c.sessionTimeout <= 0 {
		c.sessionTimeout = defaultSessionTimeout
	}
	if c.requestTimeout <= 0 {
		c.requestTimeout = defaultRequestTimeout
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// State returns the current lifecycle state.
func (c *SessionController) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastLogoutReason reports why the most recent session ended.
func (c *SessionController) LastLogoutReason() LogoutReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastReason
}

// CurrentSession returns the live principal, if any.
func (c *SessionController) CurrentSession() (*SessionObject, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.principal == nil || !c.isLive() {
		return nil, false
	}
	return c.principal, true
}

// AccessToken returns the current access token for outgoing requests.
func (c *SessionController) AccessToken() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isLive() {
		return "", false
	}
	return c.accessToken, true
}

// Login authenticates against the gateway and installs the session. It is
// non-reentrant: a second call while one is still on the wire is rejected.
// An existing live session is torn down locally before authenticating.
func (c *SessionController) Login(ctx context.Context, email, password string) (*SessionObject, error) {
	c.mu.Lock()
	if c.loginInFlight {
		c.mu.Unlock()
		return nil, ErrLoginInFlight
	}
	if c.isLive() {
		c.teardownLocked(LogoutReasonUser)
	}
	c.loginInFlight = true
	c.state = SessionStateAuthenticating
	gen := c.generation
	c.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	pair, principal, err := c.gateway.Login(callCtx, email, password)

	c.mu.Lock()
	c.loginInFlight = false

	if c.generation != gen {
		// a logout won the race; discard the result
		c.mu.Unlock()
		return nil, ErrLoginSuperseded
	}

	if err != nil {
		c.state = SessionStateUnauthenticated
		c.mu.Unlock()
		c.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Metadata:  map[string]any{"email": NormalizeEmail(email)},
		})
		return nil, err
	}

	c.installLocked(principal, pair.AccessToken, pair.RefreshToken)
	c.mu.Unlock()

	c.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Actor:     actorFromPrincipal(principal),
		UserID:    principal.GetUserID(),
	})

	return principal, nil
}

// Revalidate restores a stored session, the page-load path. It verifies the
// stored access token; on a typed token failure it runs exactly one refresh
// cycle; a transient network failure keeps the cached principal so the user
// stays signed in while offline. Returns (nil, nil) when no session is
// stored.
func (c *SessionController) Revalidate(ctx context.Context) (*SessionObject, error) {
	c.mu.Lock()
	if c.loginInFlight {
		c.mu.Unlock()
		return nil, ErrLoginInFlight
	}

	snapshot, found, err := c.store.Load()
	if err != nil {
		c.mu.Unlock()
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "unable to load stored session")
	}
	if !found {
		c.state = SessionStateUnauthenticated
		c.mu.Unlock()
		return nil, nil
	}

	c.loginInFlight = true
	c.state = SessionStateAuthenticating
	gen := c.generation
	c.mu.Unlock()

	principal, access, refresh, err := c.revalidateSnapshot(ctx, snapshot, gen)

	c.mu.Lock()
	c.loginInFlight = false

	if c.generation != gen {
		c.mu.Unlock()
		return nil, ErrLoginSuperseded
	}

	if err != nil {
		c.teardownLocked(LogoutReasonRejected)
		c.mu.Unlock()
		c.prompter.SessionEnded(LogoutReasonRejected)
		c.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventRefreshRejected,
			UserID:    snapshotUserID(snapshot),
		})
		return nil, err
	}

	c.installLocked(principal, access, refresh)
	c.mu.Unlock()

	return principal, nil
}

// revalidateSnapshot runs the verify/refresh decision tree off the lock.
func (c *SessionController) revalidateSnapshot(ctx context.Context, snapshot SessionSnapshot, gen uint64) (*SessionObject, string, string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	principal, err := c.gateway.Verify(callCtx, snapshot.AccessToken)
	cancel()

	if err == nil {
		return principal, snapshot.AccessToken, snapshot.RefreshToken, nil
	}

	if IsTransientError(err) {
		c.logger.Warn("session verify unreachable, keeping cached principal: %v", err)
		return snapshot.Principal, snapshot.AccessToken, snapshot.RefreshToken, nil
	}

	// typed token failure: exactly one refresh cycle
	c.setStateIfCurrent(gen, SessionStateRefreshing)

	callCtx, cancel = context.WithTimeout(ctx, c.requestTimeout)
	newAccess, refreshErr := c.gateway.Refresh(callCtx, snapshot.RefreshToken)
	cancel()

	if refreshErr != nil {
		if IsTransientError(refreshErr) {
			c.logger.Warn("session refresh unreachable, keeping cached principal: %v", refreshErr)
			return snapshot.Principal, snapshot.AccessToken, snapshot.RefreshToken, nil
		}
		return nil, "", "", ErrRefreshRejected
	}

	callCtx, cancel = context.WithTimeout(ctx, c.requestTimeout)
	principal, err = c.gateway.Verify(callCtx, newAccess)
	cancel()

	if err != nil {
		if IsTransientError(err) {
			c.logger.Warn("post refresh verify unreachable, keeping cached principal: %v", err)
			return snapshot.Principal, newAccess, snapshot.RefreshToken, nil
		}
		return nil, "", "", ErrRefreshRejected
	}

	c.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventRefreshSuccess,
		Actor:     actorFromPrincipal(principal),
		UserID:    principal.GetUserID(),
	})

	return principal, newAccess, snapshot.RefreshToken, nil
}

// Touch records user activity. It is O(1), idempotent, and ignored unless
// the session is in the plain Authenticated state; while the warning is
// shown, only an explicit ContinueSession extends the session.
func (c *SessionController) Touch() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != SessionStateAuthenticated {
		return
	}

	c.lastActivity = c.clock.Now()
	c.armTimersLocked()
}

// ContinueSession is the user's answer to the inactivity warning: keep the
// session. Ignored unless the warning is showing.
func (c *SessionController) ContinueSession(ctx context.Context) {
	c.mu.Lock()
	if c.state != SessionStateWarningShown {
		c.mu.Unlock()
		return
	}

	c.stopTimerLocked(&c.countdownTimer)
	c.state = SessionStateAuthenticated
	c.lastActivity = c.clock.Now()
	c.armTimersLocked()
	userID := c.principalUserIDLocked()
	c.mu.Unlock()

	c.prompter.DismissWarning()
	c.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventSessionExtended,
		UserID:    userID,
	})
}

// CancelSession is the user's answer to the inactivity warning: end the
// session now. It counts as an inactivity expiry, not a user logout.
func (c *SessionController) CancelSession(ctx context.Context) {
	c.mu.Lock()
	if c.state != SessionStateWarningShown {
		c.mu.Unlock()
		return
	}
	c.endSessionLocked(ctx, LogoutReasonExpired)
}

// Logout ends the session on user request. It always proceeds regardless
// of state: timers are cancelled, the snapshot is cleared atomically, and
// the server is notified best effort.
func (c *SessionController) Logout(ctx context.Context) error {
	c.mu.Lock()
	if !c.isLive() && c.state != SessionStateAuthenticating {
		c.mu.Unlock()
		return nil
	}
	c.endSessionLocked(ctx, LogoutReasonUser)
	return nil
}

// endSessionLocked performs teardown and then the off-lock notifications.
// The caller must hold the lock; it is released on return.
func (c *SessionController) endSessionLocked(ctx context.Context, reason LogoutReason) {
	refreshToken := c.refreshToken
	userID := c.principalUserIDLocked()
	c.teardownLocked(reason)
	c.mu.Unlock()

	if refreshToken != "" {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.requestTimeout)
		if err := c.gateway.LogoutNotify(callCtx, refreshToken); err != nil {
			c.logger.Warn("logout notify failed: %v", err)
		}
		cancel()
	}

	c.prompter.DismissWarning()
	c.prompter.SessionEnded(reason)

	eventType := ActivityEventLogout
	if reason == LogoutReasonExpired {
		eventType = ActivityEventSessionExpired
	}
	c.recordActivity(ctx, ActivityEvent{
		EventType: eventType,
		UserID:    userID,
		Metadata:  map[string]any{"reason": string(reason)},
	})
}

// teardownLocked clears local state and bumps the epoch so pending timer
// callbacks and in-flight network completions are discarded.
func (c *SessionController) teardownLocked(reason LogoutReason) {
	c.generation++
	c.stopTimerLocked(&c.warningTimer)
	c.stopTimerLocked(&c.hardTimer)
	c.stopTimerLocked(&c.countdownTimer)

	if c.releaseSource != nil {
		c.releaseSource()
		c.releaseSource = nil
	}

	c.principal = nil
	c.accessToken = ""
	c.refreshToken = ""
	c.lastReason = reason
	c.state = SessionStateUnauthenticated

	if err := c.store.Clear(); err != nil {
		c.logger.Warn("session store clear error: %v", err)
	}
}

// installLocked adopts a verified principal and tokens as the live session.
func (c *SessionController) installLocked(principal *SessionObject, access, refresh string) {
	c.generation++
	c.principal = principal
	c.accessToken = access
	c.refreshToken = refresh
	c.state = SessionStateAuthenticated
	c.lastActivity = c.clock.Now()
	c.lastReason = ""

	snapshot := SessionSnapshot{
		Principal:    principal,
		AccessToken:  access,
		RefreshToken: refresh,
		SavedAt:      c.lastActivity,
	}
	if principal != nil {
		snapshot.Role = principal.UserRole
	}
	if err := c.store.Save(snapshot); err != nil {
		c.logger.Warn("session store save error: %v", err)
	}

	c.armTimersLocked()
	c.bindActivitySourceLocked()
}

func (c *SessionController) bindActivitySourceLocked() {
	if c.activitySource == nil || c.releaseSource != nil {
		return
	}
	c.releaseSource = c.activitySource.Subscribe(func(SignalClass) {
		c.Touch()
	})
}

// armTimersLocked restarts the warning and hard inactivity timers as one
// unit. The hard timer is the backstop: it fires once no matter what the
// warning flow is doing.
func (c *SessionController) armTimersLocked() {
	c.stopTimerLocked(&c.warningTimer)
	c.stopTimerLocked(&c.hardTimer)

	gen := c.generation
	c.warningTimer = c.scheduler.Schedule(c.warningInterval, func() {
		c.onWarningTimer(gen)
	})
	c.hardTimer = c.scheduler.Schedule(c.sessionTimeout, func() {
		c.onHardTimer(gen)
	})
}

func (c *SessionController) onWarningTimer(gen uint64) {
	c.mu.Lock()
	if c.generation != gen || c.state != SessionStateAuthenticated {
		c.mu.Unlock()
		return
	}

	c.state = SessionStateWarningShown
	userID := c.principalUserIDLocked()
	remaining := c.warningCountdown
	deadline := c.clock.Now().Add(remaining)
	c.countdownTimer = c.scheduler.Schedule(remaining, func() {
		c.onCountdownExpired(gen)
	})
	c.mu.Unlock()

	c.prompter.ShowWarning(deadline, remaining)
	c.recordActivity(context.Background(), ActivityEvent{
		EventType: ActivityEventSessionWarning,
		UserID:    userID,
		Metadata:  map[string]any{"countdown": remaining.String()},
	})
}

func (c *SessionController) onCountdownExpired(gen uint64) {
	c.mu.Lock()
	if c.generation != gen || c.state != SessionStateWarningShown {
		c.mu.Unlock()
		return
	}
	c.endSessionLocked(context.Background(), LogoutReasonExpired)
}

func (c *SessionController) onHardTimer(gen uint64) {
	c.mu.Lock()
	if c.generation != gen || !c.isLive() {
		c.mu.Unlock()
		return
	}
	c.endSessionLocked(context.Background(), LogoutReasonExpired)
}

func (c *SessionController) isLive() bool {
	return c.state == SessionStateAuthenticated || c.state == SessionStateWarningShown
}

func (c *SessionController) setStateIfCurrent(gen uint64, s SessionState) {
	c.mu.Lock()
	if c.generation == gen {
		c.state = s
	}
	c.mu.Unlock()
}

func (c *SessionController) stopTimerLocked(handle *TimerHandle) {
	if *handle != nil {
		(*handle).Stop()
		*handle = nil
	}
}

func (c *SessionController) principalUserIDLocked() string {
	if c.principal == nil {
		return ""
	}
	return c.principal.GetUserID()
}

func (c *SessionController) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "session"}
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = c.clock.Now()
	}

	sink := normalizeActivitySink(c.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		c.logger.Warn("session controller activity sink error: %v", err)
	}
}

func actorFromPrincipal(p *SessionObject) ActorRef {
	if p == nil {
		return ActorRef{Type: "session"}
	}
	return ActorRef{ID: p.GetUserID(), Type: string(p.GetRole())}
}

func snapshotUserID(s SessionSnapshot) string {
	if s.Principal == nil {
		return ""
	}
	return s.Principal.GetUserID()
}

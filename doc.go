// Package auth implements the job portal authentication and session
// lifecycle: password verification against partitioned credential stores,
// JWT access/refresh issuance, and a client session controller with
// inactivity tracking.
//
// Server side:
//   - Credentials keeps applicants and administrators in two
//     schema-equivalent partitions (users, admins) backed by Bun. Lookups
//     normalize emails and probe both partitions unless a role hint is
//     given.
//   - Auther verifies credentials through an IdentityProvider and mints an
//     access/refresh token pair via TokenService. Refresh validates the
//     long lived token and issues a fresh access token only.
//   - AuthController exposes the JSON surface (/auth/login, /auth/verify,
//     /auth/refresh, /auth/logout) and RequireAuthenticated/RequireAdmin
//     guard routes with distinct 401/403 answers.
//
// Client side:
//   - SessionController owns the session state machine: login, stored
//     session revalidation with a single refresh cycle, an inactivity
//     warning with countdown, a hard timeout backstop, and atomic local
//     logout. Timers run through an injectable Scheduler and Clock so the
//     whole lifecycle is testable on a virtual clock.
//   - ActivitySource lets the host forward user input signals; the
//     controller subscribes only while a session is live and turns every
//     signal into a Touch.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther and the
//     session controller for login, refresh, and session lifecycle events.
//     Sinks run best-effort (errors are logged) so you can forward to a
//     database or queue without blocking authentication.
package auth

// Package auth implements the account core for an e-commerce backend:
// registration, credential authentication, the four token lifecycles
// (signed access tokens, opaque refresh tokens, one-time account
// activation tokens, time-boxed password reset tokens), and an
// idempotency cache that makes retried mutating commands safe.
//
// Transport, email delivery, and database provisioning are the host
// application's responsibility; this package exposes the stores and the
// orchestrator plus an optional go-router HTTP controller.
package auth

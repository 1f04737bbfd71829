// Package services implements [Client], the typed HTTP boundary to the link-monitoring backend.
//
// # Credentials
//
// The client never holds a credential of its own. Each request reads the current [oauth2.Token] from the bound
// [Session] and sets the Authorization header on that request only; there is no process-wide default header.
//
// # Expiry Interceptor
//
// A resty after-response hook watches every response. A 401 calls [Session.ExpireCredential] with the token the
// request was sent with, exactly once per failing call, so a late 401 from an older session cannot expire a newer
// one. The failure is still returned to the caller. Nothing is retried.
//
// # Error Handling
//
// Failures are [*shared.APIError] values classified by status:
//   - [shared.ErrAuthExpired] : 401
//   - [shared.ErrNotFound] : 404
//   - [shared.ErrValidation] : any other 4xx, carrying the server message
//   - [shared.ErrServiceUnavailable] : transport errors and 5xx
//
// The server's message/error/detail field is used when present, otherwise a per-call fallback message.
//
// # Routes
//
// Auth, links, alerts, alert settings, bulk upload, analytics and AI suggestions. [Client.Raw] issues an arbitrary
// authenticated request for debugging.
package services

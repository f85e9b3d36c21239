// Package riot is a small client for the Riot Games API: Riot ID to PUUID
// resolution, live game lookup and the eligibility filter applied to live
// games before they are spectated.
//
// Errors are classified so callers can branch with errors.Is:
// ErrCredentialExpired halts the service, ErrTransient and ErrMalformed are
// skipped for the current cycle and ErrUnknownIdentity only affects the
// identity that failed to resolve. A 404 from the spectator endpoint is not
// an error; it yields a nil match.
package riot

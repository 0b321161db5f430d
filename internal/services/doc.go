// Package services implements the OAuth client side of a native login.
//
// # OAuth Client
//
// [OAuthClient] wraps an [oauth2.Config] built from a configured provider. Its redirect URL always
// points at the loopback listener (http://127.0.0.1:<port>/callback/<provider>), and it builds
// authorization URLs with PKCE (S256) before exchanging the captured code for tokens.
//
// # Sessions
//
// A [Session] holds the state token and PKCE verifier for one login attempt. [Session.Verify]
// checks a captured [server.Payload] against it: the provider must match, the state must be
// identical, and the provider must not have reported an error.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrStateMismatch] : redirect state differs from the session
//   - [shared.ErrAuthFailed] : provider redirected with error/error_description
//   - [shared.ErrMissingCode] : redirect carried neither code nor error
package services

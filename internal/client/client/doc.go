// Package client is the remote store client of SpendWise.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface): sign-in and
//     sign-up, Ping, and Fetch/Create/Update/Delete/DeleteAll over income
//     and expense collections scoped by the identity's email.
//  2. A REST implementation (see RESTClient) that speaks the PostgREST and
//     GoTrue conventions of the hosted backend, attaches the bearer token
//     (or the anonymous key when no usable token is held), and maps HTTP
//     outcomes to the error taxonomy below.
//
// # Error Handling
//
//   - *ConfigurationError: the endpoint is malformed. Returned once by
//     NewRESTClient; fatal.
//   - ErrUnavailable: network failure or any *ServerError. Callers fall back
//     to local data and may retry later.
//   - ErrUnauthorized: the backend rejected the credentials or token.
//
// Deletes are soft (is_deleted plus deleted_at) unless the client was
// built with WithSoftDelete(false).
//
// # Concurrency
//
// RESTClient is safe for concurrent use. All operations honor context
// cancellation.
package client

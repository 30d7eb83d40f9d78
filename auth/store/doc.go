// Package store provides the two storage tiers behind the authorization store.
//
// The transient tier holds per-session values (client registration, tokens,
// PKCE verifier and the stashed authorization target) and is always written.
// The durable tier persists the same values per server id once the server
// record exists. Memory implementations are fine for tests and single
// process tools; FileTransient and SQLiteDurable survive restarts.
package store

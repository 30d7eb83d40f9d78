// Package mock provides an httptest friendly OAuth 2.1 authorization server
// used to exercise the authorization flow without external services.
//
// It serves protected resource and authorization server metadata, dynamic
// client registration, the authorize endpoint and a PKCE-checking token endpoint.
package mock

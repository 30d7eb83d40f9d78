// Package notification routes server pushed JSON-RPC notifications to typed subscribers.
//
// A Router is installed as the transport handler before a link is dialled. It
// answers server initiated ping requests, rejects any other server request with
// MethodNotFound and delivers notifications synchronously, in arrival order, to
// subscribers of the matching Kind and to catch-all subscribers. Diagnostic
// stderr lines emitted by the proxy for stdio servers only reach KindStderr
// subscribers.
package notification

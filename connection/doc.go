// Package connection manages a single MCP client connection established through the proxy.
//
// A Manager owns the connection state machine:
//
//	disconnected -> connecting -> connected
//	connecting   -> error-connecting-to-proxy   (health gate failed)
//	connecting   -> error                       (handshake or configuration failure)
//	connecting   -> connecting                  (401, after authorization)
//	connected    -> disconnected                (Disconnect)
//	connecting   -> disconnected                (Disconnect aborts the attempt)
//
// Requests are issued with MakeRequest (or the typed helpers such as ListTools),
// which apply per request timeouts, progress handling and record every exchange
// in the request history.
//
// Example:
//
//	manager := connection.New(descriptor, gate, factory, connection.WithProvider(provider))
//	if err := manager.Connect(ctx); err != nil {
//		if errors.Is(err, schema.ErrAuthorizationRedirect) {
//			// the user completes authorization in the browser
//		}
//	}
//	tools, err := manager.ListTools(ctx, nil)
package connection

// Package client is a small Flowise REST API client.
//
//	c := client.New(
//	    client.WithBaseURL("http://localhost:3000"),
//	    client.WithAPIKey(os.Getenv("FLOWISE_API_KEY")),
//	)
//	flow, err := c.GetChatflow(ctx, id)
//
// Non-2xx responses are returned as *errors.StatusError; transport failures
// as *errors.TimeoutError or *errors.ConnectError. GET requests retry
// transient failures (429, 5xx, timeouts, refused connections) with
// exponential backoff; writes are sent once.
package client

// Package delivery defines the inbound transport contract of the application.
package delivery

import "context"

// Delivery is a transport surface (e.g. an HTTP server) that serves requests
// until its context is done or the process shuts down.
type Delivery interface {
	Serve(ctx context.Context) error
}

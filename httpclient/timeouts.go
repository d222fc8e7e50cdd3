// httpclient/timeouts.go
package httpclient

import (
	"time"

	"go.uber.org/zap"
)

// ModifyHttpTimeout changes the timeout of subsequent API, profile and logout requests. Call it
// while no requests are in flight.
func (c *Client) ModifyHttpTimeout(newTimeout time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.http.Timeout = newTimeout
	c.config.ClientOptions.CustomTimeout = newTimeout
	c.Logger.Debug("HTTP timeout modified", zap.Duration("timeout", newTimeout))
}

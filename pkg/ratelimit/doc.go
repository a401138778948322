// Package ratelimit paces requests to the learning portal.
//
// Pacing is off by default. Setting portal.requests_per_minute enables a
// sliding window limiter that the portal Session waits on before every
// request:
//
//	limiter := ratelimit.PerMinute(cfg.Portal.RequestsPerMinute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // context cancelled
//	}
package ratelimit

// Package middleware provides the HTTP middleware in front of the desktop API.
//
//   - CORS: cross-origin access for the rendering front end, with the trace
//     headers exposed
//   - RateLimit: per-IP token bucket, idle clients evicted
//   - GlobalRateLimit: a single bucket shared by every client
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.CORSFor(cfg.Server.AllowedOrigins)))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware

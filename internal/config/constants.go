package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 5
	DBMaxIdleConns    = 2
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 30 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 10 * time.Second
)

// Timeout for startup pings against optional backing services
const PingTimeout = 5 * time.Second

// Every Overseerr call is bounded by this timeout; there are no retries.
const ExternalCallTimeout = 10 * time.Second

// Background job intervals
const SweepInterval = 60 * time.Second

// Command rate limiting window
const CommandRateLimitWindow = time.Minute

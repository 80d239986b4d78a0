package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "reserva"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	// LockModeLocal serializes within the process; LockModeMongo adds the
	// advisory lock document for multi-process deployments over one database.
	LockModeLocal = "local"
	LockModeMongo = "mongo"

	DefaultLockMode          = LockModeLocal
	DefaultLockTTL           = 10 * time.Second
	DefaultLockRetryInterval = 25 * time.Millisecond
	DefaultLockAcquireBudget = 5 * time.Second

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100
)

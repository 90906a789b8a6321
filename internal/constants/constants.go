package constants

import "time"

const (
	CountdownTickInterval = 250 * time.Millisecond
)

const (
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 30 * time.Second
	ShutdownTimeout = 5 * time.Second
)

const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	DefaultTopN          = 20
	FetchLogDefaultLimit = 50
	FetchLogMaxLimit     = 500
)

const (
	MaxConnsPerHost     = 16
	ClientReadTimeout   = 30 * time.Second
	ClientWriteTimeout  = 10 * time.Second
	MaxIdleConnDuration = 1 * time.Minute
)

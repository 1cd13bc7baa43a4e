package gormprobe

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/goforj/gormprobe/entity"
)

const (
	defaultQueryCacheTTL        = 5 * time.Minute
	defaultCacheCleanupInterval = 10 * time.Minute
)

// Config controls how Open builds a session.
type Config struct {
	Dialect Dialect

	// DSN is the backend connection string. Required for postgres and
	// mysql. When empty for sqlite, a uniquely named in-process
	// shared-cache memory database is used so parallel tests never observe
	// each other's rows.
	DSN string

	// Models are auto-migrated on open. Defaults to entity.All().
	Models []any

	// Recorder, when set, receives every traced statement and replaces the
	// session logger.
	Recorder *QueryRecorder

	// LogSQL switches the session logger from silent to info. Ignored when
	// Recorder is set.
	LogSQL bool

	// MaxOpenConns caps the underlying pool. Defaults to 1 for sqlite,
	// where a shared-cache memory database misbehaves under concurrent
	// connections. Negative means unbounded.
	MaxOpenConns int
}

var memoryDBSeq atomic.Int64

func memoryDSN() string {
	return fmt.Sprintf("file:gormprobe_%d?mode=memory&cache=shared", memoryDBSeq.Add(1))
}

func (c Config) withDefaults() Config {
	if c.Dialect == "" {
		c.Dialect = DialectSQLite
	}
	if c.DSN == "" && c.Dialect == DialectSQLite {
		c.DSN = memoryDSN()
	}
	if len(c.Models) == 0 {
		c.Models = entity.All()
	}
	if c.MaxOpenConns == 0 && c.Dialect == DialectSQLite {
		c.MaxOpenConns = 1
	}
	return c
}

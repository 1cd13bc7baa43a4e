package gormprobe

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/glebarez/sqlite"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var sqlIdentPartRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Open connects to the configured backend, wires the session logger, and
// auto-migrates the model set.
func Open(cfg Config) (*gorm.DB, error) {
	cfg = cfg.withDefaults()
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dialect %s requires a dsn", cfg.Dialect)
	}

	dialector, err := dialectorFor(cfg.Dialect, cfg.DSN)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: sessionLogger(cfg),
		// Two associations share the parent_id column; a constraint per
		// association would collide during migration.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s session: %w", cfg.Dialect, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(cfg.Models...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// dialectorFor builds the GORM dialector. Postgres and mysql run over a
// database/sql handle so the raw drivers stay selectable by name.
func dialectorFor(dialect Dialect, dsn string) (gorm.Dialector, error) {
	switch dialect {
	case DialectSQLite:
		return sqlite.Open(dsn), nil
	case DialectPostgres:
		sqlDB, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		return postgres.New(postgres.Config{Conn: sqlDB}), nil
	case DialectMySQL:
		sqlDB, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, err
		}
		return mysql.New(mysql.Config{Conn: sqlDB}), nil
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
}

func sessionLogger(cfg Config) logger.Interface {
	if cfg.Recorder != nil {
		return cfg.Recorder
	}
	if cfg.LogSQL {
		return logger.Default.LogMode(logger.Info)
	}
	return logger.Default.LogMode(logger.Silent)
}

// Close releases the session's connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Reset deletes every row in reverse dependency order so one backend can be
// reused across cases.
func Reset(db *gorm.DB) error {
	for _, table := range []string{"child", "parent", "test_entity", "account"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}

// RowCount counts rows behind the ORM's back.
func RowCount(db *gorm.DB, table string) (int64, error) {
	if err := validateTableName(table); err != nil {
		return 0, err
	}
	var n int64
	if err := db.Raw("SELECT COUNT(*) FROM " + table).Scan(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func validateTableName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("table name is required")
	}
	for _, part := range strings.Split(name, ".") {
		if !sqlIdentPartRE.MatchString(part) {
			return fmt.Errorf("invalid table name %q", name)
		}
	}
	return nil
}

package notes

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/glebarez/sqlite"
	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rhettg/noteapi/internal/config"
)

// GormStore implements Store on top of a gorm connection.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Open connects to the database described by cfg, applies the pool limits,
// verifies the connection and, if enabled, creates the note table.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*GormStore, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(
			slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
			logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w: %w", cfg.Driver, ErrStoreUnavailable, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	maxOpen := cfg.MaxOpenConns
	if cfg.Driver == "sqlite" {
		// sqlite serializes writers; a single connection avoids SQLITE_BUSY.
		maxOpen = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping %s database: %w: %w", cfg.Driver, ErrStoreUnavailable, err)
	}

	if cfg.AutoMigrate {
		if err := db.WithContext(ctx).AutoMigrate(&Note{}); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("create note table: %w", err)
		}
		slog.Debug("note table ready", "driver", cfg.Driver)
	}

	return NewGormStore(db), nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Path:     "/" + cfg.Name,
			RawQuery: "sslmode=disable",
		}
		return postgres.Open(u.String()), nil
	case "mysql":
		conf := gomysql.NewConfig()
		conf.Net = "tcp"
		conf.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		conf.User = cfg.User
		conf.Passwd = cfg.Password
		conf.DBName = cfg.Name
		conf.ParseTime = true
		return mysql.Open(conf.FormatDSN()), nil
	case "sqlite":
		return sqlite.Open(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func (s *GormStore) FindAll(ctx context.Context) ([]Note, error) {
	notes := make([]Note, 0)
	err := s.db.WithContext(ctx).Order("id desc").Limit(ListLimit).Find(&notes).Error
	if err != nil {
		return nil, s.classify(ctx, "find notes", err)
	}
	if notes == nil {
		notes = []Note{}
	}
	return notes, nil
}

func (s *GormStore) Save(ctx context.Context, n *Note) error {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return s.classify(ctx, "save note", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

const pingTimeout = time.Second

// classify tags err with the error kind the HTTP layer maps to a status.
// Errors the driver does not identify as connection failures are only
// reported as unavailable when the database also fails a ping.
func (s *GormStore) classify(ctx context.Context, op string, err error) error {
	kerr := classify(op, err)
	if !errors.Is(kerr, errUnclassified) {
		return kerr
	}

	sqlDB, dberr := s.db.DB()
	if dberr == nil {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pingTimeout)
		defer cancel()
		dberr = sqlDB.PingContext(pctx)
	}
	if dberr != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

var errUnclassified = errors.New("unclassified")

func classify(op string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s: %w: %w", op, ErrConstraintViolation, err)
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone),
		errors.Is(err, gomysql.ErrInvalidConn), errors.As(err, &netErr):
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, errUnclassified, err)
	}
}

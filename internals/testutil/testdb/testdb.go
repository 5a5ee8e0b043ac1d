//go:build testutil
// +build testutil

package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	database "schoolerp_backend/internals/databases"
)

type DBHandle struct {
	SQL    *sql.DB
	Gorm   *gorm.DB
	cancel func()
	stop   func(context.Context) error
}

func (h *DBHandle) Close() {
	if h.SQL != nil {
		_ = h.SQL.Close()
	}
	if h.stop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.stop(ctx)
	}
	if h.cancel != nil {
		h.cancel()
	}
}

// Start runs a throwaway postgres container and applies the goose migrations.
func Start(ctx context.Context) (*DBHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("schoolerp"),
		postgres.WithUsername("schoolerp"),
		postgres.WithPassword("schoolerp"),
	)
	if err != nil {
		cancel()
		return nil, err
	}
	fail := func(err error) (*DBHandle, error) {
		_ = pg.Terminate(context.Background())
		cancel()
		return nil, err
	}

	uri, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fail(err)
	}
	sqlDB, err := sql.Open("postgres", uri)
	if err != nil {
		return fail(err)
	}
	if err := waitReady(ctx, sqlDB); err != nil {
		return fail(err)
	}
	if err := database.MigrateSQL(ctx, sqlDB); err != nil {
		return fail(err)
	}

	gdb, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormLogger.Default.LogMode(gormLogger.Silent),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return fail(err)
	}
	sqlDB.SetMaxOpenConns(30)

	return &DBHandle{SQL: sqlDB, Gorm: gdb, cancel: cancel, stop: pg.Terminate}, nil
}

func waitReady(ctx context.Context, db *sql.DB) error {
	dead := time.Now().Add(20 * time.Second)
	for time.Now().Before(dead) {
		if err := db.PingContext(ctx); err == nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return errors.New("db not ready")
}

// Main wires a shared container into a package's TestMain.
func Main(m *testing.M, h **DBHandle) {
	zap.ReplaceGlobals(zap.NewNop())
	handle, err := Start(context.Background())
	if err != nil {
		println("testdb: start failed:", err.Error())
		os.Exit(1)
	}
	*h = handle
	code := m.Run()
	handle.Close()
	os.Exit(code)
}

var tables = []string{
	"payment_gateway_events", "payments", "fee_invoices",
	"hostel_allocations", "hostel_beds", "hostel_rooms", "hostel_blocks",
	"parent_sessions", "otp_codes",
	"parent_profiles", "student_profiles", "admission_decisions", "admission_applications",
	"admission_fee_structures", "users", "schools",
}

// Reset empties every table between tests.
func (h *DBHandle) Reset(t *testing.T) {
	t.Helper()
	for _, tbl := range tables {
		if err := h.Gorm.Exec("TRUNCATE TABLE " + tbl + " RESTART IDENTITY CASCADE").Error; err != nil {
			t.Fatalf("truncate %s: %v", tbl, err)
		}
	}
}

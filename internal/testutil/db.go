// Package testutil holds shared test doubles, database fixtures and domain
// object builders.
package testutil

import (
	"database/sql"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/tierhub/backend/internal/infrastructure/logger"
	"github.com/tierhub/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// debugSQLEnv switches test databases to statement-level logging
const debugSQLEnv = "TEST_DB_DEBUG"

// testGormLogger sends SQL logs to t.Log. Only errors are written unless
// TEST_DB_DEBUG is set.
func testGormLogger(t *testing.T) gormlogger.Interface {
	level := gormlogger.Error
	if os.Getenv(debugSQLEnv) != "" {
		level = gormlogger.Info
	}
	return logger.NewGormLogger(zaptest.NewLogger(t), level)
}

// MockDB is a postgres-dialect GORM handle over sqlmock. Pings are monitored,
// so tests calling Ping must expect them.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	mock.ExpectPing()
	db, err := gorm.Open(PostgresDialector(conn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 testGormLogger(t),
	})
	require.NoError(t, err)
	return &MockDB{DB: db, Mock: mock, SqlDB: conn}
}

// PostgresDialector wraps an open connection in the postgres dialector
func PostgresDialector(conn *sql.DB) gorm.Dialector {
	return postgres.New(postgres.Config{Conn: conn, DriverName: "postgres"})
}

// ExpectationsWereMet fails t on any unmet sqlmock expectation
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet())
}

// NewSQLiteDB opens a private in-memory database with every model migrated.
// One connection keeps the memory database alive and serializes transactions.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: testGormLogger(t)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

// Package integrationtest provides db helpers used in integration tests.
package integrationtest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/perit/credit-transfer/cmd/httpserver"
	"github.com/perit/credit-transfer/internal/accountrepo"
	"github.com/perit/credit-transfer/internal/domain"
	"github.com/perit/credit-transfer/internal/middleware"
	"github.com/perit/credit-transfer/pkg/configpkg"
	"github.com/perit/credit-transfer/pkg/dbpkg"
	"github.com/perit/credit-transfer/pkg/randompkg"
)

// SetupServer returns test server that cleans up database after each integration test.
func SetupServer(t *testing.T) *httpserver.Server {
	config, err := configpkg.Load("../../../configs")
	if err != nil {
		t.Fatalf(`configpkg.Load("../../../configs") returned error: %v`, err)
	}

	zerolog.SetGlobalLevel(zerolog.FatalLevel)

	logger := middleware.CreateLogger(config)

	db := SetupDB(t, config.DBDriver, config.DBSource)

	gin.SetMode(gin.ReleaseMode)

	server, err := httpserver.New(db, logger, config)
	if err != nil {
		t.Fatalf(`httpserver.New(db, logger, config) returned error: %v`, err)
	}

	return server
}

// Flush flushes all db tables without droping.
func Flush(t *testing.T, db *sql.DB) {
	t.Helper()

	var tables string

	const query = `
	SELECT string_agg(table_name, ', ')
	FROM information_schema.tables
	WHERE table_schema='public';`

	row := db.QueryRow(query)

	err := row.Scan(&tables)
	if err != nil {
		t.Fatalf("db cleanup failed. err: %v", err)
	}

	if _, err := db.Exec(`TRUNCATE TABLE ` + tables + " CASCADE"); err != nil {
		t.Fatalf("db cleanup failed. err: %v", err)
	}
}

// SetupDB sets up connection with database for testing and then cleans it.
func SetupDB(t *testing.T, driver, source string) *sql.DB {
	t.Helper()

	db, err := dbpkg.Setup(driver, source)
	if err != nil {
		t.Skipf("skipping integration test, database unavailable: %v", err)
	}

	t.Cleanup(func() {
		Flush(t, db)

		if err := db.Close(); err != nil {
			t.Fatalf("db cleanup failed. err: %v", err)
		}
	})

	return db
}

// SeedAccount creates an account with a random iban and the given balance.
func SeedAccount(t *testing.T, db dbpkg.SQLInterface, balance string) domain.Account {
	t.Helper()

	repo := accountrepo.NewRepoPGS(db)

	account, err := repo.Create(context.Background(), randompkg.IBAN(), randompkg.Owner(), balance)
	require.NoError(t, err)
	require.NotEmpty(t, account)

	return account
}

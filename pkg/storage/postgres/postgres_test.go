package postgres_test

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/pkg/storage"
	"github.com/papercomputeco/relay/pkg/storage/postgres"
	testutils "github.com/papercomputeco/relay/pkg/utils/test"
)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("RELAY_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("RELAY_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

var _ = Describe("Driver", func() {
	var driver *postgres.Driver

	AfterEach(func() {
		if driver != nil {
			driver.Close()
			driver = nil
		}
	})

	testutils.DriverBehaviors(func() storage.Driver {
		ctx := context.Background()
		dsn := connStr()

		var err error
		driver, err = postgres.NewDriver(ctx, dsn)
		Expect(err).NotTo(HaveOccurred())

		// Clean all tables before each test for isolation.
		for _, table := range []string{"conversation_messages", "conversations", "usage_records", "model_parameters"} {
			_, err = driver.DB().ExecContext(ctx, "DELETE FROM "+table)
			Expect(err).NotTo(HaveOccurred())
		}
		return driver
	})
})

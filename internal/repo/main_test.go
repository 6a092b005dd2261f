package repo_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/planificate/backend/testutil"
)

// TestMain brings the test database schema up to date once for the package.
// Without TEST_DATABASE_URL every integration test skips itself.
func TestMain(m *testing.M) {
	if err := testutil.MigrateForTestMain(context.Background()); err != nil {
		log.Fatalf("TestMain: %v", err)
	}
	os.Exit(m.Run())
}

package search

import (
	"testing"

	"go.uber.org/goleak"
)

// Deep search rounds run on their own goroutines; make sure none outlive a test.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

package fastread_test

import (
	"testing"

	"go.uber.org/goleak"
)

// Every iterator owns a worker pool; none may outlive the test that made it.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

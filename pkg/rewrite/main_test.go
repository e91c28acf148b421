package rewrite

import (
	"os"
	"testing"

	"github.com/wouteroostervld/decoshrink/pkg/logging"
)

func TestMain(m *testing.M) {
	logging.Silence()
	os.Exit(m.Run())
}

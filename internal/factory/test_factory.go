package factory

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcoot/spinwheel-go/internal/config"
	"github.com/mcoot/spinwheel-go/internal/dependencies/mocks"
	"github.com/mcoot/spinwheel-go/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	FakeClock    *clockwork.FakeClock
	MockRandom   *mocks.MockRandom
	MockNotifier *mocks.MockNotifier
}

// NewTestApp creates an App configured for testing: a fake clock at a fixed
// instant, a deterministic random source, and a recording notifier
func NewTestApp() *TestApp {
	return NewTestAppWithConfig(config.Default())
}

// NewTestAppWithConfig creates a TestApp with the given configuration
func NewTestAppWithConfig(cfg config.Config) *TestApp {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockNotifier := mocks.NewMockNotifier()

	app := newWithDependencies(cfg, fakeClock, mockRandom, mockNotifier, testutil.NopLogger())

	return &TestApp{
		App:          app,
		FakeClock:    fakeClock,
		MockRandom:   mockRandom,
		MockNotifier: mockNotifier,
	}
}

package capture

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pevans/newscapture/render"
	"github.com/pevans/newscapture/sites"
	"github.com/pevans/newscapture/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func otherSite() *sites.Site {
	s := testSite()
	s.SiteName = "other"
	s.HomepageURL = "https://other.example.com/"
	s.Pattern = regexp.MustCompile(`^https://other\.example\.com/story/`)
	return s
}

// Test helper: a service over two sites sharing one fake engine setup
func createTestService(t *testing.T, ledger Ledger, folders map[string]string) (*Service, *flakyStore) {
	archiveStore := &flakyStore{}
	svc := NewService(ServiceConfig{
		Sites: []sites.Adapter{testSite(), otherSite()},
		Session: Config{
			Launch: func(ctx context.Context) (render.Browser, error) {
				return createTestBrowser(), nil
			},
			Archive: archiveStore,
			Ledger:  ledger,
			Now:     func() time.Time { return testNow },
		},
		Folders:  folders,
		Interval: time.Hour,
	})
	return svc, archiveStore
}

// TestService_RunOnce verifies every site runs and failures are joined
func TestService_RunOnce(t *testing.T) {
	svc, _ := createTestService(t, nil, map[string]string{"example": "parent-a"})

	reports, err := svc.RunOnce(context.Background())

	// other.example.com has no pages in the fake engine
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDiscovery)
	assert.Contains(t, err.Error(), "other:")

	require.Len(t, reports, 2)
	assert.Equal(t, "example", reports[0].Site)
	assert.Len(t, reports[0].Records(), 2)
	assert.Equal(t, "folder-2026-03-14 Capture", reports[0].FolderID)
	assert.Equal(t, "other", reports[1].Site)
	assert.Zero(t, reports[1].Discovered())
}

// TestService_SkipsSiteInProgress verifies a site with an active run is
// skipped without failing the round
func TestService_SkipsSiteInProgress(t *testing.T) {
	ledger := createTestLedger(t)
	_, err := ledger.BeginRun("other", testNow)
	require.NoError(t, err)

	svc, _ := createTestService(t, ledger, nil)
	reports, err := svc.RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, reports, 1)
	assert.Equal(t, "example", reports[0].Site)

	runs, err := ledger.ListRuns(store.RunFilter{Site: "example"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.StatusCompleted, runs[0].Status)
}

// TestService_StopEndsRun verifies Run returns after Stop
func TestService_StopEndsRun(t *testing.T) {
	svc, _ := createTestService(t, nil, nil)
	svc.Stop()
	svc.Stop()

	assert.NoError(t, svc.Run(context.Background()))
}

// TestService_CancelEndsRun verifies Run returns the context error
func TestService_CancelEndsRun(t *testing.T) {
	svc, _ := createTestService(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

// TestService_LaunchFailure verifies a browser that cannot start fails the
// site
func TestService_LaunchFailure(t *testing.T) {
	svc := NewService(ServiceConfig{
		Sites: []sites.Adapter{testSite()},
		Session: Config{
			Launch: func(ctx context.Context) (render.Browser, error) {
				return nil, errors.New("chrome not found")
			},
		},
	})

	_, err := svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chrome not found")
}

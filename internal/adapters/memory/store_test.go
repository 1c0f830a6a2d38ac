package memory

import (
	"testing"
	"time"

	"github.com/luxeladies/community-api/internal/adapters/contracttest"
	memclock "github.com/luxeladies/community-api/internal/adapters/memory/clock"
	clockport "github.com/luxeladies/community-api/internal/ports/out/clock"
	dedupport "github.com/luxeladies/community-api/internal/ports/out/dedup"
)

func TestContract_EventAndRegistrationRepos(t *testing.T) {
	contracttest.RunEventAndRegistrationRepos(t, func(t *testing.T) (contracttest.Repos, contracttest.CleanupFunc) {
		t.Helper()
		s := NewStore(memclock.NewManualClock(time.Unix(0, 0)))
		return contracttest.Repos{
			Members:        s.Members,
			Questionnaires: s.Questionnaires,
			Events:         s.Events,
			Registrations:  s.Registrations,
		}, nil
	})
}

func TestContract_MarkerStore(t *testing.T) {
	contracttest.RunMarkerStore(t, func(t *testing.T, clk clockport.Clock) (dedupport.Store, contracttest.CleanupFunc) {
		t.Helper()
		return NewStore(clk).Markers, nil
	})
}

package memory

import (
	memdedup "github.com/luxeladies/community-api/internal/adapters/memory/dedup"
	memeventrepo "github.com/luxeladies/community-api/internal/adapters/memory/eventrepo"
	memmemberrepo "github.com/luxeladies/community-api/internal/adapters/memory/memberrepo"
	memquestionnairerepo "github.com/luxeladies/community-api/internal/adapters/memory/questionnairerepo"
	memregistrationrepo "github.com/luxeladies/community-api/internal/adapters/memory/registrationrepo"
	clockport "github.com/luxeladies/community-api/internal/ports/out/clock"
)

// Store bundles the in-memory repositories with member deletion cascading to
// questionnaires and registrations, mirroring the relational backends.
type Store struct {
	Members        *memmemberrepo.Repo
	Questionnaires *memquestionnairerepo.Repo
	Events         *memeventrepo.Repo
	Registrations  *memregistrationrepo.Repo
	Markers        *memdedup.Store
}

func NewStore(clk clockport.Clock) *Store {
	s := &Store{
		Members:        memmemberrepo.NewRepo(),
		Questionnaires: memquestionnairerepo.NewRepo(),
		Events:         memeventrepo.NewRepo(),
		Registrations:  memregistrationrepo.NewRepo(),
		Markers:        memdedup.NewStore(clk),
	}
	s.Members.OnDelete(s.Questionnaires.DeleteByMember)
	s.Members.OnDelete(s.Registrations.DeleteByMember)
	return s
}

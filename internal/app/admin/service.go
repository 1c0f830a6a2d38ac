package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/ports/out/eventrepo"
	"github.com/luxeladies/community-api/internal/ports/out/memberrepo"
	"github.com/luxeladies/community-api/internal/ports/out/registrationrepo"
)

// Sort selects the ordering of the approved member list.
type Sort string

const (
	SortUsernameAsc  Sort = "username_asc"
	SortUsernameDesc Sort = "username_desc"
	SortAgeAsc       Sort = "age_asc"
	SortAgeDesc      Sort = "age_desc"
	SortNewest       Sort = "newest"
	SortOldest       Sort = "oldest"
)

// Sorts lists the accepted sort keys.
var Sorts = []Sort{SortUsernameAsc, SortUsernameDesc, SortAgeAsc, SortAgeDesc, SortNewest, SortOldest}

// MemberLists is the operator's member overview.
type MemberLists struct {
	Pending  []domain.Member
	Approved []domain.Member
}

// RegistrationRow is a registration joined with what an operator needs to review it.
type RegistrationRow struct {
	Registration domain.EventRegistration
	Event        domain.Event
	Member       domain.Member
}

type RegistrationLists struct {
	Pending  []RegistrationRow
	Approved []RegistrationRow
	Rejected []RegistrationRow
}

// Counts is the number of registrations per status.
type Counts struct {
	Pending  int
	Approved int
	Rejected int
}

func (c Counts) Total() int {
	return c.Pending + c.Approved + c.Rejected
}

type Deps struct {
	Members       memberrepo.Repository
	Events        eventrepo.Repository
	Registrations registrationrepo.Repository
}

// Service answers read-only operator queries.
type Service struct {
	members       memberrepo.Repository
	events        eventrepo.Repository
	registrations registrationrepo.Repository
}

func NewService(d Deps) *Service {
	return &Service{
		members:       d.Members,
		events:        d.Events,
		registrations: d.Registrations,
	}
}

// ListMembers returns active non-superuser members split by approval.
// Pending members are always in join order; search and sort apply to the
// approved list only. An unknown sort falls back to name order.
func (s *Service) ListMembers(ctx context.Context, search string, sortKey Sort) (MemberLists, error) {
	no, yes := false, true
	pending, err := s.members.List(ctx, memberrepo.ListFilter{Approved: &no, ActiveOnly: true, ExcludeSuperusers: true})
	if err != nil {
		return MemberLists{}, fmt.Errorf("list pending members: %w", err)
	}
	approved, err := s.members.List(ctx, memberrepo.ListFilter{Approved: &yes, ActiveOnly: true, ExcludeSuperusers: true})
	if err != nil {
		return MemberLists{}, fmt.Errorf("list approved members: %w", err)
	}

	out := MemberLists{
		Pending:  make([]domain.Member, 0, len(pending)),
		Approved: make([]domain.Member, 0, len(approved)),
	}
	for _, m := range pending {
		out.Pending = append(out.Pending, m.Domain())
	}
	search = strings.TrimSpace(search)
	for _, m := range approved {
		if search != "" && !matches(m, search) {
			continue
		}
		out.Approved = append(out.Approved, m.Domain())
	}
	sortMembers(out.Approved, sortKey)
	return out, nil
}

func matches(m memberrepo.Member, needle string) bool {
	for _, hay := range []string{m.Handle, m.Email, m.FirstName, m.LastName, m.City} {
		if domain.ContainsFold(hay, needle) {
			return true
		}
	}
	return false
}

// sortMembers orders ms in place. The input is in join order and the sort is
// stable, so ties keep that order.
func sortMembers(ms []domain.Member, key Sort) {
	var less func(a, b domain.Member) bool
	switch key {
	case SortUsernameAsc:
		less = func(a, b domain.Member) bool { return domain.FoldKey(a.Handle) < domain.FoldKey(b.Handle) }
	case SortUsernameDesc:
		less = func(a, b domain.Member) bool { return domain.FoldKey(a.Handle) > domain.FoldKey(b.Handle) }
	case SortAgeAsc:
		less = func(a, b domain.Member) bool { return a.Age < b.Age }
	case SortAgeDesc:
		less = func(a, b domain.Member) bool { return a.Age > b.Age }
	case SortNewest:
		for i, j := 0, len(ms)-1; i < j; i, j = i+1, j-1 {
			ms[i], ms[j] = ms[j], ms[i]
		}
		return
	case SortOldest:
		return
	default:
		less = func(a, b domain.Member) bool {
			af, bf := domain.FoldKey(a.FirstName), domain.FoldKey(b.FirstName)
			if af != bf {
				return af < bf
			}
			return domain.FoldKey(a.LastName) < domain.FoldKey(b.LastName)
		}
	}
	sort.SliceStable(ms, func(i, j int) bool { return less(ms[i], ms[j]) })
}

// RegistrationCounts groups all registrations by status.
func (s *Service) RegistrationCounts(ctx context.Context) (Counts, error) {
	byStatus, err := s.registrations.CountByStatus(ctx)
	if err != nil {
		return Counts{}, fmt.Errorf("count registrations: %w", err)
	}
	return Counts{
		Pending:  byStatus[domain.RegistrationPending],
		Approved: byStatus[domain.RegistrationApproved],
		Rejected: byStatus[domain.RegistrationRejected],
	}, nil
}

// ListRegistrations returns registrations per status, newest first.
// Rows whose event or member no longer exists are left out.
func (s *Service) ListRegistrations(ctx context.Context) (RegistrationLists, error) {
	events := make(map[domain.EventID]domain.Event)
	members := make(map[domain.MemberID]domain.Member)

	load := func(status domain.RegistrationStatus) ([]RegistrationRow, error) {
		regs, err := s.registrations.ListByStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("list %s registrations: %w", status, err)
		}
		rows := make([]RegistrationRow, 0, len(regs))
		for _, r := range regs {
			ev, ok := events[r.EventID]
			if !ok {
				ev, err = s.events.GetByID(ctx, r.EventID)
				if errors.Is(err, eventrepo.ErrNotFound) {
					continue
				}
				if err != nil {
					return nil, err
				}
				events[r.EventID] = ev
			}
			m, ok := members[r.MemberID]
			if !ok {
				pm, err := s.members.GetByID(ctx, r.MemberID)
				if errors.Is(err, memberrepo.ErrNotFound) {
					continue
				}
				if err != nil {
					return nil, err
				}
				m = pm.Domain()
				members[r.MemberID] = m
			}
			rows = append(rows, RegistrationRow{Registration: r, Event: ev, Member: m})
		}
		return rows, nil
	}

	var (
		out RegistrationLists
		err error
	)
	if out.Pending, err = load(domain.RegistrationPending); err != nil {
		return RegistrationLists{}, err
	}
	if out.Approved, err = load(domain.RegistrationApproved); err != nil {
		return RegistrationLists{}, err
	}
	if out.Rejected, err = load(domain.RegistrationRejected); err != nil {
		return RegistrationLists{}, err
	}
	return out, nil
}

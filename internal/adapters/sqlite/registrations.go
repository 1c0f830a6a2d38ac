package sqlite

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/ports/out/registrationrepo"
)

// RegistrationRepo is a GORM implementation of registrationrepo.Repository.
type RegistrationRepo struct {
	db *gorm.DB
}

func NewRegistrationRepo(db *gorm.DB) *RegistrationRepo {
	return &RegistrationRepo{db: db}
}

func (r *RegistrationRepo) Create(ctx context.Context, reg domain.EventRegistration) error {
	row := toRegistrationModel(reg)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&registrationModel{}).
			Where("id = ? OR (event_id = ? AND member_id = ?)", row.ID, row.EventID, row.MemberID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return registrationrepo.ErrAlreadyExists
		}
		return tx.Create(&row).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return registrationrepo.ErrAlreadyExists
	}
	return err
}

func (r *RegistrationRepo) UpdateStatus(ctx context.Context, id domain.RegistrationID, status domain.RegistrationStatus, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&registrationModel{}).
		Where("id = ?", string(id)).
		Updates(map[string]any{"status": string(status), "updated_unix": toUnix(at)})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return registrationrepo.ErrNotFound
	}
	return nil
}

func (r *RegistrationRepo) GetByID(ctx context.Context, id domain.RegistrationID) (domain.EventRegistration, error) {
	var row registrationModel
	if err := r.db.WithContext(ctx).First(&row, "id = ?", string(id)).Error; err != nil {
		return domain.EventRegistration{}, mapNotFound(err, registrationrepo.ErrNotFound)
	}
	return fromRegistrationModel(row), nil
}

func (r *RegistrationRepo) GetByEventAndMember(ctx context.Context, eventID domain.EventID, memberID domain.MemberID) (domain.EventRegistration, error) {
	var row registrationModel
	err := r.db.WithContext(ctx).First(&row, "event_id = ? AND member_id = ?", string(eventID), string(memberID)).Error
	if err != nil {
		return domain.EventRegistration{}, mapNotFound(err, registrationrepo.ErrNotFound)
	}
	return fromRegistrationModel(row), nil
}

func (r *RegistrationRepo) ListByEvents(ctx context.Context, eventIDs []domain.EventID, status domain.RegistrationStatus) ([]domain.EventRegistration, error) {
	if len(eventIDs) == 0 {
		return []domain.EventRegistration{}, nil
	}
	ids := make([]string, 0, len(eventIDs))
	for _, id := range eventIDs {
		ids = append(ids, string(id))
	}
	return r.find(r.db.WithContext(ctx).
		Where("event_id IN ? AND status = ?", ids, string(status)).
		Order("created_unix asc, id asc"))
}

func (r *RegistrationRepo) ListByMember(ctx context.Context, memberID domain.MemberID) ([]domain.EventRegistration, error) {
	return r.find(r.db.WithContext(ctx).
		Where("member_id = ?", string(memberID)).
		Order("created_unix asc, id asc"))
}

func (r *RegistrationRepo) ListByStatus(ctx context.Context, status domain.RegistrationStatus) ([]domain.EventRegistration, error) {
	return r.find(r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("created_unix desc, id asc"))
}

func (r *RegistrationRepo) CountByStatus(ctx context.Context) (map[domain.RegistrationStatus]int, error) {
	var rows []struct {
		Status string
		N      int
	}
	err := r.db.WithContext(ctx).Model(&registrationModel{}).
		Select("status, count(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := map[domain.RegistrationStatus]int{
		domain.RegistrationPending:  0,
		domain.RegistrationApproved: 0,
		domain.RegistrationRejected: 0,
	}
	for _, row := range rows {
		out[domain.RegistrationStatus(row.Status)] = row.N
	}
	return out, nil
}

func (r *RegistrationRepo) CountByEvent(ctx context.Context, eventID domain.EventID, status domain.RegistrationStatus) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&registrationModel{}).
		Where("event_id = ? AND status = ?", string(eventID), string(status)).
		Count(&n).Error
	return int(n), err
}

func (r *RegistrationRepo) find(q *gorm.DB) ([]domain.EventRegistration, error) {
	var rows []registrationModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.EventRegistration, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRegistrationModel(row))
	}
	return out, nil
}

func toRegistrationModel(reg domain.EventRegistration) registrationModel {
	return registrationModel{
		ID:          string(reg.ID),
		EventID:     string(reg.EventID),
		MemberID:    string(reg.MemberID),
		FullName:    reg.FullName,
		ChildName:   cloneStringPtr(reg.ChildName),
		ChildAge:    cloneIntPtr(reg.ChildAge),
		Status:      string(reg.Status),
		CreatedUnix: toUnix(reg.CreatedAt),
		UpdatedUnix: toUnix(reg.UpdatedAt),
	}
}

func fromRegistrationModel(row registrationModel) domain.EventRegistration {
	return domain.EventRegistration{
		ID:        domain.RegistrationID(row.ID),
		EventID:   domain.EventID(row.EventID),
		MemberID:  domain.MemberID(row.MemberID),
		FullName:  row.FullName,
		ChildName: cloneStringPtr(row.ChildName),
		ChildAge:  cloneIntPtr(row.ChildAge),
		Status:    domain.RegistrationStatus(row.Status),
		CreatedAt: fromUnix(row.CreatedUnix),
		UpdatedAt: fromUnix(row.UpdatedUnix),
	}
}

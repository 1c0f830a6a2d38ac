package sqlite

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/ports/out/eventrepo"
)

// EventRepo is a GORM implementation of eventrepo.Repository.
type EventRepo struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) *EventRepo {
	return &EventRepo{db: db}
}

func (r *EventRepo) Create(ctx context.Context, e domain.Event) error {
	row := toEventModel(e)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&eventModel{}).Where("id = ?", row.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return eventrepo.ErrAlreadyExists
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return replaceEventInterests(tx, row.ID, e.InterestIDs)
	})
}

func (r *EventRepo) Save(ctx context.Context, e domain.Event) error {
	row := toEventModel(e)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&eventModel{}).Where("id = ?", row.ID).Select("*").Omit("created_unix").Updates(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return eventrepo.ErrNotFound
		}
		return replaceEventInterests(tx, row.ID, e.InterestIDs)
	})
}

func (r *EventRepo) GetByID(ctx context.Context, id domain.EventID) (domain.Event, error) {
	db := r.db.WithContext(ctx)
	var row eventModel
	if err := db.First(&row, "id = ?", string(id)).Error; err != nil {
		return domain.Event{}, mapNotFound(err, eventrepo.ErrNotFound)
	}
	events, err := r.withInterests(db, []eventModel{row})
	if err != nil {
		return domain.Event{}, err
	}
	return events[0], nil
}

func (r *EventRepo) List(ctx context.Context, w eventrepo.Window) ([]domain.Event, error) {
	db := r.db.WithContext(ctx)
	q := db.Model(&eventModel{})
	if w.After != nil {
		q = q.Where("starts_unix > ?", toUnix(*w.After))
	}
	if w.Until != nil {
		q = q.Where("starts_unix <= ?", toUnix(*w.Until))
	}
	if w.Descending {
		q = q.Order("starts_unix desc, id asc")
	} else {
		q = q.Order("starts_unix asc, id asc")
	}
	var rows []eventModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withInterests(db, rows)
}

func (r *EventRepo) CreateInterest(ctx context.Context, i domain.Interest) error {
	row := interestModel{ID: string(i.ID), Name: i.Name, NameKey: domain.FoldKey(i.Name)}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&interestModel{}).Where("name_key = ? OR id = ?", row.NameKey, row.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return eventrepo.ErrInterestExists
		}
		return tx.Create(&row).Error
	})
}

func (r *EventRepo) ListInterests(ctx context.Context) ([]domain.Interest, error) {
	var rows []interestModel
	if err := r.db.WithContext(ctx).Order("name_key asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Interest, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Interest{ID: domain.InterestID(row.ID), Name: row.Name})
	}
	return out, nil
}

func (r *EventRepo) withInterests(db *gorm.DB, rows []eventModel) ([]domain.Event, error) {
	out := make([]domain.Event, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	var links []eventInterestModel
	if err := db.Where("event_id IN ?", ids).Order("interest_id asc").Find(&links).Error; err != nil {
		return nil, err
	}
	byEvent := make(map[string][]domain.InterestID, len(rows))
	for _, l := range links {
		byEvent[l.EventID] = append(byEvent[l.EventID], domain.InterestID(l.InterestID))
	}
	for _, row := range rows {
		e := fromEventModel(row)
		e.InterestIDs = append([]domain.InterestID{}, byEvent[row.ID]...)
		out = append(out, e)
	}
	return out, nil
}

func replaceEventInterests(tx *gorm.DB, eventID string, ids []domain.InterestID) error {
	if err := tx.Where("event_id = ?", eventID).Delete(&eventInterestModel{}).Error; err != nil {
		return err
	}
	seen := make(map[domain.InterestID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if err := tx.Create(&eventInterestModel{EventID: eventID, InterestID: string(id)}).Error; err != nil {
			return err
		}
	}
	return nil
}

func toEventModel(e domain.Event) eventModel {
	return eventModel{
		ID:          string(e.ID),
		Title:       e.Title,
		Description: e.Description,
		StartsUnix:  toUnix(e.StartsAt),
		City:        e.City,
		Location:    e.Location,
		KidFriendly: e.KidFriendly,
		ImageRef:    cloneStringPtr(e.ImageRef),
		Capacity:    e.Capacity,
		PriceCents:  e.Price.Shift(2).Round(0).IntPart(),
		CreatedUnix: toUnix(e.CreatedAt),
		UpdatedUnix: toUnix(e.UpdatedAt),
	}
}

func fromEventModel(row eventModel) domain.Event {
	return domain.Event{
		ID:          domain.EventID(row.ID),
		Title:       row.Title,
		Description: row.Description,
		StartsAt:    fromUnix(row.StartsUnix),
		City:        row.City,
		Location:    row.Location,
		KidFriendly: row.KidFriendly,
		ImageRef:    cloneStringPtr(row.ImageRef),
		Capacity:    row.Capacity,
		Price:       decimal.New(row.PriceCents, -2),
		CreatedAt:   fromUnix(row.CreatedUnix),
		UpdatedAt:   fromUnix(row.UpdatedUnix),
	}
}

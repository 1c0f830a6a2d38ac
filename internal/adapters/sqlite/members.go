package sqlite

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/ports/out/memberrepo"
)

// MemberRepo is a GORM implementation of memberrepo.Repository.
type MemberRepo struct {
	db *gorm.DB
}

func NewMemberRepo(db *gorm.DB) *MemberRepo {
	return &MemberRepo{db: db}
}

func (r *MemberRepo) Create(ctx context.Context, m memberrepo.Member, settings domain.NotificationSettings) error {
	row := toMemberModel(m)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkMemberKeys(tx, row); err != nil {
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return memberrepo.ErrAlreadyExists
			}
			return err
		}
		settings.MemberID = m.ID
		s := toSettingsModel(settings)
		return tx.Create(&s).Error
	})
}

func (r *MemberRepo) Update(ctx context.Context, m memberrepo.Member) error {
	row := toMemberModel(m)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&memberModel{}).Where("id = ?", row.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return memberrepo.ErrNotFound
		}
		if err := checkMemberKeys(tx, row); err != nil {
			return err
		}
		return tx.Model(&memberModel{}).Where("id = ?", row.ID).Select("*").Updates(&row).Error
	})
}

func (r *MemberRepo) Delete(ctx context.Context, id domain.MemberID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", string(id)).Delete(&memberModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return memberrepo.ErrNotFound
		}
		for _, model := range []any{&settingsModel{}, &questionnaireInterestModel{}, &questionnaireModel{}, &registrationModel{}} {
			if err := tx.Where("member_id = ?", string(id)).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *MemberRepo) GetByID(ctx context.Context, id domain.MemberID) (memberrepo.Member, error) {
	var row memberModel
	if err := r.db.WithContext(ctx).First(&row, "id = ?", string(id)).Error; err != nil {
		return memberrepo.Member{}, mapNotFound(err, memberrepo.ErrNotFound)
	}
	return fromMemberModel(row), nil
}

func (r *MemberRepo) GetByLogin(ctx context.Context, login string) (memberrepo.Member, error) {
	key := domain.FoldKey(login)
	if key == "" {
		return memberrepo.Member{}, memberrepo.ErrNotFound
	}
	var row memberModel
	err := r.db.WithContext(ctx).First(&row, "handle_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = r.db.WithContext(ctx).First(&row, "email_key = ?", key).Error
	}
	if err != nil {
		return memberrepo.Member{}, mapNotFound(err, memberrepo.ErrNotFound)
	}
	return fromMemberModel(row), nil
}

func (r *MemberRepo) List(ctx context.Context, f memberrepo.ListFilter) ([]memberrepo.Member, error) {
	q := r.db.WithContext(ctx).Model(&memberModel{})
	if f.Approved != nil {
		q = q.Where("is_approved = ?", *f.Approved)
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if f.ExcludeSuperusers {
		q = q.Where("is_superuser = ?", false)
	}
	var rows []memberModel
	if err := q.Order("created_unix asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]memberrepo.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromMemberModel(row))
	}
	return out, nil
}

func (r *MemberRepo) GetSettings(ctx context.Context, id domain.MemberID) (domain.NotificationSettings, error) {
	var row settingsModel
	if err := r.db.WithContext(ctx).First(&row, "member_id = ?", string(id)).Error; err != nil {
		return domain.NotificationSettings{}, mapNotFound(err, memberrepo.ErrNotFound)
	}
	return fromSettingsModel(row), nil
}

func (r *MemberRepo) SaveSettings(ctx context.Context, s domain.NotificationSettings) error {
	row := toSettingsModel(s)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&memberModel{}).Where("id = ?", row.MemberID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return memberrepo.ErrNotFound
		}
		return tx.Save(&row).Error
	})
}

// checkMemberKeys reports handle and email collisions with other members.
func checkMemberKeys(tx *gorm.DB, row memberModel) error {
	var n int64
	if err := tx.Model(&memberModel{}).Where("handle_key = ? AND id <> ?", row.HandleKey, row.ID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return memberrepo.ErrHandleTaken
	}
	if row.EmailKey == nil {
		return nil
	}
	if err := tx.Model(&memberModel{}).Where("email_key = ? AND id <> ?", *row.EmailKey, row.ID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return memberrepo.ErrEmailTaken
	}
	return nil
}

func mapNotFound(err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

func toMemberModel(m memberrepo.Member) memberModel {
	row := memberModel{
		ID:             string(m.ID),
		Handle:         m.Handle,
		HandleKey:      domain.FoldKey(m.Handle),
		Email:          m.Email,
		PasswordHash:   m.PasswordHash,
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		Age:            m.Age,
		City:           m.City,
		Studies:        m.Studies,
		EducationPlace: m.EducationPlace,
		Works:          m.Works,
		WorkPlace:      m.WorkPlace,
		About:          m.About,
		AvatarRef:      cloneStringPtr(m.AvatarRef),
		IsApproved:     m.IsApproved,
		IsActive:       m.IsActive,
		IsSuperuser:    m.IsSuperuser,
		CreatedUnix:    toUnix(m.CreatedAt),
		UpdatedUnix:    toUnix(m.UpdatedAt),
	}
	if key := domain.FoldKey(m.Email); key != "" {
		row.EmailKey = &key
	}
	return row
}

func fromMemberModel(row memberModel) memberrepo.Member {
	return memberrepo.Member{
		ID:             domain.MemberID(row.ID),
		Handle:         row.Handle,
		Email:          row.Email,
		PasswordHash:   row.PasswordHash,
		FirstName:      row.FirstName,
		LastName:       row.LastName,
		Age:            row.Age,
		City:           row.City,
		Studies:        row.Studies,
		EducationPlace: row.EducationPlace,
		Works:          row.Works,
		WorkPlace:      row.WorkPlace,
		About:          row.About,
		AvatarRef:      cloneStringPtr(row.AvatarRef),
		IsApproved:     row.IsApproved,
		IsActive:       row.IsActive,
		IsSuperuser:    row.IsSuperuser,
		CreatedAt:      fromUnix(row.CreatedUnix),
		UpdatedAt:      fromUnix(row.UpdatedUnix),
	}
}

func toSettingsModel(s domain.NotificationSettings) settingsModel {
	return settingsModel{
		MemberID:                  string(s.MemberID),
		EmailEventReminders:       s.EmailEventReminders,
		EmailEventStatusChanges:   s.EmailEventStatusChanges,
		EmailRecommendations:      s.EmailRecommendations,
		EmailProfileChanges:       s.EmailProfileChanges,
		EmailQuestionnaireChanges: s.EmailQuestionnaireChanges,
		EmailNews:                 s.EmailNews,
	}
}

func fromSettingsModel(row settingsModel) domain.NotificationSettings {
	return domain.NotificationSettings{
		MemberID:                  domain.MemberID(row.MemberID),
		EmailEventReminders:       row.EmailEventReminders,
		EmailEventStatusChanges:   row.EmailEventStatusChanges,
		EmailRecommendations:      row.EmailRecommendations,
		EmailProfileChanges:       row.EmailProfileChanges,
		EmailQuestionnaireChanges: row.EmailQuestionnaireChanges,
		EmailNews:                 row.EmailNews,
	}
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

package sqlite

import (
	"context"

	"gorm.io/gorm"

	"github.com/luxeladies/community-api/internal/domain"
	"github.com/luxeladies/community-api/internal/ports/out/questionnairerepo"
)

// QuestionnaireRepo is a GORM implementation of questionnairerepo.Repository.
type QuestionnaireRepo struct {
	db *gorm.DB
}

func NewQuestionnaireRepo(db *gorm.DB) *QuestionnaireRepo {
	return &QuestionnaireRepo{db: db}
}

func (r *QuestionnaireRepo) Get(ctx context.Context, memberID domain.MemberID) (domain.Questionnaire, error) {
	db := r.db.WithContext(ctx)
	var row questionnaireModel
	if err := db.First(&row, "member_id = ?", string(memberID)).Error; err != nil {
		return domain.Questionnaire{}, mapNotFound(err, questionnairerepo.ErrNotFound)
	}
	var links []questionnaireInterestModel
	if err := db.Where("member_id = ?", row.MemberID).Order("interest_id asc").Find(&links).Error; err != nil {
		return domain.Questionnaire{}, err
	}
	q := fromQuestionnaireModel(row)
	q.InterestIDs = make([]domain.InterestID, 0, len(links))
	for _, l := range links {
		q.InterestIDs = append(q.InterestIDs, domain.InterestID(l.InterestID))
	}
	return q, nil
}

func (r *QuestionnaireRepo) Create(ctx context.Context, q domain.Questionnaire) error {
	row := toQuestionnaireModel(q)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&questionnaireModel{}).Where("member_id = ?", row.MemberID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return questionnairerepo.ErrAlreadyExists
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return replaceQuestionnaireInterests(tx, row.MemberID, q.InterestIDs)
	})
}

func (r *QuestionnaireRepo) Save(ctx context.Context, q domain.Questionnaire) error {
	row := toQuestionnaireModel(q)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&questionnaireModel{}).Where("member_id = ?", row.MemberID).Select("*").Omit("created_unix").Updates(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return questionnairerepo.ErrNotFound
		}
		return replaceQuestionnaireInterests(tx, row.MemberID, q.InterestIDs)
	})
}

func replaceQuestionnaireInterests(tx *gorm.DB, memberID string, ids []domain.InterestID) error {
	if err := tx.Where("member_id = ?", memberID).Delete(&questionnaireInterestModel{}).Error; err != nil {
		return err
	}
	seen := make(map[domain.InterestID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if err := tx.Create(&questionnaireInterestModel{MemberID: memberID, InterestID: string(id)}).Error; err != nil {
			return err
		}
	}
	return nil
}

func toQuestionnaireModel(q domain.Questionnaire) questionnaireModel {
	return questionnaireModel{
		MemberID:                string(q.MemberID),
		FullName:                q.FullName,
		City:                    q.City,
		CanTravel:               q.CanTravel,
		About:                   q.About,
		HasChildren:             q.HasChildren,
		WantsEventsWithChildren: q.WantsEventsWithChildren,
		WhyJoin:                 q.WhyJoin,
		Instagram:               cloneStringPtr(q.Instagram),
		TikTok:                  cloneStringPtr(q.TikTok),
		LinkedIn:                cloneStringPtr(q.LinkedIn),
		ReferralSource:          string(q.ReferralSource),
		HasFriend:               q.HasFriend,
		FriendName:              q.FriendName,
		Completed:               q.Completed,
		CreatedUnix:             toUnix(q.CreatedAt),
		UpdatedUnix:             toUnix(q.UpdatedAt),
	}
}

func fromQuestionnaireModel(row questionnaireModel) domain.Questionnaire {
	return domain.Questionnaire{
		MemberID:                domain.MemberID(row.MemberID),
		FullName:                row.FullName,
		City:                    row.City,
		CanTravel:               row.CanTravel,
		About:                   row.About,
		HasChildren:             row.HasChildren,
		WantsEventsWithChildren: row.WantsEventsWithChildren,
		WhyJoin:                 row.WhyJoin,
		Instagram:               cloneStringPtr(row.Instagram),
		TikTok:                  cloneStringPtr(row.TikTok),
		LinkedIn:                cloneStringPtr(row.LinkedIn),
		ReferralSource:          domain.ReferralSource(row.ReferralSource),
		HasFriend:               row.HasFriend,
		FriendName:              row.FriendName,
		Completed:               row.Completed,
		CreatedAt:               fromUnix(row.CreatedUnix),
		UpdatedAt:               fromUnix(row.UpdatedUnix),
	}
}

package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/JetsadaSomporn/docverify-api/internal/models"
)

// GroupRepository defines persistence operations for project groups.
type GroupRepository interface {
	ListBySubject(ctx context.Context, subjectID uint) ([]models.Group, error)
	ListByAdvisor(ctx context.Context, advisorID uint) ([]models.Group, error)
	GetByID(ctx context.Context, id uint) (models.Group, error)
	GetByNameAndSubject(ctx context.Context, name string, subjectID uint) (models.Group, error)
	GetByMember(ctx context.Context, userID uint) (models.Group, error)
	Create(ctx context.Context, group *models.Group) error
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id uint) error

	ReplaceMembers(ctx context.Context, groupID uint, role string, userIDs []uint) error
	TransferAll(ctx context.Context, sourceSubjectID, targetSubjectID uint) (int, error)
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository instantiates a GORM-backed repository.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) ListBySubject(ctx context.Context, subjectID uint) ([]models.Group, error) {
	var groups []models.Group
	if err := r.db.WithContext(ctx).
		Preload("Members.User").
		Where("subject_id = ?", subjectID).
		Order("name ASC").
		Find(&groups).Error; err != nil {
		return nil, err
	}

	return groups, nil
}

func (r *groupRepository) ListByAdvisor(ctx context.Context, advisorID uint) ([]models.Group, error) {
	var groups []models.Group
	if err := r.db.WithContext(ctx).
		Preload("Members.User").
		Joins("JOIN group_members gm ON gm.group_id = groups.id").
		Where("gm.user_id = ? AND gm.role = ?", advisorID, models.GroupRoleAdvisor).
		Order("groups.name ASC").
		Find(&groups).Error; err != nil {
		return nil, err
	}

	return groups, nil
}

func (r *groupRepository) GetByID(ctx context.Context, id uint) (models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Preload("Members.User").First(&group, id).Error; err != nil {
		return models.Group{}, err
	}

	return group, nil
}

func (r *groupRepository) GetByNameAndSubject(ctx context.Context, name string, subjectID uint) (models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).
		Preload("Members.User").
		Where("name = ? AND subject_id = ?", name, subjectID).
		First(&group).Error; err != nil {
		return models.Group{}, err
	}

	return group, nil
}

func (r *groupRepository) GetByMember(ctx context.Context, userID uint) (models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).
		Preload("Members.User").
		Joins("JOIN group_members gm ON gm.group_id = groups.id").
		Where("gm.user_id = ? AND gm.role = ?", userID, models.GroupRoleMember).
		First(&group).Error; err != nil {
		return models.Group{}, err
	}

	return group, nil
}

func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *groupRepository) Update(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Omit("Members").Save(group).Error
}

func (r *groupRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Group{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceMembers swaps the full member list for the given role. The roster is
// last-write-wins: a partial list overwrites whatever was stored before.
func (r *groupRepository) ReplaceMembers(ctx context.Context, groupID uint, role string, userIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ? AND role = ?", groupID, role).
			Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}

		for _, userID := range userIDs {
			member := models.GroupMember{GroupID: groupID, UserID: userID, Role: role}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// TransferAll moves every active group from the source subject to the target.
// When the target already has a group of the same name, that group is updated
// in place and absorbs the source's roster, so re-running the transfer does
// not duplicate groups.
func (r *groupRepository) TransferAll(ctx context.Context, sourceSubjectID, targetSubjectID uint) (int, error) {
	moved := 0

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sourceGroups []models.Group
		if err := tx.Preload("Members").
			Where("subject_id = ?", sourceSubjectID).
			Find(&sourceGroups).Error; err != nil {
			return err
		}

		for _, source := range sourceGroups {
			var existing models.Group
			err := tx.Where("name = ? AND subject_id = ?", source.Name, targetSubjectID).
				First(&existing).Error

			switch {
			case err == nil:
				existing.ProjectName = source.ProjectName
				existing.Note = source.Note
				existing.AdvisorMeta = source.AdvisorMeta
				if err := tx.Omit("Members").Save(&existing).Error; err != nil {
					return err
				}
				if err := tx.Where("group_id = ?", existing.ID).
					Delete(&models.GroupMember{}).Error; err != nil {
					return err
				}
				for _, member := range source.Members {
					movedMember := models.GroupMember{
						GroupID: existing.ID,
						UserID:  member.UserID,
						Role:    member.Role,
					}
					if err := tx.Create(&movedMember).Error; err != nil {
						return err
					}
				}
				if err := tx.Delete(&models.Group{}, source.ID).Error; err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Model(&models.Group{}).
					Where("id = ?", source.ID).
					Update("subject_id", targetSubjectID).Error; err != nil {
					return err
				}
			default:
				return err
			}

			moved++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return moved, nil
}

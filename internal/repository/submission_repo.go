package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/JetsadaSomporn/docverify-api/internal/models"
)

// SubmissionRepository defines persistence operations for submission attempts.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error)
	ListByGroup(ctx context.Context, groupID uint) ([]models.Submission, error)
	LatestForGroup(ctx context.Context, assignmentID, groupID uint) (models.Submission, error)
	LatestPerGroup(ctx context.Context, assignmentID uint) ([]models.Submission, error)
	DistinctSubmittingGroups(ctx context.Context, assignmentID uint) ([]uint, error)
	LatestFlagged(ctx context.Context, groupIDs []uint) ([]models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates a GORM-backed repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Omit("Assignment", "Group").Save(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Preload("Assignment").
		Preload("Group").
		First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Preload("Group").
		Where("assignment_id = ?", assignmentID).
		Order("created_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListByGroup(ctx context.Context, groupID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Preload("Assignment").
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

// LatestForGroup returns the most recent attempt; there is no explicit
// current-submission pointer, newest row wins.
func (r *submissionRepository) LatestForGroup(ctx context.Context, assignmentID, groupID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Preload("Assignment").
		Where("assignment_id = ? AND group_id = ?", assignmentID, groupID).
		Order("created_at DESC, id DESC").
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) LatestPerGroup(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	latest := r.db.WithContext(ctx).Model(&models.Submission{}).
		Select("MAX(id)").
		Where("assignment_id = ?", assignmentID).
		Group("group_id")

	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Preload("Group").
		Where("id IN (?)", latest).
		Order("group_id ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) DistinctSubmittingGroups(ctx context.Context, assignmentID uint) ([]uint, error) {
	var groupIDs []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("assignment_id = ?", assignmentID).
		Distinct("group_id").
		Pluck("group_id", &groupIDs).Error; err != nil {
		return nil, err
	}

	return groupIDs, nil
}

// LatestFlagged returns the newest submission per (assignment, group) pair
// whose validation flags mark corruption or a missing signature. An empty
// groupIDs slice means no group scoping.
func (r *submissionRepository) LatestFlagged(ctx context.Context, groupIDs []uint) ([]models.Submission, error) {
	latest := r.db.WithContext(ctx).Model(&models.Submission{}).
		Select("MAX(id)").
		Group("assignment_id, group_id")

	query := r.db.WithContext(ctx).
		Preload("Assignment").
		Preload("Group").
		Where("id IN (?)", latest).
		Where("file_corrupted = ? OR signature_missing = ?", true, true)

	if len(groupIDs) > 0 {
		query = query.Where("group_id IN ?", groupIDs)
	}

	var submissions []models.Submission
	if err := query.Order("updated_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

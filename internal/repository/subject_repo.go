package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/JetsadaSomporn/docverify-api/internal/models"
)

// SubjectFilter describes listing options for subjects.
type SubjectFilter struct {
	Search   string
	Year     int
	Semester int
	Page     int
	PageSize int
}

// SubjectRepository defines persistence operations for subjects and their
// enrollment join rows.
type SubjectRepository interface {
	List(ctx context.Context, filter SubjectFilter) ([]models.Subject, int64, error)
	GetByID(ctx context.Context, id uint) (models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id uint) error

	Enroll(ctx context.Context, subjectID, userID uint, role string) error
	Unenroll(ctx context.Context, subjectID, userID uint, role string) error
	ListEnrollments(ctx context.Context, subjectID uint, role string) ([]models.SubjectEnrollment, error)
	IsEnrolled(ctx context.Context, subjectID, userID uint, role string) (bool, error)
}

type subjectRepository struct {
	db *gorm.DB
}

// NewSubjectRepository instantiates a GORM-backed repository.
func NewSubjectRepository(db *gorm.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) List(ctx context.Context, filter SubjectFilter) ([]models.Subject, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Subject{})

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(name) LIKE ?", pattern)
	}
	if filter.Year > 0 {
		query = query.Where("year = ?", filter.Year)
	}
	if filter.Semester > 0 {
		query = query.Where("semester = ?", filter.Semester)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var subjects []models.Subject
	if err := query.Order("year DESC, semester DESC, name ASC").Find(&subjects).Error; err != nil {
		return nil, 0, err
	}

	return subjects, total, nil
}

func (r *subjectRepository) GetByID(ctx context.Context, id uint) (models.Subject, error) {
	var subject models.Subject
	if err := r.db.WithContext(ctx).First(&subject, id).Error; err != nil {
		return models.Subject{}, err
	}

	return subject, nil
}

func (r *subjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Create(subject).Error
}

func (r *subjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Save(subject).Error
}

func (r *subjectRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Subject{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *subjectRepository) Enroll(ctx context.Context, subjectID, userID uint, role string) error {
	enrollment := models.SubjectEnrollment{
		SubjectID: subjectID,
		UserID:    userID,
		Role:      role,
	}
	return r.db.WithContext(ctx).
		Where("subject_id = ? AND user_id = ? AND role = ?", subjectID, userID, role).
		FirstOrCreate(&enrollment).Error
}

func (r *subjectRepository) Unenroll(ctx context.Context, subjectID, userID uint, role string) error {
	result := r.db.WithContext(ctx).
		Where("subject_id = ? AND user_id = ? AND role = ?", subjectID, userID, role).
		Delete(&models.SubjectEnrollment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *subjectRepository) ListEnrollments(ctx context.Context, subjectID uint, role string) ([]models.SubjectEnrollment, error) {
	query := r.db.WithContext(ctx).Preload("User").Where("subject_id = ?", subjectID)
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var enrollments []models.SubjectEnrollment
	if err := query.Order("id ASC").Find(&enrollments).Error; err != nil {
		return nil, err
	}

	return enrollments, nil
}

func (r *subjectRepository) IsEnrolled(ctx context.Context, subjectID, userID uint, role string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.SubjectEnrollment{}).
		Where("subject_id = ? AND user_id = ?", subjectID, userID)
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

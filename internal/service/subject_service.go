package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/JetsadaSomporn/docverify-api/internal/dto"
	"github.com/JetsadaSomporn/docverify-api/internal/models"
	"github.com/JetsadaSomporn/docverify-api/internal/repository"
)

var (
	// ErrSubjectNotFound indicates a subject could not be found.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrNotEnrolled indicates a user is not enrolled in the subject.
	ErrNotEnrolled = errors.New("user is not enrolled in subject")
	// ErrNotATeacher indicates a user without the teacher role was attached as one.
	ErrNotATeacher = errors.New("user does not hold the teacher role")
)

// SubjectService handles subject management and enrollment.
type SubjectService interface {
	List(ctx context.Context, filter repository.SubjectFilter) (dto.SubjectListResponse, error)
	Get(ctx context.Context, id uint) (dto.SubjectResponse, error)
	Create(ctx context.Context, payload dto.SubjectCreateRequest) (dto.SubjectResponse, error)
	Update(ctx context.Context, id uint, payload dto.SubjectUpdateRequest) (dto.SubjectResponse, error)
	Delete(ctx context.Context, id uint) error
	EnrollStudents(ctx context.Context, subjectID uint, payload dto.EnrollRequest) error
	RemoveStudent(ctx context.Context, subjectID, userID uint) error
	EnrollTeachers(ctx context.Context, subjectID uint, payload dto.EnrollTeachersRequest) error
	ListStudents(ctx context.Context, subjectID uint) ([]dto.UserResponse, error)
	ImportRoster(ctx context.Context, subjectID uint, file *multipart.FileHeader) (dto.ImportReport, error)
}

type subjectService struct {
	subjects  repository.SubjectRepository
	users     repository.UserRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSubjectService constructs a SubjectService instance.
func NewSubjectService(subjects repository.SubjectRepository, users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) SubjectService {
	return &subjectService{
		subjects:  subjects,
		users:     users,
		validator: validate,
		logger:    logger.With().Str("component", "subject_service").Logger(),
	}
}

func (s *subjectService) List(ctx context.Context, filter repository.SubjectFilter) (dto.SubjectListResponse, error) {
	subjects, total, err := s.subjects.List(ctx, filter)
	if err != nil {
		return dto.SubjectListResponse{}, err
	}

	return dto.SubjectListResponse{
		Subjects: dto.NewSubjectResponseSlice(subjects),
		Total:    total,
	}, nil
}

func (s *subjectService) Get(ctx context.Context, id uint) (dto.SubjectResponse, error) {
	subject, err := s.getSubject(ctx, id)
	if err != nil {
		return dto.SubjectResponse{}, err
	}

	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) Create(ctx context.Context, payload dto.SubjectCreateRequest) (dto.SubjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubjectResponse{}, err
	}

	subject := models.Subject{
		Name:          strings.TrimSpace(payload.Name),
		Section:       strings.TrimSpace(payload.Section),
		Semester:      payload.Semester,
		Year:          payload.Year,
		TrackCapacity: datatypes.JSONMap(payload.TrackCapacity),
	}

	if err := s.subjects.Create(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	s.logger.Info().Uint("subject_id", subject.ID).Msg("subject created")

	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) Update(ctx context.Context, id uint, payload dto.SubjectUpdateRequest) (dto.SubjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubjectResponse{}, err
	}

	subject, err := s.getSubject(ctx, id)
	if err != nil {
		return dto.SubjectResponse{}, err
	}

	if payload.Name != nil {
		subject.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.Section != nil {
		subject.Section = strings.TrimSpace(*payload.Section)
	}
	if payload.Semester != nil {
		subject.Semester = *payload.Semester
	}
	if payload.Year != nil {
		subject.Year = *payload.Year
	}
	if payload.TrackCapacity != nil {
		subject.TrackCapacity = datatypes.JSONMap(*payload.TrackCapacity)
	}

	if err := s.subjects.Update(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	return dto.NewSubjectResponse(subject), nil
}

// Delete soft-deletes the subject. Its groups and assignments are left in
// place; they keep pointing at the soft-deleted parent.
func (s *subjectService) Delete(ctx context.Context, id uint) error {
	if err := s.subjects.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubjectNotFound
		}
		return err
	}

	s.logger.Info().Uint("subject_id", id).Msg("subject soft-deleted")
	return nil
}

func (s *subjectService) EnrollStudents(ctx context.Context, subjectID uint, payload dto.EnrollRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	if _, err := s.getSubject(ctx, subjectID); err != nil {
		return err
	}

	for _, raw := range payload.StudentIDs {
		studentID, ok := models.NormalizeStudentID(raw)
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidStudentID, raw)
		}

		user, err := s.users.GetByStudentID(ctx, studentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: student %s", ErrUserNotFound, studentID)
			}
			return err
		}

		if err := s.subjects.Enroll(ctx, subjectID, user.ID, models.EnrollmentStudent); err != nil {
			return err
		}
	}

	s.logger.Info().Uint("subject_id", subjectID).Int("count", len(payload.StudentIDs)).Msg("students enrolled")
	return nil
}

func (s *subjectService) RemoveStudent(ctx context.Context, subjectID, userID uint) error {
	if err := s.subjects.Unenroll(ctx, subjectID, userID, models.EnrollmentStudent); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotEnrolled
		}
		return err
	}
	return nil
}

func (s *subjectService) EnrollTeachers(ctx context.Context, subjectID uint, payload dto.EnrollTeachersRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	if _, err := s.getSubject(ctx, subjectID); err != nil {
		return err
	}

	for _, userID := range payload.UserIDs {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user %d", ErrUserNotFound, userID)
			}
			return err
		}
		if !user.HasRole(models.RoleTeacher) {
			return fmt.Errorf("%w: user %d", ErrNotATeacher, userID)
		}

		if err := s.subjects.Enroll(ctx, subjectID, user.ID, models.EnrollmentTeacher); err != nil {
			return err
		}
	}

	return nil
}

func (s *subjectService) ListStudents(ctx context.Context, subjectID uint) ([]dto.UserResponse, error) {
	if _, err := s.getSubject(ctx, subjectID); err != nil {
		return nil, err
	}

	enrollments, err := s.subjects.ListEnrollments(ctx, subjectID, models.EnrollmentStudent)
	if err != nil {
		return nil, err
	}

	students := make([]dto.UserResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		students = append(students, dto.NewUserResponse(enrollment.User))
	}

	return students, nil
}

// ImportRoster parses the first sheet of an xlsx workbook with columns
// student id, first name, last name, email, track. Missing users are created
// without a password (they log in through OAuth). Malformed rows are reported
// without aborting the rest of the import.
func (s *subjectService) ImportRoster(ctx context.Context, subjectID uint, file *multipart.FileHeader) (dto.ImportReport, error) {
	if _, err := s.getSubject(ctx, subjectID); err != nil {
		return dto.ImportReport{}, err
	}

	if file == nil {
		return dto.ImportReport{}, fmt.Errorf("roster file is required")
	}

	reader, err := file.Open()
	if err != nil {
		return dto.ImportReport{}, fmt.Errorf("failed to open roster file: %w", err)
	}
	defer reader.Close()

	workbook, err := excelize.OpenReader(reader)
	if err != nil {
		return dto.ImportReport{}, fmt.Errorf("failed to parse workbook: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return dto.ImportReport{}, fmt.Errorf("workbook has no sheets")
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return dto.ImportReport{}, fmt.Errorf("failed to read sheet: %w", err)
	}

	report := dto.ImportReport{Errors: []dto.ImportRowError{}}

	for i, row := range rows {
		if i == 0 {
			// Header row.
			continue
		}
		rowNumber := i + 1

		if len(row) < 4 || strings.TrimSpace(row[0]) == "" {
			report.Skipped++
			continue
		}

		studentID, ok := models.NormalizeStudentID(row[0])
		if !ok {
			report.Errors = append(report.Errors, dto.ImportRowError{
				Row:    rowNumber,
				Reason: "student id must be exactly 10 digits",
			})
			continue
		}

		email := strings.ToLower(strings.TrimSpace(row[3]))
		if email == "" {
			report.Errors = append(report.Errors, dto.ImportRowError{
				Row:    rowNumber,
				Reason: "email is required",
			})
			continue
		}

		track := ""
		if len(row) > 4 {
			track = strings.TrimSpace(row[4])
		}

		user, err := s.users.GetByStudentID(ctx, studentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{
				StudentID: &studentID,
				FirstName: strings.TrimSpace(row[1]),
				LastName:  strings.TrimSpace(row[2]),
				Email:     email,
				Track:     track,
				Roles:     []string{models.RoleStudent},
			}
			if err := s.users.Create(ctx, &user); err != nil {
				report.Errors = append(report.Errors, dto.ImportRowError{
					Row:    rowNumber,
					Reason: fmt.Sprintf("failed to create user: %v", err),
				})
				continue
			}
		} else if err != nil {
			return report, err
		}

		if err := s.subjects.Enroll(ctx, subjectID, user.ID, models.EnrollmentStudent); err != nil {
			report.Errors = append(report.Errors, dto.ImportRowError{
				Row:    rowNumber,
				Reason: fmt.Sprintf("failed to enroll: %v", err),
			})
			continue
		}

		report.Imported++
	}

	s.logger.Info().
		Uint("subject_id", subjectID).
		Int("imported", report.Imported).
		Int("errors", len(report.Errors)).
		Msg("roster imported")

	return report, nil
}

func (s *subjectService) getSubject(ctx context.Context, id uint) (models.Subject, error) {
	subject, err := s.subjects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Subject{}, ErrSubjectNotFound
		}
		return models.Subject{}, err
	}
	return subject, nil
}

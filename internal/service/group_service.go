package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/JetsadaSomporn/docverify-api/internal/dto"
	"github.com/JetsadaSomporn/docverify-api/internal/models"
	"github.com/JetsadaSomporn/docverify-api/internal/repository"
)

var (
	// ErrGroupNotFound indicates a group could not be found.
	ErrGroupNotFound = errors.New("group not found")
	// ErrTrackMismatch indicates a member whose track differs from the group prefix.
	ErrTrackMismatch = errors.New("member track does not match group prefix")
	// ErrTooManyAdvisors indicates the advisor cap was exceeded.
	ErrTooManyAdvisors = errors.New("a group may have at most two advisors")
)

// GroupService handles project group management.
type GroupService interface {
	ListBySubject(ctx context.Context, subjectID uint) ([]dto.GroupResponse, error)
	Get(ctx context.Context, id uint) (dto.GroupResponse, error)
	GroupForStudent(ctx context.Context, userID uint) (dto.GroupResponse, error)
	GroupsForAdvisor(ctx context.Context, advisorID uint) ([]dto.GroupResponse, error)
	Save(ctx context.Context, payload dto.GroupSaveRequest) (dto.GroupResponse, error)
	Delete(ctx context.Context, id uint) error
	Transfer(ctx context.Context, sourceSubjectID uint, payload dto.GroupTransferRequest) (dto.GroupTransferResponse, error)
}

type groupService struct {
	groups    repository.GroupRepository
	subjects  repository.SubjectRepository
	users     repository.UserRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewGroupService constructs a GroupService instance.
func NewGroupService(groups repository.GroupRepository, subjects repository.SubjectRepository, users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) GroupService {
	return &groupService{
		groups:    groups,
		subjects:  subjects,
		users:     users,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "group_service").Logger(),
	}
}

func (s *groupService) ListBySubject(ctx context.Context, subjectID uint) ([]dto.GroupResponse, error) {
	groups, err := s.groups.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	return dto.NewGroupResponseSlice(groups), nil
}

func (s *groupService) Get(ctx context.Context, id uint) (dto.GroupResponse, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResponse{}, ErrGroupNotFound
		}
		return dto.GroupResponse{}, err
	}

	return dto.NewGroupResponse(group), nil
}

func (s *groupService) GroupForStudent(ctx context.Context, userID uint) (dto.GroupResponse, error) {
	group, err := s.groups.GetByMember(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResponse{}, ErrGroupNotFound
		}
		return dto.GroupResponse{}, err
	}

	return dto.NewGroupResponse(group), nil
}

func (s *groupService) GroupsForAdvisor(ctx context.Context, advisorID uint) ([]dto.GroupResponse, error) {
	groups, err := s.groups.ListByAdvisor(ctx, advisorID)
	if err != nil {
		return nil, err
	}

	return dto.NewGroupResponseSlice(groups), nil
}

// Save upserts a group by (name, subject). The member roster is replaced
// wholesale with the requested list: sending a partial roster overwrites the
// stored one, it does not merge.
func (s *groupService) Save(ctx context.Context, payload dto.GroupSaveRequest) (dto.GroupResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GroupResponse{}, err
	}

	if _, err := s.subjects.GetByID(ctx, payload.SubjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupResponse{}, ErrSubjectNotFound
		}
		return dto.GroupResponse{}, err
	}

	if len(payload.AdvisorIDs) > models.MaxAdvisorsPerGroup {
		return dto.GroupResponse{}, ErrTooManyAdvisors
	}

	name := strings.TrimSpace(payload.Name)
	memberIDs, err := s.resolveMembers(ctx, name, payload.SubjectID, payload.MemberStudentIDs)
	if err != nil {
		return dto.GroupResponse{}, err
	}

	advisorIDs, err := s.resolveAdvisors(ctx, payload.AdvisorIDs)
	if err != nil {
		return dto.GroupResponse{}, err
	}

	group, err := s.groups.GetByNameAndSubject(ctx, name, payload.SubjectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		group = models.Group{Name: name, SubjectID: payload.SubjectID}
		group.ProjectName = s.sanitizer.Sanitize(payload.ProjectName)
		group.Note = s.sanitizer.Sanitize(payload.Note)
		group.AdvisorMeta = datatypes.JSONMap(payload.AdvisorMeta)
		if err := s.groups.Create(ctx, &group); err != nil {
			return dto.GroupResponse{}, err
		}
	} else if err != nil {
		return dto.GroupResponse{}, err
	} else {
		group.ProjectName = s.sanitizer.Sanitize(payload.ProjectName)
		group.Note = s.sanitizer.Sanitize(payload.Note)
		group.AdvisorMeta = datatypes.JSONMap(payload.AdvisorMeta)
		if err := s.groups.Update(ctx, &group); err != nil {
			return dto.GroupResponse{}, err
		}
	}

	if err := s.groups.ReplaceMembers(ctx, group.ID, models.GroupRoleMember, memberIDs); err != nil {
		return dto.GroupResponse{}, err
	}
	if err := s.groups.ReplaceMembers(ctx, group.ID, models.GroupRoleAdvisor, advisorIDs); err != nil {
		return dto.GroupResponse{}, err
	}

	saved, err := s.groups.GetByID(ctx, group.ID)
	if err != nil {
		return dto.GroupResponse{}, err
	}

	s.logger.Info().Uint("group_id", saved.ID).Int("members", len(memberIDs)).Msg("group saved")

	return dto.NewGroupResponse(saved), nil
}

func (s *groupService) Delete(ctx context.Context, id uint) error {
	if err := s.groups.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return err
	}
	return nil
}

func (s *groupService) Transfer(ctx context.Context, sourceSubjectID uint, payload dto.GroupTransferRequest) (dto.GroupTransferResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GroupTransferResponse{}, err
	}

	for _, subjectID := range []uint{sourceSubjectID, payload.TargetSubjectID} {
		if _, err := s.subjects.GetByID(ctx, subjectID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.GroupTransferResponse{}, ErrSubjectNotFound
			}
			return dto.GroupTransferResponse{}, err
		}
	}

	moved, err := s.groups.TransferAll(ctx, sourceSubjectID, payload.TargetSubjectID)
	if err != nil {
		return dto.GroupTransferResponse{}, err
	}

	s.logger.Info().
		Uint("source_subject_id", sourceSubjectID).
		Uint("target_subject_id", payload.TargetSubjectID).
		Int("moved", moved).
		Msg("groups transferred")

	return dto.GroupTransferResponse{Moved: moved}, nil
}

// resolveMembers maps student IDs to user IDs, enforcing normalisation,
// enrollment and the track-prefix rule.
func (s *groupService) resolveMembers(ctx context.Context, groupName string, subjectID uint, studentIDs []string) ([]uint, error) {
	prefix := models.Group{Name: groupName}.TrackPrefix()

	memberIDs := make([]uint, 0, len(studentIDs))
	for _, raw := range studentIDs {
		studentID, ok := models.NormalizeStudentID(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStudentID, raw)
		}

		user, err := s.users.GetByStudentID(ctx, studentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: student %s", ErrUserNotFound, studentID)
			}
			return nil, err
		}

		enrolled, err := s.subjects.IsEnrolled(ctx, subjectID, user.ID, models.EnrollmentStudent)
		if err != nil {
			return nil, err
		}
		if !enrolled {
			return nil, fmt.Errorf("%w: student %s", ErrNotEnrolled, studentID)
		}

		if user.Track != "" && !strings.EqualFold(user.Track, prefix) {
			return nil, fmt.Errorf("%w: student %s is %s, group is %s", ErrTrackMismatch, studentID, user.Track, prefix)
		}

		memberIDs = append(memberIDs, user.ID)
	}

	return memberIDs, nil
}

func (s *groupService) resolveAdvisors(ctx context.Context, advisorIDs []uint) ([]uint, error) {
	resolved := make([]uint, 0, len(advisorIDs))
	for _, advisorID := range advisorIDs {
		user, err := s.users.GetByID(ctx, advisorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: user %d", ErrUserNotFound, advisorID)
			}
			return nil, err
		}
		if !user.HasRole(models.RoleTeacher) {
			return nil, fmt.Errorf("%w: user %d", ErrNotATeacher, advisorID)
		}
		resolved = append(resolved, advisorID)
	}

	return resolved, nil
}

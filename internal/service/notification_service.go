package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/JetsadaSomporn/docverify-api/internal/dto"
	"github.com/JetsadaSomporn/docverify-api/internal/models"
	"github.com/JetsadaSomporn/docverify-api/internal/repository"
)

// NotificationService serves the flagged-document polling feed. Clients poll
// on an interval; there is no push channel.
type NotificationService interface {
	FeedForAdmin(ctx context.Context) ([]dto.NotificationResponse, error)
	FeedForAdvisor(ctx context.Context, advisorID uint) ([]dto.NotificationResponse, error)
	FeedForStudent(ctx context.Context, userID uint) ([]dto.NotificationResponse, error)
}

type notificationService struct {
	submissions repository.SubmissionRepository
	groups      repository.GroupRepository
	logger      zerolog.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(submissions repository.SubmissionRepository, groups repository.GroupRepository, logger zerolog.Logger) NotificationService {
	return &notificationService{
		submissions: submissions,
		groups:      groups,
		logger:      logger.With().Str("component", "notification_service").Logger(),
	}
}

// FeedForAdmin returns flagged submissions across all groups.
func (s *notificationService) FeedForAdmin(ctx context.Context) ([]dto.NotificationResponse, error) {
	flagged, err := s.submissions.LatestFlagged(ctx, nil)
	if err != nil {
		return nil, err
	}

	return toNotificationResponses(flagged), nil
}

// FeedForAdvisor limits the feed to groups the teacher advises.
func (s *notificationService) FeedForAdvisor(ctx context.Context, advisorID uint) ([]dto.NotificationResponse, error) {
	groups, err := s.groups.ListByAdvisor(ctx, advisorID)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return []dto.NotificationResponse{}, nil
	}

	groupIDs := make([]uint, 0, len(groups))
	for _, group := range groups {
		groupIDs = append(groupIDs, group.ID)
	}

	flagged, err := s.submissions.LatestFlagged(ctx, groupIDs)
	if err != nil {
		return nil, err
	}

	return toNotificationResponses(flagged), nil
}

// FeedForStudent limits the feed to the student's own group. Students with no
// group get an empty feed rather than an error.
func (s *notificationService) FeedForStudent(ctx context.Context, userID uint) ([]dto.NotificationResponse, error) {
	group, err := s.groups.GetByMember(ctx, userID)
	if err != nil {
		return []dto.NotificationResponse{}, nil
	}

	flagged, err := s.submissions.LatestFlagged(ctx, []uint{group.ID})
	if err != nil {
		return nil, err
	}

	return toNotificationResponses(flagged), nil
}

func toNotificationResponses(submissions []models.Submission) []dto.NotificationResponse {
	responses := make([]dto.NotificationResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, dto.NewNotificationResponse(submission))
	}

	return responses
}

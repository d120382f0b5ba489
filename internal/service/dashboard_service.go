package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/JetsadaSomporn/docverify-api/internal/dto"
	"github.com/JetsadaSomporn/docverify-api/internal/repository"
)

// DashboardService computes per-assignment submission statistics.
type DashboardService interface {
	AssignmentStats(ctx context.Context, assignmentID uint) (dto.AssignmentStatsResponse, error)
	InvalidateAssignment(ctx context.Context, assignmentID uint)
}

type dashboardService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	groups      repository.GroupRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewDashboardService constructs a DashboardService. A nil cache client
// disables caching.
func NewDashboardService(assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, groups repository.GroupRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &dashboardService{
		assignments: assignments,
		submissions: submissions,
		groups:      groups,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "dashboard_service").Logger(),
		now:         time.Now,
	}
}

// AssignmentStats aggregates the latest submission per group for an
// assignment. A group counts as eligible when its roster is non-empty, and as
// submitted when it has at least one attempt.
func (s *dashboardService) AssignmentStats(ctx context.Context, assignmentID uint) (dto.AssignmentStatsResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:assignment:%d", assignmentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.AssignmentStatsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("assignment_id", assignmentID).Msg("stats cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read stats cache")
		}
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentStatsResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentStatsResponse{}, err
	}

	groups, err := s.groups.ListBySubject(ctx, assignment.SubjectID)
	if err != nil {
		return dto.AssignmentStatsResponse{}, err
	}

	eligible := 0
	for _, group := range groups {
		if group.RosterSize() > 0 {
			eligible++
		}
	}

	latest, err := s.submissions.LatestPerGroup(ctx, assignmentID)
	if err != nil {
		return dto.AssignmentStatsResponse{}, err
	}

	response := dto.AssignmentStatsResponse{
		AssignmentID:   assignmentID,
		EligibleGroups: eligible,
		Submitted:      len(latest),
		SizeBuckets: map[string]int{
			dto.SizeBucketUnder1MB: 0,
			dto.SizeBucket1To5MB:   0,
			dto.SizeBucket5To10MB:  0,
			dto.SizeBucketOver10MB: 0,
		},
		ByHour:      make([]int, 24),
		ByWeekday:   make([]int, 7),
		GeneratedAt: s.now().UTC(),
	}
	if response.Submitted > eligible {
		// Attempts from groups that later lost their roster still count
		// as submitted; never report a negative remainder.
		response.NotSubmitted = 0
	} else {
		response.NotSubmitted = eligible - response.Submitted
	}

	for _, submission := range latest {
		if submission.CreatedAt.After(assignment.DueDate) {
			response.Late++
		} else {
			response.OnTime++
		}
		if submission.IsFlagged() {
			response.Flagged++
		}
		response.SizeBuckets[sizeBucket(submission.FileSize)]++

		at := submission.CreatedAt.UTC()
		response.ByHour[at.Hour()]++
		response.ByWeekday[int(at.Weekday())]++
	}

	if s.cache != nil {
		if payload, marshalErr := json.Marshal(response); marshalErr == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store stats cache")
			}
		}
	}

	return response, nil
}

// InvalidateAssignment drops the cached stats for an assignment, typically
// after a new submission arrives.
func (s *dashboardService) InvalidateAssignment(ctx context.Context, assignmentID uint) {
	if s.cache == nil {
		return
	}
	cacheKey := fmt.Sprintf("dashboard:assignment:%d", assignmentID)
	if err := s.cache.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("assignment_id", assignmentID).Msg("failed to invalidate stats cache")
	}
}

func sizeBucket(size int64) string {
	const mb = 1024 * 1024
	switch {
	case size < 1*mb:
		return dto.SizeBucketUnder1MB
	case size < 5*mb:
		return dto.SizeBucket1To5MB
	case size < 10*mb:
		return dto.SizeBucket5To10MB
	default:
		return dto.SizeBucketOver10MB
	}
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/JetsadaSomporn/docverify-api/internal/dto"
	"github.com/JetsadaSomporn/docverify-api/internal/models"
	"github.com/JetsadaSomporn/docverify-api/internal/observability"
	"github.com/JetsadaSomporn/docverify-api/internal/repository"
	"github.com/JetsadaSomporn/docverify-api/internal/storage"
)

var (
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrNotAPDF indicates the uploaded content is not a PDF document.
	ErrNotAPDF = errors.New("file is not a pdf document")
	// ErrInvalidTransition indicates a disallowed status change.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotAdvisor indicates the reviewer does not advise the submitting group.
	ErrNotAdvisor = errors.New("reviewer is not an advisor of this group")
)

// DocumentStore abstracts the filesystem operations the submission flow needs.
type DocumentStore interface {
	Save(ctx context.Context, dir, originalName string, reader io.Reader) (string, error)
	SaveReupload(ctx context.Context, originalName string, reader io.Reader) (string, error)
	Remove(path string) error
}

// SubmissionService orchestrates document submission workflows.
type SubmissionService interface {
	Submit(ctx context.Context, assignmentID, userID uint, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	Reupload(ctx context.Context, submissionID, adminID uint, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	Review(ctx context.Context, submissionID, reviewerID uint, reviewerIsAdmin bool, payload dto.ReviewRequest) (dto.SubmissionResponse, error)
	SetFlags(ctx context.Context, submissionID uint, payload dto.FlagRequest) (dto.SubmissionResponse, error)
	ListByAssignment(ctx context.Context, assignmentID uint) ([]dto.SubmissionResponse, error)
	ListForGroup(ctx context.Context, groupID uint) ([]dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	groups      repository.GroupRepository
	store       DocumentStore
	validator   *validator.Validate
	maxSize     int64
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(submissions repository.SubmissionRepository, assignments repository.AssignmentRepository, groups repository.GroupRepository, store DocumentStore, validate *validator.Validate, maxSizeMB int, logger zerolog.Logger) SubmissionService {
	if maxSizeMB <= 0 {
		maxSizeMB = 15
	}
	return &submissionService{
		submissions: submissions,
		assignments: assignments,
		groups:      groups,
		store:       store,
		validator:   validate,
		maxSize:     int64(maxSizeMB) * 1024 * 1024,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/JetsadaSomporn/docverify-api/internal/service/submission"),
		now:         time.Now,
	}
}

// Submit records a new upload attempt for the student's group. Every attempt
// is a new row; the latest one per group is the submission that counts.
func (s *submissionService) Submit(ctx context.Context, assignmentID, userID uint, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit")
	defer span.End()

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	group, err := s.groups.GetByMember(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrGroupNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	content, err := s.readPDF(span, file)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	path, err := s.store.Save(ctx, storage.DirDocuments, file.Filename, bytes.NewReader(content))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store failed")
		return dto.SubmissionResponse{}, fmt.Errorf("failed to store file: %w", err)
	}

	submission := models.Submission{
		AssignmentID: assignment.ID,
		GroupID:      group.ID,
		FileName:     file.Filename,
		FilePath:     path,
		FileSize:     int64(len(content)),
		UploadedBy:   userID,
		Status:       models.SubmissionStatusSubmitted,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		// No transactional guarantee between the filesystem and the
		// database; remove the just-written file best effort.
		if removeErr := s.store.Remove(path); removeErr != nil {
			s.logger.Warn().Err(removeErr).Str("path", path).Msg("failed to clean up orphaned upload")
		}
		return dto.SubmissionResponse{}, err
	}

	span.SetAttributes(
		attribute.Int64("submission.size_bytes", submission.FileSize),
		attribute.Int("submission.id", int(submission.ID)),
	)

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("group_id", group.ID).
		Bool("late", assignment.IsPastDue(s.now())).
		Msg("document submitted")

	return dto.NewSubmissionResponse(submission), nil
}

// Reupload replaces a bad document on behalf of a group. The replacement file
// lands at the uploads root under the reupload naming convention, validation
// flags are cleared and the status returns to submitted.
func (s *submissionService) Reupload(ctx context.Context, submissionID, adminID uint, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.reupload")
	defer span.End()

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	content, err := s.readPDF(span, file)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	path, err := s.store.SaveReupload(ctx, file.Filename, bytes.NewReader(content))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store failed")
		return dto.SubmissionResponse{}, fmt.Errorf("failed to store file: %w", err)
	}

	submission.FileName = file.Filename
	submission.FilePath = path
	submission.FileSize = int64(len(content))
	submission.UploadedBy = adminID
	submission.FileCorrupted = false
	submission.SignatureMissing = false
	submission.Status = models.SubmissionStatusSubmitted
	submission.Feedback = ""
	submission.ReviewedBy = nil

	if err := s.submissions.Update(ctx, &submission); err != nil {
		if removeErr := s.store.Remove(path); removeErr != nil {
			s.logger.Warn().Err(removeErr).Str("path", path).Msg("failed to clean up orphaned reupload")
		}
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submission.ID).Uint("admin_id", adminID).Msg("document reuploaded")

	return dto.NewSubmissionResponse(submission), nil
}

// Review applies an advisor decision. Only submitted documents can move to
// approved or rejected.
func (s *submissionService) Review(ctx context.Context, submissionID, reviewerID uint, reviewerIsAdmin bool, payload dto.ReviewRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if !reviewerIsAdmin {
		if err := s.requireAdvisor(ctx, submission.GroupID, reviewerID); err != nil {
			return dto.SubmissionResponse{}, err
		}
	}

	if !models.CanTransition(submission.Status, payload.Status) {
		return dto.SubmissionResponse{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, submission.Status, payload.Status)
	}

	submission.Status = payload.Status
	submission.Feedback = payload.Feedback
	submission.ReviewedBy = &reviewerID

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Str("status", submission.Status).
		Uint("reviewer_id", reviewerID).
		Msg("submission reviewed")

	return dto.NewSubmissionResponse(submission), nil
}

// SetFlags records document validation results. The validation pipeline runs
// outside this service; we only store the outcome.
func (s *submissionService) SetFlags(ctx context.Context, submissionID uint, payload dto.FlagRequest) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if payload.FileCorrupted != nil {
		submission.FileCorrupted = *payload.FileCorrupted
		if *payload.FileCorrupted {
			observability.FlaggedDocuments().WithLabelValues("file_corrupted").Inc()
		}
	}
	if payload.SignatureMissing != nil {
		submission.SignatureMissing = *payload.SignatureMissing
		if *payload.SignatureMissing {
			observability.FlaggedDocuments().WithLabelValues("signature_missing").Inc()
		}
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListByAssignment(ctx context.Context, assignmentID uint) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) ListForGroup(ctx context.Context, groupID uint) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) requireAdvisor(ctx context.Context, groupID, reviewerID uint) error {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return err
	}

	for _, member := range group.Members {
		if member.Role == models.GroupRoleAdvisor && member.UserID == reviewerID {
			return nil
		}
	}

	return ErrNotAdvisor
}

// readPDF loads the upload into memory, enforcing the size cap and sniffing
// the content type.
func (s *submissionService) readPDF(span trace.Span, file *multipart.FileHeader) ([]byte, error) {
	if file == nil {
		err := errors.New("file is required")
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("upload.original_name", file.Filename),
		attribute.Int64("upload.request_size", file.Size),
	)

	if file.Size > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return nil, ErrUploadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(buf.Len()) > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return nil, ErrUploadTooLarge
	}

	mime := mimetype.Detect(buf.Bytes())
	if !mime.Is("application/pdf") {
		observability.UploadRejected().WithLabelValues("type").Inc()
		span.RecordError(ErrNotAPDF)
		span.SetStatus(codes.Error, "unsupported type")
		return nil, fmt.Errorf("%w: detected %s", ErrNotAPDF, mime.String())
	}

	return buf.Bytes(), nil
}

package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/JetsadaSomporn/docverify-api/internal/models"
	"github.com/JetsadaSomporn/docverify-api/internal/repository"
)

func openSubmissionTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Subject{},
		&models.Group{},
		&models.GroupMember{},
		&models.Assignment{},
		&models.Submission{},
	))
	return db
}

func seedSubmission(t *testing.T, db *gorm.DB, assignmentID, groupID uint, flagged bool) models.Submission {
	t.Helper()

	submission := models.Submission{
		AssignmentID:  assignmentID,
		GroupID:       groupID,
		FileName:      "report.pdf",
		FilePath:      "documents/report.pdf",
		FileSize:      2048,
		UploadedBy:    1,
		Status:        models.SubmissionStatusSubmitted,
		FileCorrupted: flagged,
	}
	require.NoError(t, db.Create(&submission).Error)
	return submission
}

func TestLatestPerGroupKeepsNewestAttempt(t *testing.T) {
	db := openSubmissionTestDB(t)
	repo := repository.NewSubmissionRepository(db)

	seedSubmission(t, db, 1, 1, false)
	second := seedSubmission(t, db, 1, 1, false)
	other := seedSubmission(t, db, 1, 2, false)
	seedSubmission(t, db, 2, 1, false)

	latest, err := repo.LatestPerGroup(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	require.Equal(t, second.ID, latest[0].ID)
	require.Equal(t, other.ID, latest[1].ID)
}

func TestLatestFlaggedScopesToGroups(t *testing.T) {
	db := openSubmissionTestDB(t)
	repo := repository.NewSubmissionRepository(db)

	flagged := seedSubmission(t, db, 1, 1, true)
	seedSubmission(t, db, 1, 2, true)
	seedSubmission(t, db, 2, 3, false)

	all, err := repo.LatestFlagged(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	scoped, err := repo.LatestFlagged(context.Background(), []uint{1})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	require.Equal(t, flagged.ID, scoped[0].ID)
}

func TestLatestFlaggedSupersededByCleanAttempt(t *testing.T) {
	db := openSubmissionTestDB(t)
	repo := repository.NewSubmissionRepository(db)

	seedSubmission(t, db, 1, 1, true)
	seedSubmission(t, db, 1, 1, false)

	flagged, err := repo.LatestFlagged(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, flagged)
}

func TestLatestQueriesHonorContext(t *testing.T) {
	db := openSubmissionTestDB(t)
	repo := repository.NewSubmissionRepository(db)

	seedSubmission(t, db, 1, 1, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.LatestPerGroup(ctx, 1)
	require.Error(t, err)

	_, err = repo.LatestFlagged(ctx, nil)
	require.Error(t, err)
}

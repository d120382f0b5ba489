package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JetsadaSomporn/docverify-api/internal/models"
)

func newNotificationFixture(t *testing.T) (*memorySubmissionRepo, *memoryGroupRepo, NotificationService) {
	t.Helper()
	users := newMemoryUserRepo()
	submissions := newMemorySubmissionRepo()
	groups := newMemoryGroupRepo(users)

	student := models.User{StudentID: stringPtr("6530211122"), Email: "s@kkumail.com", Roles: []string{models.RoleStudent}}
	require.NoError(t, users.Create(context.Background(), &student))
	advisor := models.User{Email: "t@kku.ac.th", Roles: []string{models.RoleTeacher}}
	require.NoError(t, users.Create(context.Background(), &advisor))

	advised := models.Group{Name: "BIT-01", SubjectID: 1}
	require.NoError(t, groups.Create(context.Background(), &advised))
	require.NoError(t, groups.ReplaceMembers(context.Background(), advised.ID, models.GroupRoleMember, []uint{student.ID}))
	require.NoError(t, groups.ReplaceMembers(context.Background(), advised.ID, models.GroupRoleAdvisor, []uint{advisor.ID}))

	other := models.Group{Name: "GIS-01", SubjectID: 1}
	require.NoError(t, groups.Create(context.Background(), &other))

	// Group 1 has a flagged document, group 2 a clean one.
	require.NoError(t, submissions.Create(context.Background(), &models.Submission{
		AssignmentID: 1, GroupID: 1, FileName: "broken.pdf",
		Status: models.SubmissionStatusSubmitted, FileCorrupted: true,
	}))
	require.NoError(t, submissions.Create(context.Background(), &models.Submission{
		AssignmentID: 1, GroupID: 2, FileName: "fine.pdf",
		Status: models.SubmissionStatusSubmitted,
	}))

	return submissions, groups, NewNotificationService(submissions, groups, testLogger())
}

func TestNotificationFeedForAdminSeesAllFlagged(t *testing.T) {
	_, _, svc := newNotificationFixture(t)

	feed, err := svc.FeedForAdmin(context.Background())
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.Equal(t, "broken.pdf", feed[0].FileName)
	require.True(t, feed[0].FileCorrupted)
}

func TestNotificationFeedForAdvisorScopedToAdvisedGroups(t *testing.T) {
	submissions, _, svc := newNotificationFixture(t)

	// Flag the group the teacher does not advise; it must stay invisible.
	other := submissions.submissions[2]
	other.SignatureMissing = true
	submissions.submissions[2] = other

	feed, err := svc.FeedForAdvisor(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.Equal(t, uint(1), feed[0].GroupID)
}

func TestNotificationFeedForAdvisorWithoutGroups(t *testing.T) {
	_, _, svc := newNotificationFixture(t)

	feed, err := svc.FeedForAdvisor(context.Background(), 99)
	require.NoError(t, err)
	require.Empty(t, feed)
}

func TestNotificationFeedForStudentOwnGroupOnly(t *testing.T) {
	_, _, svc := newNotificationFixture(t)

	feed, err := svc.FeedForStudent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.Equal(t, uint(1), feed[0].GroupID)
}

func TestNotificationFeedForStudentWithoutGroup(t *testing.T) {
	_, _, svc := newNotificationFixture(t)

	feed, err := svc.FeedForStudent(context.Background(), 42)
	require.NoError(t, err)
	require.Empty(t, feed)
}

func TestNotificationFeedOnlyLatestAttemptCounts(t *testing.T) {
	submissions, _, svc := newNotificationFixture(t)

	// A newer clean attempt supersedes the flagged one.
	require.NoError(t, submissions.Create(context.Background(), &models.Submission{
		AssignmentID: 1, GroupID: 1, FileName: "fixed.pdf",
		Status: models.SubmissionStatusSubmitted,
	}))

	feed, err := svc.FeedForAdmin(context.Background())
	require.NoError(t, err)
	require.Empty(t, feed)
}

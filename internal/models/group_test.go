package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGroupTrackPrefix(t *testing.T) {
	require.Equal(t, "BIT", Group{Name: "BIT-03"}.TrackPrefix())
	require.Equal(t, "GIS", Group{Name: " gis-12 "}.TrackPrefix())
	require.Equal(t, "SOLO", Group{Name: "solo"}.TrackPrefix())
}

func TestGroupRosterCounts(t *testing.T) {
	group := Group{Members: []GroupMember{
		{UserID: 1, Role: GroupRoleMember},
		{UserID: 2, Role: GroupRoleMember},
		{UserID: 3, Role: GroupRoleAdvisor},
	}}
	require.Equal(t, 2, group.RosterSize())
	require.Equal(t, 1, group.AdvisorCount())
	require.Equal(t, 0, Group{}.RosterSize())
}

func TestAssignmentStampDueDate(t *testing.T) {
	bangkok := time.FixedZone("ICT", 7*3600)
	due := time.Date(2026, 3, 10, 23, 59, 0, 0, bangkok)

	var assignment Assignment
	assignment.StampDueDate(due)

	require.Equal(t, time.UTC, assignment.DueDate.Location())
	require.Equal(t, 16, assignment.DueDate.Hour())
	require.Equal(t, "2026-03-10T16:59:00Z", assignment.Requirements[RequirementDueDateKey])
}

func TestAssignmentIsPastDue(t *testing.T) {
	assignment := Assignment{DueDate: time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)}
	require.False(t, assignment.IsPastDue(assignment.DueDate))
	require.True(t, assignment.IsPastDue(assignment.DueDate.Add(time.Minute)))
}

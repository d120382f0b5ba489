package dto

import "time"

// SizeBucket labels for the file-size distribution.
const (
	SizeBucketUnder1MB = "<1MB"
	SizeBucket1To5MB   = "1-5MB"
	SizeBucket5To10MB  = "5-10MB"
	SizeBucketOver10MB = ">10MB"
)

// AssignmentStatsResponse aggregates per-assignment submission statistics for
// the admin dashboard.
type AssignmentStatsResponse struct {
	AssignmentID   uint           `json:"assignment_id"`
	EligibleGroups int            `json:"eligible_groups"`
	Submitted      int            `json:"submitted"`
	NotSubmitted   int            `json:"not_submitted"`
	OnTime         int            `json:"on_time"`
	Late           int            `json:"late"`
	Flagged        int            `json:"flagged"`
	SizeBuckets    map[string]int `json:"size_buckets"`
	ByHour         []int          `json:"by_hour"`
	ByWeekday      []int          `json:"by_weekday"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

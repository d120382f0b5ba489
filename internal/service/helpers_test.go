package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/JetsadaSomporn/docverify-api/internal/models"
	"github.com/JetsadaSomporn/docverify-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(int64(len(content))+1024))
	files := req.MultipartForm.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func pdfBytes(filler int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")
	buf.Write(bytes.Repeat([]byte("x"), filler))
	buf.WriteString("\n%%EOF\n")
	return buf.Bytes()
}

func stringPtr(v string) *string {
	return &v
}

type memoryUserRepo struct {
	users  map[uint]models.User
	nextID uint
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[uint]models.User), nextID: 1}
}

func (m *memoryUserRepo) List(ctx context.Context, filter repository.UserFilter) ([]models.User, int64, error) {
	results := make([]models.User, 0, len(m.users))
	for _, user := range m.users {
		if filter.Role != "" && !user.HasRole(filter.Role) {
			continue
		}
		if filter.Track != "" && !strings.EqualFold(user.Track, filter.Track) {
			continue
		}
		results = append(results, user)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, int64(len(results)), nil
}

func (m *memoryUserRepo) GetByID(ctx context.Context, id uint) (models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (m *memoryUserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (m *memoryUserRepo) GetByStudentID(ctx context.Context, studentID string) (models.User, error) {
	for _, user := range m.users {
		if user.StudentID != nil && *user.StudentID == studentID {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (m *memoryUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	m.users[m.nextID] = *user
	m.nextID++
	return nil
}

func (m *memoryUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	user.UpdatedAt = time.Now()
	m.users[user.ID] = *user
	return nil
}

func (m *memoryUserRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.users, id)
	return nil
}

type enrollmentKey struct {
	subjectID uint
	userID    uint
	role      string
}

type memorySubjectRepo struct {
	subjects    map[uint]models.Subject
	enrollments map[enrollmentKey]struct{}
	nextID      uint
}

func newMemorySubjectRepo() *memorySubjectRepo {
	return &memorySubjectRepo{
		subjects:    make(map[uint]models.Subject),
		enrollments: make(map[enrollmentKey]struct{}),
		nextID:      1,
	}
}

func (m *memorySubjectRepo) List(ctx context.Context, filter repository.SubjectFilter) ([]models.Subject, int64, error) {
	results := make([]models.Subject, 0, len(m.subjects))
	for _, subject := range m.subjects {
		if filter.Year != 0 && subject.Year != filter.Year {
			continue
		}
		if filter.Semester != 0 && subject.Semester != filter.Semester {
			continue
		}
		results = append(results, subject)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, int64(len(results)), nil
}

func (m *memorySubjectRepo) GetByID(ctx context.Context, id uint) (models.Subject, error) {
	subject, ok := m.subjects[id]
	if !ok {
		return models.Subject{}, gorm.ErrRecordNotFound
	}
	return subject, nil
}

func (m *memorySubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	subject.ID = m.nextID
	m.subjects[m.nextID] = *subject
	m.nextID++
	return nil
}

func (m *memorySubjectRepo) Update(ctx context.Context, subject *models.Subject) error {
	if _, ok := m.subjects[subject.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.subjects[subject.ID] = *subject
	return nil
}

func (m *memorySubjectRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.subjects[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.subjects, id)
	return nil
}

func (m *memorySubjectRepo) Enroll(ctx context.Context, subjectID, userID uint, role string) error {
	m.enrollments[enrollmentKey{subjectID, userID, role}] = struct{}{}
	return nil
}

func (m *memorySubjectRepo) Unenroll(ctx context.Context, subjectID, userID uint, role string) error {
	key := enrollmentKey{subjectID, userID, role}
	if _, ok := m.enrollments[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.enrollments, key)
	return nil
}

func (m *memorySubjectRepo) ListEnrollments(ctx context.Context, subjectID uint, role string) ([]models.SubjectEnrollment, error) {
	results := make([]models.SubjectEnrollment, 0)
	for key := range m.enrollments {
		if key.subjectID == subjectID && key.role == role {
			results = append(results, models.SubjectEnrollment{SubjectID: key.subjectID, UserID: key.userID, Role: key.role})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].UserID < results[j].UserID })
	return results, nil
}

func (m *memorySubjectRepo) IsEnrolled(ctx context.Context, subjectID, userID uint, role string) (bool, error) {
	_, ok := m.enrollments[enrollmentKey{subjectID, userID, role}]
	return ok, nil
}

type memoryGroupRepo struct {
	groups  map[uint]models.Group
	members map[uint][]models.GroupMember
	users   *memoryUserRepo
	nextID  uint
}

func newMemoryGroupRepo(users *memoryUserRepo) *memoryGroupRepo {
	return &memoryGroupRepo{
		groups:  make(map[uint]models.Group),
		members: make(map[uint][]models.GroupMember),
		users:   users,
		nextID:  1,
	}
}

func (m *memoryGroupRepo) withMembers(group models.Group) models.Group {
	members := make([]models.GroupMember, 0, len(m.members[group.ID]))
	for _, member := range m.members[group.ID] {
		if m.users != nil {
			if user, err := m.users.GetByID(context.Background(), member.UserID); err == nil {
				member.User = user
			}
		}
		members = append(members, member)
	}
	group.Members = members
	return group
}

func (m *memoryGroupRepo) ListBySubject(ctx context.Context, subjectID uint) ([]models.Group, error) {
	results := make([]models.Group, 0)
	for _, group := range m.groups {
		if group.SubjectID == subjectID {
			results = append(results, m.withMembers(group))
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryGroupRepo) ListByAdvisor(ctx context.Context, advisorID uint) ([]models.Group, error) {
	results := make([]models.Group, 0)
	for id, group := range m.groups {
		for _, member := range m.members[id] {
			if member.Role == models.GroupRoleAdvisor && member.UserID == advisorID {
				results = append(results, m.withMembers(group))
				break
			}
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryGroupRepo) GetByID(ctx context.Context, id uint) (models.Group, error) {
	group, ok := m.groups[id]
	if !ok {
		return models.Group{}, gorm.ErrRecordNotFound
	}
	return m.withMembers(group), nil
}

func (m *memoryGroupRepo) GetByNameAndSubject(ctx context.Context, name string, subjectID uint) (models.Group, error) {
	for _, group := range m.groups {
		if group.Name == name && group.SubjectID == subjectID {
			return m.withMembers(group), nil
		}
	}
	return models.Group{}, gorm.ErrRecordNotFound
}

func (m *memoryGroupRepo) GetByMember(ctx context.Context, userID uint) (models.Group, error) {
	for id, group := range m.groups {
		for _, member := range m.members[id] {
			if member.Role == models.GroupRoleMember && member.UserID == userID {
				return m.withMembers(group), nil
			}
		}
	}
	return models.Group{}, gorm.ErrRecordNotFound
}

func (m *memoryGroupRepo) Create(ctx context.Context, group *models.Group) error {
	group.ID = m.nextID
	group.CreatedAt = time.Now()
	group.UpdatedAt = time.Now()
	m.groups[m.nextID] = *group
	m.nextID++
	return nil
}

func (m *memoryGroupRepo) Update(ctx context.Context, group *models.Group) error {
	if _, ok := m.groups[group.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	group.UpdatedAt = time.Now()
	stored := *group
	stored.Members = nil
	m.groups[group.ID] = stored
	return nil
}

func (m *memoryGroupRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.groups[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.groups, id)
	delete(m.members, id)
	return nil
}

func (m *memoryGroupRepo) ReplaceMembers(ctx context.Context, groupID uint, role string, userIDs []uint) error {
	kept := make([]models.GroupMember, 0, len(m.members[groupID]))
	for _, member := range m.members[groupID] {
		if member.Role != role {
			kept = append(kept, member)
		}
	}
	for _, userID := range userIDs {
		kept = append(kept, models.GroupMember{GroupID: groupID, UserID: userID, Role: role})
	}
	m.members[groupID] = kept
	return nil
}

func (m *memoryGroupRepo) TransferAll(ctx context.Context, sourceSubjectID, targetSubjectID uint) (int, error) {
	moved := 0
	for id, group := range m.groups {
		if group.SubjectID != sourceSubjectID {
			continue
		}

		if existing, err := m.GetByNameAndSubject(ctx, group.Name, targetSubjectID); err == nil {
			stored := m.groups[existing.ID]
			stored.ProjectName = group.ProjectName
			stored.Note = group.Note
			stored.AdvisorMeta = group.AdvisorMeta
			stored.UpdatedAt = time.Now()
			m.groups[existing.ID] = stored
			absorbed := make([]models.GroupMember, 0, len(m.members[id]))
			for _, member := range m.members[id] {
				member.GroupID = existing.ID
				absorbed = append(absorbed, member)
			}
			m.members[existing.ID] = absorbed
			delete(m.groups, id)
			delete(m.members, id)
			moved++
			continue
		}

		group.SubjectID = targetSubjectID
		m.groups[id] = group
		moved++
	}
	return moved, nil
}

type memoryAssignmentRepo struct {
	assignments map[uint]models.Assignment
	nextID      uint
}

func newMemoryAssignmentRepo() *memoryAssignmentRepo {
	return &memoryAssignmentRepo{assignments: make(map[uint]models.Assignment), nextID: 1}
}

func (m *memoryAssignmentRepo) ListBySubject(ctx context.Context, subjectID uint) ([]models.Assignment, error) {
	results := make([]models.Assignment, 0)
	for _, assignment := range m.assignments {
		if assignment.SubjectID == subjectID {
			results = append(results, assignment)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].DueDate.Before(results[j].DueDate) })
	return results, nil
}

func (m *memoryAssignmentRepo) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, ok := m.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (m *memoryAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	assignment.ID = m.nextID
	assignment.CreatedAt = time.Now()
	assignment.UpdatedAt = time.Now()
	m.assignments[m.nextID] = *assignment
	m.nextID++
	return nil
}

func (m *memoryAssignmentRepo) Update(ctx context.Context, assignment *models.Assignment) error {
	if _, ok := m.assignments[assignment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	assignment.UpdatedAt = time.Now()
	m.assignments[assignment.ID] = *assignment
	return nil
}

func (m *memoryAssignmentRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.assignments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.assignments, id)
	return nil
}

type memorySubmissionRepo struct {
	submissions map[uint]models.Submission
	nextID      uint
}

func newMemorySubmissionRepo() *memorySubmissionRepo {
	return &memorySubmissionRepo{submissions: make(map[uint]models.Submission), nextID: 1}
}

func (m *memorySubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	submission.ID = m.nextID
	submission.CreatedAt = time.Now()
	submission.UpdatedAt = time.Now()
	m.submissions[m.nextID] = *submission
	m.nextID++
	return nil
}

func (m *memorySubmissionRepo) Update(ctx context.Context, submission *models.Submission) error {
	if _, ok := m.submissions[submission.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	submission.UpdatedAt = time.Now()
	m.submissions[submission.ID] = *submission
	return nil
}

func (m *memorySubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	submission, ok := m.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (m *memorySubmissionRepo) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	results := make([]models.Submission, 0)
	for _, submission := range m.submissions {
		if submission.AssignmentID == assignmentID {
			results = append(results, submission)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memorySubmissionRepo) ListByGroup(ctx context.Context, groupID uint) ([]models.Submission, error) {
	results := make([]models.Submission, 0)
	for _, submission := range m.submissions {
		if submission.GroupID == groupID {
			results = append(results, submission)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memorySubmissionRepo) LatestForGroup(ctx context.Context, assignmentID, groupID uint) (models.Submission, error) {
	var latest *models.Submission
	for id := range m.submissions {
		submission := m.submissions[id]
		if submission.AssignmentID != assignmentID || submission.GroupID != groupID {
			continue
		}
		if latest == nil || submission.ID > latest.ID {
			latest = &submission
		}
	}
	if latest == nil {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return *latest, nil
}

func (m *memorySubmissionRepo) LatestPerGroup(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	latest := make(map[uint]models.Submission)
	for _, submission := range m.submissions {
		if submission.AssignmentID != assignmentID {
			continue
		}
		if current, ok := latest[submission.GroupID]; !ok || submission.ID > current.ID {
			latest[submission.GroupID] = submission
		}
	}
	results := make([]models.Submission, 0, len(latest))
	for _, submission := range latest {
		results = append(results, submission)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].GroupID < results[j].GroupID })
	return results, nil
}

func (m *memorySubmissionRepo) DistinctSubmittingGroups(ctx context.Context, assignmentID uint) ([]uint, error) {
	seen := make(map[uint]struct{})
	for _, submission := range m.submissions {
		if submission.AssignmentID == assignmentID {
			seen[submission.GroupID] = struct{}{}
		}
	}
	results := make([]uint, 0, len(seen))
	for groupID := range seen {
		results = append(results, groupID)
	}
	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	return results, nil
}

func (m *memorySubmissionRepo) LatestFlagged(ctx context.Context, groupIDs []uint) ([]models.Submission, error) {
	type pairKey struct {
		assignmentID uint
		groupID      uint
	}
	latest := make(map[pairKey]models.Submission)
	for _, submission := range m.submissions {
		key := pairKey{submission.AssignmentID, submission.GroupID}
		if current, ok := latest[key]; !ok || submission.ID > current.ID {
			latest[key] = submission
		}
	}

	scope := make(map[uint]struct{}, len(groupIDs))
	for _, groupID := range groupIDs {
		scope[groupID] = struct{}{}
	}

	results := make([]models.Submission, 0)
	for _, submission := range latest {
		if !submission.IsFlagged() {
			continue
		}
		if len(scope) > 0 {
			if _, ok := scope[submission.GroupID]; !ok {
				continue
			}
		}
		results = append(results, submission)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/atlasedu/rollcall/internal/app/models"
	"github.com/atlasedu/rollcall/internal/pkg/apperrors"
)

// fakeSessionStore is an in-memory SessionStore for tests.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.AttendanceSession

	failCreate bool
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions: make(map[string]*models.AttendanceSession),
	}
}

func (f *fakeSessionStore) Create(ctx context.Context, session *models.AttendanceSession) error {
	if f.failCreate {
		return errors.New("store create failed")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeSessionStore) GetByID(ctx context.Context, id string) (*models.AttendanceSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (f *fakeSessionStore) Activate(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok || session.Status != models.SessionStatusPending {
		return false, nil
	}
	session.Status = models.SessionStatusActive
	return true, nil
}

func (f *fakeSessionStore) Complete(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok || session.Status == models.SessionStatusComplete {
		return false, nil
	}
	session.Status = models.SessionStatusComplete
	return true, nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionStore) ListByCourse(ctx context.Context, courseID string, offset uint64, limit int) ([]*models.AttendanceSession, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.AttendanceSession
	for _, session := range f.sessions {
		if session.CourseID == courseID {
			copied := *session
			result = append(result, &copied)
		}
	}
	return result, int64(len(result)), nil
}

func (f *fakeSessionStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func (f *fakeSessionStore) status(id string) models.SessionStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if session, ok := f.sessions[id]; ok {
		return session.Status
	}
	return ""
}

// fakeRecordStore is an in-memory RecordStore whose Insert enforces the
// (session, student) uniqueness atomically, like the real unique
// constraint does.
type fakeRecordStore struct {
	mu      sync.Mutex
	records map[string]*models.AttendanceRecord
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{
		records: make(map[string]*models.AttendanceRecord),
	}
}

func recordKey(sessionID, studentID string) string {
	return sessionID + "|" + studentID
}

func (f *fakeRecordStore) Insert(ctx context.Context, record *models.AttendanceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := recordKey(record.AttendanceSessionID, record.StudentID)
	if _, exists := f.records[key]; exists {
		return apperrors.ErrAlreadyCheckedIn
	}
	copied := *record
	f.records[key] = &copied
	return nil
}

func (f *fakeRecordStore) Exists(ctx context.Context, sessionID, studentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, exists := f.records[recordKey(sessionID, studentID)]
	return exists, nil
}

func (f *fakeRecordStore) ListBySession(ctx context.Context, sessionID string) ([]*models.RecordWithStudent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.RecordWithStudent
	for _, record := range f.records {
		if record.AttendanceSessionID == sessionID {
			result = append(result, &models.RecordWithStudent{AttendanceRecord: *record})
		}
	}
	return result, nil
}

func (f *fakeRecordStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// fakeEnrollments answers the enrollment predicate from a fixed set.
type fakeEnrollments struct {
	enrolled map[string]bool
}

func newFakeEnrollments(pairs ...[2]string) *fakeEnrollments {
	f := &fakeEnrollments{enrolled: make(map[string]bool)}
	for _, pair := range pairs {
		f.enrolled[pair[0]+"|"+pair[1]] = true
	}
	return f
}

func (f *fakeEnrollments) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	return f.enrolled[courseID+"|"+studentID], nil
}

// fakeScheduler records scheduled tasks instead of firing them, so tests
// control transition timing synchronously.
type scheduledTask struct {
	handler string
	args    map[string]string
	fireAt  time.Time
}

type fakeScheduler struct {
	mu    sync.Mutex
	tasks []scheduledTask

	failAfter int // fail scheduling calls once this many have succeeded; -1 never fails
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{failAfter: -1}
}

func (f *fakeScheduler) RunAfter(ctx context.Context, delay time.Duration, handler string, args map[string]string) error {
	return f.RunAt(ctx, time.Now().UTC().Add(delay), handler, args)
}

func (f *fakeScheduler) RunAt(ctx context.Context, at time.Time, handler string, args map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAfter >= 0 && len(f.tasks) >= f.failAfter {
		return errors.New("scheduler unavailable")
	}
	f.tasks = append(f.tasks, scheduledTask{handler: handler, args: args, fireAt: at})
	return nil
}

func (f *fakeScheduler) scheduled() []scheduledTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]scheduledTask(nil), f.tasks...)
}

// fakeBroadcaster captures broadcast records.
type fakeBroadcaster struct {
	mu      sync.Mutex
	records []*models.AttendanceRecord
}

func (f *fakeBroadcaster) BroadcastRecord(record *models.AttendanceRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
}

func (f *fakeBroadcaster) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

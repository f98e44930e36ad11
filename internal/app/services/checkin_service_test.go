package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/atlasedu/rollcall/internal/app/models"
	"github.com/atlasedu/rollcall/internal/pkg/apperrors"
	"github.com/atlasedu/rollcall/internal/pkg/geo"
)

const testDefaultRadius = 100.0

type checkInFixture struct {
	sessions    *fakeSessionStore
	records     *fakeRecordStore
	enrollments *fakeEnrollments
	broadcaster *fakeBroadcaster
	svc         CheckInService
}

func newCheckInFixture(enrolled ...[2]string) *checkInFixture {
	f := &checkInFixture{
		sessions:    newFakeSessionStore(),
		records:     newFakeRecordStore(),
		enrollments: newFakeEnrollments(enrolled...),
		broadcaster: &fakeBroadcaster{},
	}
	f.svc = NewCheckInService(f.sessions, f.records, f.enrollments, f.broadcaster, testDefaultRadius, zerolog.Nop())
	return f
}

func (f *checkInFixture) addSession(status models.SessionStatus, mutate ...func(*models.AttendanceSession)) *models.AttendanceSession {
	now := time.Now().UTC()
	session := &models.AttendanceSession{
		ID:         uuid.NewString(),
		CourseID:   "course-1",
		LecturerID: "lecturer-1",
		Location:   geo.Point{Lat: 0, Long: 0},
		Status:     status,
		StartedAt:  now,
		EndedAt:    now.Add(time.Minute),
	}
	for _, fn := range mutate {
		fn(session)
	}
	f.sessions.mu.Lock()
	f.sessions.sessions[session.ID] = session
	f.sessions.mu.Unlock()
	return session
}

func submitFrom(sessionID, studentID string, location geo.Point) SubmitCheckInInput {
	return SubmitCheckInInput{
		SessionID: sessionID,
		StudentID: studentID,
		Location:  location,
	}
}

func TestSubmitSessionNotFound(t *testing.T) {
	f := newCheckInFixture()

	_, err := f.svc.Submit(context.Background(), submitFrom("missing", "student-1", geo.Point{}))
	if !errors.Is(err, apperrors.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSubmitSessionNotActive(t *testing.T) {
	for _, status := range []models.SessionStatus{models.SessionStatusPending, models.SessionStatusComplete} {
		t.Run(string(status), func(t *testing.T) {
			f := newCheckInFixture([2]string{"course-1", "student-1"})
			session := f.addSession(status)

			_, err := f.svc.Submit(context.Background(), submitFrom(session.ID, "student-1", session.Location))
			if !errors.Is(err, apperrors.ErrSessionNotActive) {
				t.Errorf("err = %v, want ErrSessionNotActive", err)
			}
		})
	}
}

func TestSubmitNotEnrolled(t *testing.T) {
	f := newCheckInFixture() // empty roster
	session := f.addSession(models.SessionStatusActive)

	_, err := f.svc.Submit(context.Background(), submitFrom(session.ID, "student-1", session.Location))
	if !errors.Is(err, apperrors.ErrNotEnrolled) {
		t.Errorf("err = %v, want ErrNotEnrolled", err)
	}
	if f.records.count() != 0 {
		t.Error("no record must be written for rejected check-in")
	}
}

func TestSubmitAlreadyCheckedIn(t *testing.T) {
	f := newCheckInFixture([2]string{"course-1", "student-1"})
	session := f.addSession(models.SessionStatusActive)
	ctx := context.Background()

	if _, err := f.svc.Submit(ctx, submitFrom(session.ID, "student-1", session.Location)); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}

	_, err := f.svc.Submit(ctx, submitFrom(session.ID, "student-1", session.Location))
	if !errors.Is(err, apperrors.ErrAlreadyCheckedIn) {
		t.Errorf("err = %v, want ErrAlreadyCheckedIn", err)
	}
	if f.records.count() != 1 {
		t.Errorf("records = %d, want 1", f.records.count())
	}
}

func TestSubmitOutOfRange(t *testing.T) {
	f := newCheckInFixture([2]string{"course-1", "student-1"})
	session := f.addSession(models.SessionStatusActive) // default radius 100m

	// 0.0045 degrees of latitude is roughly 500m.
	farAway := geo.Point{Lat: 0.0045, Long: 0}

	_, err := f.svc.Submit(context.Background(), submitFrom(session.ID, "student-1", farAway))
	if !errors.Is(err, apperrors.ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
}

func TestSubmitRadiusBoundaryIsInclusive(t *testing.T) {
	f := newCheckInFixture([2]string{"course-1", "student-1"}, [2]string{"course-1", "student-2"})

	point := geo.Point{Lat: 0.0008, Long: 0}
	exact := geo.Distance(geo.Point{Lat: 0, Long: 0}, point)

	session := f.addSession(models.SessionStatusActive, func(s *models.AttendanceSession) {
		s.RadiusMeters = &exact
	})

	// Exactly at the radius: accepted.
	record, err := f.svc.Submit(context.Background(), submitFrom(session.ID, "student-1", point))
	if err != nil {
		t.Fatalf("Submit at exact radius failed: %v", err)
	}
	if record.Distance == nil || *record.Distance != exact {
		t.Errorf("record distance = %v, want %f", record.Distance, exact)
	}

	// A hair beyond: rejected.
	beyond := geo.Point{Lat: 0.00081, Long: 0}
	if _, err := f.svc.Submit(context.Background(), submitFrom(session.ID, "student-2", beyond)); !errors.Is(err, apperrors.ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
}

func TestSubmitUsesDefaultRadiusWhenSessionHasNone(t *testing.T) {
	f := newCheckInFixture([2]string{"course-1", "student-1"})
	session := f.addSession(models.SessionStatusActive) // no explicit radius

	// About 55m away, inside the 100m default.
	nearby := geo.Point{Lat: 0.0005, Long: 0}

	if _, err := f.svc.Submit(context.Background(), submitFrom(session.ID, "student-1", nearby)); err != nil {
		t.Errorf("Submit within default radius failed: %v", err)
	}
}

func TestSubmitCodeGating(t *testing.T) {
	code := "ABC123"
	wrong := "abc123" // case-sensitive comparison
	empty := ""

	cases := []struct {
		name    string
		code    *string
		wantErr error
	}{
		{"no code supplied", nil, apperrors.ErrCodeRequired},
		{"empty code supplied", &empty, apperrors.ErrCodeRequired},
		{"wrong case", &wrong, apperrors.ErrCodeMismatch},
		{"exact match", &code, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newCheckInFixture([2]string{"course-1", "student-1"})
			session := f.addSession(models.SessionStatusActive, func(s *models.AttendanceSession) {
				s.AttendanceCode = &code
			})

			input := submitFrom(session.ID, "student-1", session.Location)
			input.Code = tc.code

			_, err := f.svc.Submit(context.Background(), input)
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("Submit failed: %v", err)
				}
			} else if !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestSubmitWithoutCodeRequirementIgnoresSuppliedCode(t *testing.T) {
	f := newCheckInFixture([2]string{"course-1", "student-1"})
	session := f.addSession(models.SessionStatusActive)

	surplus := "XYZ789"
	input := submitFrom(session.ID, "student-1", session.Location)
	input.Code = &surplus

	if _, err := f.svc.Submit(context.Background(), input); err != nil {
		t.Errorf("Submit with surplus code failed: %v", err)
	}
}

func TestSubmitAcceptedRecordShape(t *testing.T) {
	f := newCheckInFixture([2]string{"course-1", "student-1"})
	session := f.addSession(models.SessionStatusActive)

	before := time.Now().UTC()
	record, err := f.svc.Submit(context.Background(), submitFrom(session.ID, "student-1", session.Location))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if record.ID == "" {
		t.Error("expected a record ID")
	}
	if record.AttendanceSessionID != session.ID {
		t.Errorf("record session = %s, want %s", record.AttendanceSessionID, session.ID)
	}
	if record.CourseID != session.CourseID {
		t.Errorf("record course = %s, want %s", record.CourseID, session.CourseID)
	}
	if record.Distance == nil || *record.Distance != 0 {
		t.Errorf("distance = %v, want 0", record.Distance)
	}
	if record.CheckedInAt.Before(before) {
		t.Errorf("checkedInAt = %v, before submission at %v", record.CheckedInAt, before)
	}
	if f.broadcaster.count() != 1 {
		t.Errorf("broadcasts = %d, want 1", f.broadcaster.count())
	}
}

func TestSubmitConcurrentDuplicatesYieldOneRecord(t *testing.T) {
	f := newCheckInFixture([2]string{"course-1", "student-1"})
	session := f.addSession(models.SessionStatusActive)

	const attempts = 25
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Submit(context.Background(), submitFrom(session.ID, "student-1", session.Location))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var accepted, duplicates int
	for err := range results {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, apperrors.ErrAlreadyCheckedIn):
			duplicates++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if accepted != 1 {
		t.Errorf("accepted = %d, want exactly 1", accepted)
	}
	if duplicates != attempts-1 {
		t.Errorf("duplicates = %d, want %d", duplicates, attempts-1)
	}
	if f.records.count() != 1 {
		t.Errorf("stored records = %d, want 1", f.records.count())
	}
}

func TestListSessionRecordsUnknownSession(t *testing.T) {
	f := newCheckInFixture()

	if _, err := f.svc.ListSessionRecords(context.Background(), "missing"); !errors.Is(err, apperrors.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

// TestSessionScenario walks the full lifecycle with both services sharing
// one store: start, activate, successful and rejected check-ins, end.
func TestSessionScenario(t *testing.T) {
	sessions := newFakeSessionStore()
	records := newFakeRecordStore()
	enrollments := newFakeEnrollments(
		[2]string{"course-1", "student-a"},
		[2]string{"course-1", "student-b"},
		[2]string{"course-1", "student-c"},
	)
	sched := newFakeScheduler()

	lifecycle := NewSessionService(sessions, sched, testDuration, zerolog.Nop())
	checkins := NewCheckInService(sessions, records, enrollments, nil, testDefaultRadius, zerolog.Nop())
	ctx := context.Background()

	session, err := lifecycle.Start(ctx, StartSessionInput{
		CourseID:   "course-1",
		LecturerID: "lecturer-1",
		Location:   geo.Point{Lat: 0, Long: 0},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Still pending: check-in rejected.
	if _, err := checkins.Submit(ctx, submitFrom(session.ID, "student-a", session.Location)); !errors.Is(err, apperrors.ErrSessionNotActive) {
		t.Fatalf("pre-activation Submit err = %v, want ErrSessionNotActive", err)
	}

	// Scheduler fires activation.
	if err := lifecycle.Activate(ctx, session.ID); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	// Student A succeeds at the session location.
	if _, err := checkins.Submit(ctx, submitFrom(session.ID, "student-a", session.Location)); err != nil {
		t.Fatalf("student A Submit failed: %v", err)
	}

	// Student A again: duplicate.
	if _, err := checkins.Submit(ctx, submitFrom(session.ID, "student-a", session.Location)); !errors.Is(err, apperrors.ErrAlreadyCheckedIn) {
		t.Fatalf("duplicate Submit err = %v, want ErrAlreadyCheckedIn", err)
	}

	// Student B is roughly 500m away: out of range.
	if _, err := checkins.Submit(ctx, submitFrom(session.ID, "student-b", geo.Point{Lat: 0.0045, Long: 0})); !errors.Is(err, apperrors.ErrOutOfRange) {
		t.Fatalf("far Submit err = %v, want ErrOutOfRange", err)
	}

	// Scheduler fires completion.
	if err := lifecycle.End(ctx, session.ID); err != nil {
		t.Fatalf("End failed: %v", err)
	}

	// Student C is too late.
	if _, err := checkins.Submit(ctx, submitFrom(session.ID, "student-c", session.Location)); !errors.Is(err, apperrors.ErrSessionNotActive) {
		t.Fatalf("post-completion Submit err = %v, want ErrSessionNotActive", err)
	}

	if records.count() != 1 {
		t.Fatalf("stored records = %d, want 1", records.count())
	}

	report, err := checkins.ListSessionRecords(ctx, session.ID)
	if err != nil {
		t.Fatalf("ListSessionRecords failed: %v", err)
	}
	if len(report) != 1 || report[0].StudentID != "student-a" {
		t.Fatalf("report = %v, want single record for student-a", describeReport(report))
	}
}

func describeReport(report []*models.RecordWithStudent) string {
	ids := make([]string, 0, len(report))
	for _, record := range report {
		ids = append(ids, record.StudentID)
	}
	return fmt.Sprintf("%v", ids)
}

package attendance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	dummyalert "github.com/trezcool/mahudhurio/services/alert/dummy"
	dummydb "github.com/trezcool/mahudhurio/storage/database/dummy"
	testutil "github.com/trezcool/mahudhurio/tests"
)

type testDeps struct {
	svc     attendance.Service
	repo    attendance.Repository
	enrolls *dummydb.EnrollmentDirectory
	sink    *dummyalert.Sink
	conf    *core.Config
}

func setup(t *testing.T) testDeps {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}

	repo := dummydb.NewAttendanceRepository(db)
	enrolls := dummydb.NewEnrollmentDirectory(db)
	sink := dummyalert.NewSink()
	conf := testutil.NewConfig()

	svc := attendance.NewService(nil, repo, enrolls, sink, testutil.NewLogger(), conf)
	return testDeps{svc: svc, repo: repo, enrolls: enrolls, sink: sink, conf: conf}
}

func date(day int) time.Time {
	return time.Date(2026, time.March, day, 0, 0, 0, 0, time.UTC)
}

func mark(t *testing.T, deps testDeps, studentID, courseID string, day int, status attendance.Status) attendance.Record {
	t.Helper()

	rec, err := deps.svc.Mark(context.Background(), testutil.TeacherActor("t1"), attendance.NewRecord{
		StudentID: studentID,
		CourseID:  courseID,
		Date:      date(day),
		Status:    status,
	})
	if err != nil {
		t.Fatalf("Mark() failed: %v", err)
	}
	return rec
}

func Test_service_Mark(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()
	teacher := testutil.TeacherActor("t1")

	t.Run("students cannot mark", func(t *testing.T) {
		_, err := deps.svc.Mark(ctx, testutil.StudentActor("s1"), attendance.NewRecord{
			StudentID: "s1", CourseID: "c1", Date: date(2), Status: attendance.StatusPresent,
		})
		var authErr *core.AuthorizationError
		assert.True(t, errors.As(err, &authErr))
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		_, err := deps.svc.Mark(ctx, teacher, attendance.NewRecord{
			StudentID: "s1", CourseID: "c1", Date: date(2), Status: "sleeping",
		})
		assert.Error(t, err)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		_, err := deps.svc.Mark(ctx, teacher, attendance.NewRecord{Status: attendance.StatusPresent})
		assert.Error(t, err)
	})

	t.Run("marks and stamps the marker", func(t *testing.T) {
		rec, err := deps.svc.Mark(ctx, teacher, attendance.NewRecord{
			StudentID: "s1", CourseID: "c1", Date: date(2), Status: attendance.StatusAbsent,
		})
		assert.NoError(t, err)
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, attendance.StatusAbsent, rec.Status)
		assert.Equal(t, teacher.ID, rec.MarkedBy)
		assert.False(t, rec.MarkedAt.IsZero())
	})

	t.Run("re-marking the same day overwrites, not duplicates", func(t *testing.T) {
		first := mark(t, deps, "s2", "c1", 3, attendance.StatusAbsent)

		updated, err := deps.svc.Mark(ctx, testutil.AdminActor(), attendance.NewRecord{
			StudentID: "s2", CourseID: "c1", Date: date(3), Status: attendance.StatusPresent,
		})
		assert.NoError(t, err)
		assert.Equal(t, first.ID, updated.ID)
		assert.Equal(t, attendance.StatusPresent, updated.Status)
		assert.Equal(t, testutil.AdminActor().ID, updated.MarkedBy)

		recs, err := deps.svc.StudentRecords(ctx, teacher, "s2", nil)
		assert.NoError(t, err)
		assert.Len(t, recs, 1)

		byKey, err := deps.repo.GetRecordByKey(ctx, "s2", "c1", date(3))
		assert.NoError(t, err)
		assert.Equal(t, first.ID, byKey.ID)
	})

	t.Run("notifies on every change", func(t *testing.T) {
		before := len(deps.sink.Changed())
		mark(t, deps, "s3", "c1", 4, attendance.StatusLate)
		assert.Len(t, deps.sink.Changed(), before+1)
	})
}

func Test_service_MarkBulk(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()
	teacher := testutil.TeacherActor("t1")

	t.Run("length mismatch writes nothing", func(t *testing.T) {
		_, err := deps.svc.MarkBulk(ctx, teacher, attendance.BulkRecords{
			CourseID:   "c1",
			Date:       date(5),
			StudentIDs: []string{"s1", "s2"},
			Statuses:   []attendance.Status{attendance.StatusPresent},
		})
		var vErr *core.ValidationError
		assert.True(t, errors.As(err, &vErr))

		recs, err := deps.svc.StudentRecords(ctx, teacher, "s1", nil)
		assert.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("per-item failures do not abort the rest", func(t *testing.T) {
		res, err := deps.svc.MarkBulk(ctx, teacher, attendance.BulkRecords{
			CourseID:   "c1",
			Date:       date(5),
			StudentIDs: []string{"s1", "", "s3"},
			Statuses:   []attendance.Status{attendance.StatusPresent, attendance.StatusAbsent, attendance.StatusLate},
		})
		assert.NoError(t, err)
		assert.Len(t, res.Saved, 2)
		assert.Len(t, res.Failures, 1)
		assert.Equal(t, 1, res.Failures[0].Index)
	})
}

func Test_service_Percentage(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()
	teacher := testutil.TeacherActor("t1")

	// 7 present out of 9 records
	for day := 1; day <= 7; day++ {
		mark(t, deps, "s1", "c1", day, attendance.StatusPresent)
	}
	mark(t, deps, "s1", "c1", 8, attendance.StatusAbsent)
	mark(t, deps, "s1", "c1", 9, attendance.StatusLate)

	t.Run("rounds half-up to 2 decimals", func(t *testing.T) {
		pct, err := deps.svc.Percentage(ctx, teacher, "s1", "c1")
		assert.NoError(t, err)
		assert.Equal(t, 77.78, pct)
	})

	t.Run("no records yields zero, not an error", func(t *testing.T) {
		pct, err := deps.svc.Percentage(ctx, teacher, "s1", "no-such-course")
		assert.NoError(t, err)
		assert.Equal(t, 0.0, pct)
	})

	t.Run("students can only read their own", func(t *testing.T) {
		_, err := deps.svc.Percentage(ctx, testutil.StudentActor("s2"), "s1", "c1")
		var authErr *core.AuthorizationError
		assert.True(t, errors.As(err, &authErr))

		pct, err := deps.svc.Percentage(ctx, testutil.StudentActor("s1"), "s1", "c1")
		assert.NoError(t, err)
		assert.Equal(t, 77.78, pct)
	})
}

func Test_service_HasLowAttendance(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()
	teacher := testutil.TeacherActor("t1")

	// s1: exactly at the 75% threshold (3 of 4 present)
	for day := 1; day <= 3; day++ {
		mark(t, deps, "s1", "c1", day, attendance.StatusPresent)
	}
	mark(t, deps, "s1", "c1", 4, attendance.StatusAbsent)

	// s2: half present
	mark(t, deps, "s2", "c1", 1, attendance.StatusPresent)
	mark(t, deps, "s2", "c1", 2, attendance.StatusAbsent)

	t.Run("exactly at threshold is not low", func(t *testing.T) {
		low, err := deps.svc.HasLowAttendance(ctx, teacher, "s1", "c1")
		assert.NoError(t, err)
		assert.False(t, low)
	})

	t.Run("strictly below threshold is low", func(t *testing.T) {
		low, err := deps.svc.HasLowAttendance(ctx, teacher, "s2", "c1")
		assert.NoError(t, err)
		assert.True(t, low)
	})

	t.Run("threshold can be overridden per call", func(t *testing.T) {
		low, err := deps.svc.HasLowAttendance(ctx, teacher, "s1", "c1", 80)
		assert.NoError(t, err)
		assert.True(t, low)
	})
}

func Test_service_StudentRecords(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()
	teacher := testutil.TeacherActor("t1")

	mark(t, deps, "s1", "c1", 1, attendance.StatusPresent)
	mark(t, deps, "s1", "c1", 5, attendance.StatusAbsent)
	mark(t, deps, "s1", "c2", 5, attendance.StatusPresent)

	t.Run("unfiltered returns everything ordered by date", func(t *testing.T) {
		recs, err := deps.svc.StudentRecords(ctx, teacher, "s1", nil)
		assert.NoError(t, err)
		assert.Len(t, recs, 3)
		assert.True(t, !recs[0].Date.After(recs[1].Date))
	})

	t.Run("filters by course and date range", func(t *testing.T) {
		recs, err := deps.svc.StudentRecords(ctx, teacher, "s1", &attendance.QueryFilter{CourseID: "c1"})
		assert.NoError(t, err)
		assert.Len(t, recs, 2)

		recs, err = deps.svc.StudentRecords(ctx, teacher, "s1", &attendance.QueryFilter{
			DateFrom: date(2), DateTo: date(5),
		})
		assert.NoError(t, err)
		assert.Len(t, recs, 2)
	})

	t.Run("students cannot list others' records", func(t *testing.T) {
		_, err := deps.svc.StudentRecords(ctx, testutil.StudentActor("s2"), "s1", nil)
		var authErr *core.AuthorizationError
		assert.True(t, errors.As(err, &authErr))
	})
}

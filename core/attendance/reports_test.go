package attendance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	testutil "github.com/trezcool/mahudhurio/tests"
)

func Test_service_GenerateMonthlyReports(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()
	admin := testutil.AdminActor()

	t.Run("admin only", func(t *testing.T) {
		_, err := deps.svc.GenerateMonthlyReports(ctx, testutil.TeacherActor("t1"), 3, 2026)
		var authErr *core.AuthorizationError
		assert.True(t, errors.As(err, &authErr))
	})

	t.Run("month and year are validated", func(t *testing.T) {
		var vErr *core.ValidationError

		_, err := deps.svc.GenerateMonthlyReports(ctx, admin, 13, 2026)
		assert.True(t, errors.As(err, &vErr))

		_, err = deps.svc.GenerateMonthlyReports(ctx, admin, 0, 2026)
		assert.True(t, errors.As(err, &vErr))

		_, err = deps.svc.GenerateMonthlyReports(ctx, admin, 3, 0)
		assert.True(t, errors.As(err, &vErr))
	})

	t.Run("no enrollments yields no reports", func(t *testing.T) {
		reps, err := deps.svc.GenerateMonthlyReports(ctx, admin, 3, 2026)
		assert.NoError(t, err)
		assert.Empty(t, reps)
	})

	// s1: 2/2 present. s2: 1 present, 2 absent, 1 late -> 50%.
	// s3: 3 present, 1 absent -> exactly 75%.
	deps.enrolls.Enroll("s1", "c1")
	deps.enrolls.Enroll("s2", "c1")
	deps.enrolls.Enroll("s3", "c1")

	mark(t, deps, "s1", "c1", 2, attendance.StatusPresent)
	mark(t, deps, "s1", "c1", 3, attendance.StatusPresent)

	mark(t, deps, "s2", "c1", 2, attendance.StatusPresent)
	mark(t, deps, "s2", "c1", 3, attendance.StatusAbsent)
	mark(t, deps, "s2", "c1", 4, attendance.StatusAbsent)
	mark(t, deps, "s2", "c1", 5, attendance.StatusLate)

	mark(t, deps, "s3", "c1", 2, attendance.StatusPresent)
	mark(t, deps, "s3", "c1", 3, attendance.StatusPresent)
	mark(t, deps, "s3", "c1", 4, attendance.StatusPresent)
	mark(t, deps, "s3", "c1", 5, attendance.StatusAbsent)

	// next month; must not count towards march
	_, err := deps.svc.Mark(ctx, testutil.TeacherActor("t1"), attendance.NewRecord{
		StudentID: "s1", CourseID: "c1",
		Date:   time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
		Status: attendance.StatusAbsent,
	})
	assert.NoError(t, err)

	t.Run("tallies one report per enrollment", func(t *testing.T) {
		reps, err := deps.svc.GenerateMonthlyReports(ctx, admin, 3, 2026)
		assert.NoError(t, err)
		assert.Len(t, reps, 3)

		byStudent := make(map[string]attendance.MonthlyReport, len(reps))
		for _, rep := range reps {
			byStudent[rep.StudentID] = rep
		}

		s1 := byStudent["s1"]
		assert.Equal(t, 2, s1.TotalClasses)
		assert.Equal(t, 2, s1.PresentCount)
		assert.Equal(t, 100.00, s1.Percentage)

		s2 := byStudent["s2"]
		assert.Equal(t, 4, s2.TotalClasses)
		assert.Equal(t, 1, s2.PresentCount)
		assert.Equal(t, 2, s2.AbsentCount)
		assert.Equal(t, 1, s2.LateCount)
		// late arrivals count as attended in the report ratio
		assert.Equal(t, 50.00, s2.Percentage)
	})

	t.Run("alerts fire strictly below the threshold", func(t *testing.T) {
		before := deps.sink.LowAttendanceAlerts()

		_, err := deps.svc.GenerateMonthlyReports(ctx, admin, 3, 2026)
		assert.NoError(t, err)

		alerts := deps.sink.LowAttendanceAlerts()[len(before):]
		assert.Len(t, alerts, 1)
		assert.Equal(t, "s2", alerts[0].StudentID)
		assert.Equal(t, 50.00, alerts[0].Percentage)
	})

	t.Run("regeneration overwrites, never appends", func(t *testing.T) {
		_, err := deps.svc.GenerateMonthlyReports(ctx, admin, 3, 2026)
		assert.NoError(t, err)
		_, err = deps.svc.GenerateMonthlyReports(ctx, admin, 3, 2026)
		assert.NoError(t, err)

		reps, err := deps.svc.CourseReports(ctx, admin, "c1", 3, 2026)
		assert.NoError(t, err)
		assert.Len(t, reps, 3)
	})

	t.Run("january marks do not leak into march", func(t *testing.T) {
		reps, err := deps.svc.CourseReports(ctx, admin, "c1", 1, 2026)
		assert.NoError(t, err)
		assert.Empty(t, reps)
	})
}

func Test_service_CourseReports(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	deps.enrolls.Enroll("s1", "c1")
	mark(t, deps, "s1", "c1", 2, attendance.StatusPresent)

	_, err := deps.svc.GenerateMonthlyReports(ctx, testutil.AdminActor(), 3, 2026)
	assert.NoError(t, err)

	t.Run("faculty can read", func(t *testing.T) {
		reps, err := deps.svc.CourseReports(ctx, testutil.TeacherActor("t1"), "c1", 3, 2026)
		assert.NoError(t, err)
		assert.Len(t, reps, 1)
		assert.False(t, reps[0].GeneratedAt.IsZero())
	})

	t.Run("students cannot", func(t *testing.T) {
		_, err := deps.svc.CourseReports(ctx, testutil.StudentActor("s1"), "c1", 3, 2026)
		var authErr *core.AuthorizationError
		assert.True(t, errors.As(err, &authErr))
	})
}

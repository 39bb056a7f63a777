package attendance_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	testutil "github.com/trezcool/mahudhurio/tests"
)

func Test_service_SubmitCorrection(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()
	student := testutil.StudentActor("s1")

	rec := mark(t, deps, "s1", "c1", 2, attendance.StatusAbsent)

	t.Run("faculty cannot submit", func(t *testing.T) {
		_, err := deps.svc.SubmitCorrection(ctx, testutil.TeacherActor("t1"), attendance.NewCorrection{
			RecordID: rec.ID, Reason: "was there",
		})
		var authErr *core.AuthorizationError
		assert.True(t, errors.As(err, &authErr))
	})

	t.Run("reason is required", func(t *testing.T) {
		_, err := deps.svc.SubmitCorrection(ctx, student, attendance.NewCorrection{RecordID: rec.ID})
		assert.Error(t, err)
	})

	t.Run("unknown record is rejected", func(t *testing.T) {
		_, err := deps.svc.SubmitCorrection(ctx, student, attendance.NewCorrection{
			RecordID: "deadbeef", Reason: "was there",
		})
		assert.Equal(t, attendance.ErrRecordNotFound, err)
	})

	t.Run("submit opens a pending request", func(t *testing.T) {
		req, err := deps.svc.SubmitCorrection(ctx, student, attendance.NewCorrection{
			RecordID: rec.ID, Reason: "I attended, the scanner failed",
		})
		assert.NoError(t, err)
		assert.Equal(t, attendance.CorrectionPending, req.Status)
		assert.Equal(t, student.ID, req.RequestedBy)
		assert.False(t, req.RequestedAt.IsZero())
	})

	t.Run("re-submitting returns the pending request unchanged", func(t *testing.T) {
		first, err := deps.svc.SubmitCorrection(ctx, student, attendance.NewCorrection{
			RecordID: rec.ID, Reason: "I attended, the scanner failed",
		})
		assert.NoError(t, err)

		again, err := deps.svc.SubmitCorrection(ctx, student, attendance.NewCorrection{
			RecordID: rec.ID, Reason: "different reason this time",
		})
		assert.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, first.Reason, again.Reason)

		reqs, err := deps.svc.StudentCorrections(ctx, student, "s1")
		assert.NoError(t, err)
		assert.Len(t, reqs, 1)
	})
}

func Test_service_ReviewCorrection(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()
	student := testutil.StudentActor("s1")
	teacher := testutil.TeacherActor("t1")

	submit := func(t *testing.T, studentID, courseID string, day int) (attendance.Record, attendance.CorrectionRequest) {
		t.Helper()
		rec := mark(t, deps, studentID, courseID, day, attendance.StatusAbsent)
		req, err := deps.svc.SubmitCorrection(ctx, testutil.StudentActor(studentID), attendance.NewCorrection{
			RecordID: rec.ID, Reason: "was there",
		})
		if err != nil {
			t.Fatalf("SubmitCorrection() failed: %v", err)
		}
		return rec, req
	}

	t.Run("students cannot review", func(t *testing.T) {
		_, req := submit(t, "s1", "c1", 1)
		_, err := deps.svc.ReviewCorrection(ctx, student, req.ID, attendance.Review{
			Decision: attendance.CorrectionApproved,
		})
		var authErr *core.AuthorizationError
		assert.True(t, errors.As(err, &authErr))
	})

	t.Run("decision must be terminal", func(t *testing.T) {
		_, req := submit(t, "s1", "c1", 2)
		_, err := deps.svc.ReviewCorrection(ctx, teacher, req.ID, attendance.Review{
			Decision: attendance.CorrectionPending,
		})
		var vErr *core.ValidationError
		assert.True(t, errors.As(err, &vErr))
	})

	t.Run("unknown request", func(t *testing.T) {
		_, err := deps.svc.ReviewCorrection(ctx, teacher, "nope", attendance.Review{
			Decision: attendance.CorrectionRejected,
		})
		assert.Equal(t, attendance.ErrRequestNotFound, err)
	})

	t.Run("approval settles the request and flips the record", func(t *testing.T) {
		rec, req := submit(t, "s1", "c1", 3)

		reviewed, err := deps.svc.ReviewCorrection(ctx, teacher, req.ID, attendance.Review{
			Decision: attendance.CorrectionApproved,
			Comments: "scanner fault confirmed",
		})
		assert.NoError(t, err)
		assert.Equal(t, attendance.CorrectionApproved, reviewed.Status)
		assert.Equal(t, teacher.ID, reviewed.ReviewedBy)
		assert.Equal(t, "scanner fault confirmed", reviewed.ReviewComments)
		assert.False(t, reviewed.ReviewedAt.IsZero())

		refreshed, err := deps.repo.GetRecord(ctx, rec.ID)
		assert.NoError(t, err)
		assert.Equal(t, attendance.StatusPresent, refreshed.Status)
	})

	t.Run("rejection settles without touching the record", func(t *testing.T) {
		rec, req := submit(t, "s2", "c1", 3)

		reviewed, err := deps.svc.ReviewCorrection(ctx, teacher, req.ID, attendance.Review{
			Decision: attendance.CorrectionRejected,
			Comments: "no evidence",
		})
		assert.NoError(t, err)
		assert.Equal(t, attendance.CorrectionRejected, reviewed.Status)

		refreshed, err := deps.repo.GetRecord(ctx, rec.ID)
		assert.NoError(t, err)
		assert.Equal(t, attendance.StatusAbsent, refreshed.Status)
	})

	t.Run("settled requests cannot be re-reviewed", func(t *testing.T) {
		_, req := submit(t, "s3", "c1", 3)

		_, err := deps.svc.ReviewCorrection(ctx, teacher, req.ID, attendance.Review{
			Decision: attendance.CorrectionRejected,
		})
		assert.NoError(t, err)

		_, err = deps.svc.ReviewCorrection(ctx, teacher, req.ID, attendance.Review{
			Decision: attendance.CorrectionApproved,
		})
		var cErr *core.ConflictError
		assert.True(t, errors.As(err, &cErr))
	})
}

func Test_service_PendingForFaculty(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	rec := mark(t, deps, "s1", "c1", 1, attendance.StatusAbsent) // marked by t1
	_, err := deps.svc.SubmitCorrection(ctx, testutil.StudentActor("s1"), attendance.NewCorrection{
		RecordID: rec.ID, Reason: "was there",
	})
	assert.NoError(t, err)

	t.Run("faculty see requests on records they marked", func(t *testing.T) {
		reqs, err := deps.svc.PendingForFaculty(ctx, testutil.TeacherActor("t1"), "t1")
		assert.NoError(t, err)
		assert.Len(t, reqs, 1)
	})

	t.Run("faculty cannot read another marker's queue", func(t *testing.T) {
		_, err := deps.svc.PendingForFaculty(ctx, testutil.TeacherActor("t2"), "t1")
		var authErr *core.AuthorizationError
		assert.True(t, errors.As(err, &authErr))
	})

	t.Run("admins can read any queue", func(t *testing.T) {
		reqs, err := deps.svc.PendingForFaculty(ctx, testutil.AdminActor(), "t1")
		assert.NoError(t, err)
		assert.Len(t, reqs, 1)
	})
}

func Test_service_StudentCorrections(t *testing.T) {
	deps := setup(t)
	ctx := context.Background()

	rec := mark(t, deps, "s1", "c1", 1, attendance.StatusAbsent)
	_, err := deps.svc.SubmitCorrection(ctx, testutil.StudentActor("s1"), attendance.NewCorrection{
		RecordID: rec.ID, Reason: "was there",
	})
	assert.NoError(t, err)

	t.Run("students see their own history", func(t *testing.T) {
		reqs, err := deps.svc.StudentCorrections(ctx, testutil.StudentActor("s1"), "s1")
		assert.NoError(t, err)
		assert.Len(t, reqs, 1)
	})

	t.Run("students cannot see another student's history", func(t *testing.T) {
		_, err := deps.svc.StudentCorrections(ctx, testutil.StudentActor("s2"), "s1")
		var authErr *core.AuthorizationError
		assert.True(t, errors.As(err, &authErr))
	})
}

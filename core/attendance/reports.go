package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/mahudhurio/core"
)

// GenerateMonthlyReports tallies the month's records for every active
// enrollment and upserts one MonthlyReport per (student, course, month,
// year). Re-running for the same month overwrites the previous rows, so the
// batch is safe to repeat. A low-attendance alert fires for every report
// whose percentage lands strictly below the configured threshold.
//
// Intended as an end-of-day batch (see the admin CLI); it takes no snapshot
// and may run alongside live marking.
func (svc *service) GenerateMonthlyReports(ctx context.Context, actor core.Actor, month, year int) ([]MonthlyReport, error) {
	if !actor.IsAdmin() {
		return nil, core.NewAuthorizationError(errNotAdmin)
	}
	if month < 1 || month > 12 {
		return nil, core.NewValidationError(
			fmt.Errorf("invalid month %d", month),
			core.FieldError{Field: "month", Error: "must be between 1 and 12"},
		)
	}
	if year < 1 {
		return nil, core.NewValidationError(
			fmt.Errorf("invalid year %d", year),
			core.FieldError{Field: "year", Error: "must be a positive year"},
		)
	}

	enrollments, err := svc.enrolls.ActiveEnrollments(ctx)
	if err != nil {
		return nil, err
	}

	from, to := MonthRange(month, year)
	reports := make([]MonthlyReport, 0, len(enrollments))
	for _, enr := range enrollments {
		rep, err := svc.generateReport(ctx, enr, month, year, from, to)
		if err != nil {
			// a failing enrollment must not starve the rest of the batch
			svc.logger.Error(
				fmt.Sprintf("monthly report %d/%d failed for student=%s course=%s: %v",
					month, year, enr.StudentID, enr.CourseID, err),
				err,
			)
			continue
		}
		reports = append(reports, rep)

		if rep.Percentage < svc.conf.LowAttendanceThreshold {
			svc.alerts.NotifyLowAttendance(rep.StudentID, rep.CourseID, rep.Percentage)
		}
	}
	return reports, nil
}

func (svc *service) generateReport(ctx context.Context, enr Enrollment, month, year int, from, to time.Time) (MonthlyReport, error) {
	recs, err := svc.repo.RecordsForRange(ctx, enr.StudentID, enr.CourseID, from, to)
	if err != nil {
		return MonthlyReport{}, err
	}

	var counts StatusCounts
	for _, rec := range recs {
		counts.Add(rec.Status)
	}

	rep := MonthlyReport{
		StudentID:    enr.StudentID,
		CourseID:     enr.CourseID,
		Month:        month,
		Year:         year,
		TotalClasses: counts.Total(),
		PresentCount: counts.Present,
		AbsentCount:  counts.Absent,
		LateCount:    counts.Late,
		ExcusedCount: counts.Excused,
		// late arrivals still attended; they count towards the report ratio
		Percentage:  percent(counts.Present+counts.Late, counts.Total()),
		GeneratedAt: time.Now().UTC(),
	}
	return svc.repo.UpsertMonthlyReport(ctx, rep)
}

func (svc *service) CourseReports(ctx context.Context, actor core.Actor, courseID string, month, year int) ([]MonthlyReport, error) {
	if !(actor.IsTeacher() || actor.IsAdmin()) {
		return nil, core.NewAuthorizationError(errNotFaculty)
	}
	return svc.repo.CourseMonthlyReports(ctx, core.CleanString(courseID), month, year)
}

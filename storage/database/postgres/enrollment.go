package pgrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

// enrollmentDirectory reads the course_enrollment table owned by the
// academics service; we share its database but never write to it.
type enrollmentDirectory struct {
	exec core.DBExecutor
}

var _ attendance.EnrollmentDirectory = (*enrollmentDirectory)(nil) // interface compliance check

func NewEnrollmentDirectory(exec core.DBExecutor) attendance.EnrollmentDirectory {
	return &enrollmentDirectory{exec: exec}
}

func (dir enrollmentDirectory) ActiveEnrollments(ctx context.Context) ([]attendance.Enrollment, error) {
	rows, err := dir.exec.QueryContext(ctx,
		`SELECT student_id, course_id FROM course_enrollment WHERE active ORDER BY course_id, student_id`)
	if err != nil {
		return nil, errors.Wrap(err, "querying active enrollments")
	}
	defer func() { _ = rows.Close() }()

	var enrs []attendance.Enrollment
	for rows.Next() {
		var enr attendance.Enrollment
		if err = rows.Scan(&enr.StudentID, &enr.CourseID); err != nil {
			return nil, errors.Wrap(err, "querying active enrollments")
		}
		enrs = append(enrs, enr)
	}
	return enrs, errors.Wrap(rows.Err(), "querying active enrollments")
}

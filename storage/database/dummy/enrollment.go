package dummydb

import (
	"context"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type EnrollmentDirectory struct {
	db *enrollmentTable
}

var _ attendance.EnrollmentDirectory = (*EnrollmentDirectory)(nil) // interface compliance check

func NewEnrollmentDirectory(db *DB) *EnrollmentDirectory {
	return &EnrollmentDirectory{db: db.enrollments}
}

// Enroll seeds an active enrollment. Test helper; the real directory is
// read-only.
func (dir *EnrollmentDirectory) Enroll(studentID, courseID string) {
	dir.db.Lock()
	defer dir.db.Unlock()
	dir.db.table = append(dir.db.table, attendance.Enrollment{StudentID: studentID, CourseID: courseID})
}

func (dir *EnrollmentDirectory) ActiveEnrollments(_ context.Context) ([]attendance.Enrollment, error) {
	dir.db.RLock()
	defer dir.db.RUnlock()

	enrs := make([]attendance.Enrollment, len(dir.db.table))
	copy(enrs, dir.db.table)
	return enrs, nil
}

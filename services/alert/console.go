package alertsvc

import (
	"fmt"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

// consoleSink logs notification events. Used in dev; prod wires the email
// sink instead.
type consoleSink struct {
	logger core.Logger
}

var _ attendance.AlertSink = (*consoleSink)(nil)

func NewConsoleSink(logger core.Logger) attendance.AlertSink {
	return &consoleSink{logger: logger}
}

func (s *consoleSink) NotifyAttendanceChanged(rec attendance.Record) {
	s.logger.Info(fmt.Sprintf(
		"attendance changed: student=%s course=%s date=%s status=%s marked_by=%s",
		rec.StudentID, rec.CourseID, rec.Date.Format("2006-01-02"), rec.Status, rec.MarkedBy,
	))
}

func (s *consoleSink) NotifyLowAttendance(studentID, courseID string, percentage float64) {
	s.logger.Warn(fmt.Sprintf(
		"low attendance: student=%s course=%s percentage=%.2f",
		studentID, courseID, percentage,
	))
}

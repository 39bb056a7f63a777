package alertsvc

import (
	"fmt"
	"net/mail"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

// emailSink mails low-attendance alerts to the attendance office and logs
// record changes. Delivery is fire-and-forget; the email service runs sends
// in the background.
type emailSink struct {
	emailSvc    core.EmailService
	alertsEmail mail.Address
	logger      core.Logger
}

var _ attendance.AlertSink = (*emailSink)(nil)

func NewEmailSink(emailSvc core.EmailService, logger core.Logger, conf *core.Config) attendance.AlertSink {
	return &emailSink{
		emailSvc:    emailSvc,
		alertsEmail: mail.Address{Name: "Attendance Office", Address: conf.AlertsEmail},
		logger:      logger,
	}
}

func (s *emailSink) NotifyAttendanceChanged(rec attendance.Record) {
	// record changes are frequent; they are logged, not mailed
	s.logger.Info(fmt.Sprintf(
		"attendance changed: student=%s course=%s date=%s status=%s marked_by=%s",
		rec.StudentID, rec.CourseID, rec.Date.Format("2006-01-02"), rec.Status, rec.MarkedBy,
	))
}

func (s *emailSink) NotifyLowAttendance(studentID, courseID string, percentage float64) {
	s.emailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{s.alertsEmail},
		Subject: "Low attendance alert",
		BodyStr: fmt.Sprintf(
			"Student %s is at %.2f%% attendance in course %s.\r\n"+
				"Please follow up with the student.\r\n",
			studentID, percentage, courseID,
		),
	})
}

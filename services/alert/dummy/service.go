package dummyalert

import (
	"sync"

	"github.com/trezcool/mahudhurio/core/attendance"
)

// LowAttendanceAlert captures one NotifyLowAttendance call.
type LowAttendanceAlert struct {
	StudentID  string
	CourseID   string
	Percentage float64
}

// Sink records notification events for assertion in tests.
type Sink struct {
	mu       sync.Mutex
	changed  []attendance.Record
	lowAlert []LowAttendanceAlert
}

var _ attendance.AlertSink = (*Sink)(nil)

func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) NotifyAttendanceChanged(rec attendance.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changed = append(s.changed, rec)
}

func (s *Sink) NotifyLowAttendance(studentID, courseID string, percentage float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lowAlert = append(s.lowAlert, LowAttendanceAlert{StudentID: studentID, CourseID: courseID, Percentage: percentage})
}

func (s *Sink) Changed() []attendance.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := make([]attendance.Record, len(s.changed))
	copy(recs, s.changed)
	return recs
}

func (s *Sink) LowAttendanceAlerts() []LowAttendanceAlert {
	s.mu.Lock()
	defer s.mu.Unlock()

	alerts := make([]LowAttendanceAlert, len(s.lowAlert))
	copy(alerts, s.lowAlert)
	return alerts
}

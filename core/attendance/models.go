package attendance

import (
	"encoding/json"
	"math"
	"time"

	"github.com/trezcool/mahudhurio/core"
)

// Status is a student's attendance state for one course on one calendar day.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

// Valid returns true when the status is a supported value.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	default:
		return false
	}
}

// CorrectionStatus is the state of a correction request.
// pending is the only non-terminal state.
type CorrectionStatus string

const (
	CorrectionPending  CorrectionStatus = "pending"
	CorrectionApproved CorrectionStatus = "approved"
	CorrectionRejected CorrectionStatus = "rejected"
)

func (s CorrectionStatus) Valid() bool {
	switch s {
	case CorrectionPending, CorrectionApproved, CorrectionRejected:
		return true
	default:
		return false
	}
}

// Terminal returns true when no further transition is allowed out of s.
func (s CorrectionStatus) Terminal() bool {
	return s == CorrectionApproved || s == CorrectionRejected
}

// Record holds one student's attendance for one course on one calendar day.
// At most one record exists per (StudentID, CourseID, Date); writes go
// through an upsert keyed on that triple, never a bare insert.
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	CourseID  string    `json:"course_id"`
	Date      time.Time `json:"date"` // calendar day, midnight UTC
	Status    Status    `json:"status"`
	MarkedBy  string    `json:"marked_by"` // faculty ID
	MarkedAt  time.Time `json:"marked_at"` // UTC
}

// CorrectionRequest is a student-initiated dispute over a Record, settled by
// faculty. At most one request per (RecordID, RequestedBy) may be pending.
type CorrectionRequest struct {
	ID             string           `json:"id"`
	RecordID       string           `json:"record_id"`
	RequestedBy    string           `json:"requested_by"` // student ID
	Reason         string           `json:"reason"`
	Status         CorrectionStatus `json:"status"`
	ReviewedBy     string           `json:"reviewed_by,omitempty"`
	ReviewComments string           `json:"review_comments,omitempty"`
	RequestedAt    time.Time        `json:"requested_at"`        // UTC
	ReviewedAt     time.Time        `json:"reviewed_at,omitempty"` // UTC; zero until reviewed
}

// MonthlyReport is a derived, overwritable aggregate for one
// (StudentID, CourseID, Month, Year). Regeneration overwrites, never appends.
type MonthlyReport struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"student_id"`
	CourseID     string    `json:"course_id"`
	Month        int       `json:"month"` // 1..12
	Year         int       `json:"year"`
	TotalClasses int       `json:"total_classes"`
	PresentCount int       `json:"present_count"`
	AbsentCount  int       `json:"absent_count"`
	LateCount    int       `json:"late_count"`
	ExcusedCount int       `json:"excused_count"`
	Percentage   float64   `json:"attendance_percentage"`
	GeneratedAt  time.Time `json:"generated_at"` // UTC
}

// Enrollment is an active (student, course) pair read from the external
// enrollment collaborator; the core never owns enrollment data.
type Enrollment struct {
	StudentID string `json:"student_id"`
	CourseID  string `json:"course_id"`
}

// StatusCounts tallies records by status.
type StatusCounts struct {
	Present int
	Absent  int
	Late    int
	Excused int
}

func (c StatusCounts) Total() int {
	return c.Present + c.Absent + c.Late + c.Excused
}

func (c *StatusCounts) Add(s Status) {
	switch s {
	case StatusPresent:
		c.Present++
	case StatusAbsent:
		c.Absent++
	case StatusLate:
		c.Late++
	case StatusExcused:
		c.Excused++
	}
}

// NewRecord contains information needed to mark attendance for one student.
type NewRecord struct {
	StudentID string    `json:"student_id" validate:"required"`
	CourseID  string    `json:"course_id" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	Status    Status    `json:"status" validate:"required,attendancestatus"`
}

func (nr *NewRecord) Validate() error {
	nr.StudentID = core.CleanString(nr.StudentID)
	nr.CourseID = core.CleanString(nr.CourseID)
	nr.Date = DateOnly(nr.Date)
	return validate.Struct(nr)
}

// BulkRecords marks a whole class roster for one day. StudentIDs and
// Statuses are parallel; a length mismatch fails validation and writes
// nothing.
type BulkRecords struct {
	CourseID   string   `json:"course_id" validate:"required"`
	Date       time.Time `json:"date" validate:"required"`
	StudentIDs []string `json:"student_ids" validate:"required,min=1"`
	Statuses   []Status `json:"statuses" validate:"required,min=1,dive,attendancestatus"`
}

func (br *BulkRecords) Validate() error {
	br.CourseID = core.CleanString(br.CourseID)
	br.Date = DateOnly(br.Date)
	if err := validate.Struct(br); err != nil {
		return err
	}
	if len(br.StudentIDs) != len(br.Statuses) {
		return core.NewValidationError(
			errBulkLengthMismatch,
			core.FieldError{Field: "statuses", Error: errBulkLengthMismatch.Error()},
		)
	}
	return nil
}

// BulkFailure reports one roster entry that did not persist.
type BulkFailure struct {
	Index     int    `json:"index"`
	StudentID string `json:"student_id"`
	Err       error  `json:"-"`
}

// MarshalJSON flattens Err to its message; error values do not marshal.
func (f BulkFailure) MarshalJSON() ([]byte, error) {
	var msg string
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		Index     int    `json:"index"`
		StudentID string `json:"student_id"`
		Error     string `json:"error"`
	}{f.Index, f.StudentID, msg})
}

// BulkResult is the outcome of a bulk mark: per-item failures never abort
// the remaining items.
type BulkResult struct {
	Saved    []Record      `json:"saved"`
	Failures []BulkFailure `json:"failures"`
}

// NewCorrection contains information needed to open a correction request.
type NewCorrection struct {
	RecordID string `json:"record_id" validate:"required"`
	Reason   string `json:"reason" validate:"required"`
}

func (nc *NewCorrection) Validate() error {
	nc.RecordID = core.CleanString(nc.RecordID)
	nc.Reason = core.CleanString(nc.Reason)
	return validate.Struct(nc)
}

// Review settles a pending correction request.
type Review struct {
	Decision CorrectionStatus `json:"decision" validate:"required"`
	Comments string           `json:"comments"`
}

func (r *Review) Validate() error {
	r.Comments = core.CleanString(r.Comments)
	if err := validate.Struct(r); err != nil {
		return err
	}
	if !r.Decision.Terminal() {
		return core.NewValidationError(
			errBadDecision,
			core.FieldError{Field: "decision", Error: errBadDecision.Error()},
		)
	}
	return nil
}

// QueryFilter narrows record queries. Zero values are ignored.
type QueryFilter struct {
	CourseID string    `query:"course_id"`
	DateFrom time.Time `query:"date_from"`
	DateTo   time.Time `query:"date_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.CourseID == "" && qf.DateFrom.IsZero() && qf.DateTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.CourseID = core.CleanString(qf.CourseID)
	if !qf.DateFrom.IsZero() {
		qf.DateFrom = DateOnly(qf.DateFrom)
	}
	if !qf.DateTo.IsZero() {
		qf.DateTo = DateOnly(qf.DateTo)
	}
}

// DateOnly strips the time component, normalizing to midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthRange returns [first day of month, first day of next month) in UTC.
func MonthRange(month, year int) (from, to time.Time) {
	from = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// percent computes part/total as a percentage rounded half-up to 2 decimals.
// A zero total yields 0 rather than an error.
func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)*100*100/float64(total)) / 100
}

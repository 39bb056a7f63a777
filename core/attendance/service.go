package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trezcool/mahudhurio/core"
)

var (
	// errors
	ErrRecordNotFound     = errors.New("attendance record not found")
	ErrRequestNotFound    = errors.New("correction request not found")
	ErrDuplicatePending   = errors.New("a pending correction request already exists for this record")
	ErrRequestSettled     = errors.New("correction request has already been reviewed")
	errBulkLengthMismatch = errors.New("student_ids and statuses must have the same length")
	errBadDecision        = errors.New("decision must be approved or rejected")
	errNotFaculty         = errors.New("only faculty can perform this action")
	errNotAdmin           = errors.New("only admins can perform this action")
	errNotStudent         = errors.New("only students can perform this action")
	errNotOwnData         = errors.New("students can only access their own data")
	errNotOwnQueue        = errors.New("faculty can only access their own review queue")
)

type (
	// Repository is the durable attendance store: records, correction
	// requests and monthly reports, keyed as described on each model.
	// An optional executor can be passed to run a call inside a transaction.
	Repository interface {
		GetRecord(ctx context.Context, id string, exec ...core.DBExecutor) (Record, error)
		GetRecordByKey(ctx context.Context, studentID, courseID string, date time.Time, exec ...core.DBExecutor) (Record, error)
		// UpsertRecord inserts or, when a record already exists for the
		// (StudentID, CourseID, Date) key, overwrites Status/MarkedBy/MarkedAt.
		UpsertRecord(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
		UpdateRecordStatus(ctx context.Context, id string, status Status, exec ...core.DBExecutor) (Record, error)
		QueryStudentRecords(ctx context.Context, studentID string, filter *QueryFilter, exec ...core.DBExecutor) ([]Record, error)
		RecordStatusCounts(ctx context.Context, studentID, courseID string, exec ...core.DBExecutor) (StatusCounts, error)
		RecordsForRange(ctx context.Context, studentID, courseID string, from, to time.Time, exec ...core.DBExecutor) ([]Record, error)

		GetCorrection(ctx context.Context, id string, exec ...core.DBExecutor) (CorrectionRequest, error)
		GetPendingCorrection(ctx context.Context, recordID, requestedBy string, exec ...core.DBExecutor) (CorrectionRequest, error)
		// CreateCorrection fails with ErrDuplicatePending when a pending
		// request already exists for (RecordID, RequestedBy).
		CreateCorrection(ctx context.Context, req CorrectionRequest, exec ...core.DBExecutor) (CorrectionRequest, error)
		UpdateCorrection(ctx context.Context, req CorrectionRequest, exec ...core.DBExecutor) (CorrectionRequest, error)
		PendingCorrectionsByMarker(ctx context.Context, facultyID string, exec ...core.DBExecutor) ([]CorrectionRequest, error)
		CorrectionsByStudent(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]CorrectionRequest, error)

		// UpsertMonthlyReport overwrites any report with the same
		// (StudentID, CourseID, Month, Year) natural key.
		UpsertMonthlyReport(ctx context.Context, rep MonthlyReport, exec ...core.DBExecutor) (MonthlyReport, error)
		CourseMonthlyReports(ctx context.Context, courseID string, month, year int, exec ...core.DBExecutor) ([]MonthlyReport, error)
	}

	// EnrollmentDirectory lists active enrollments. Implemented by the
	// academics system; the core only reads.
	EnrollmentDirectory interface {
		ActiveEnrollments(ctx context.Context) ([]Enrollment, error)
	}

	// AlertSink receives notification events, fire-and-forget: delivery
	// failures are the sink's problem and are never surfaced to callers.
	AlertSink interface {
		NotifyAttendanceChanged(rec Record)
		NotifyLowAttendance(studentID, courseID string, percentage float64)
	}

	// PercentageCache is an optional read-through cache for computed
	// percentages. Implementations must tolerate being skipped entirely.
	PercentageCache interface {
		Get(ctx context.Context, studentID, courseID string) (float64, bool)
		Set(ctx context.Context, studentID, courseID string, pct float64)
		Invalidate(ctx context.Context, studentID, courseID string)
	}

	Service interface {
		Mark(ctx context.Context, actor core.Actor, nr NewRecord) (Record, error)
		MarkBulk(ctx context.Context, actor core.Actor, br BulkRecords) (BulkResult, error)
		StudentRecords(ctx context.Context, actor core.Actor, studentID string, filter *QueryFilter) ([]Record, error)
		Percentage(ctx context.Context, actor core.Actor, studentID, courseID string) (float64, error)
		HasLowAttendance(ctx context.Context, actor core.Actor, studentID, courseID string, threshold ...float64) (bool, error)

		SubmitCorrection(ctx context.Context, actor core.Actor, nc NewCorrection) (CorrectionRequest, error)
		ReviewCorrection(ctx context.Context, actor core.Actor, requestID string, rev Review) (CorrectionRequest, error)
		PendingForFaculty(ctx context.Context, actor core.Actor, facultyID string) ([]CorrectionRequest, error)
		StudentCorrections(ctx context.Context, actor core.Actor, studentID string) ([]CorrectionRequest, error)

		GenerateMonthlyReports(ctx context.Context, actor core.Actor, month, year int) ([]MonthlyReport, error)
		CourseReports(ctx context.Context, actor core.Actor, courseID string, month, year int) ([]MonthlyReport, error)
	}

	service struct {
		db      core.DB
		repo    Repository
		enrolls EnrollmentDirectory
		alerts  AlertSink
		cache   PercentageCache // may be nil
		logger  core.Logger
		conf    *core.Config
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(
	db core.DB,
	repo Repository,
	enrolls EnrollmentDirectory,
	alerts AlertSink,
	logger core.Logger,
	conf *core.Config,
	cache ...PercentageCache,
) Service {
	svc := &service{
		db:      db,
		repo:    repo,
		enrolls: enrolls,
		alerts:  alerts,
		logger:  logger,
		conf:    conf,
	}
	if len(cache) > 0 {
		svc.cache = cache[0]
	}
	return svc
}

func (svc *service) Mark(ctx context.Context, actor core.Actor, nr NewRecord) (Record, error) {
	if !(actor.IsTeacher() || actor.IsAdmin()) {
		return Record{}, core.NewAuthorizationError(errNotFaculty)
	}
	if err := nr.Validate(); err != nil {
		return Record{}, err
	}

	rec := Record{
		StudentID: nr.StudentID,
		CourseID:  nr.CourseID,
		Date:      nr.Date,
		Status:    nr.Status,
		MarkedBy:  actor.ID,
		MarkedAt:  time.Now().UTC(),
	}
	saved, err := svc.repo.UpsertRecord(ctx, rec)
	if err != nil {
		return Record{}, err
	}

	svc.invalidatePercentage(ctx, saved.StudentID, saved.CourseID)
	svc.alerts.NotifyAttendanceChanged(saved)
	return saved, nil
}

// MarkBulk applies Mark independently per roster entry: one entry's failure
// never aborts the rest. A length mismatch is rejected up front and writes
// nothing.
func (svc *service) MarkBulk(ctx context.Context, actor core.Actor, br BulkRecords) (BulkResult, error) {
	if !(actor.IsTeacher() || actor.IsAdmin()) {
		return BulkResult{}, core.NewAuthorizationError(errNotFaculty)
	}
	if err := br.Validate(); err != nil {
		return BulkResult{}, err
	}

	res := BulkResult{Saved: make([]Record, 0, len(br.StudentIDs))}
	for i, studentID := range br.StudentIDs {
		nr := NewRecord{
			StudentID: studentID,
			CourseID:  br.CourseID,
			Date:      br.Date,
			Status:    br.Statuses[i],
		}
		rec, err := svc.Mark(ctx, actor, nr)
		if err != nil {
			res.Failures = append(res.Failures, BulkFailure{Index: i, StudentID: studentID, Err: err})
			continue
		}
		res.Saved = append(res.Saved, rec)
	}
	return res, nil
}

func (svc *service) StudentRecords(ctx context.Context, actor core.Actor, studentID string, filter *QueryFilter) ([]Record, error) {
	studentID = core.CleanString(studentID)
	if err := svc.checkStudentAccess(actor, studentID); err != nil {
		return nil, err
	}
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryStudentRecords(ctx, studentID, filter)
}

// Percentage derives the attendance ratio for a (student, course) pair:
// present count over total, rounded half-up to 2 decimals. No records at
// all yields 0.00, not an error.
func (svc *service) Percentage(ctx context.Context, actor core.Actor, studentID, courseID string) (float64, error) {
	studentID = core.CleanString(studentID)
	courseID = core.CleanString(courseID)
	if err := svc.checkStudentAccess(actor, studentID); err != nil {
		return 0, err
	}

	if svc.cache != nil {
		if pct, ok := svc.cache.Get(ctx, studentID, courseID); ok {
			return pct, nil
		}
	}

	counts, err := svc.repo.RecordStatusCounts(ctx, studentID, courseID)
	if err != nil {
		return 0, err
	}
	pct := percent(counts.Present, counts.Total())

	if svc.cache != nil {
		svc.cache.Set(ctx, studentID, courseID, pct)
	}
	return pct, nil
}

// HasLowAttendance reports whether the student's percentage in the course is
// strictly below the threshold (the configured default unless overridden).
func (svc *service) HasLowAttendance(ctx context.Context, actor core.Actor, studentID, courseID string, threshold ...float64) (bool, error) {
	th := svc.conf.LowAttendanceThreshold
	if len(threshold) > 0 {
		th = threshold[0]
	}
	pct, err := svc.Percentage(ctx, actor, studentID, courseID)
	if err != nil {
		return false, err
	}
	return pct < th, nil
}

func (svc *service) checkStudentAccess(actor core.Actor, studentID string) error {
	if actor.IsTeacher() || actor.IsAdmin() {
		return nil
	}
	if actor.IsStudent() {
		if actor.ID != studentID {
			return core.NewAuthorizationError(errNotOwnData)
		}
		return nil
	}
	return core.NewAuthorizationError(fmt.Errorf("unknown role for user %q", actor.ID))
}

func (svc *service) invalidatePercentage(ctx context.Context, studentID, courseID string) {
	if svc.cache != nil {
		svc.cache.Invalidate(ctx, studentID, courseID)
	}
}

package pgrepos

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

const pqUniqueViolation = "23505"

type attendanceRepository struct {
	exec core.DBExecutor
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(exec core.DBExecutor) attendance.Repository {
	return &attendanceRepository{exec: exec}
}

func (repo attendanceRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

// row models

type recordRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	CourseID  string    `db:"course_id"`
	Date      time.Time `db:"date"`
	Status    string    `db:"status"`
	MarkedBy  string    `db:"marked_by"`
	MarkedAt  time.Time `db:"marked_at"`
}

func (r recordRow) toCore() attendance.Record {
	return attendance.Record{
		ID:        r.ID,
		StudentID: r.StudentID,
		CourseID:  r.CourseID,
		Date:      attendance.DateOnly(r.Date),
		Status:    attendance.Status(r.Status),
		MarkedBy:  r.MarkedBy,
		MarkedAt:  r.MarkedAt.UTC(),
	}
}

type correctionRow struct {
	ID             string         `db:"id"`
	RecordID       string         `db:"record_id"`
	RequestedBy    string         `db:"requested_by"`
	Reason         string         `db:"reason"`
	Status         string         `db:"status"`
	ReviewedBy     sql.NullString `db:"reviewed_by"`
	ReviewComments string         `db:"review_comments"`
	RequestedAt    time.Time      `db:"requested_at"`
	ReviewedAt     sql.NullTime   `db:"reviewed_at"`
}

func (r correctionRow) toCore() attendance.CorrectionRequest {
	req := attendance.CorrectionRequest{
		ID:             r.ID,
		RecordID:       r.RecordID,
		RequestedBy:    r.RequestedBy,
		Reason:         r.Reason,
		Status:         attendance.CorrectionStatus(r.Status),
		ReviewComments: r.ReviewComments,
		RequestedAt:    r.RequestedAt.UTC(),
	}
	if r.ReviewedBy.Valid {
		req.ReviewedBy = r.ReviewedBy.String
	}
	if r.ReviewedAt.Valid {
		req.ReviewedAt = r.ReviewedAt.Time.UTC()
	}
	return req
}

type reportRow struct {
	ID           string    `db:"id"`
	StudentID    string    `db:"student_id"`
	CourseID     string    `db:"course_id"`
	Month        int       `db:"month"`
	Year         int       `db:"year"`
	TotalClasses int       `db:"total_classes"`
	PresentCount int       `db:"present_count"`
	AbsentCount  int       `db:"absent_count"`
	LateCount    int       `db:"late_count"`
	ExcusedCount int       `db:"excused_count"`
	Percentage   float64   `db:"percentage"`
	GeneratedAt  time.Time `db:"generated_at"`
}

func (r reportRow) toCore() attendance.MonthlyReport {
	return attendance.MonthlyReport{
		ID:           r.ID,
		StudentID:    r.StudentID,
		CourseID:     r.CourseID,
		Month:        r.Month,
		Year:         r.Year,
		TotalClasses: r.TotalClasses,
		PresentCount: r.PresentCount,
		AbsentCount:  r.AbsentCount,
		LateCount:    r.LateCount,
		ExcusedCount: r.ExcusedCount,
		Percentage:   r.Percentage,
		GeneratedAt:  r.GeneratedAt.UTC(),
	}
}

// scanning helpers

func queryRecords(ctx context.Context, exe core.DBExecutor, q string, args ...interface{}) ([]attendance.Record, error) {
	rows, err := exe.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var rrs []*recordRow
	if err = sqlx.StructScan(rows, &rrs); err != nil {
		return nil, err
	}
	recs := make([]attendance.Record, 0, len(rrs))
	for _, rr := range rrs {
		recs = append(recs, rr.toCore())
	}
	return recs, nil
}

func queryOneRecord(ctx context.Context, exe core.DBExecutor, q string, args ...interface{}) (attendance.Record, error) {
	recs, err := queryRecords(ctx, exe, q, args...)
	if err != nil {
		return attendance.Record{}, err
	}
	if len(recs) == 0 {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return recs[0], nil
}

func queryCorrections(ctx context.Context, exe core.DBExecutor, q string, args ...interface{}) ([]attendance.CorrectionRequest, error) {
	rows, err := exe.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var crs []*correctionRow
	if err = sqlx.StructScan(rows, &crs); err != nil {
		return nil, err
	}
	reqs := make([]attendance.CorrectionRequest, 0, len(crs))
	for _, cr := range crs {
		reqs = append(reqs, cr.toCore())
	}
	return reqs, nil
}

func queryOneCorrection(ctx context.Context, exe core.DBExecutor, q string, args ...interface{}) (attendance.CorrectionRequest, error) {
	reqs, err := queryCorrections(ctx, exe, q, args...)
	if err != nil {
		return attendance.CorrectionRequest{}, err
	}
	if len(reqs) == 0 {
		return attendance.CorrectionRequest{}, attendance.ErrRequestNotFound
	}
	return reqs[0], nil
}

func queryReports(ctx context.Context, exe core.DBExecutor, q string, args ...interface{}) ([]attendance.MonthlyReport, error) {
	rows, err := exe.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var rrs []*reportRow
	if err = sqlx.StructScan(rows, &rrs); err != nil {
		return nil, err
	}
	reps := make([]attendance.MonthlyReport, 0, len(rrs))
	for _, rr := range rrs {
		reps = append(reps, rr.toCore())
	}
	return reps, nil
}

// records

func (repo attendanceRepository) GetRecord(ctx context.Context, id string, exec ...core.DBExecutor) (attendance.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	rec, err := queryOneRecord(ctx, repo.getExec(exec),
		`SELECT * FROM attendance_record WHERE id = $1`, id)
	if err != nil && err != attendance.ErrRecordNotFound {
		return attendance.Record{}, errors.Wrap(err, "finding record by ID")
	}
	return rec, err
}

func (repo attendanceRepository) GetRecordByKey(ctx context.Context, studentID, courseID string, date time.Time, exec ...core.DBExecutor) (attendance.Record, error) {
	rec, err := queryOneRecord(ctx, repo.getExec(exec),
		`SELECT * FROM attendance_record WHERE student_id = $1 AND course_id = $2 AND date = $3`,
		studentID, courseID, attendance.DateOnly(date))
	if err != nil && err != attendance.ErrRecordNotFound {
		return attendance.Record{}, errors.Wrap(err, "finding record by key")
	}
	return rec, err
}

func (repo attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	saved, err := queryOneRecord(ctx, repo.getExec(exec),
		`INSERT INTO attendance_record (id, student_id, course_id, date, status, marked_by, marked_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT ON CONSTRAINT attendance_record_key
		 DO UPDATE SET status = EXCLUDED.status, marked_by = EXCLUDED.marked_by, marked_at = EXCLUDED.marked_at
		 RETURNING *`,
		rec.ID, rec.StudentID, rec.CourseID, attendance.DateOnly(rec.Date), string(rec.Status), rec.MarkedBy, rec.MarkedAt.UTC())
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "upserting record")
	}
	return saved, nil
}

func (repo attendanceRepository) UpdateRecordStatus(ctx context.Context, id string, status attendance.Status, exec ...core.DBExecutor) (attendance.Record, error) {
	rec, err := queryOneRecord(ctx, repo.getExec(exec),
		`UPDATE attendance_record SET status = $2 WHERE id = $1 RETURNING *`,
		id, string(status))
	if err != nil && err != attendance.ErrRecordNotFound {
		return attendance.Record{}, errors.Wrap(err, "updating record status")
	}
	return rec, err
}

func (repo attendanceRepository) QueryStudentRecords(ctx context.Context, studentID string, filter *attendance.QueryFilter, exec ...core.DBExecutor) ([]attendance.Record, error) {
	q := `SELECT * FROM attendance_record WHERE student_id = $1`
	args := []interface{}{studentID}

	if filter != nil {
		if filter.CourseID != "" {
			args = append(args, filter.CourseID)
			q += ` AND course_id = $2`
		}
		if !filter.DateFrom.IsZero() {
			args = append(args, filter.DateFrom)
			q += ` AND date >= $` + itoa(len(args))
		}
		if !filter.DateTo.IsZero() {
			args = append(args, filter.DateTo)
			q += ` AND date <= $` + itoa(len(args))
		}
	}
	q += ` ORDER BY date, course_id`

	recs, err := queryRecords(ctx, repo.getExec(exec), q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying student records")
	}
	return recs, nil
}

func (repo attendanceRepository) RecordStatusCounts(ctx context.Context, studentID, courseID string, exec ...core.DBExecutor) (attendance.StatusCounts, error) {
	var counts attendance.StatusCounts

	rows, err := repo.getExec(exec).QueryContext(ctx,
		`SELECT status, COUNT(*) FROM attendance_record WHERE student_id = $1 AND course_id = $2 GROUP BY status`,
		studentID, courseID)
	if err != nil {
		return counts, errors.Wrap(err, "counting records by status")
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var status string
		var n int
		if err = rows.Scan(&status, &n); err != nil {
			return counts, errors.Wrap(err, "counting records by status")
		}
		switch attendance.Status(status) {
		case attendance.StatusPresent:
			counts.Present = n
		case attendance.StatusAbsent:
			counts.Absent = n
		case attendance.StatusLate:
			counts.Late = n
		case attendance.StatusExcused:
			counts.Excused = n
		}
	}
	return counts, errors.Wrap(rows.Err(), "counting records by status")
}

func (repo attendanceRepository) RecordsForRange(ctx context.Context, studentID, courseID string, from, to time.Time, exec ...core.DBExecutor) ([]attendance.Record, error) {
	recs, err := queryRecords(ctx, repo.getExec(exec),
		`SELECT * FROM attendance_record
		 WHERE student_id = $1 AND course_id = $2 AND date >= $3 AND date < $4
		 ORDER BY date`,
		studentID, courseID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "querying records for range")
	}
	return recs, nil
}

// correction requests

func (repo attendanceRepository) GetCorrection(ctx context.Context, id string, exec ...core.DBExecutor) (attendance.CorrectionRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.CorrectionRequest{}, attendance.ErrRequestNotFound
	}
	req, err := queryOneCorrection(ctx, repo.getExec(exec),
		`SELECT * FROM correction_request WHERE id = $1`, id)
	if err != nil && err != attendance.ErrRequestNotFound {
		return attendance.CorrectionRequest{}, errors.Wrap(err, "finding correction by ID")
	}
	return req, err
}

func (repo attendanceRepository) GetPendingCorrection(ctx context.Context, recordID, requestedBy string, exec ...core.DBExecutor) (attendance.CorrectionRequest, error) {
	req, err := queryOneCorrection(ctx, repo.getExec(exec),
		`SELECT * FROM correction_request WHERE record_id = $1 AND requested_by = $2 AND status = $3`,
		recordID, requestedBy, string(attendance.CorrectionPending))
	if err != nil && err != attendance.ErrRequestNotFound {
		return attendance.CorrectionRequest{}, errors.Wrap(err, "finding pending correction")
	}
	return req, err
}

func (repo attendanceRepository) CreateCorrection(ctx context.Context, req attendance.CorrectionRequest, exec ...core.DBExecutor) (attendance.CorrectionRequest, error) {
	req.ID = uuid.New().String()
	created, err := queryOneCorrection(ctx, repo.getExec(exec),
		`INSERT INTO correction_request (id, record_id, requested_by, reason, status, review_comments, requested_at)
		 VALUES ($1, $2, $3, $4, $5, '', $6)
		 RETURNING *`,
		req.ID, req.RecordID, req.RequestedBy, req.Reason, string(req.Status), req.RequestedAt.UTC())
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return attendance.CorrectionRequest{}, attendance.ErrDuplicatePending
		}
		return attendance.CorrectionRequest{}, errors.Wrap(err, "creating correction")
	}
	return created, nil
}

func (repo attendanceRepository) UpdateCorrection(ctx context.Context, req attendance.CorrectionRequest, exec ...core.DBExecutor) (attendance.CorrectionRequest, error) {
	updated, err := queryOneCorrection(ctx, repo.getExec(exec),
		`UPDATE correction_request
		 SET status = $2, reviewed_by = $3, review_comments = $4, reviewed_at = $5
		 WHERE id = $1
		 RETURNING *`,
		req.ID, string(req.Status), nullString(req.ReviewedBy), req.ReviewComments, nullTime(req.ReviewedAt))
	if err != nil && err != attendance.ErrRequestNotFound {
		return attendance.CorrectionRequest{}, errors.Wrap(err, "updating correction")
	}
	return updated, err
}

func (repo attendanceRepository) PendingCorrectionsByMarker(ctx context.Context, facultyID string, exec ...core.DBExecutor) ([]attendance.CorrectionRequest, error) {
	reqs, err := queryCorrections(ctx, repo.getExec(exec),
		`SELECT cr.* FROM correction_request cr
		 JOIN attendance_record ar ON ar.id = cr.record_id
		 WHERE ar.marked_by = $1 AND cr.status = $2
		 ORDER BY cr.requested_at`,
		facultyID, string(attendance.CorrectionPending))
	if err != nil {
		return nil, errors.Wrap(err, "querying faculty review queue")
	}
	return reqs, nil
}

func (repo attendanceRepository) CorrectionsByStudent(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]attendance.CorrectionRequest, error) {
	reqs, err := queryCorrections(ctx, repo.getExec(exec),
		`SELECT * FROM correction_request WHERE requested_by = $1 ORDER BY requested_at DESC`,
		studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying student corrections")
	}
	return reqs, nil
}

// monthly reports

func (repo attendanceRepository) UpsertMonthlyReport(ctx context.Context, rep attendance.MonthlyReport, exec ...core.DBExecutor) (attendance.MonthlyReport, error) {
	if rep.ID == "" {
		rep.ID = uuid.New().String()
	}
	rows, err := repo.getExec(exec).QueryContext(ctx,
		`INSERT INTO monthly_report
		     (id, student_id, course_id, month, year, total_classes, present_count, absent_count, late_count, excused_count, percentage, generated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT ON CONSTRAINT monthly_report_key
		 DO UPDATE SET total_classes = EXCLUDED.total_classes,
		               present_count = EXCLUDED.present_count,
		               absent_count = EXCLUDED.absent_count,
		               late_count = EXCLUDED.late_count,
		               excused_count = EXCLUDED.excused_count,
		               percentage = EXCLUDED.percentage,
		               generated_at = EXCLUDED.generated_at
		 RETURNING *`,
		rep.ID, rep.StudentID, rep.CourseID, rep.Month, rep.Year, rep.TotalClasses,
		rep.PresentCount, rep.AbsentCount, rep.LateCount, rep.ExcusedCount, rep.Percentage, rep.GeneratedAt.UTC())
	if err != nil {
		return attendance.MonthlyReport{}, errors.Wrap(err, "upserting monthly report")
	}
	defer func() { _ = rows.Close() }()

	var rrs []*reportRow
	if err = sqlx.StructScan(rows, &rrs); err != nil || len(rrs) == 0 {
		return attendance.MonthlyReport{}, errors.Wrap(err, "upserting monthly report")
	}
	return rrs[0].toCore(), nil
}

func (repo attendanceRepository) CourseMonthlyReports(ctx context.Context, courseID string, month, year int, exec ...core.DBExecutor) ([]attendance.MonthlyReport, error) {
	reps, err := queryReports(ctx, repo.getExec(exec),
		`SELECT * FROM monthly_report WHERE course_id = $1 AND month = $2 AND year = $3 ORDER BY student_id`,
		courseID, month, year)
	if err != nil {
		return nil, errors.Wrap(err, "querying course reports")
	}
	return reps, nil
}

// helpers

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

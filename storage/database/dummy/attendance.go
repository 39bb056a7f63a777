package dummydb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceRepository struct {
	records     *recordTable
	corrections *correctionTable
	reports     *reportTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{
		records:     db.records,
		corrections: db.corrections,
		reports:     db.reports,
	}
}

func recordKey(studentID, courseID string, date time.Time) string {
	return fmt.Sprintf("%s|%s|%s", studentID, courseID, attendance.DateOnly(date).Format("2006-01-02"))
}

func reportKey(studentID, courseID string, month, year int) string {
	return fmt.Sprintf("%s|%s|%d|%d", studentID, courseID, month, year)
}

// records

func (repo *attendanceRepository) GetRecord(_ context.Context, id string, _ ...core.DBExecutor) (attendance.Record, error) {
	repo.records.RLock()
	defer repo.records.RUnlock()

	for _, rec := range repo.records.table {
		if rec.ID == id {
			return *rec, nil
		}
	}
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (repo *attendanceRepository) GetRecordByKey(_ context.Context, studentID, courseID string, date time.Time, _ ...core.DBExecutor) (attendance.Record, error) {
	repo.records.RLock()
	defer repo.records.RUnlock()

	if rec, ok := repo.records.table[recordKey(studentID, courseID, date)]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (repo *attendanceRepository) UpsertRecord(_ context.Context, rec attendance.Record, _ ...core.DBExecutor) (attendance.Record, error) {
	repo.records.Lock()
	defer repo.records.Unlock()

	rec.Date = attendance.DateOnly(rec.Date)
	key := recordKey(rec.StudentID, rec.CourseID, rec.Date)
	if existing, ok := repo.records.table[key]; ok {
		existing.Status = rec.Status
		existing.MarkedBy = rec.MarkedBy
		existing.MarkedAt = rec.MarkedAt
		return *existing, nil
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	repo.records.table[key] = &rec
	return rec, nil
}

func (repo *attendanceRepository) UpdateRecordStatus(_ context.Context, id string, status attendance.Status, _ ...core.DBExecutor) (attendance.Record, error) {
	repo.records.Lock()
	defer repo.records.Unlock()

	for _, rec := range repo.records.table {
		if rec.ID == id {
			rec.Status = status
			return *rec, nil
		}
	}
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (repo *attendanceRepository) QueryStudentRecords(_ context.Context, studentID string, filter *attendance.QueryFilter, _ ...core.DBExecutor) ([]attendance.Record, error) {
	repo.records.RLock()
	defer repo.records.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, rec := range repo.records.table {
		if rec.StudentID != studentID {
			continue
		}
		if filter != nil {
			if filter.CourseID != "" && rec.CourseID != filter.CourseID {
				continue
			}
			if !filter.DateFrom.IsZero() && rec.Date.Before(filter.DateFrom) {
				continue
			}
			if !filter.DateTo.IsZero() && rec.Date.After(filter.DateTo) {
				continue
			}
		}
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Date.Equal(recs[j].Date) {
			return recs[i].CourseID < recs[j].CourseID
		}
		return recs[i].Date.Before(recs[j].Date)
	})
	return recs, nil
}

func (repo *attendanceRepository) RecordStatusCounts(_ context.Context, studentID, courseID string, _ ...core.DBExecutor) (attendance.StatusCounts, error) {
	repo.records.RLock()
	defer repo.records.RUnlock()

	var counts attendance.StatusCounts
	for _, rec := range repo.records.table {
		if rec.StudentID == studentID && rec.CourseID == courseID {
			counts.Add(rec.Status)
		}
	}
	return counts, nil
}

func (repo *attendanceRepository) RecordsForRange(_ context.Context, studentID, courseID string, from, to time.Time, _ ...core.DBExecutor) ([]attendance.Record, error) {
	repo.records.RLock()
	defer repo.records.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, rec := range repo.records.table {
		if rec.StudentID != studentID || rec.CourseID != courseID {
			continue
		}
		if rec.Date.Before(from) || !rec.Date.Before(to) {
			continue
		}
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
	return recs, nil
}

// correction requests

func (repo *attendanceRepository) GetCorrection(_ context.Context, id string, _ ...core.DBExecutor) (attendance.CorrectionRequest, error) {
	repo.corrections.RLock()
	defer repo.corrections.RUnlock()

	if req, ok := repo.corrections.table[id]; ok {
		return *req, nil
	}
	return attendance.CorrectionRequest{}, attendance.ErrRequestNotFound
}

func (repo *attendanceRepository) GetPendingCorrection(_ context.Context, recordID, requestedBy string, _ ...core.DBExecutor) (attendance.CorrectionRequest, error) {
	repo.corrections.RLock()
	defer repo.corrections.RUnlock()

	if req := repo.findPending(recordID, requestedBy); req != nil {
		return *req, nil
	}
	return attendance.CorrectionRequest{}, attendance.ErrRequestNotFound
}

func (repo *attendanceRepository) findPending(recordID, requestedBy string) *attendance.CorrectionRequest {
	for _, req := range repo.corrections.table {
		if req.RecordID == recordID && req.RequestedBy == requestedBy && req.Status == attendance.CorrectionPending {
			return req
		}
	}
	return nil
}

func (repo *attendanceRepository) CreateCorrection(_ context.Context, req attendance.CorrectionRequest, _ ...core.DBExecutor) (attendance.CorrectionRequest, error) {
	repo.corrections.Lock()
	defer repo.corrections.Unlock()

	if repo.findPending(req.RecordID, req.RequestedBy) != nil {
		return attendance.CorrectionRequest{}, attendance.ErrDuplicatePending
	}

	req.ID = uuid.New().String()
	repo.corrections.table[req.ID] = &req
	return req, nil
}

func (repo *attendanceRepository) UpdateCorrection(_ context.Context, req attendance.CorrectionRequest, _ ...core.DBExecutor) (attendance.CorrectionRequest, error) {
	repo.corrections.Lock()
	defer repo.corrections.Unlock()

	existing, ok := repo.corrections.table[req.ID]
	if !ok {
		return attendance.CorrectionRequest{}, attendance.ErrRequestNotFound
	}
	existing.Status = req.Status
	existing.ReviewedBy = req.ReviewedBy
	existing.ReviewComments = req.ReviewComments
	existing.ReviewedAt = req.ReviewedAt
	return *existing, nil
}

func (repo *attendanceRepository) PendingCorrectionsByMarker(_ context.Context, facultyID string, _ ...core.DBExecutor) ([]attendance.CorrectionRequest, error) {
	markedBy := make(map[string]string) // record ID -> marker
	repo.records.RLock()
	for _, rec := range repo.records.table {
		markedBy[rec.ID] = rec.MarkedBy
	}
	repo.records.RUnlock()

	repo.corrections.RLock()
	defer repo.corrections.RUnlock()

	reqs := make([]attendance.CorrectionRequest, 0)
	for _, req := range repo.corrections.table {
		if req.Status == attendance.CorrectionPending && markedBy[req.RecordID] == facultyID {
			reqs = append(reqs, *req)
		}
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].RequestedAt.Before(reqs[j].RequestedAt) })
	return reqs, nil
}

func (repo *attendanceRepository) CorrectionsByStudent(_ context.Context, studentID string, _ ...core.DBExecutor) ([]attendance.CorrectionRequest, error) {
	repo.corrections.RLock()
	defer repo.corrections.RUnlock()

	reqs := make([]attendance.CorrectionRequest, 0)
	for _, req := range repo.corrections.table {
		if req.RequestedBy == studentID {
			reqs = append(reqs, *req)
		}
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].RequestedAt.After(reqs[j].RequestedAt) })
	return reqs, nil
}

// monthly reports

func (repo *attendanceRepository) UpsertMonthlyReport(_ context.Context, rep attendance.MonthlyReport, _ ...core.DBExecutor) (attendance.MonthlyReport, error) {
	repo.reports.Lock()
	defer repo.reports.Unlock()

	key := reportKey(rep.StudentID, rep.CourseID, rep.Month, rep.Year)
	if existing, ok := repo.reports.table[key]; ok {
		rep.ID = existing.ID
	} else if rep.ID == "" {
		rep.ID = uuid.New().String()
	}
	repo.reports.table[key] = &rep
	return rep, nil
}

func (repo *attendanceRepository) CourseMonthlyReports(_ context.Context, courseID string, month, year int, _ ...core.DBExecutor) ([]attendance.MonthlyReport, error) {
	repo.reports.RLock()
	defer repo.reports.RUnlock()

	reps := make([]attendance.MonthlyReport, 0)
	for _, rep := range repo.reports.table {
		if rep.CourseID == courseID && rep.Month == month && rep.Year == year {
			reps = append(reps, *rep)
		}
	}
	sort.Slice(reps, func(i, j int) bool { return reps[i].StudentID < reps[j].StudentID })
	return reps, nil
}

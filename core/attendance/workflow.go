package attendance

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

// SubmitCorrection opens a correction request on an existing record.
// Submission is idempotent: while a request by the same student on the same
// record is still pending, re-submitting returns it unchanged instead of
// creating a duplicate.
func (svc *service) SubmitCorrection(ctx context.Context, actor core.Actor, nc NewCorrection) (CorrectionRequest, error) {
	if !actor.IsStudent() {
		return CorrectionRequest{}, core.NewAuthorizationError(errNotStudent)
	}
	if err := nc.Validate(); err != nil {
		return CorrectionRequest{}, err
	}

	if _, err := svc.repo.GetRecord(ctx, nc.RecordID); err != nil {
		return CorrectionRequest{}, err
	}

	existing, err := svc.repo.GetPendingCorrection(ctx, nc.RecordID, actor.ID)
	if err == nil {
		return existing, nil
	}
	if err != ErrRequestNotFound {
		return CorrectionRequest{}, err
	}

	req := CorrectionRequest{
		RecordID:    nc.RecordID,
		RequestedBy: actor.ID,
		Reason:      nc.Reason,
		Status:      CorrectionPending,
		RequestedAt: time.Now().UTC(),
	}
	created, err := svc.repo.CreateCorrection(ctx, req)
	if err == ErrDuplicatePending {
		// lost a race with a concurrent submit; return the winner
		return svc.repo.GetPendingCorrection(ctx, nc.RecordID, actor.ID)
	}
	return created, err
}

// ReviewCorrection settles a pending request. Approval additionally
// overwrites the disputed record's status, sequenced after any concurrent
// mark by running both writes in one transaction.
func (svc *service) ReviewCorrection(ctx context.Context, actor core.Actor, requestID string, rev Review) (CorrectionRequest, error) {
	if !(actor.IsTeacher() || actor.IsAdmin()) {
		return CorrectionRequest{}, core.NewAuthorizationError(errNotFaculty)
	}
	requestID = core.CleanString(requestID)
	if err := rev.Validate(); err != nil {
		return CorrectionRequest{}, err
	}

	// stores without transaction support (in-mem) run the review unguarded
	var exec []core.DBExecutor
	var tx *sql.Tx
	if svc.db != nil {
		var err error
		if tx, err = svc.db.BeginTx(ctx, &sql.TxOptions{}); err != nil {
			return CorrectionRequest{}, errors.Wrap(err, "beginning review transaction")
		}
		defer func() { _ = tx.Rollback() }()
		exec = []core.DBExecutor{tx}
	}

	req, err := svc.repo.GetCorrection(ctx, requestID, exec...)
	if err != nil {
		return CorrectionRequest{}, err
	}
	if req.Status != CorrectionPending {
		return CorrectionRequest{}, core.NewConflictError(ErrRequestSettled)
	}

	req.Status = rev.Decision
	req.ReviewedBy = actor.ID
	req.ReviewComments = rev.Comments
	req.ReviewedAt = time.Now().UTC()

	req, err = svc.repo.UpdateCorrection(ctx, req, exec...)
	if err != nil {
		return CorrectionRequest{}, err
	}

	var changed *Record
	if rev.Decision == CorrectionApproved {
		// The record is forced to present regardless of the correction's
		// substance; carried over as-is, pending product confirmation.
		rec, err := svc.repo.UpdateRecordStatus(ctx, req.RecordID, StatusPresent, exec...)
		if err != nil {
			return CorrectionRequest{}, err
		}
		changed = &rec
	}

	if tx != nil {
		if err = tx.Commit(); err != nil {
			return CorrectionRequest{}, errors.Wrap(err, "committing review transaction")
		}
	}

	if changed != nil {
		svc.invalidatePercentage(ctx, changed.StudentID, changed.CourseID)
		svc.alerts.NotifyAttendanceChanged(*changed)
	}
	return req, nil
}

// PendingForFaculty lists pending requests on records the faculty marked.
func (svc *service) PendingForFaculty(ctx context.Context, actor core.Actor, facultyID string) ([]CorrectionRequest, error) {
	facultyID = core.CleanString(facultyID)
	if !(actor.IsTeacher() || actor.IsAdmin()) {
		return nil, core.NewAuthorizationError(errNotFaculty)
	}
	if !actor.IsAdmin() && actor.ID != facultyID {
		return nil, core.NewAuthorizationError(errNotOwnQueue)
	}
	return svc.repo.PendingCorrectionsByMarker(ctx, facultyID)
}

func (svc *service) StudentCorrections(ctx context.Context, actor core.Actor, studentID string) ([]CorrectionRequest, error) {
	studentID = core.CleanString(studentID)
	if err := svc.checkStudentAccess(actor, studentID); err != nil {
		return nil, err
	}
	return svc.repo.CorrectionsByStudent(ctx, studentID)
}

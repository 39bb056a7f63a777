package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

type attendanceApi struct {
	svc  attendance.Service
	conf *core.Config
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc attendance.Service, conf *core.Config) {
	api := attendanceApi{svc: svc, conf: conf}

	ag := g.Group("/attendance", jwt)

	// marking; faculty only
	ag.POST("/records", api.mark, facultyMiddleware())
	ag.POST("/records/bulk", api.markBulk, facultyMiddleware())

	// student views; core enforces own-data access for students
	sg := ag.Group("/students/:id")
	sg.GET("/records", api.studentRecords)
	sg.GET("/percentage", api.percentage)
	sg.GET("/low-attendance", api.lowAttendance)
	sg.GET("/corrections", api.studentCorrections)

	// correction workflow
	ag.POST("/corrections", api.submitCorrection)
	ag.PUT("/corrections/:id/review", api.reviewCorrection, facultyMiddleware())
	ag.GET("/corrections/pending", api.pendingCorrections, facultyMiddleware())

	// reports
	ag.POST("/reports/generate", api.generateReports, adminMiddleware())
	ag.GET("/courses/:id/reports", api.courseReports, facultyMiddleware())
}

// Requests & Responses

type (
	markRequest struct {
		StudentID string `json:"student_id"`
		CourseID  string `json:"course_id"`
		Date      string `json:"date"`
		Status    string `json:"status"`
	}

	markBulkRequest struct {
		CourseID   string   `json:"course_id"`
		Date       string   `json:"date"`
		StudentIDs []string `json:"student_ids"`
		Statuses   []string `json:"statuses"`
	}

	percentageResponse struct {
		StudentID  string  `json:"student_id"`
		CourseID   string  `json:"course_id"`
		Percentage float64 `json:"attendance_percentage"`
	}

	lowAttendanceResponse struct {
		percentageResponse
		Threshold     float64 `json:"threshold"`
		LowAttendance bool    `json:"low_attendance"`
	}

	generateReportsRequest struct {
		Month int `json:"month"`
		Year  int `json:"year"`
	}
)

// Handlers

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data markRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to markRequest")
	}

	date, err := parseDate("date", data.Date)
	if err != nil {
		return err
	}
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	rec, err := api.svc.Mark(ctx.Request().Context(), actor, attendance.NewRecord{
		StudentID: data.StudentID,
		CourseID:  data.CourseID,
		Date:      date,
		Status:    attendance.Status(data.Status),
	})
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) markBulk(ctx echo.Context) error {
	var data markBulkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to markBulkRequest")
	}

	date, err := parseDate("date", data.Date)
	if err != nil {
		return err
	}
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	statuses := make([]attendance.Status, 0, len(data.Statuses))
	for _, s := range data.Statuses {
		statuses = append(statuses, attendance.Status(s))
	}

	res, err := api.svc.MarkBulk(ctx.Request().Context(), actor, attendance.BulkRecords{
		CourseID:   data.CourseID,
		Date:       date,
		StudentIDs: data.StudentIDs,
		Statuses:   statuses,
	})
	if err != nil {
		return errors.Wrap(err, "marking attendance in bulk")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *attendanceApi) studentRecords(ctx echo.Context) error {
	filter, err := bindQueryFilter(ctx)
	if err != nil {
		return err
	}
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	recs, err := api.svc.StudentRecords(ctx.Request().Context(), actor, ctx.Param("id"), filter)
	if err != nil {
		return errors.Wrap(err, "querying student records")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) percentage(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	studentID := ctx.Param("id")
	courseID := ctx.QueryParam("course_id")
	pct, err := api.svc.Percentage(ctx.Request().Context(), actor, studentID, courseID)
	if err != nil {
		return errors.Wrap(err, "computing percentage")
	}
	return ctx.JSON(http.StatusOK, percentageResponse{
		StudentID:  studentID,
		CourseID:   courseID,
		Percentage: pct,
	})
}

func (api *attendanceApi) lowAttendance(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	studentID := ctx.Param("id")
	courseID := ctx.QueryParam("course_id")

	var threshold []float64
	if raw := ctx.QueryParam("threshold"); raw != "" {
		th, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return core.NewValidationError(
				err,
				core.FieldError{Field: "threshold", Error: "must be a number"},
			)
		}
		threshold = append(threshold, th)
	}

	low, err := api.svc.HasLowAttendance(ctx.Request().Context(), actor, studentID, courseID, threshold...)
	if err != nil {
		return errors.Wrap(err, "checking low attendance")
	}
	pct, err := api.svc.Percentage(ctx.Request().Context(), actor, studentID, courseID)
	if err != nil {
		return errors.Wrap(err, "computing percentage")
	}

	th := api.conf.LowAttendanceThreshold
	if len(threshold) > 0 {
		th = threshold[0]
	}
	return ctx.JSON(http.StatusOK, lowAttendanceResponse{
		percentageResponse: percentageResponse{
			StudentID:  studentID,
			CourseID:   courseID,
			Percentage: pct,
		},
		Threshold:     th,
		LowAttendance: low,
	})
}

func (api *attendanceApi) submitCorrection(ctx echo.Context) error {
	var data attendance.NewCorrection
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCorrection")
	}
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	req, err := api.svc.SubmitCorrection(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "submitting correction")
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *attendanceApi) reviewCorrection(ctx echo.Context) error {
	var data attendance.Review
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Review")
	}
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	req, err := api.svc.ReviewCorrection(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "reviewing correction")
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *attendanceApi) pendingCorrections(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	facultyID := ctx.QueryParam("faculty_id")
	if facultyID == "" {
		facultyID = actor.ID
	}
	reqs, err := api.svc.PendingForFaculty(ctx.Request().Context(), actor, facultyID)
	if err != nil {
		return errors.Wrap(err, "querying pending corrections")
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *attendanceApi) studentCorrections(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	reqs, err := api.svc.StudentCorrections(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying student corrections")
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *attendanceApi) generateReports(ctx echo.Context) error {
	var data generateReportsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to generateReportsRequest")
	}
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	reps, err := api.svc.GenerateMonthlyReports(ctx.Request().Context(), actor, data.Month, data.Year)
	if err != nil {
		return errors.Wrap(err, "generating monthly reports")
	}
	return ctx.JSON(http.StatusOK, reps)
}

func (api *attendanceApi) courseReports(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	month, err := strconv.Atoi(ctx.QueryParam("month"))
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "month", Error: "must be an integer"})
	}
	year, err := strconv.Atoi(ctx.QueryParam("year"))
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "year", Error: "must be an integer"})
	}

	reps, err := api.svc.CourseReports(ctx.Request().Context(), actor, ctx.Param("id"), month, year)
	if err != nil {
		return errors.Wrap(err, "querying course reports")
	}
	return ctx.JSON(http.StatusOK, reps)
}

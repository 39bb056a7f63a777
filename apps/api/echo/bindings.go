package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

const dateLayout = "2006-01-02"

// parseDate parses a "YYYY-MM-DD" value. An empty value yields the zero time
// so optional params can be skipped.
func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, core.NewValidationError(
			err,
			core.FieldError{Field: field, Error: "must be a date in YYYY-MM-DD format"},
		)
	}
	return attendance.DateOnly(t), nil
}

// bindQueryFilter reads record query params off the request.
func bindQueryFilter(ctx echo.Context) (*attendance.QueryFilter, error) {
	filter := &attendance.QueryFilter{
		CourseID: ctx.QueryParam("course_id"),
	}

	var err error
	if filter.DateFrom, err = parseDate("date_from", ctx.QueryParam("date_from")); err != nil {
		return nil, err
	}
	if filter.DateTo, err = parseDate("date_to", ctx.QueryParam("date_to")); err != nil {
		return nil, err
	}
	filter.Clean()
	return filter, nil
}

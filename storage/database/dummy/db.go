package dummydb

import (
	"sync"

	"github.com/trezcool/mahudhurio/core/attendance"
)

type (
	DB struct {
		records     *recordTable
		corrections *correctionTable
		reports     *reportTable
		enrollments *enrollmentTable
	}

	recordTable struct {
		sync.RWMutex
		table map[string]*attendance.Record
	}

	correctionTable struct {
		sync.RWMutex
		table map[string]*attendance.CorrectionRequest
	}

	reportTable struct {
		sync.RWMutex
		table map[string]*attendance.MonthlyReport
	}

	enrollmentTable struct {
		sync.RWMutex
		table []attendance.Enrollment
	}
)

func Open() (*DB, error) {
	db := &DB{
		records:     &recordTable{table: make(map[string]*attendance.Record)},
		corrections: &correctionTable{table: make(map[string]*attendance.CorrectionRequest)},
		reports:     &reportTable{table: make(map[string]*attendance.MonthlyReport)},
		enrollments: &enrollmentTable{},
	}
	return db, nil
}

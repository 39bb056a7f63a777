package testutil

import (
	"time"

	"github.com/trezcool/mahudhurio/core"
)

// NewConfig returns a deterministic config for tests; no env lookups.
func NewConfig() *core.Config {
	return &core.Config{
		Debug:                  true,
		TestMode:               true,
		Env:                    "TEST",
		AppName:                "Mahudhurio",
		SecretKey:              "secret",
		DefaultFromEmail:       "noreply@test.cd",
		AlertsEmail:            "attendance-office@test.cd",
		LowAttendanceThreshold: 75.0,
		Server: core.ServerConfig{
			Addr:               ":0",
			ShutdownTimeout:    5 * time.Second,
			JWTExpirationDelta: time.Hour,
		},
	}
}

// Logger is a no-op core.Logger for tests.
type Logger struct{}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger { return &Logger{} }

func (l Logger) Enable(bool)                  {}
func (l Logger) Debug(string, ...interface{}) {}
func (l Logger) Info(string, ...interface{})  {}
func (l Logger) Warn(string, ...interface{})  {}
func (l Logger) Error(string, ...interface{}) {}
func (l Logger) Fatal(string, ...interface{}) {}

// Common principals.

func AdminActor() core.Actor {
	return core.Actor{ID: "admin-1", Name: "Admin", Roles: []string{core.RoleAdminPrincipal}}
}

func TeacherActor(id string) core.Actor {
	return core.Actor{ID: id, Name: "Teacher " + id, Roles: []string{core.RoleTeacher + "math"}}
}

func StudentActor(id string) core.Actor {
	return core.Actor{ID: id, Name: "Student " + id, Roles: []string{core.RoleStudent + "s1"}}
}

package pgdb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatech/enthusiasm/core"
	"github.com/seatech/enthusiasm/core/admin"
	"github.com/seatech/enthusiasm/core/student"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(errors.Wrap(&pq.Error{Code: "23505"}, "inserting")))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestValidID(t *testing.T) {
	assert.True(t, validID("0b4e8a5e-7d1c-4f57-9d5c-3f6f1f0b2a11"))
	assert.False(t, validID("42"))
	assert.False(t, validID(""))
}

// openTestDB migrates the database at ENTHUSIASM_TEST_POSTGRES_HOST; the test is skipped without it.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	host := os.Getenv("ENTHUSIASM_TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("ENTHUSIASM_TEST_POSTGRES_HOST not set")
	}
	conf := core.NewTestConfig(t.TempDir())
	conf.Database = core.DatabaseConfig{
		Engine:     core.EnginePostgres,
		Name:       "enthusiasm_test",
		Host:       host,
		Port:       "5432",
		User:       os.Getenv("ENTHUSIASM_TEST_POSTGRES_USER"),
		Password:   os.Getenv("ENTHUSIASM_TEST_POSTGRES_PASSWORD"),
		DisableTLS: true,
		Timeout:    5 * time.Second,
	}

	ctx := context.Background()
	require.NoError(t, CreateIfNotExist(ctx, conf))
	db, err := Open(ctx, conf)
	require.NoError(t, err)
	require.NoError(t, Migrate(db.DB.DB, "reset"))
	require.NoError(t, Migrate(db.DB.DB, "up"))
	t.Cleanup(func() { _ = db.Close(ctx) })
	return db
}

func TestRepositories_integration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	students := NewStudentRepository(db)
	stu, err := students.CreateStudent(ctx, student.Student{
		FullName: "Alice", Email: "alice@example.com", PasswordHash: []byte("x"),
		Courses: []string{"AI"}, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	_, err = students.CreateStudent(ctx, student.Student{Email: "alice@example.com", PasswordHash: []byte("x"), CreatedAt: now, UpdatedAt: now})
	assert.Equal(t, student.ErrEmailExists, err)

	win := student.NewAttendanceWindow(now)
	require.NoError(t, students.AddAttendance(ctx, stu.ID, now, win))
	assert.Equal(t, student.ErrNotFound, students.AddAttendance(ctx, stu.ID, now, win))

	sub := student.Submission{ID: "6f1c9a0e-2b8d-4a57-8c1e-9d3b2a1f0e44", Kind: student.KindAssignment, Course: "AI", FilePath: "/uploads/a", Status: student.StatusPending, SubmittedAt: now}
	require.NoError(t, students.AddSubmission(ctx, stu.ID, sub))
	require.NoError(t, students.SetSubmissionStatus(ctx, stu.ID, sub.ID, student.StatusPending, student.StatusGraded, now))

	got, err := students.GetStudent(ctx, student.GetFilter{Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Attendance)
	assert.Len(t, got.AttendanceDates, 1)
	require.Len(t, got.Submissions, 1)
	assert.Equal(t, student.StatusGraded, got.Submissions[0].Status)

	admins := NewAdminRepository(db)
	adm, err := admins.CreateAdmin(ctx, admin.Admin{Username: "admin", PasswordHash: []byte("x"), CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	require.NoError(t, admins.AddAnnouncement(ctx, adm.ID, admin.Announcement{Title: "t", Content: "c", PostedAt: now}))
	all, err := admins.QueryAllAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].Announcements, 1)

	require.NoError(t, students.DeleteStudent(ctx, stu.ID))
	assert.Equal(t, student.ErrNotFound, students.DeleteStudent(ctx, stu.ID))
}

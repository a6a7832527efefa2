package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatech/enthusiasm/core/student"
)

func TestStudentRepository(t *testing.T) {
	ctx := context.Background()
	db := Open()
	repo := NewStudentRepository(db)

	stu, err := repo.CreateStudent(ctx, student.Student{Email: "alice@example.com", Courses: []string{"AI"}})
	require.NoError(t, err)
	assert.Equal(t, "1", stu.ID)

	_, err = repo.CreateStudent(ctx, student.Student{Email: "alice@example.com"})
	assert.Equal(t, student.ErrEmailExists, err)

	// returned records do not alias stored ones
	stu.Courses[0] = "changed"
	got, err := repo.GetStudent(ctx, student.GetFilter{Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AI"}, got.Courses)

	t.Run("attendance", func(t *testing.T) {
		now := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)
		win := student.NewAttendanceWindow(now)
		require.NoError(t, repo.AddAttendance(ctx, stu.ID, now, win))
		assert.Equal(t, student.ErrNotFound, repo.AddAttendance(ctx, stu.ID, now.Add(time.Hour), win))
		assert.Equal(t, student.ErrNotFound, repo.AddAttendance(ctx, "42", now, win))

		got, err := repo.GetStudent(ctx, student.GetFilter{ID: stu.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, got.Attendance)
		assert.Equal(t, []time.Time{now}, got.AttendanceDates)
	})

	t.Run("submissions", func(t *testing.T) {
		sub := student.Submission{ID: "s1", Kind: student.KindProject, Status: student.StatusPending}
		require.NoError(t, repo.AddSubmission(ctx, stu.ID, sub))

		reviewedAt := time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)
		require.NoError(t, repo.SetSubmissionStatus(ctx, stu.ID, "s1", student.StatusPending, student.StatusGraded, reviewedAt))
		assert.Equal(t, student.ErrNotFound, repo.SetSubmissionStatus(ctx, stu.ID, "s1", student.StatusPending, student.StatusRejected, reviewedAt.Add(time.Hour)))

		got, err := repo.GetStudent(ctx, student.GetFilter{ID: stu.ID})
		require.NoError(t, err)
		assert.Equal(t, reviewedAt, got.UpdatedAt)

		removedAt := reviewedAt.Add(2 * time.Hour)
		require.NoError(t, repo.RemoveSubmission(ctx, stu.ID, "s1", removedAt))
		assert.Equal(t, student.ErrNotFound, repo.RemoveSubmission(ctx, stu.ID, "s1", removedAt.Add(time.Hour)))

		got, err = repo.GetStudent(ctx, student.GetFilter{ID: stu.ID})
		require.NoError(t, err)
		assert.Equal(t, removedAt, got.UpdatedAt)
	})

	t.Run("reset password", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, repo.SetResetToken(ctx, stu.ID, "digest", now.Add(time.Hour)))

		got, err := repo.GetStudent(ctx, student.GetFilter{ResetTokenHash: "digest"})
		require.NoError(t, err)
		assert.Equal(t, stu.ID, got.ID)

		assert.Equal(t, student.ErrNotFound, repo.ResetPassword(ctx, "digest", now.Add(2*time.Hour), []byte("hash")))
		require.NoError(t, repo.ResetPassword(ctx, "digest", now, []byte("hash")))
		assert.Equal(t, student.ErrNotFound, repo.ResetPassword(ctx, "digest", now, []byte("hash")))

		got, err = repo.GetStudent(ctx, student.GetFilter{ID: stu.ID})
		require.NoError(t, err)
		assert.Equal(t, []byte("hash"), got.PasswordHash)
		assert.Empty(t, got.ResetTokenHash)
		assert.True(t, got.ResetTokenExpiry.IsZero())
	})

	require.NoError(t, repo.DeleteStudent(ctx, stu.ID))
	assert.Equal(t, student.ErrNotFound, repo.DeleteStudent(ctx, stu.ID))

	db.Flush()
	all, err := repo.QueryAllStudents(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

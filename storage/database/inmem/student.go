package inmemdb

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/seatech/enthusiasm/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

// copyStudent returns a copy of stu that shares no slices with it.
func copyStudent(stu student.Student) student.Student {
	stu.PasswordHash = append([]byte(nil), stu.PasswordHash...)
	stu.Courses = append([]string{}, stu.Courses...)
	stu.AttendanceDates = append([]time.Time{}, stu.AttendanceDates...)
	stu.Submissions = append([]student.Submission{}, stu.Submissions...)
	return stu
}

func (repo *studentRepository) find(filter student.GetFilter) (*student.Student, bool) {
	switch {
	case filter.ID != "":
		stu, ok := repo.db.table[filter.ID]
		return stu, ok
	case filter.Email != "":
		for _, stu := range repo.db.table {
			if stu.Email == filter.Email {
				return stu, true
			}
		}
	case filter.ResetTokenHash != "":
		for _, stu := range repo.db.table {
			if stu.ResetTokenHash == filter.ResetTokenHash {
				return stu, true
			}
		}
	}
	return nil, false
}

func (repo *studentRepository) CreateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, exists := repo.find(student.GetFilter{Email: stu.Email}); exists {
		return student.Student{}, student.ErrEmailExists
	}
	repo.db.pkCount++
	stu.ID = strconv.Itoa(repo.db.pkCount)
	stu = copyStudent(stu)
	repo.db.table[stu.ID] = &stu
	return copyStudent(stu), nil
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]student.Student, 0, len(repo.db.table))
	for _, stu := range repo.db.table {
		students = append(students, copyStudent(*stu))
	}
	sort.Slice(students, func(i, j int) bool { return students[i].CreatedAt.After(students[j].CreatedAt) })
	return students, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, filter student.GetFilter) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if stu, ok := repo.find(filter); ok {
		return copyStudent(*stu), nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) AddAttendance(ctx context.Context, id string, at time.Time, win student.AttendanceWindow) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	stu, ok := repo.db.table[id]
	if !ok || win.Check(stu.AttendanceDates) != nil {
		return student.ErrNotFound
	}
	stu.Attendance++
	stu.AttendanceDates = append(stu.AttendanceDates, at)
	stu.UpdatedAt = at
	return nil
}

func (repo *studentRepository) AddSubmission(ctx context.Context, id string, sub student.Submission) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	stu, ok := repo.db.table[id]
	if !ok {
		return student.ErrNotFound
	}
	stu.Submissions = append(stu.Submissions, sub)
	stu.UpdatedAt = sub.SubmittedAt
	return nil
}

func (repo *studentRepository) SetSubmissionStatus(ctx context.Context, id, subID string, from, to student.Status, at time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	stu, ok := repo.db.table[id]
	if !ok {
		return student.ErrNotFound
	}
	for i := range stu.Submissions {
		if sub := &stu.Submissions[i]; sub.ID == subID && sub.Status == from {
			sub.Status = to
			stu.UpdatedAt = at
			return nil
		}
	}
	return student.ErrNotFound
}

func (repo *studentRepository) RemoveSubmission(ctx context.Context, id, subID string, at time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	stu, ok := repo.db.table[id]
	if !ok {
		return student.ErrNotFound
	}
	for i, sub := range stu.Submissions {
		if sub.ID == subID {
			stu.Submissions = append(stu.Submissions[:i:i], stu.Submissions[i+1:]...)
			stu.UpdatedAt = at
			return nil
		}
	}
	return student.ErrNotFound
}

func (repo *studentRepository) SetResetToken(ctx context.Context, id, digest string, expiry time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	stu, ok := repo.db.table[id]
	if !ok {
		return student.ErrNotFound
	}
	stu.ResetTokenHash = digest
	stu.ResetTokenExpiry = expiry
	return nil
}

func (repo *studentRepository) ResetPassword(ctx context.Context, digest string, now time.Time, pwdHash []byte) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	stu, ok := repo.find(student.GetFilter{ResetTokenHash: digest})
	if !ok || !now.Before(stu.ResetTokenExpiry) {
		return student.ErrNotFound
	}
	stu.PasswordHash = append([]byte(nil), pwdHash...)
	stu.ResetTokenHash = ""
	stu.ResetTokenExpiry = time.Time{}
	stu.UpdatedAt = now
	return nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

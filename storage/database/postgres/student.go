package pgdb

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/seatech/enthusiasm/core/student"
)

type (
	studentRow struct {
		ID               string         `db:"id"`
		FullName         string         `db:"full_name"`
		Email            string         `db:"email"`
		WhatsApp         string         `db:"whatsapp"`
		PasswordHash     []byte         `db:"password_hash"`
		Courses          pq.StringArray `db:"courses"`
		HasDevice        bool           `db:"has_device"`
		Attendance       int            `db:"attendance"`
		ResetTokenHash   sql.NullString `db:"reset_token_hash"`
		ResetTokenExpiry sql.NullTime   `db:"reset_token_expiry"`
		CreatedAt        time.Time      `db:"created_at"`
		UpdatedAt        time.Time      `db:"updated_at"`
	}

	attendanceRow struct {
		StudentID  string    `db:"student_id"`
		AttendedAt time.Time `db:"attended_at"`
	}

	submissionRow struct {
		ID          string    `db:"id"`
		StudentID   string    `db:"student_id"`
		Kind        string    `db:"kind"`
		Course      string    `db:"course"`
		FilePath    string    `db:"file_path"`
		Status      string    `db:"status"`
		SubmittedAt time.Time `db:"submitted_at"`
	}
)

const studentColumns = `id, full_name, email, whatsapp, password_hash, courses, has_device, attendance,
	reset_token_hash, reset_token_expiry, created_at, updated_at`

func (row studentRow) toStudent(dates []time.Time, subs []student.Submission) student.Student {
	stu := student.Student{
		ID:              row.ID,
		FullName:        row.FullName,
		Email:           row.Email,
		WhatsApp:        row.WhatsApp,
		PasswordHash:    row.PasswordHash,
		Courses:         []string(row.Courses),
		HasDevice:       row.HasDevice,
		Attendance:      row.Attendance,
		AttendanceDates: dates,
		Submissions:     subs,
		ResetTokenHash:  row.ResetTokenHash.String,
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
	if stu.Courses == nil {
		stu.Courses = []string{}
	}
	if stu.AttendanceDates == nil {
		stu.AttendanceDates = []time.Time{}
	}
	if stu.Submissions == nil {
		stu.Submissions = []student.Submission{}
	}
	if row.ResetTokenExpiry.Valid {
		stu.ResetTokenExpiry = row.ResetTokenExpiry.Time.UTC()
	}
	return stu
}

func (row submissionRow) toSubmission() student.Submission {
	return student.Submission{
		ID:          row.ID,
		Kind:        student.Kind(row.Kind),
		Course:      row.Course,
		FilePath:    row.FilePath,
		Status:      student.Status(row.Status),
		SubmittedAt: row.SubmittedAt.UTC(),
	}
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.DB}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	stu.ID = uuid.NewString()
	row := studentRow{
		ID:           stu.ID,
		FullName:     stu.FullName,
		Email:        stu.Email,
		WhatsApp:     stu.WhatsApp,
		PasswordHash: stu.PasswordHash,
		Courses:      pq.StringArray(stu.Courses),
		HasDevice:    stu.HasDevice,
		CreatedAt:    stu.CreatedAt,
		UpdatedAt:    stu.UpdatedAt,
	}
	if row.Courses == nil {
		row.Courses = pq.StringArray{}
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO students (id, full_name, email, whatsapp, password_hash, courses, has_device, attendance, created_at, updated_at)
		VALUES (:id, :full_name, :email, :whatsapp, :password_hash, :courses, :has_device, 0, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return student.Student{}, student.ErrEmailExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	stu.Attendance = 0
	return stu, nil
}

// load fetches the attendances and submissions of the given students, keyed by student id.
func (repo *studentRepository) load(ctx context.Context, ids []string) (map[string][]time.Time, map[string][]student.Submission, error) {
	dates := make(map[string][]time.Time, len(ids))
	subs := make(map[string][]student.Submission, len(ids))
	if len(ids) == 0 {
		return dates, subs, nil
	}

	var attRows []attendanceRow
	err := repo.db.SelectContext(ctx, &attRows,
		"SELECT student_id, attended_at FROM attendances WHERE student_id = ANY($1) ORDER BY attended_at",
		pq.Array(ids),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying attendances")
	}
	for _, r := range attRows {
		dates[r.StudentID] = append(dates[r.StudentID], r.AttendedAt.UTC())
	}

	var subRows []submissionRow
	err = repo.db.SelectContext(ctx, &subRows,
		`SELECT id, student_id, kind, course, file_path, status, submitted_at
		FROM submissions WHERE student_id = ANY($1) ORDER BY submitted_at`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying submissions")
	}
	for _, r := range subRows {
		subs[r.StudentID] = append(subs[r.StudentID], r.toSubmission())
	}
	return dates, subs, nil
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT "+studentColumns+" FROM students ORDER BY created_at DESC"); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	dates, subs, err := repo.load(ctx, ids)
	if err != nil {
		return nil, err
	}

	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.toStudent(dates[r.ID], subs[r.ID]))
	}
	return students, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, filter student.GetFilter) (student.Student, error) {
	var (
		where string
		arg   string
	)
	switch {
	case filter.ID != "":
		if !validID(filter.ID) {
			return student.Student{}, student.ErrNotFound
		}
		where, arg = "id = $1", filter.ID
	case filter.Email != "":
		where, arg = "email = $1", filter.Email
	case filter.ResetTokenHash != "":
		where, arg = "reset_token_hash = $1", filter.ResetTokenHash
	default:
		return student.Student{}, student.ErrNotFound
	}

	var row studentRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+studentColumns+" FROM students WHERE "+where, arg); err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "fetching student")
	}
	dates, subs, err := repo.load(ctx, []string{row.ID})
	if err != nil {
		return student.Student{}, err
	}
	return row.toStudent(dates[row.ID], subs[row.ID]), nil
}

func (repo *studentRepository) AddAttendance(ctx context.Context, id string, at time.Time, win student.AttendanceWindow) (err error) {
	if !validID(id) {
		return student.ErrNotFound
	}
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// lock the student row: concurrent marks of the same student are serialized
	var locked string
	if err = tx.GetContext(ctx, &locked, "SELECT id FROM students WHERE id = $1 FOR UPDATE", id); err != nil {
		if err == sql.ErrNoRows {
			return student.ErrNotFound
		}
		return errors.Wrap(err, "locking student")
	}

	var counts struct {
		Today int `db:"today"`
		Week  int `db:"week"`
	}
	err = tx.GetContext(ctx, &counts, `
		SELECT COUNT(*) FILTER (WHERE attended_at >= $2) AS today,
		       COUNT(*) FILTER (WHERE attended_at >= $3) AS week
		FROM attendances WHERE student_id = $1`,
		id, win.DayStart, win.WeekStart,
	)
	if err != nil {
		return errors.Wrap(err, "counting attendances")
	}
	if counts.Today > 0 || counts.Week >= win.WeeklyLimit {
		return student.ErrNotFound
	}

	if _, err = tx.ExecContext(ctx, "INSERT INTO attendances (student_id, attended_at) VALUES ($1, $2)", id, at); err != nil {
		return errors.Wrap(err, "inserting attendance")
	}
	if _, err = tx.ExecContext(ctx, "UPDATE students SET attendance = attendance + 1, updated_at = $2 WHERE id = $1", id, at); err != nil {
		return errors.Wrap(err, "updating attendance")
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing attendance")
	}
	return nil
}

func (repo *studentRepository) AddSubmission(ctx context.Context, id string, sub student.Submission) error {
	if !validID(id) {
		return student.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `
		INSERT INTO submissions (id, student_id, kind, course, file_path, status, submitted_at)
		SELECT $1::uuid, s.id, $3::text, $4::text, $5::text, $6::text, $7::timestamptz FROM students s WHERE s.id = $2`,
		sub.ID, id, string(sub.Kind), sub.Course, sub.FilePath, string(sub.Status), sub.SubmittedAt,
	)
	if err != nil {
		return errors.Wrap(err, "inserting submission")
	}
	return checkAffected(res, student.ErrNotFound)
}

func (repo *studentRepository) SetSubmissionStatus(ctx context.Context, id, subID string, from, to student.Status, at time.Time) error {
	if !validID(id) || !validID(subID) {
		return student.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `
		WITH sub AS (
			UPDATE submissions SET status = $1 WHERE id = $2 AND student_id = $3 AND status = $4 RETURNING student_id
		)
		UPDATE students SET updated_at = $5 WHERE id IN (SELECT student_id FROM sub)`,
		string(to), subID, id, string(from), at,
	)
	if err != nil {
		return errors.Wrap(err, "updating submission")
	}
	return checkAffected(res, student.ErrNotFound)
}

func (repo *studentRepository) RemoveSubmission(ctx context.Context, id, subID string, at time.Time) error {
	if !validID(id) || !validID(subID) {
		return student.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `
		WITH sub AS (
			DELETE FROM submissions WHERE id = $1 AND student_id = $2 RETURNING student_id
		)
		UPDATE students SET updated_at = $3 WHERE id IN (SELECT student_id FROM sub)`,
		subID, id, at,
	)
	if err != nil {
		return errors.Wrap(err, "deleting submission")
	}
	return checkAffected(res, student.ErrNotFound)
}

func (repo *studentRepository) SetResetToken(ctx context.Context, id, digest string, expiry time.Time) error {
	if !validID(id) {
		return student.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx,
		"UPDATE students SET reset_token_hash = $1, reset_token_expiry = $2 WHERE id = $3",
		digest, expiry, id,
	)
	if err != nil {
		return errors.Wrap(err, "setting reset token")
	}
	return checkAffected(res, student.ErrNotFound)
}

func (repo *studentRepository) ResetPassword(ctx context.Context, digest string, now time.Time, pwdHash []byte) error {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE students
		SET password_hash = $1, reset_token_hash = NULL, reset_token_expiry = NULL, updated_at = $2
		WHERE reset_token_hash = $3 AND reset_token_expiry > $2`,
		pwdHash, now, digest,
	)
	if err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return checkAffected(res, student.ErrNotFound)
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	if !validID(id) {
		return student.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return checkAffected(res, student.ErrNotFound)
}

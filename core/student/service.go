package student

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/seatech/enthusiasm/core"
)

var (
	// errors
	ErrNotFound            = errors.New("student not found")
	ErrEmailExists         = errors.New("a student with this email already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrSubmissionReviewed  = errors.New("submission has already been reviewed")
	ErrAlreadyMarkedToday  = errors.New("attendance already marked today")
	ErrWeeklyLimitExceeded = errors.New("weekly attendance limit reached")
	ErrResetTokenInvalid   = errors.New("password reset token is invalid or has expired")
	ErrCourseNotEnrolled   = errors.New("you are not enrolled in this course")
)

type (
	// Repository persists students. Every mutation is a single atomic write on one record;
	// writes whose preconditions do not hold return ErrNotFound.
	Repository interface {
		CreateStudent(ctx context.Context, stu Student) (Student, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
		GetStudent(ctx context.Context, filter GetFilter) (Student, error)
		// AddAttendance records an attendance at `at` unless one already exists since win.DayStart
		// or win.WeeklyLimit exist since win.WeekStart.
		AddAttendance(ctx context.Context, id string, at time.Time, win AttendanceWindow) error
		AddSubmission(ctx context.Context, id string, sub Submission) error
		// SetSubmissionStatus moves a submission from status `from` to status `to`.
		SetSubmissionStatus(ctx context.Context, id, subID string, from, to Status, at time.Time) error
		RemoveSubmission(ctx context.Context, id, subID string, at time.Time) error
		SetResetToken(ctx context.Context, id, digest string, expiry time.Time) error
		// ResetPassword replaces the password of the student holding an unexpired token digest
		// and clears the token.
		ResetPassword(ctx context.Context, digest string, now time.Time, pwdHash []byte) error
		DeleteStudent(ctx context.Context, id string) error
	}

	Service struct {
		repo    Repository
		files   core.FileStorage
		mailSvc core.EmailService
		chatSvc core.ChatService
		logger  core.Logger
		conf    *core.Config
	}
)

func NewService(
	repo Repository,
	files core.FileStorage,
	mailSvc core.EmailService,
	chatSvc core.ChatService,
	logger core.Logger,
	conf *core.Config,
) *Service {
	return &Service{
		repo:    repo,
		files:   files,
		mailSvc: mailSvc,
		chatSvc: chatSvc,
		logger:  logger,
		conf:    conf,
	}
}

// Register creates a new Student from a validated NewStudent and sends the welcome notifications.
func (svc *Service) Register(ctx context.Context, ns NewStudent) (Student, error) {
	now := NowFunc().UTC()
	stu := Student{
		FullName:        ns.FullName,
		Email:           ns.Email,
		WhatsApp:        core.NormalizePhone(ns.WhatsApp, svc.conf.Twilio.DefaultCountryCode),
		Courses:         ns.Courses,
		HasDevice:       ns.OwnsDevice(),
		AttendanceDates: []time.Time{},
		Submissions:     []Submission{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := stu.SetPassword(ns.Password); err != nil {
		return Student{}, errors.Wrap(err, "hashing password")
	}

	stu, err := svc.repo.CreateStudent(ctx, stu)
	if err != nil {
		return Student{}, err
	}
	svc.sendWelcome(stu)
	return stu, nil
}

func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (Student, error) {
	stu, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Student{}, ErrInvalidCredentials
		}
		return Student{}, err
	}
	if err := stu.CheckPassword(pwd); err != nil {
		return Student{}, ErrInvalidCredentials
	}
	return stu, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryAllStudents(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Student, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return Student{}, ErrNotFound
	}
	return svc.repo.GetStudent(ctx, GetFilter{Email: email})
}

// MarkAttendance records today's attendance of a student.
func (svc *Service) MarkAttendance(ctx context.Context, id string) error {
	now := NowFunc()
	win := NewAttendanceWindow(now)

	stu, err := svc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := win.Check(stu.AttendanceDates); err != nil {
		return err
	}

	if err := svc.repo.AddAttendance(ctx, id, now.UTC(), win); err != nil {
		if errors.Cause(err) != ErrNotFound {
			return errors.Wrap(err, "adding attendance")
		}
		// a concurrent request got there first
		if stu, err = svc.GetByID(ctx, id); err != nil {
			return err
		}
		if err := win.Check(stu.AttendanceDates); err != nil {
			return err
		}
		return ErrAlreadyMarkedToday
	}
	return nil
}

// Upload stores the content of a new submission and attaches it to the student as Pending.
func (svc *Service) Upload(ctx context.Context, id string, ns NewSubmission, content io.Reader) (Submission, error) {
	stu, err := svc.GetByID(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if len(stu.Courses) > 0 && !stu.IsEnrolled(ns.Course) {
		return Submission{}, core.NewValidationError(
			ErrCourseNotEnrolled,
			core.FieldError{Field: "course", Error: ErrCourseNotEnrolled.Error()},
		)
	}

	now := NowFunc().UTC()
	ref, err := svc.files.Save(ctx, UploadFilename(ns.Filename, now), content)
	if err != nil {
		return Submission{}, errors.Wrap(err, "saving file")
	}

	sub := Submission{
		ID:          uuid.NewString(),
		Kind:        ns.Kind,
		Course:      ns.Course,
		FilePath:    ref,
		Status:      StatusPending,
		SubmittedAt: now,
	}
	if err := svc.repo.AddSubmission(ctx, id, sub); err != nil {
		if dErr := svc.files.Delete(ctx, ref); dErr != nil {
			svc.logger.Error(fmt.Sprintf("removing orphan file %s: %v", ref, dErr), dErr)
		}
		return Submission{}, err
	}
	return sub, nil
}

// Review sets the status of a Pending submission. Setting the current status again succeeds.
func (svc *Service) Review(ctx context.Context, id, subID string, status Status) error {
	if !status.IsReview() {
		return core.NewValidationError(
			errors.New(reviewStatusText),
			core.FieldError{Field: "status", Error: reviewStatusText},
		)
	}

	err := svc.repo.SetSubmissionStatus(ctx, id, subID, StatusPending, status, NowFunc().UTC())
	if err == nil {
		return nil
	}
	if errors.Cause(err) != ErrNotFound {
		return errors.Wrap(err, "setting submission status")
	}

	stu, err := svc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	sub, ok := stu.Submission(subID)
	if !ok {
		return ErrSubmissionNotFound
	}
	if sub.Status == status {
		return nil
	}
	return ErrSubmissionReviewed
}

// Latest returns the most recent submission of a kind.
func (svc *Service) Latest(ctx context.Context, id string, kind Kind) (Submission, error) {
	stu, err := svc.GetByID(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	sub, ok := stu.Latest(kind)
	if !ok {
		return Submission{}, ErrSubmissionNotFound
	}
	return sub, nil
}

// DeleteSubmission removes the stored file of a submission, then the submission itself.
func (svc *Service) DeleteSubmission(ctx context.Context, id, subID string) error {
	stu, err := svc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	sub, ok := stu.Submission(subID)
	if !ok {
		return ErrSubmissionNotFound
	}

	if err := svc.files.Delete(ctx, sub.FilePath); err != nil && errors.Cause(err) != core.ErrFileNotFound {
		return errors.Wrap(err, "deleting file")
	}
	if err := svc.repo.RemoveSubmission(ctx, id, subID, NowFunc().UTC()); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return ErrSubmissionNotFound
		}
		return err
	}
	return nil
}

// Delete removes a student and all the files they uploaded.
func (svc *Service) Delete(ctx context.Context, id string) error {
	stu, err := svc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := svc.repo.DeleteStudent(ctx, id); err != nil {
		return err
	}
	for _, sub := range stu.Submissions {
		if err := svc.files.Delete(ctx, sub.FilePath); err != nil && errors.Cause(err) != core.ErrFileNotFound {
			svc.logger.Error(fmt.Sprintf("deleting file %s: %v", sub.FilePath, err), err)
		}
	}
	return nil
}

// RequestPasswordReset stores a new reset token for the student and mails them the reset link.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	stu, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	token, digest, err := MakeResetToken()
	if err != nil {
		return errors.Wrap(err, "making reset token")
	}
	if err := svc.repo.SetResetToken(ctx, stu.ID, digest, NowFunc().UTC().Add(svc.conf.PasswordResetTimeout)); err != nil {
		return err
	}
	svc.sendPasswordResetMail(stu, token)
	return nil
}

// CheckResetToken reports whether a reset token can still be used.
func (svc *Service) CheckResetToken(ctx context.Context, token string) error {
	token = core.CleanString(token)
	if token == "" {
		return ErrResetTokenInvalid
	}
	stu, err := svc.repo.GetStudent(ctx, GetFilter{ResetTokenHash: HashResetToken(token)})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return ErrResetTokenInvalid
		}
		return err
	}
	if !NowFunc().Before(stu.ResetTokenExpiry) {
		return ErrResetTokenInvalid
	}
	return nil
}

// ResetPassword sets a new password using a reset token; the token can only be used once.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetPassword) error {
	var stu Student
	if err := stu.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	if err := svc.repo.ResetPassword(ctx, HashResetToken(rp.Token), NowFunc().UTC(), stu.PasswordHash); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return ErrResetTokenInvalid
		}
		return err
	}
	return nil
}

func (svc *Service) sendWelcome(stu Student) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: stu.FullName, Address: stu.Email}},
		Subject:      "Welcome to " + svc.conf.AppName,
		TemplateName: "welcome",
		TemplateData: map[string]interface{}{
			"FullName": stu.FullName,
			"Courses":  stu.Courses,
		},
	})
	svc.chatSvc.SendMessages(&core.ChatMessage{
		To: stu.WhatsApp,
		Body: fmt.Sprintf(
			"Hi %s, your registration for %s (%s) is confirmed. Welcome aboard!",
			stu.FullName, svc.conf.AppName, strings.Join(stu.Courses, ", "),
		),
	})
}

func (svc *Service) sendPasswordResetMail(stu Student, token string) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: stu.FullName, Address: stu.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"FullName":  stu.FullName,
			"ResetURL":  svc.conf.FrontendBaseURL + "/reset-password/" + token,
			"ExpiresIn": svc.conf.PasswordResetTimeout.String(),
		},
	})
}

// UploadFilename builds a collision resistant file name: <unix millis>-<random>-<sanitized name>.
func UploadFilename(name string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	clean := strings.Map(func(r rune) rune {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, base)
	clean = strings.Trim(clean, "._")
	if clean == "" {
		clean = "file"
	}
	if len(clean) > 100 {
		clean = clean[len(clean)-100:]
	}
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:12], clean)
}

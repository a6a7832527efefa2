package student

import (
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/seatech/enthusiasm/core"
)

// TotalClasses is the number of classes of a training program.
const TotalClasses = 20

type Kind string

const (
	KindProject    Kind = "project"
	KindAssignment Kind = "assignment"
)

func (k Kind) IsValid() bool { return k == KindProject || k == KindAssignment }

type Status string

// Submission lifecycle: Pending -> Approved | Graded | Rejected
const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusGraded   Status = "Graded"
	StatusRejected Status = "Rejected"
)

// IsReview reports whether s is a status an admin may set.
func (s Status) IsReview() bool {
	return s == StatusApproved || s == StatusGraded || s == StatusRejected
}

type Submission struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Course      string    `json:"course"`
	FilePath    string    `json:"file_path"`
	Status      Status    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"` // UTC
}

type Student struct {
	ID               string       `json:"id"`
	FullName         string       `json:"full_name"`
	Email            string       `json:"email"`
	WhatsApp         string       `json:"whatsapp"`
	PasswordHash     []byte       `json:"-"`
	Courses          []string     `json:"courses"`
	HasDevice        bool         `json:"has_device"`
	Attendance       int          `json:"attendance"`
	AttendanceDates  []time.Time  `json:"attendance_dates"`
	Submissions      []Submission `json:"submissions"`
	ResetTokenHash   string       `json:"-"`
	ResetTokenExpiry time.Time    `json:"-"`
	CreatedAt        time.Time    `json:"created_at"` // UTC
	UpdatedAt        time.Time    `json:"updated_at"` // UTC
}

func (s *Student) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.PasswordHash = hash
	return nil
}

func (s *Student) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(s.PasswordHash, []byte(pwd))
}

func (s Student) MaskedEmail() string { return core.MaskEmail(s.Email) }

func (s Student) MaskedWhatsApp() string { return core.MaskPhone(s.WhatsApp) }

// Progress is the attendance percentage over TotalClasses, capped at 100.
func (s Student) Progress() int {
	p := s.Attendance * 100 / TotalClasses
	if p > 100 {
		return 100
	}
	return p
}

func (s Student) IsEnrolled(course string) bool {
	for _, c := range s.Courses {
		if c == course {
			return true
		}
	}
	return false
}

func (s Student) Submission(id string) (Submission, bool) {
	for _, sub := range s.Submissions {
		if sub.ID == id {
			return sub, true
		}
	}
	return Submission{}, false
}

// SubmissionsOf returns the submissions of the given kind, oldest first.
func (s Student) SubmissionsOf(kind Kind) []Submission {
	subs := make([]Submission, 0, len(s.Submissions))
	for _, sub := range s.Submissions {
		if sub.Kind == kind {
			subs = append(subs, sub)
		}
	}
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].SubmittedAt.Before(subs[j].SubmittedAt) })
	return subs
}

// Latest returns the most recent submission of the given kind.
func (s Student) Latest(kind Kind) (Submission, bool) {
	subs := s.SubmissionsOf(kind)
	if len(subs) == 0 {
		return Submission{}, false
	}
	return subs[len(subs)-1], true
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	FullName        string   `json:"full_name" form:"fullName" validate:"required,notblank"`
	Email           string   `json:"email" form:"email" validate:"required,email"`
	WhatsApp        string   `json:"whatsapp" form:"whatsapp" validate:"required,notblank"`
	Password        string   `json:"password" form:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" form:"passwordConfirm" validate:"omitempty,eqfield=Password"`
	Courses         []string `json:"courses" form:"courses" validate:"courses"`
	HasDevice       string   `json:"has_device" form:"hasDevice"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.FullName = core.CleanString(ns.FullName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.WhatsApp = core.CleanString(ns.WhatsApp)
	courses := make([]string, 0, len(ns.Courses))
	seen := make(map[string]bool, len(ns.Courses))
	for _, c := range ns.Courses {
		c = core.CleanString(c)
		if c != "" && !seen[c] {
			seen[c] = true
			courses = append(courses, c)
		}
	}
	ns.Courses = courses
	return validate.Struct(ns)
}

func (ns NewStudent) OwnsDevice() bool {
	switch core.CleanString(ns.HasDevice, true /* lower */) {
	case "yes", "true", "on", "1":
		return true
	}
	return false
}

// NewSubmission is an uploaded file waiting to be attached to a Student.
type NewSubmission struct {
	Kind     Kind   `json:"kind" validate:"required,submissionkind"`
	Course   string `json:"course" form:"course" validate:"required,notblank"`
	Filename string `json:"filename" validate:"required"`
	Size     int64  `json:"-"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.Course = core.CleanString(ns.Course)
	return validate.Struct(ns)
}

type ResetPassword struct {
	Token           string `json:"token" form:"token" param:"token" validate:"required"`
	Password        string `json:"password" form:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" form:"passwordConfirm" validate:"omitempty,eqfield=Password"`
}

func (rp *ResetPassword) Validate(validate *validator.Validate) error {
	rp.Token = core.CleanString(rp.Token)
	return validate.Struct(rp)
}

type Review struct {
	Status Status `json:"status" form:"status" validate:"required,reviewstatus"`
}

func (r *Review) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

// GetFilter selects a single Student; the first non-empty field is used.
type GetFilter struct {
	ID             string
	Email          string
	ResetTokenHash string
}

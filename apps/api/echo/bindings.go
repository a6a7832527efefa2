package echoapi

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/seatech/enthusiasm/core"
	"github.com/seatech/enthusiasm/core/admin"
	"github.com/seatech/enthusiasm/core/student"
)

// Requests

type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (r *LoginRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}

type AdminLoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (r *AdminLoginRequest) Validate(validate *validator.Validate) error {
	r.Username = core.CleanString(r.Username, true /* lower */)
	return validate.Struct(r)
}

type PasswordResetRequest struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

func (r *PasswordResetRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}

// Responses

type LoginResponse struct {
	Token string `json:"token"`
}

type SuccessResponse struct {
	Success string `json:"success"`
}

// StudentProfile is a Student as shown on dashboards: contact data is masked.
type StudentProfile struct {
	ID           string               `json:"id"`
	FullName     string               `json:"full_name"`
	Email        string               `json:"email"`
	WhatsApp     string               `json:"whatsapp"`
	Courses      []string             `json:"courses"`
	HasDevice    bool                 `json:"has_device"`
	Attendance   int                  `json:"attendance"`
	TotalClasses int                  `json:"total_classes"`
	Progress     int                  `json:"progress"`
	Projects     []student.Submission `json:"projects"`
	Assignments  []student.Submission `json:"assignments"`
	CreatedAt    time.Time            `json:"created_at"`
}

func NewStudentProfile(stu student.Student) StudentProfile {
	return StudentProfile{
		ID:           stu.ID,
		FullName:     stu.FullName,
		Email:        stu.MaskedEmail(),
		WhatsApp:     stu.MaskedWhatsApp(),
		Courses:      stu.Courses,
		HasDevice:    stu.HasDevice,
		Attendance:   stu.Attendance,
		TotalClasses: student.TotalClasses,
		Progress:     stu.Progress(),
		Projects:     stu.SubmissionsOf(student.KindProject),
		Assignments:  stu.SubmissionsOf(student.KindAssignment),
		CreatedAt:    stu.CreatedAt,
	}
}

type StudentDashboard struct {
	Student       StudentProfile       `json:"student"`
	MeetLink      string               `json:"meet_link"`
	Announcements []admin.Announcement `json:"announcements"`
}

type AdminDashboard struct {
	Username      string               `json:"username"`
	MeetLink      string               `json:"meet_link"`
	Students      []StudentProfile     `json:"students"`
	Announcements []admin.Announcement `json:"announcements"`
}

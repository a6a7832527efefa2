package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/seatech/enthusiasm/core"
	"github.com/seatech/enthusiasm/core/admin"
	"github.com/seatech/enthusiasm/core/student"
	"github.com/seatech/enthusiasm/services/logger"
)

// NewLogger returns a logger that discards everything.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

// NewValidator returns a validator with every custom validation & translation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	student.RegisterValidators(validate, translator)
	admin.RegisterValidators(validate, translator)
	return validate, translator
}

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	fullName, email, pwd string,
	courses []string,
	createdAt ...time.Time,
) student.Student {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	stu := student.Student{
		FullName:        fullName,
		Email:           email,
		WhatsApp:        "+2348031234567",
		Courses:         courses,
		AttendanceDates: []time.Time{},
		Submissions:     []student.Submission{},
		CreatedAt:       tstamp,
		UpdatedAt:       tstamp,
	}
	if err := stu.SetPassword(pwd); err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	stu, err := repo.CreateStudent(context.Background(), stu)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return stu
}

func CreateAdmin(t *testing.T, repo admin.Repository, uname, pwd string, createdAt ...time.Time) admin.Admin {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	adm := admin.Admin{
		Username:      uname,
		Announcements: []admin.Announcement{},
		MeetLink:      "https://meet.google.com/abc-defg-hij",
		CreatedAt:     tstamp,
		UpdatedAt:     tstamp,
	}
	if err := adm.SetPassword(pwd); err != nil {
		t.Fatalf("CreateAdmin() failed: %v", err)
	}
	adm, err := repo.CreateAdmin(context.Background(), adm)
	if err != nil {
		t.Fatalf("CreateAdmin() failed: %v", err)
	}
	return adm
}

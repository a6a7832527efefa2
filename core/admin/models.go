package admin

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/seatech/enthusiasm/core"
)

type Announcement struct {
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	PostedAt time.Time `json:"posted_at"` // UTC
}

type Admin struct {
	ID            string         `json:"id"`
	Username      string         `json:"username"`
	PasswordHash  []byte         `json:"-"`
	Announcements []Announcement `json:"announcements"`
	MeetLink      string         `json:"meet_link"`
	CreatedAt     time.Time      `json:"created_at"` // UTC
	UpdatedAt     time.Time      `json:"updated_at"` // UTC
}

func (a *Admin) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Admin) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

type UpdateMeetLink struct {
	MeetLink string `json:"meet_link" form:"meetLink" validate:"required,http_url"`
}

func (um *UpdateMeetLink) Validate(validate *validator.Validate) error {
	um.MeetLink = core.CleanString(um.MeetLink)
	return validate.Struct(um)
}

type NewAnnouncement struct {
	Title   string `json:"title" form:"title" validate:"required,notblank,max=200"`
	Content string `json:"content" form:"content" validate:"required,notblank"`
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Content = core.CleanString(na.Content)
	return validate.Struct(na)
}

// GetFilter selects a single Admin; the first non-empty field is used.
type GetFilter struct {
	ID       string
	Username string
}

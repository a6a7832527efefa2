package admin

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/seatech/enthusiasm/core"
)

// fallbackMeetLink is used when no admin exists yet.
const fallbackMeetLink = "https://meet.google.com"

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound           = errors.New("admin not found")
	ErrUsernameExists     = errors.New("an admin with this username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type (
	Repository interface {
		CreateAdmin(ctx context.Context, adm Admin) (Admin, error)
		QueryAllAdmins(ctx context.Context) ([]Admin, error) // oldest first
		GetAdmin(ctx context.Context, filter GetFilter) (Admin, error)
		SetPassword(ctx context.Context, id string, pwdHash []byte, at time.Time) error
		SetMeetLink(ctx context.Context, id, link string, at time.Time) error
		AddAnnouncement(ctx context.Context, id string, an Announcement) error
	}

	Service struct {
		repo Repository
		conf *core.Config
	}
)

func NewService(repo Repository, conf *core.Config) *Service {
	return &Service{repo: repo, conf: conf}
}

func (svc *Service) Authenticate(ctx context.Context, uname, pwd string) (Admin, error) {
	adm, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Admin{}, ErrInvalidCredentials
		}
		return Admin{}, err
	}
	if err := adm.CheckPassword(pwd); err != nil {
		return Admin{}, ErrInvalidCredentials
	}
	return adm, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Admin, error) {
	return svc.repo.GetAdmin(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (Admin, error) {
	uname = core.CleanString(uname, true /* lower */)
	if uname == "" {
		return Admin{}, ErrNotFound
	}
	return svc.repo.GetAdmin(ctx, GetFilter{Username: uname})
}

// Create creates an admin, or sets the password of the existing admin with the same username.
func (svc *Service) Create(ctx context.Context, uname, pwd string) (Admin, error) {
	now := NowFunc().UTC()
	adm := Admin{
		Username:      core.CleanString(uname, true /* lower */),
		Announcements: []Announcement{},
		MeetLink:      svc.conf.DefaultMeetLink,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if adm.Username == "" {
		return Admin{}, core.NewValidationError(
			errors.New("username is required"),
			core.FieldError{Field: "username", Error: "this field is required"},
		)
	}
	if err := adm.SetPassword(pwd); err != nil {
		return Admin{}, errors.Wrap(err, "hashing password")
	}

	created, err := svc.repo.CreateAdmin(ctx, adm)
	if errors.Cause(err) != ErrUsernameExists {
		return created, err
	}
	existing, err := svc.GetByUsername(ctx, adm.Username)
	if err != nil {
		return Admin{}, err
	}
	if err := svc.repo.SetPassword(ctx, existing.ID, adm.PasswordHash, now); err != nil {
		return Admin{}, err
	}
	existing.PasswordHash = adm.PasswordHash
	return existing, nil
}

func (svc *Service) ResetPassword(ctx context.Context, uname, pwd string) error {
	adm, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}
	if err := adm.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return svc.repo.SetPassword(ctx, adm.ID, adm.PasswordHash, NowFunc().UTC())
}

// MeetLink returns the class meeting link set by the first admin.
func (svc *Service) MeetLink(ctx context.Context) (string, error) {
	admins, err := svc.repo.QueryAllAdmins(ctx)
	if err != nil {
		return "", err
	}
	if len(admins) == 0 {
		return fallbackMeetLink, nil
	}
	if admins[0].MeetLink == "" {
		return svc.conf.DefaultMeetLink, nil
	}
	return admins[0].MeetLink, nil
}

// UpdateMeetLink sets the class meeting link. The link is shared by all admins.
func (svc *Service) UpdateMeetLink(ctx context.Context, um UpdateMeetLink) error {
	admins, err := svc.repo.QueryAllAdmins(ctx)
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		return ErrNotFound
	}
	return svc.repo.SetMeetLink(ctx, admins[0].ID, um.MeetLink, NowFunc().UTC())
}

func (svc *Service) PostAnnouncement(ctx context.Context, id string, na NewAnnouncement) (Announcement, error) {
	an := Announcement{
		Title:    na.Title,
		Content:  na.Content,
		PostedAt: NowFunc().UTC(),
	}
	if err := svc.repo.AddAnnouncement(ctx, id, an); err != nil {
		return Announcement{}, err
	}
	return an, nil
}

// Announcements returns the announcements of all admins, newest first.
func (svc *Service) Announcements(ctx context.Context) ([]Announcement, error) {
	admins, err := svc.repo.QueryAllAdmins(ctx)
	if err != nil {
		return nil, err
	}
	ans := make([]Announcement, 0)
	for _, adm := range admins {
		ans = append(ans, adm.Announcements...)
	}
	sort.SliceStable(ans, func(i, j int) bool { return ans[i].PostedAt.After(ans[j].PostedAt) })
	return ans, nil
}

package admin_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatech/enthusiasm/core"
	"github.com/seatech/enthusiasm/core/admin"
	"github.com/seatech/enthusiasm/storage/database/inmem"
	"github.com/seatech/enthusiasm/tests"
)

func setup(t *testing.T) (*admin.Service, admin.Repository, *core.Config) {
	t.Helper()
	conf := core.NewTestConfig(t.TempDir())
	repo := inmemdb.NewAdminRepository(inmemdb.Open())
	return admin.NewService(repo, conf), repo, conf
}

func TestService_Authenticate(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()
	adm := testutil.CreateAdmin(t, repo, "admin", "adminpass")

	tests := []struct {
		name    string
		uname   string
		pwd     string
		wantErr error
	}{
		{"valid", "admin", "adminpass", nil},
		{"username is cleaned", " ADMIN ", "adminpass", nil},
		{"wrong password", "admin", "nope", admin.ErrInvalidCredentials},
		{"unknown username", "root", "adminpass", admin.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Authenticate(ctx, tt.uname, tt.pwd)
			assert.Equal(t, tt.wantErr, err)
			if tt.wantErr == nil {
				assert.Equal(t, adm.ID, got.ID)
			}
		})
	}
}

func TestService_Create(t *testing.T) {
	svc, _, conf := setup(t)
	ctx := context.Background()

	adm, err := svc.Create(ctx, " Admin ", "adminpass")
	require.NoError(t, err)
	assert.Equal(t, "admin", adm.Username)
	assert.Equal(t, conf.DefaultMeetLink, adm.MeetLink)

	// existing admins get their password replaced
	again, err := svc.Create(ctx, "admin", "newpass")
	require.NoError(t, err)
	assert.Equal(t, adm.ID, again.ID)
	_, err = svc.Authenticate(ctx, "admin", "newpass")
	assert.NoError(t, err)
	_, err = svc.Authenticate(ctx, "admin", "adminpass")
	assert.Equal(t, admin.ErrInvalidCredentials, err)

	_, err = svc.Create(ctx, "  ", "pwd")
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestService_ResetPassword(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()
	testutil.CreateAdmin(t, repo, "admin", "adminpass")

	require.NoError(t, svc.ResetPassword(ctx, "admin", "changed1"))
	_, err := svc.Authenticate(ctx, "admin", "changed1")
	assert.NoError(t, err)
	assert.Equal(t, admin.ErrNotFound, svc.ResetPassword(ctx, "root", "changed1"))
}

func TestService_MeetLink(t *testing.T) {
	svc, repo, conf := setup(t)
	ctx := context.Background()

	link, err := svc.MeetLink(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://meet.google.com", link)
	assert.Equal(t, admin.ErrNotFound, svc.UpdateMeetLink(ctx, admin.UpdateMeetLink{MeetLink: "https://meet.google.com/x"}))

	first := testutil.CreateAdmin(t, repo, "first", "adminpass", time.Now().Add(-time.Hour))
	testutil.CreateAdmin(t, repo, "second", "adminpass")

	link, err = svc.MeetLink(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.MeetLink, link)

	require.NoError(t, svc.UpdateMeetLink(ctx, admin.UpdateMeetLink{MeetLink: "https://zoom.us/j/123"}))
	link, err = svc.MeetLink(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://zoom.us/j/123", link)

	require.NoError(t, svc.UpdateMeetLink(ctx, admin.UpdateMeetLink{MeetLink: ""}))
	link, err = svc.MeetLink(ctx)
	require.NoError(t, err)
	assert.Equal(t, conf.DefaultMeetLink, link)
}

func TestService_Announcements(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()
	adm1 := testutil.CreateAdmin(t, repo, "first", "adminpass")
	adm2 := testutil.CreateAdmin(t, repo, "second", "adminpass")

	orig := admin.NowFunc
	t.Cleanup(func() { admin.NowFunc = orig })
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	admin.NowFunc = func() time.Time { return base }
	_, err := svc.PostAnnouncement(ctx, adm1.ID, admin.NewAnnouncement{Title: "Welcome", Content: "Classes start monday"})
	require.NoError(t, err)
	admin.NowFunc = func() time.Time { return base.Add(time.Hour) }
	an, err := svc.PostAnnouncement(ctx, adm2.ID, admin.NewAnnouncement{Title: "Reminder", Content: "Bring your laptop"})
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Hour), an.PostedAt)

	_, err = svc.PostAnnouncement(ctx, "unknown", admin.NewAnnouncement{Title: "x", Content: "y"})
	assert.Equal(t, admin.ErrNotFound, err)

	ans, err := svc.Announcements(ctx)
	require.NoError(t, err)
	require.Len(t, ans, 2)
	assert.Equal(t, "Reminder", ans[0].Title)
	assert.Equal(t, "Welcome", ans[1].Title)
}

func TestUpdateMeetLink_Validate(t *testing.T) {
	validate, translator := testutil.NewValidator()

	um := admin.UpdateMeetLink{MeetLink: " https://meet.google.com/abc "}
	require.NoError(t, um.Validate(validate))
	assert.Equal(t, "https://meet.google.com/abc", um.MeetLink)

	for _, bad := range []string{"", "meet.google.com", "ftp://files.example.com", "javascript:alert(1)"} {
		um := admin.UpdateMeetLink{MeetLink: bad}
		assert.Error(t, um.Validate(validate), bad)
	}

	na := admin.NewAnnouncement{Title: " ", Content: "body"}
	vErrs, ok := na.Validate(validate).(validator.ValidationErrors)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"title": "this field is required"}, core.TranslateErrors(vErrs, translator))
}

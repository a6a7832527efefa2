package pgdb

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/seatech/enthusiasm/core/admin"
)

type (
	adminRow struct {
		ID           string    `db:"id"`
		Username     string    `db:"username"`
		PasswordHash []byte    `db:"password_hash"`
		MeetLink     string    `db:"meet_link"`
		CreatedAt    time.Time `db:"created_at"`
		UpdatedAt    time.Time `db:"updated_at"`
	}

	announcementRow struct {
		AdminID  string    `db:"admin_id"`
		Title    string    `db:"title"`
		Content  string    `db:"content"`
		PostedAt time.Time `db:"posted_at"`
	}
)

const adminColumns = "id, username, password_hash, meet_link, created_at, updated_at"

func (row adminRow) toAdmin(ans []admin.Announcement) admin.Admin {
	if ans == nil {
		ans = []admin.Announcement{}
	}
	return admin.Admin{
		ID:            row.ID,
		Username:      row.Username,
		PasswordHash:  row.PasswordHash,
		Announcements: ans,
		MeetLink:      row.MeetLink,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

type adminRepository struct {
	db *sqlx.DB
}

var _ admin.Repository = (*adminRepository)(nil)

func NewAdminRepository(db *DB) admin.Repository {
	return &adminRepository{db: db.DB}
}

func (repo *adminRepository) CreateAdmin(ctx context.Context, adm admin.Admin) (admin.Admin, error) {
	adm.ID = uuid.NewString()
	row := adminRow{
		ID:           adm.ID,
		Username:     adm.Username,
		PasswordHash: adm.PasswordHash,
		MeetLink:     adm.MeetLink,
		CreatedAt:    adm.CreatedAt,
		UpdatedAt:    adm.UpdatedAt,
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO admins (id, username, password_hash, meet_link, created_at, updated_at)
		VALUES (:id, :username, :password_hash, :meet_link, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return admin.Admin{}, admin.ErrUsernameExists
		}
		return admin.Admin{}, errors.Wrap(err, "inserting admin")
	}
	if adm.Announcements == nil {
		adm.Announcements = []admin.Announcement{}
	}
	return adm, nil
}

func (repo *adminRepository) announcements(ctx context.Context, ids []string) (map[string][]admin.Announcement, error) {
	ans := make(map[string][]admin.Announcement, len(ids))
	if len(ids) == 0 {
		return ans, nil
	}
	var rows []announcementRow
	err := repo.db.SelectContext(ctx, &rows,
		"SELECT admin_id, title, content, posted_at FROM announcements WHERE admin_id = ANY($1) ORDER BY posted_at, id",
		pq.Array(ids),
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}
	for _, r := range rows {
		ans[r.AdminID] = append(ans[r.AdminID], admin.Announcement{Title: r.Title, Content: r.Content, PostedAt: r.PostedAt.UTC()})
	}
	return ans, nil
}

func (repo *adminRepository) QueryAllAdmins(ctx context.Context) ([]admin.Admin, error) {
	var rows []adminRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT "+adminColumns+" FROM admins ORDER BY created_at, id"); err != nil {
		return nil, errors.Wrap(err, "querying admins")
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	ans, err := repo.announcements(ctx, ids)
	if err != nil {
		return nil, err
	}
	admins := make([]admin.Admin, 0, len(rows))
	for _, r := range rows {
		admins = append(admins, r.toAdmin(ans[r.ID]))
	}
	return admins, nil
}

func (repo *adminRepository) GetAdmin(ctx context.Context, filter admin.GetFilter) (admin.Admin, error) {
	var (
		where string
		arg   string
	)
	switch {
	case filter.ID != "":
		if !validID(filter.ID) {
			return admin.Admin{}, admin.ErrNotFound
		}
		where, arg = "id = $1", filter.ID
	case filter.Username != "":
		where, arg = "username = $1", filter.Username
	default:
		return admin.Admin{}, admin.ErrNotFound
	}

	var row adminRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+adminColumns+" FROM admins WHERE "+where, arg); err != nil {
		if err == sql.ErrNoRows {
			return admin.Admin{}, admin.ErrNotFound
		}
		return admin.Admin{}, errors.Wrap(err, "fetching admin")
	}
	ans, err := repo.announcements(ctx, []string{row.ID})
	if err != nil {
		return admin.Admin{}, err
	}
	return row.toAdmin(ans[row.ID]), nil
}

func (repo *adminRepository) SetPassword(ctx context.Context, id string, pwdHash []byte, at time.Time) error {
	if !validID(id) {
		return admin.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx,
		"UPDATE admins SET password_hash = $1, updated_at = $2 WHERE id = $3",
		pwdHash, at, id,
	)
	if err != nil {
		return errors.Wrap(err, "setting admin password")
	}
	return checkAffected(res, admin.ErrNotFound)
}

func (repo *adminRepository) SetMeetLink(ctx context.Context, id, link string, at time.Time) error {
	if !validID(id) {
		return admin.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx,
		"UPDATE admins SET meet_link = $1, updated_at = $2 WHERE id = $3",
		link, at, id,
	)
	if err != nil {
		return errors.Wrap(err, "setting meet link")
	}
	return checkAffected(res, admin.ErrNotFound)
}

func (repo *adminRepository) AddAnnouncement(ctx context.Context, id string, an admin.Announcement) error {
	if !validID(id) {
		return admin.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `
		INSERT INTO announcements (admin_id, title, content, posted_at)
		SELECT a.id, $2::text, $3::text, $4::timestamptz FROM admins a WHERE a.id = $1`,
		id, an.Title, an.Content, an.PostedAt,
	)
	if err != nil {
		return errors.Wrap(err, "inserting announcement")
	}
	return checkAffected(res, admin.ErrNotFound)
}

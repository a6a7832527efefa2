package inmemdb

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/seatech/enthusiasm/core/admin"
)

type adminRepository struct {
	db *adminTable
}

var _ admin.Repository = (*adminRepository)(nil)

func NewAdminRepository(db *DB) admin.Repository {
	return &adminRepository{db: db.admin}
}

func copyAdmin(adm admin.Admin) admin.Admin {
	adm.PasswordHash = append([]byte(nil), adm.PasswordHash...)
	adm.Announcements = append([]admin.Announcement{}, adm.Announcements...)
	return adm
}

func (repo *adminRepository) CreateAdmin(ctx context.Context, adm admin.Admin) (admin.Admin, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, a := range repo.db.table {
		if a.Username == adm.Username {
			return admin.Admin{}, admin.ErrUsernameExists
		}
	}
	repo.db.pkCount++
	adm.ID = strconv.Itoa(repo.db.pkCount)
	adm = copyAdmin(adm)
	repo.db.table[adm.ID] = &adm
	return copyAdmin(adm), nil
}

func (repo *adminRepository) QueryAllAdmins(ctx context.Context) ([]admin.Admin, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	admins := make([]admin.Admin, 0, len(repo.db.table))
	for _, adm := range repo.db.table {
		admins = append(admins, copyAdmin(*adm))
	}
	sort.Slice(admins, func(i, j int) bool {
		if admins[i].CreatedAt.Equal(admins[j].CreatedAt) {
			return admins[i].ID < admins[j].ID
		}
		return admins[i].CreatedAt.Before(admins[j].CreatedAt)
	})
	return admins, nil
}

func (repo *adminRepository) GetAdmin(ctx context.Context, filter admin.GetFilter) (admin.Admin, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	switch {
	case filter.ID != "":
		if adm, ok := repo.db.table[filter.ID]; ok {
			return copyAdmin(*adm), nil
		}
	case filter.Username != "":
		for _, adm := range repo.db.table {
			if adm.Username == filter.Username {
				return copyAdmin(*adm), nil
			}
		}
	}
	return admin.Admin{}, admin.ErrNotFound
}

func (repo *adminRepository) update(id string, at time.Time, fn func(adm *admin.Admin)) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	adm, ok := repo.db.table[id]
	if !ok {
		return admin.ErrNotFound
	}
	fn(adm)
	adm.UpdatedAt = at
	return nil
}

func (repo *adminRepository) SetPassword(ctx context.Context, id string, pwdHash []byte, at time.Time) error {
	return repo.update(id, at, func(adm *admin.Admin) {
		adm.PasswordHash = append([]byte(nil), pwdHash...)
	})
}

func (repo *adminRepository) SetMeetLink(ctx context.Context, id, link string, at time.Time) error {
	return repo.update(id, at, func(adm *admin.Admin) { adm.MeetLink = link })
}

func (repo *adminRepository) AddAnnouncement(ctx context.Context, id string, an admin.Announcement) error {
	return repo.update(id, an.PostedAt, func(adm *admin.Admin) {
		adm.Announcements = append(adm.Announcements, an)
	})
}

package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/seatech/enthusiasm/core/admin"
)

type (
	announcementDoc struct {
		Title    string    `bson:"title"`
		Content  string    `bson:"content"`
		PostedAt time.Time `bson:"posted_at"`
	}

	adminDoc struct {
		ID            primitive.ObjectID `bson:"_id,omitempty"`
		Username      string             `bson:"username"`
		PasswordHash  []byte             `bson:"password_hash"`
		Announcements []announcementDoc  `bson:"announcements"`
		MeetLink      string             `bson:"meet_link"`
		CreatedAt     time.Time          `bson:"created_at"`
		UpdatedAt     time.Time          `bson:"updated_at"`
	}
)

func (doc adminDoc) toAdmin() admin.Admin {
	adm := admin.Admin{
		ID:            doc.ID.Hex(),
		Username:      doc.Username,
		PasswordHash:  doc.PasswordHash,
		Announcements: make([]admin.Announcement, 0, len(doc.Announcements)),
		MeetLink:      doc.MeetLink,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
	for _, an := range doc.Announcements {
		adm.Announcements = append(adm.Announcements, admin.Announcement(an))
	}
	return adm
}

type adminRepository struct {
	coll *mongo.Collection
}

var _ admin.Repository = (*adminRepository)(nil)

func NewAdminRepository(db *DB) admin.Repository {
	return &adminRepository{coll: db.admins()}
}

func (repo *adminRepository) CreateAdmin(ctx context.Context, adm admin.Admin) (admin.Admin, error) {
	doc := adminDoc{
		Username:      adm.Username,
		PasswordHash:  adm.PasswordHash,
		Announcements: make([]announcementDoc, 0, len(adm.Announcements)),
		MeetLink:      adm.MeetLink,
		CreatedAt:     adm.CreatedAt,
		UpdatedAt:     adm.UpdatedAt,
	}
	for _, an := range adm.Announcements {
		doc.Announcements = append(doc.Announcements, announcementDoc(an))
	}

	res, err := repo.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return admin.Admin{}, admin.ErrUsernameExists
		}
		return admin.Admin{}, errors.Wrap(err, "inserting admin")
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return admin.Admin{}, errors.New("inserting admin: unexpected id type")
	}
	adm.ID = oid.Hex()
	return adm, nil
}

func (repo *adminRepository) QueryAllAdmins(ctx context.Context) ([]admin.Admin, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := repo.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying admins")
	}
	var docs []adminDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding admins")
	}
	admins := make([]admin.Admin, 0, len(docs))
	for _, doc := range docs {
		admins = append(admins, doc.toAdmin())
	}
	return admins, nil
}

func (repo *adminRepository) GetAdmin(ctx context.Context, filter admin.GetFilter) (admin.Admin, error) {
	var query bson.M
	switch {
	case filter.ID != "":
		oid, ok := objectID(filter.ID)
		if !ok {
			return admin.Admin{}, admin.ErrNotFound
		}
		query = bson.M{"_id": oid}
	case filter.Username != "":
		query = bson.M{"username": filter.Username}
	default:
		return admin.Admin{}, admin.ErrNotFound
	}

	var doc adminDoc
	if err := repo.coll.FindOne(ctx, query).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return admin.Admin{}, admin.ErrNotFound
		}
		return admin.Admin{}, errors.Wrap(err, "fetching admin")
	}
	return doc.toAdmin(), nil
}

func (repo *adminRepository) updateOne(ctx context.Context, id string, update bson.M) error {
	oid, ok := objectID(id)
	if !ok {
		return admin.ErrNotFound
	}
	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return errors.Wrap(err, "updating admin")
	}
	if res.MatchedCount == 0 {
		return admin.ErrNotFound
	}
	return nil
}

func (repo *adminRepository) SetPassword(ctx context.Context, id string, pwdHash []byte, at time.Time) error {
	return repo.updateOne(ctx, id, bson.M{"$set": bson.M{"password_hash": pwdHash, "updated_at": at}})
}

func (repo *adminRepository) SetMeetLink(ctx context.Context, id, link string, at time.Time) error {
	return repo.updateOne(ctx, id, bson.M{"$set": bson.M{"meet_link": link, "updated_at": at}})
}

func (repo *adminRepository) AddAnnouncement(ctx context.Context, id string, an admin.Announcement) error {
	return repo.updateOne(ctx, id, bson.M{
		"$push": bson.M{"announcements": announcementDoc(an)},
		"$set":  bson.M{"updated_at": an.PostedAt},
	})
}

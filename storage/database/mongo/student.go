package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/seatech/enthusiasm/core/student"
)

type (
	submissionDoc struct {
		ID          string    `bson:"id"`
		Kind        string    `bson:"kind"`
		Course      string    `bson:"course"`
		FilePath    string    `bson:"file_path"`
		Status      string    `bson:"status"`
		SubmittedAt time.Time `bson:"submitted_at"`
	}

	studentDoc struct {
		ID               primitive.ObjectID `bson:"_id,omitempty"`
		FullName         string             `bson:"full_name"`
		Email            string             `bson:"email"`
		WhatsApp         string             `bson:"whatsapp"`
		PasswordHash     []byte             `bson:"password_hash"`
		Courses          []string           `bson:"courses"`
		HasDevice        bool               `bson:"has_device"`
		Attendance       int                `bson:"attendance"`
		AttendanceDates  []time.Time        `bson:"attendance_dates"`
		Submissions      []submissionDoc    `bson:"submissions"`
		ResetTokenHash   string             `bson:"reset_token_hash,omitempty"`
		ResetTokenExpiry *time.Time         `bson:"reset_token_expiry,omitempty"`
		CreatedAt        time.Time          `bson:"created_at"`
		UpdatedAt        time.Time          `bson:"updated_at"`
	}
)

func toStudentDoc(stu student.Student) studentDoc {
	doc := studentDoc{
		FullName:        stu.FullName,
		Email:           stu.Email,
		WhatsApp:        stu.WhatsApp,
		PasswordHash:    stu.PasswordHash,
		Courses:         stu.Courses,
		HasDevice:       stu.HasDevice,
		Attendance:      stu.Attendance,
		AttendanceDates: stu.AttendanceDates,
		Submissions:     make([]submissionDoc, 0, len(stu.Submissions)),
		ResetTokenHash:  stu.ResetTokenHash,
		CreatedAt:       stu.CreatedAt,
		UpdatedAt:       stu.UpdatedAt,
	}
	if doc.Courses == nil {
		doc.Courses = []string{}
	}
	if doc.AttendanceDates == nil {
		doc.AttendanceDates = []time.Time{}
	}
	for _, sub := range stu.Submissions {
		doc.Submissions = append(doc.Submissions, toSubmissionDoc(sub))
	}
	if !stu.ResetTokenExpiry.IsZero() {
		exp := stu.ResetTokenExpiry
		doc.ResetTokenExpiry = &exp
	}
	return doc
}

func toSubmissionDoc(sub student.Submission) submissionDoc {
	return submissionDoc{
		ID:          sub.ID,
		Kind:        string(sub.Kind),
		Course:      sub.Course,
		FilePath:    sub.FilePath,
		Status:      string(sub.Status),
		SubmittedAt: sub.SubmittedAt,
	}
}

func (doc studentDoc) toStudent() student.Student {
	stu := student.Student{
		ID:              doc.ID.Hex(),
		FullName:        doc.FullName,
		Email:           doc.Email,
		WhatsApp:        doc.WhatsApp,
		PasswordHash:    doc.PasswordHash,
		Courses:         doc.Courses,
		HasDevice:       doc.HasDevice,
		Attendance:      doc.Attendance,
		AttendanceDates: doc.AttendanceDates,
		Submissions:     make([]student.Submission, 0, len(doc.Submissions)),
		ResetTokenHash:  doc.ResetTokenHash,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
	for _, sub := range doc.Submissions {
		stu.Submissions = append(stu.Submissions, student.Submission{
			ID:          sub.ID,
			Kind:        student.Kind(sub.Kind),
			Course:      sub.Course,
			FilePath:    sub.FilePath,
			Status:      student.Status(sub.Status),
			SubmittedAt: sub.SubmittedAt,
		})
	}
	if doc.ResetTokenExpiry != nil {
		stu.ResetTokenExpiry = *doc.ResetTokenExpiry
	}
	return stu
}

type studentRepository struct {
	coll *mongo.Collection
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{coll: db.students()}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, stu student.Student) (student.Student, error) {
	res, err := repo.coll.InsertOne(ctx, toStudentDoc(stu))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return student.Student{}, student.ErrEmailExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return student.Student{}, errors.New("inserting student: unexpected id type")
	}
	stu.ID = oid.Hex()
	return stu, nil
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := repo.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	var docs []studentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding students")
	}
	students := make([]student.Student, 0, len(docs))
	for _, doc := range docs {
		students = append(students, doc.toStudent())
	}
	return students, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, filter student.GetFilter) (student.Student, error) {
	var query bson.M
	switch {
	case filter.ID != "":
		oid, ok := objectID(filter.ID)
		if !ok {
			return student.Student{}, student.ErrNotFound
		}
		query = bson.M{"_id": oid}
	case filter.Email != "":
		query = bson.M{"email": filter.Email}
	case filter.ResetTokenHash != "":
		query = bson.M{"reset_token_hash": filter.ResetTokenHash}
	default:
		return student.Student{}, student.ErrNotFound
	}

	var doc studentDoc
	if err := repo.coll.FindOne(ctx, query).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "fetching student")
	}
	return doc.toStudent(), nil
}

// updateOne applies update to the student matching filter; ErrNotFound when nothing matched.
func (repo *studentRepository) updateOne(ctx context.Context, id string, filter bson.M, update bson.M) error {
	oid, ok := objectID(id)
	if !ok {
		return student.ErrNotFound
	}
	filter["_id"] = oid
	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	if res.MatchedCount == 0 {
		return student.ErrNotFound
	}
	return nil
}

// countSince builds an aggregation expression counting the attendance dates on or after t.
func countSince(t time.Time) bson.M {
	return bson.M{"$size": bson.M{"$filter": bson.M{
		"input": bson.M{"$ifNull": bson.A{"$attendance_dates", bson.A{}}},
		"as":    "d",
		"cond":  bson.M{"$gte": bson.A{"$$d", t}},
	}}}
}

func (repo *studentRepository) AddAttendance(ctx context.Context, id string, at time.Time, win student.AttendanceWindow) error {
	filter := bson.M{"$expr": bson.M{"$and": bson.A{
		bson.M{"$eq": bson.A{countSince(win.DayStart), 0}},
		bson.M{"$lt": bson.A{countSince(win.WeekStart), win.WeeklyLimit}},
	}}}
	update := bson.M{
		"$inc":  bson.M{"attendance": 1},
		"$push": bson.M{"attendance_dates": at},
		"$set":  bson.M{"updated_at": at},
	}
	return repo.updateOne(ctx, id, filter, update)
}

func (repo *studentRepository) AddSubmission(ctx context.Context, id string, sub student.Submission) error {
	update := bson.M{
		"$push": bson.M{"submissions": toSubmissionDoc(sub)},
		"$set":  bson.M{"updated_at": sub.SubmittedAt},
	}
	return repo.updateOne(ctx, id, bson.M{}, update)
}

func (repo *studentRepository) SetSubmissionStatus(ctx context.Context, id, subID string, from, to student.Status, at time.Time) error {
	filter := bson.M{"submissions": bson.M{"$elemMatch": bson.M{"id": subID, "status": string(from)}}}
	update := bson.M{"$set": bson.M{
		"submissions.$.status": string(to),
		"updated_at":           at,
	}}
	return repo.updateOne(ctx, id, filter, update)
}

func (repo *studentRepository) RemoveSubmission(ctx context.Context, id, subID string, at time.Time) error {
	filter := bson.M{"submissions.id": subID}
	update := bson.M{
		"$pull": bson.M{"submissions": bson.M{"id": subID}},
		"$set":  bson.M{"updated_at": at},
	}
	return repo.updateOne(ctx, id, filter, update)
}

func (repo *studentRepository) SetResetToken(ctx context.Context, id, digest string, expiry time.Time) error {
	update := bson.M{"$set": bson.M{
		"reset_token_hash":   digest,
		"reset_token_expiry": expiry,
	}}
	return repo.updateOne(ctx, id, bson.M{}, update)
}

func (repo *studentRepository) ResetPassword(ctx context.Context, digest string, now time.Time, pwdHash []byte) error {
	filter := bson.M{
		"reset_token_hash":   digest,
		"reset_token_expiry": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set":   bson.M{"password_hash": pwdHash, "updated_at": now},
		"$unset": bson.M{"reset_token_hash": "", "reset_token_expiry": ""},
	}
	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return errors.Wrap(err, "resetting password")
	}
	if res.MatchedCount == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return student.ErrNotFound
	}
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if res.DeletedCount == 0 {
		return student.ErrNotFound
	}
	return nil
}

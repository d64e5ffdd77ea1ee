package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/laptop-inventory/internal/model"
)

// Collection names.
const (
	usersCollection   = "users"
	laptopsCollection = "laptops"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func newUserDoc(u model.User) userDoc {
	return userDoc{
		ID: u.ID, Name: u.Name, Email: u.Email, PasswordHash: u.PasswordHash,
		Role: string(u.Role), CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func (d userDoc) model() model.User {
	return model.User{
		ID: d.ID, Name: d.Name, Email: d.Email, PasswordHash: d.PasswordHash,
		Role: model.Role(d.Role), CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

type laptopDoc struct {
	ID           string      `bson:"_id"`
	Brand        string      `bson:"brand"`
	Model        string      `bson:"model"`
	SerialNumber string      `bson:"serialNumber"`
	Specs        model.Specs `bson:"specs"`
	Status       string      `bson:"status"`
	AssignedTo   *string     `bson:"assignedTo"`
	CreatedAt    time.Time   `bson:"createdAt"`
	UpdatedAt    time.Time   `bson:"updatedAt"`
}

// holderValue renders a holder the way it is stored: null when absent.
func holderValue(s model.LaptopState) *string {
	if s.Holder() == "" {
		return nil
	}
	h := s.Holder()
	return &h
}

func newLaptopDoc(l model.Laptop) laptopDoc {
	return laptopDoc{
		ID: l.ID, Brand: l.Brand, Model: l.Model, SerialNumber: l.SerialNumber,
		Specs: l.Specs, Status: string(l.State.Status()), AssignedTo: holderValue(l.State),
		CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt,
	}
}

func (d laptopDoc) model() (model.Laptop, error) {
	holder := ""
	if d.AssignedTo != nil {
		holder = *d.AssignedTo
	}
	state, err := model.StateFrom(model.Status(d.Status), holder)
	if err != nil {
		return model.Laptop{}, fmt.Errorf("laptop %s: %w", d.ID, err)
	}
	return model.Laptop{
		ID: d.ID, Brand: d.Brand, Model: d.Model, SerialNumber: d.SerialNumber,
		Specs: d.Specs, State: state, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}, nil
}

// MongoStore keeps users and laptops in two MongoDB collections. Unique
// indexes on users.email and laptops.serialNumber back the service-level
// pre-checks.
type MongoStore struct {
	users   *mongo.Collection
	laptops *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore binds the collections of db and makes sure the indexes exist.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	s := &MongoStore{
		users:   db.Collection(usersCollection),
		laptops: db.Collection(laptopsCollection),
	}
	if _, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	}); err != nil {
		return nil, fmt.Errorf("users indexes: %w", err)
	}
	if _, err := s.laptops.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "serialNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "assignedTo", Value: 1}}},
	}); err != nil {
		return nil, fmt.Errorf("laptops indexes: %w", err)
	}
	return s, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.users.Database().Client().Disconnect(ctx)
}

func mapMongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}

var byCreation = options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

// ----- users -----

func (s *MongoStore) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.users.InsertOne(ctx, newUserDoc(*u))
	return mapMongoErr(err)
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (model.User, error) {
	var d userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&d); err != nil {
		return model.User{}, mapMongoErr(err)
	}
	return d.model(), nil
}

func (s *MongoStore) GetUser(ctx context.Context, id string) (model.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.findUser(ctx, bson.M{"email": model.NormalizeEmail(email)})
}

func (s *MongoStore) ListUsers(ctx context.Context) ([]model.User, error) {
	cur, err := s.users.Find(ctx, bson.M{}, byCreation)
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (s *MongoStore) UpdateUser(ctx context.Context, u model.User) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{
		"name":      u.Name,
		"email":     u.Email,
		"password":  u.PasswordHash,
		"role":      string(u.Role),
		"updatedAt": u.UpdatedAt,
	}})
	if err != nil {
		return mapMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser has no foreign key to lean on, so it checks the laptops
// collection itself before deleting.
func (s *MongoStore) DeleteUser(ctx context.Context, id string) error {
	n, err := s.CountByHolder(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrReferenced
	}
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) AdminExists(ctx context.Context) (bool, error) {
	n, err := s.users.CountDocuments(ctx, bson.M{"role": string(model.RoleAdmin)}, options.Count().SetLimit(1))
	return n > 0, err
}

func (s *MongoStore) CountUsers(ctx context.Context) (int, error) {
	n, err := s.users.CountDocuments(ctx, bson.M{})
	return int(n), err
}

// ----- laptops -----

func (s *MongoStore) CreateLaptop(ctx context.Context, l *model.Laptop) error {
	_, err := s.laptops.InsertOne(ctx, newLaptopDoc(*l))
	return mapMongoErr(err)
}

func (s *MongoStore) findLaptop(ctx context.Context, filter bson.M) (model.Laptop, error) {
	var d laptopDoc
	if err := s.laptops.FindOne(ctx, filter).Decode(&d); err != nil {
		return model.Laptop{}, mapMongoErr(err)
	}
	return d.model()
}

func (s *MongoStore) GetLaptop(ctx context.Context, id string) (model.Laptop, error) {
	return s.findLaptop(ctx, bson.M{"_id": id})
}

func (s *MongoStore) GetLaptopBySerial(ctx context.Context, serial string) (model.Laptop, error) {
	return s.findLaptop(ctx, bson.M{"serialNumber": serial})
}

func (s *MongoStore) ListLaptops(ctx context.Context, f LaptopFilter) ([]model.Laptop, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if f.Holder != "" {
		filter["assignedTo"] = f.Holder
	}
	cur, err := s.laptops.Find(ctx, filter, byCreation)
	if err != nil {
		return nil, err
	}
	var docs []laptopDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.Laptop, 0, len(docs))
	for _, d := range docs {
		l, err := d.model()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *MongoStore) UpdateLaptop(ctx context.Context, l model.Laptop) error {
	d := newLaptopDoc(l)
	res, err := s.laptops.UpdateOne(ctx, bson.M{"_id": l.ID}, bson.M{"$set": bson.M{
		"brand":        d.Brand,
		"model":        d.Model,
		"serialNumber": d.SerialNumber,
		"specs":        d.Specs,
		"status":       d.Status,
		"assignedTo":   d.AssignedTo,
		"updatedAt":    d.UpdatedAt,
	}})
	if err != nil {
		return mapMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SwapState filters on the expected status and holder so the update is a
// single atomic compare-and-set on the document.
func (s *MongoStore) SwapState(ctx context.Context, id string, from, to model.LaptopState, at time.Time) error {
	res, err := s.laptops.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(from.Status()), "assignedTo": holderValue(from)},
		bson.M{"$set": bson.M{
			"status":     string(to.Status()),
			"assignedTo": holderValue(to),
			"updatedAt":  at,
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := s.laptops.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrStateChanged
}

func (s *MongoStore) DeleteLaptop(ctx context.Context, id string) error {
	res, err := s.laptops.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CountByHolder(ctx context.Context, userID string) (int, error) {
	n, err := s.laptops.CountDocuments(ctx, bson.M{"assignedTo": userID})
	return int(n), err
}

func (s *MongoStore) CountByStatus(ctx context.Context) (map[model.Status]int, error) {
	cur, err := s.laptops.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$status"}, {Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	})
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Status string `bson:"_id"`
		N      int    `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := map[model.Status]int{}
	for _, r := range rows {
		out[model.Status(r.Status)] = r.N
	}
	return out, nil
}

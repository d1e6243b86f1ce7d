package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/doctorportal/internal/domain/user"
	"github.com/geocoder89/doctorportal/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UsersRepo struct {
	coll *mongo.Collection
	prom *observability.Prom
}

func NewUsersRepo(db *mongo.Database, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{coll: db.Collection(usersCollection), prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// user documents are flat: profile attributes sit next to the known fields
func decodeUser(doc bson.M) user.User {
	u := user.User{Attributes: make(map[string]any, len(doc))}

	for k, v := range doc {
		switch k {
		case "_id":
		case "email":
			u.Email, _ = v.(string)
		case "role":
			u.Role, _ = v.(string)
		case "createdAt":
			u.CreatedAt = asTime(v)
		case "updatedAt":
			u.UpdatedAt = asTime(v)
		default:
			u.Attributes[k] = v
		}
	}
	return u
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	}
	return time.Time{}
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	output := make([]user.User, 0)

	err := r.observe("users.list", func() error {
		cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
		if err != nil {
			return err
		}
		defer cur.Close(ctx)

		for cur.Next(ctx) {
			var doc bson.M
			if err := cur.Decode(&doc); err != nil {
				return err
			}
			output = append(output, decodeUser(doc))
		}
		return cur.Err()
	})

	if err != nil {
		return nil, err
	}
	return output, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var doc bson.M

	err := r.observe("users.get_by_email", func() error {
		return r.coll.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&doc)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return decodeUser(doc), nil
}

// UpsertProfile $sets the attributes so an identical save is matched but not
// modified. updatedAt is bumped in a second write only when something changed.
func (r *UsersRepo) UpsertProfile(ctx context.Context, email string, profile user.Profile) (user.UpdateResult, error) {
	attrs := profile.Sanitize()
	now := time.Now().UTC()

	set := bson.D{}
	for k, v := range attrs {
		set = append(set, bson.E{Key: k, Value: v})
	}

	update := bson.D{{Key: "$setOnInsert", Value: bson.D{
		{Key: "createdAt", Value: now},
		{Key: "updatedAt", Value: now},
	}}}
	if len(set) > 0 {
		update = append(update, bson.E{Key: "$set", Value: set})
	}

	filter := bson.D{{Key: "email", Value: email}}

	var res *mongo.UpdateResult
	err := r.observe("users.upsert_profile", func() error {
		var err error
		res, err = r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
		if mongo.IsDuplicateKeyError(err) {
			// concurrent first save for the same email; the retry matches it
			res, err = r.coll.UpdateOne(ctx, filter, update)
		}
		return err
	})
	if err != nil {
		return user.UpdateResult{}, err
	}

	out := user.UpdateResult{
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
	if oid, ok := res.UpsertedID.(primitive.ObjectID); ok {
		out.UpsertedID = oid.Hex()
	}

	if res.ModifiedCount > 0 {
		err = r.observe("users.touch", func() error {
			_, err := r.coll.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: now}}}})
			return err
		})
		if err != nil {
			return user.UpdateResult{}, err
		}
	}

	return out, nil
}

func (r *UsersRepo) SetRole(ctx context.Context, email, role string) (user.UpdateResult, error) {
	var res *mongo.UpdateResult

	err := r.observe("users.set_role", func() error {
		var err error
		res, err = r.coll.UpdateOne(ctx,
			bson.D{{Key: "email", Value: email}, {Key: "role", Value: bson.D{{Key: "$ne", Value: role}}}},
			bson.D{{Key: "$set", Value: bson.D{{Key: "role", Value: role}, {Key: "updatedAt", Value: time.Now().UTC()}}}},
		)
		return err
	})
	if err != nil {
		return user.UpdateResult{}, err
	}

	if res.ModifiedCount > 0 {
		return user.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
	}

	var count int64
	err = r.observe("users.exists", func() error {
		var err error
		count, err = r.coll.CountDocuments(ctx, bson.D{{Key: "email", Value: email}}, options.Count().SetLimit(1))
		return err
	})
	if err != nil {
		return user.UpdateResult{}, err
	}

	return user.UpdateResult{MatchedCount: count}, nil
}

// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/organigram/internal/app/system/normalize"
	"github.com/dalemusser/organigram/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the users collection.
const Collection = "users"

var (
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateUser is returned when the email or username is taken.
	ErrDuplicateUser = errors.New("a user with this username or email already exists")
	errBadRole       = errors.New(`role must be "user"|"editor"|"admin"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts a new user after normalizing & validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Username = normalize.Username(u.Username)
	u.UsernameCI = text.Fold(u.Username)
	u.Email = normalize.Email(u.Email)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Role = normalize.Role(u.Role); u.Role == "" {
		return models.User{}, errBadRole
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateUser
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

// GetByLogin looks up a user by email or by folded username.
func (s *Store) GetByLogin(ctx context.Context, emailOrUsername string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"email": normalize.Email(emailOrUsername)},
		bson.M{"username_ci": text.Fold(normalize.Username(emailOrUsername))},
	}})
}

// Exists reports whether the email or username is already taken.
func (s *Store) Exists(ctx context.Context, email, username string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"$or": bson.A{
		bson.M{"email": normalize.Email(email)},
		bson.M{"username_ci": text.Fold(normalize.Username(username))},
	}}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AdminUpsert describes the admin account the bootstrap CLI ensures.
type AdminUpsert struct {
	Email        string
	Username     string
	PasswordHash string
	Permissions  []string
}

// UpsertAdmin promotes the user with in.Email to admin (resetting the
// password and permissions, keeping an existing username) or creates it.
// created reports which happened.
func (s *Store) UpsertAdmin(ctx context.Context, in AdminUpsert) (u models.User, created bool, err error) {
	existing, err := s.GetByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return models.User{}, false, err
	}
	perms := in.Permissions
	if perms == nil {
		perms = []string{}
	}

	if existing != nil {
		set := bson.M{
			"role":          models.RoleAdmin,
			"password_hash": in.PasswordHash,
			"permissions":   perms,
			"updated_at":    time.Now().UTC(),
		}
		if existing.Username == "" {
			set["username"] = normalize.Username(in.Username)
			set["username_ci"] = text.Fold(normalize.Username(in.Username))
		}
		if _, err := s.c.UpdateByID(ctx, existing.ID, bson.M{"$set": set}); err != nil {
			if wafflemongo.IsDup(err) {
				return models.User{}, false, ErrDuplicateUser
			}
			return models.User{}, false, err
		}
		updated, err := s.GetByID(ctx, existing.ID)
		if err != nil {
			return models.User{}, false, err
		}
		return *updated, false, nil
	}

	u, err = s.Create(ctx, models.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: in.PasswordHash,
		Role:         models.RoleAdmin,
		Permissions:  perms,
	})
	if err != nil {
		return models.User{}, false, err
	}
	return u, true, nil
}

// GetByIDs returns the users with the given ids. Unknown ids are skipped.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	opts := options.Find().SetProjection(bson.M{"password_hash": 0})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"level_checkin_bot/internal/domain"
	"level_checkin_bot/internal/logging"
)

type overridesCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// Overrides stores admin-set leaderboard values. An override replaces the
// computed all-time score for its user while present; progress history is
// untouched.
type Overrides struct {
	coll   overridesCollection
	clock  func() time.Time
	logger *logrus.Entry
}

// NewOverrides constructs an Overrides repository.
func NewOverrides(coll overridesCollection, logger *logrus.Entry) *Overrides {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Overrides{
		coll:   coll,
		clock:  time.Now,
		logger: logger,
	}
}

// Set upserts the override for a user.
func (o *Overrides) Set(ctx context.Context, userID, username string, level int, reason, adminID string) (domain.Override, error) {
	if o == nil || o.coll == nil {
		return domain.Override{}, errors.New("overrides repository is not initialized")
	}
	if ctx == nil {
		return domain.Override{}, errors.New("context is required")
	}
	if userID == "" {
		return domain.Override{}, errors.New("user_id is required")
	}
	if level < 0 {
		return domain.Override{}, fmt.Errorf("override level must be non-negative, got %d", level)
	}

	override := domain.Override{
		UserID:    userID,
		Username:  username,
		Level:     level,
		Reason:    reason,
		AdminID:   adminID,
		Timestamp: o.clock().UTC().Truncate(time.Millisecond),
	}

	update := bson.M{
		"$set": bson.M{
			"username":       username,
			"override_level": level,
			"reason":         reason,
			"admin_id":       adminID,
			"timestamp":      override.Timestamp,
		},
		"$setOnInsert": bson.M{"user_id": userID},
	}

	if _, err := o.coll.UpdateOne(ctx, bson.M{"user_id": userID}, update, options.Update().SetUpsert(true)); err != nil {
		return domain.Override{}, fmt.Errorf("set override: %w", err)
	}

	o.logger.WithFields(logging.Fields{
		"event":    "override_set",
		"user_id":  userID,
		"level":    level,
		"admin_id": adminID,
	}).Info("set leaderboard override")

	return override, nil
}

// Get fetches the override for a user. The second return is false when none
// is set (or the document is unreadable).
func (o *Overrides) Get(ctx context.Context, userID string) (domain.Override, bool, error) {
	if o == nil || o.coll == nil {
		return domain.Override{}, false, errors.New("overrides repository is not initialized")
	}
	if ctx == nil {
		return domain.Override{}, false, errors.New("context is required")
	}
	if userID == "" {
		return domain.Override{}, false, errors.New("user_id is required")
	}

	result := o.coll.FindOne(ctx, bson.M{"user_id": userID})
	if result == nil {
		return domain.Override{}, false, nil
	}
	if err := result.Err(); err != nil {
		return domain.Override{}, false, nil
	}

	var override domain.Override
	if err := result.Decode(&override); err != nil {
		return domain.Override{}, false, nil
	}

	return override, true, nil
}

// All returns every override keyed by user ID, for leaderboard assembly.
func (o *Overrides) All(ctx context.Context) (map[string]domain.Override, error) {
	if o == nil || o.coll == nil {
		return nil, errors.New("overrides repository is not initialized")
	}
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	cursor, err := o.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("scan overrides: %w", err)
	}
	defer cursor.Close(ctx)

	overrides := make(map[string]domain.Override)
	for cursor.Next(ctx) {
		var override domain.Override
		if err := cursor.Decode(&override); err != nil {
			o.logger.WithField("event", "override_decode_error").WithError(err).Warn("skipping undecodable override")
			continue
		}
		overrides[override.UserID] = override
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate overrides: %w", err)
	}

	return overrides, nil
}

// Clear removes the override for a user.
func (o *Overrides) Clear(ctx context.Context, userID string) error {
	if o == nil || o.coll == nil {
		return errors.New("overrides repository is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if userID == "" {
		return errors.New("user_id is required")
	}

	if _, err := o.coll.DeleteOne(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("clear override: %w", err)
	}

	o.logger.WithFields(logging.Fields{
		"event":   "override_cleared",
		"user_id": userID,
	}).Info("cleared leaderboard override")

	return nil
}

// Package prefs persists per-user check-in preferences.
package prefs

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

// ErrAdminLocked is returned when a user tries to change a check-in time an
// admin has locked for them.
var ErrAdminLocked = errors.New("check-in time is locked by an admin")

type prefsCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// Repository reads and writes user preference documents. Writes touch only
// the field being changed (merge-style upserts), so setting a timezone never
// clobbers an opt-out and vice versa.
type Repository struct {
	coll   prefsCollection
	logger *logrus.Entry
}

// NewRepository constructs a Repository.
func NewRepository(coll prefsCollection, logger *logrus.Entry) *Repository {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Repository{
		coll:   coll,
		logger: logger,
	}
}

// Get fetches a user's preferences. A missing document or failed read
// resolves to empty preferences, whose methods apply the defaults (opt-in
// true, home zone, global hour).
func (r *Repository) Get(ctx context.Context, userID string) (domain.Preferences, error) {
	if r == nil || r.coll == nil {
		return domain.Preferences{}, errors.New("prefs repository is not initialized")
	}
	if ctx == nil {
		return domain.Preferences{}, errors.New("context is required")
	}
	if userID == "" {
		return domain.Preferences{}, errors.New("user_id is required")
	}

	empty := domain.Preferences{UserID: userID}

	result := r.coll.FindOne(ctx, bson.M{"user_id": userID})
	if result == nil {
		return empty, nil
	}
	if err := result.Err(); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.WithFields(logging.Fields{
				"event":   "prefs_read_error",
				"user_id": userID,
			}).WithError(err).Warn("treating unreadable preferences as defaults")
		}
		return empty, nil
	}

	var prefs domain.Preferences
	if err := result.Decode(&prefs); err != nil {
		r.logger.WithFields(logging.Fields{
			"event":   "prefs_decode_error",
			"user_id": userID,
		}).WithError(err).Warn("treating undecodable preferences as defaults")
		return empty, nil
	}

	return prefs, nil
}

// SetOptIn records whether the user receives daily check-in prompts.
func (r *Repository) SetOptIn(ctx context.Context, userID string, optIn bool) error {
	return r.merge(ctx, userID, bson.M{"opt_in": optIn}, "prefs_opt_in_set")
}

// SetTimezone records the user's IANA timezone. The zone must load.
func (r *Repository) SetTimezone(ctx context.Context, userID, zone string) error {
	if _, err := time.LoadLocation(zone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", zone, err)
	}

	return r.merge(ctx, userID, bson.M{"timezone": zone}, "prefs_timezone_set")
}

// SetCheckinTime records the user's daily prompt time. A non-admin change is
// rejected with ErrAdminLocked while an admin override is in place; an admin
// write sets (or refreshes) the override flag.
func (r *Repository) SetCheckinTime(ctx context.Context, userID string, ct domain.CheckinTime, byAdmin bool) error {
	if err := ct.Validate(); err != nil {
		return err
	}

	current, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}
	if current.Checkin != nil && current.Checkin.AdminOverride && !byAdmin {
		return ErrAdminLocked
	}

	ct.AdminOverride = byAdmin
	return r.merge(ctx, userID, bson.M{"checkin_time": ct}, "prefs_checkin_time_set")
}

// ClearCheckinTime removes the per-user prompt time, reverting to the global
// default hour.
func (r *Repository) ClearCheckinTime(ctx context.Context, userID string) error {
	if r == nil || r.coll == nil {
		return errors.New("prefs repository is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if userID == "" {
		return errors.New("user_id is required")
	}

	update := bson.M{
		"$unset":       bson.M{"checkin_time": ""},
		"$setOnInsert": bson.M{"user_id": userID},
	}

	if _, err := r.coll.UpdateOne(ctx, bson.M{"user_id": userID}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("clear check-in time: %w", err)
	}

	return nil
}

func (r *Repository) merge(ctx context.Context, userID string, fields bson.M, event string) error {
	if r == nil || r.coll == nil {
		return errors.New("prefs repository is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if userID == "" {
		return errors.New("user_id is required")
	}

	update := bson.M{
		"$set":         fields,
		"$setOnInsert": bson.M{"user_id": userID},
	}

	if _, err := r.coll.UpdateOne(ctx, bson.M{"user_id": userID}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}

	r.logger.WithFields(logging.Fields{
		"event":   event,
		"user_id": userID,
	}).Info("updated preferences")

	return nil
}

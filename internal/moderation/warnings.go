// Package moderation persists admin moderation state: warning logs and
// leaderboard overrides.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"level_checkin_bot/internal/domain"
	"level_checkin_bot/internal/logging"
)

type warningsCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// Warnings appends to and reads per-user warning logs. Logs are append-only;
// the only removal is the wholesale Clear.
type Warnings struct {
	coll   warningsCollection
	clock  func() time.Time
	logger *logrus.Entry
}

// NewWarnings constructs a Warnings repository.
func NewWarnings(coll warningsCollection, logger *logrus.Entry) *Warnings {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Warnings{
		coll:   coll,
		clock:  time.Now,
		logger: logger,
	}
}

// Add appends a warning to the user's log, creating the log if absent.
func (w *Warnings) Add(ctx context.Context, userID, username, reason, adminID string) (domain.Warning, error) {
	if w == nil || w.coll == nil {
		return domain.Warning{}, errors.New("warnings repository is not initialized")
	}
	if ctx == nil {
		return domain.Warning{}, errors.New("context is required")
	}
	if userID == "" {
		return domain.Warning{}, errors.New("user_id is required")
	}
	if reason == "" {
		return domain.Warning{}, errors.New("reason is required")
	}

	warning := domain.Warning{
		ID:        uuid.NewString(),
		Reason:    reason,
		AdminID:   adminID,
		Timestamp: w.clock().UTC().Truncate(time.Millisecond),
	}

	update := bson.M{
		"$set":         bson.M{"username": username},
		"$push":        bson.M{"warnings": warning},
		"$setOnInsert": bson.M{"user_id": userID},
	}

	if _, err := w.coll.UpdateOne(ctx, bson.M{"user_id": userID}, update, options.Update().SetUpsert(true)); err != nil {
		return domain.Warning{}, fmt.Errorf("append warning: %w", err)
	}

	w.logger.WithFields(logging.Fields{
		"event":    "warning_logged",
		"user_id":  userID,
		"admin_id": adminID,
	}).Info("logged warning")

	return warning, nil
}

// List returns the user's warnings in insertion order. A missing or
// unreadable log resolves to an empty list.
func (w *Warnings) List(ctx context.Context, userID string) ([]domain.Warning, error) {
	if w == nil || w.coll == nil {
		return nil, errors.New("warnings repository is not initialized")
	}
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if userID == "" {
		return nil, errors.New("user_id is required")
	}

	result := w.coll.FindOne(ctx, bson.M{"user_id": userID})
	if result == nil {
		return nil, nil
	}
	if err := result.Err(); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			w.logger.WithFields(logging.Fields{
				"event":   "warnings_read_error",
				"user_id": userID,
			}).WithError(err).Warn("treating unreadable warning log as empty")
		}
		return nil, nil
	}

	var log domain.WarningLog
	if err := result.Decode(&log); err != nil {
		return nil, nil
	}

	return log.Warnings, nil
}

// Clear deletes the user's whole warning log.
func (w *Warnings) Clear(ctx context.Context, userID string) error {
	if w == nil || w.coll == nil {
		return errors.New("warnings repository is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if userID == "" {
		return errors.New("user_id is required")
	}

	if _, err := w.coll.DeleteOne(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("clear warnings: %w", err)
	}

	w.logger.WithFields(logging.Fields{
		"event":   "warnings_cleared",
		"user_id": userID,
	}).Info("cleared warning log")

	return nil
}

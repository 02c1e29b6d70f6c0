// Package progress persists and retrieves per-user check-in histories.
package progress

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

type progressCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// Repository reads and writes ProgressRecord documents. Writes are
// read-modify-write over the whole entries map with last-write-wins
// semantics; the only writer for a record is the user themselves plus the
// occasional admin override, so lost updates are acceptable.
type Repository struct {
	coll   progressCollection
	home   *time.Location
	clock  func() time.Time
	logger *logrus.Entry
}

// NewRepository constructs a Repository. Date keys are computed in the home
// timezone.
func NewRepository(coll progressCollection, home *time.Location, logger *logrus.Entry) *Repository {
	if logger == nil {
		logger = logging.Logger()
	}
	if home == nil {
		home = time.UTC
	}

	return &Repository{
		coll:   coll,
		home:   home,
		clock:  time.Now,
		logger: logger,
	}
}

// Get fetches a user's record. A missing document or a failed read both
// resolve to an empty record so callers can treat "absent" and "unreadable"
// uniformly.
func (r *Repository) Get(ctx context.Context, userID string) (domain.ProgressRecord, error) {
	if r == nil || r.coll == nil {
		return domain.ProgressRecord{}, errors.New("progress repository is not initialized")
	}
	if ctx == nil {
		return domain.ProgressRecord{}, errors.New("context is required")
	}
	if userID == "" {
		return domain.ProgressRecord{}, errors.New("user_id is required")
	}

	empty := domain.ProgressRecord{UserID: userID, Entries: map[string]int{}}

	result := r.coll.FindOne(ctx, bson.M{"user_id": userID})
	if result == nil {
		return empty, nil
	}
	if err := result.Err(); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.WithFields(logging.Fields{
				"event":   "progress_read_error",
				"user_id": userID,
			}).WithError(err).Warn("treating unreadable progress record as empty")
		}
		return empty, nil
	}

	var record domain.ProgressRecord
	if err := result.Decode(&record); err != nil {
		r.logger.WithFields(logging.Fields{
			"event":   "progress_decode_error",
			"user_id": userID,
		}).WithError(err).Warn("treating undecodable progress record as empty")
		return empty, nil
	}

	if record.Entries == nil {
		record.Entries = map[string]int{}
	}
	return record, nil
}

// SaveEntry upserts today's entry for the user: the given level, or the
// no-report sentinel when level is nil. The whole entries map is written back.
func (r *Repository) SaveEntry(ctx context.Context, userID, username string, level *int) (domain.ProgressRecord, error) {
	if r == nil || r.coll == nil {
		return domain.ProgressRecord{}, errors.New("progress repository is not initialized")
	}
	if ctx == nil {
		return domain.ProgressRecord{}, errors.New("context is required")
	}
	if userID == "" {
		return domain.ProgressRecord{}, errors.New("user_id is required")
	}
	if level != nil && *level < 0 {
		return domain.ProgressRecord{}, fmt.Errorf("level must be non-negative, got %d", *level)
	}

	record, err := r.Get(ctx, userID)
	if err != nil {
		return domain.ProgressRecord{}, err
	}

	today := domain.DateKey(r.clock().In(r.home))
	if level != nil {
		record.Entries[today] = *level
	} else {
		record.Entries[today] = domain.NoReport
	}
	record.Username = username

	update := bson.M{
		"$set": bson.M{
			"username": username,
			"entries":  record.Entries,
		},
		"$setOnInsert": bson.M{
			"user_id": userID,
		},
	}

	if _, err := r.coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		update,
		options.Update().SetUpsert(true),
	); err != nil {
		return domain.ProgressRecord{}, fmt.Errorf("save progress entry: %w", err)
	}

	r.logger.WithFields(logging.Fields{
		"event":   "progress_saved",
		"user_id": userID,
		"date":    today,
		"level":   record.Entries[today],
	}).Info("saved progress entry")

	return record, nil
}

// All scans the full collection. Every leaderboard and report computation
// reads through here; the collection is small enough that a full scan per
// query is fine.
func (r *Repository) All(ctx context.Context) ([]domain.ProgressRecord, error) {
	if r == nil || r.coll == nil {
		return nil, errors.New("progress repository is not initialized")
	}
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	cursor, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("scan progress records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []domain.ProgressRecord
	for cursor.Next(ctx) {
		var record domain.ProgressRecord
		if err := cursor.Decode(&record); err != nil {
			r.logger.WithField("event", "progress_scan_decode_error").WithError(err).Warn("skipping undecodable progress record")
			continue
		}
		if record.Entries == nil {
			record.Entries = map[string]int{}
		}
		records = append(records, record)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress records: %w", err)
	}

	return records, nil
}

// Reset deletes the user's record entirely.
func (r *Repository) Reset(ctx context.Context, userID string) error {
	if r == nil || r.coll == nil {
		return errors.New("progress repository is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if userID == "" {
		return errors.New("user_id is required")
	}

	if _, err := r.coll.DeleteOne(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("reset progress record: %w", err)
	}

	r.logger.WithFields(logging.Fields{
		"event":   "progress_reset",
		"user_id": userID,
	}).Info("deleted progress record")

	return nil
}

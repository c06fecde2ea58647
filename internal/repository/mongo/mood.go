package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/mindspace/internal/apperror"
	"github.com/sakif/mindspace/internal/model"
	"github.com/sakif/mindspace/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// DuplicateDayMessage is returned when two first-of-the-day upserts race and
// the loser hits the unique index.
const DuplicateDayMessage = "mood already logged today, try updating it instead"

type moodDoc struct {
	ID        string    `bson:"_id"`
	OwnerID   string    `bson:"ownerId"`
	OwnerKind string    `bson:"ownerKind"`
	Mood      string    `bson:"mood"`
	Intensity int       `bson:"intensity"`
	Notes     string    `bson:"notes"`
	Day       string    `bson:"day"`
	Date      time.Time `bson:"date"`
	IsActive  bool      `bson:"isActive"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (d *moodDoc) toModel() model.MoodEntry {
	return model.MoodEntry{
		ID:        d.ID,
		OwnerID:   d.OwnerID,
		OwnerKind: model.OwnerKind(d.OwnerKind),
		Mood:      model.Mood(d.Mood),
		Intensity: d.Intensity,
		Notes:     d.Notes,
		Date:      d.Date,
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func ownerFilter(owner model.Owner) bson.M {
	return bson.M{"ownerId": owner.ID, "ownerKind": string(owner.Kind), "isActive": true}
}

// UpsertDaily is a single findOneAndUpdate with upsert on the live entry of
// the day. Equality fields of the filter are copied into an inserted
// document, $setOnInsert supplies the rest.
func (s *Store) UpsertDaily(ctx context.Context, entry *model.MoodEntry, setNotes bool) (bool, error) {
	newID := xid.New().String()

	filter := ownerFilter(entry.Owner())
	filter["day"] = model.DayKey(entry.Date)

	set := bson.M{
		"mood":      string(entry.Mood),
		"intensity": entry.Intensity,
		"updatedAt": repository.OrNow(entry.UpdatedAt),
	}
	onInsert := bson.M{
		"_id":       newID,
		"date":      entry.Date,
		"createdAt": repository.OrNow(entry.CreatedAt),
	}
	if setNotes {
		set["notes"] = entry.Notes
	} else {
		onInsert["notes"] = ""
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc moodDoc
	err := s.moods.FindOneAndUpdate(ctx, filter, bson.M{"$set": set, "$setOnInsert": onInsert}, opts).Decode(&doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, apperror.Conflict(DuplicateDayMessage)
		}
		return false, fmt.Errorf("mongo: upserting mood entry for %s: %w", entry.Owner(), err)
	}

	*entry = doc.toModel()
	return doc.ID == newID, nil
}

func (s *Store) GetActive(ctx context.Context, id string, owner model.Owner) (*model.MoodEntry, error) {
	filter := ownerFilter(owner)
	filter["_id"] = id

	var doc moodDoc
	if err := s.moods.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("mood entry", id)
		}
		return nil, fmt.Errorf("mongo: getting mood entry %s: %w", id, err)
	}
	e := doc.toModel()
	return &e, nil
}

func (s *Store) Update(ctx context.Context, entry *model.MoodEntry) error {
	entry.UpdatedAt = repository.OrNow(entry.UpdatedAt)

	filter := ownerFilter(entry.Owner())
	filter["_id"] = entry.ID

	res, err := s.moods.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"mood":      string(entry.Mood),
		"intensity": entry.Intensity,
		"notes":     entry.Notes,
		"updatedAt": entry.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("mongo: updating mood entry %s: %w", entry.ID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("mood entry", entry.ID)
	}
	return nil
}

func (s *Store) SoftDelete(ctx context.Context, id string, owner model.Owner, at time.Time) error {
	filter := ownerFilter(owner)
	filter["_id"] = id

	res, err := s.moods.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"isActive":  false,
		"updatedAt": repository.OrNow(at),
	}})
	if err != nil {
		return fmt.Errorf("mongo: deleting mood entry %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("mood entry", id)
	}
	return nil
}

func (s *Store) ListActive(ctx context.Context, owner model.Owner, opts repository.ListOptions) ([]model.MoodEntry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := max(opts.Offset, 0)

	findOpts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	return s.find(ctx, "listing mood entries", ownerFilter(owner), findOpts)
}

func (s *Store) CountActive(ctx context.Context, owner model.Owner) (int64, error) {
	n, err := s.moods.CountDocuments(ctx, ownerFilter(owner))
	if err != nil {
		return 0, fmt.Errorf("mongo: counting mood entries: %w", err)
	}
	return n, nil
}

func (s *Store) ListByDate(ctx context.Context, owner model.Owner, from, to time.Time) ([]model.MoodEntry, error) {
	filter := ownerFilter(owner)
	filter["date"] = bson.M{"$gte": from, "$lt": to}

	findOpts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	return s.find(ctx, "listing mood entries by date", filter, findOpts)
}

func (s *Store) ListCreatedSince(ctx context.Context, owner model.Owner, since time.Time) ([]model.MoodEntry, error) {
	filter := ownerFilter(owner)
	filter["createdAt"] = bson.M{"$gte": since}

	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return s.find(ctx, "listing recent mood entries", filter, findOpts)
}

func (s *Store) find(ctx context.Context, action string, filter bson.M, opts *options.FindOptions) ([]model.MoodEntry, error) {
	cur, err := s.moods.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: %s: %w", action, err)
	}
	var docs []moodDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decoding mood entries: %w", err)
	}

	entries := make([]model.MoodEntry, 0, len(docs))
	for i := range docs {
		entries = append(entries, docs[i].toModel())
	}
	return entries, nil
}

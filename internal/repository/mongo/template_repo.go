package mongo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"alcyxob/movement-program/internal/corpus"
	"alcyxob/movement-program/internal/domain"
	"alcyxob/movement-program/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const templateCollectionName = "exercise_templates"

// templateDocument stores a template with its position in the published bundle,
// so every backend hands the engine the same corpus order.
type templateDocument struct {
	domain.ExerciseTemplate `bson:",inline"`
	Position                int `bson:"position"`
}

// mongoTemplateRepository implements repository.TemplateRepository
type mongoTemplateRepository struct {
	collection *mongo.Collection
}

// NewMongoTemplateRepository creates a template repository backed by MongoDB.
func NewMongoTemplateRepository(db *mongo.Database) repository.TemplateRepository {
	return &mongoTemplateRepository{
		collection: db.Collection(templateCollectionName),
	}
}

// LoadCorpus returns every template of a scoring version in bundle order.
func (r *mongoTemplateRepository) LoadCorpus(ctx context.Context, scoringVersion string) ([]domain.ExerciseTemplate, error) {
	templates, err := r.find(ctx, bson.M{"scoringVersion": scoringVersion})
	if err != nil {
		return nil, corpus.Unavailable("load version %s: %w", scoringVersion, err)
	}
	if len(templates) == 0 {
		return nil, corpus.Unavailable("scoring version %s has no templates", scoringVersion)
	}
	return templates, nil
}

// FallbackTemplates returns the fallback subset of a scoring version.
func (r *mongoTemplateRepository) FallbackTemplates(ctx context.Context, scoringVersion string) ([]domain.ExerciseTemplate, error) {
	templates, err := r.find(ctx, bson.M{"scoringVersion": scoringVersion, "isFallback": true})
	if err != nil {
		return nil, corpus.Unavailable("load fallbacks of %s: %w", scoringVersion, err)
	}
	return templates, nil
}

// Versions lists the distinct scoring versions present in the collection.
func (r *mongoTemplateRepository) Versions(ctx context.Context) ([]string, error) {
	raw, err := r.collection.Distinct(ctx, "scoringVersion", bson.M{})
	if err != nil {
		return nil, corpus.Unavailable("list scoring versions: %w", err)
	}
	versions := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			versions = append(versions, s)
		}
	}
	sort.Strings(versions)
	return versions, nil
}

func (r *mongoTemplateRepository) find(ctx context.Context, filter bson.M) ([]domain.ExerciseTemplate, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []templateDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	templates := make([]domain.ExerciseTemplate, len(docs))
	for i, d := range docs {
		templates[i] = d.ExerciseTemplate
	}
	return templates, nil
}

// UpsertMany replaces templates by (scoringVersion, templateId) in one bulk write.
func (r *mongoTemplateRepository) UpsertMany(ctx context.Context, templates []domain.ExerciseTemplate) (int, error) {
	if len(templates) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(templates))
	for i, t := range templates {
		if t.ID == "" || t.ScoringVersion == "" {
			return 0, fmt.Errorf("%w: template at position %d needs an id and a scoring version", repository.ErrInvalidRecord, i)
		}
		t.UpdatedAt = now
		doc := templateDocument{ExerciseTemplate: t, Position: i}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"scoringVersion": t.ScoringVersion, "templateId": t.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	result, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return 0, err
	}
	return int(result.UpsertedCount + result.MatchedCount), nil
}

// DeleteVersion removes every template of a scoring version.
func (r *mongoTemplateRepository) DeleteVersion(ctx context.Context, scoringVersion string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"scoringVersion": scoringVersion})
	if err != nil {
		return 0, err
	}
	if result.DeletedCount == 0 {
		return 0, repository.ErrNotFound
	}
	return result.DeletedCount, nil
}

// EnsureTemplateIndexes creates the indexes the corpus queries rely on.
func EnsureTemplateIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			// One template id per scoring version
			Keys:    bson.D{{Key: "scoringVersion", Value: 1}, {Key: "templateId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("template_version_id"),
		},
		{
			// Corpus and fallback reads in bundle order
			Keys:    bson.D{{Key: "scoringVersion", Value: 1}, {Key: "isFallback", Value: 1}, {Key: "position", Value: 1}},
			Options: options.Index().SetName("template_version_fallback_position"),
		},
	}

	_, err := db.Collection(templateCollectionName).Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("create indexes for %s: %w", templateCollectionName, err)
	}
	return nil
}

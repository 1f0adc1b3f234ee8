package repository

import (
	"context"
	"fmt"

	"clip_service/internal/trending/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReportCollection mongo collection of run reports
const ReportCollection = "trending_runs"

// ReportIndex Recent reads newest first
var ReportIndex = bson.D{{Key: "started_at", Value: -1}}

// ReportRepo append-only log of trending runs
type ReportRepo interface {
	Append(ctx context.Context, report domain.RunReport) error
	Recent(ctx context.Context, limit int) ([]domain.RunReport, error)
}

type mongoReportRepo struct {
	collection *mongo.Collection
}

// NewMongoReportRepo create ReportRepo on a mongo database
func NewMongoReportRepo(db *mongo.Database) ReportRepo {
	return &mongoReportRepo{collection: db.Collection(ReportCollection)}
}

func (r *mongoReportRepo) Append(ctx context.Context, report domain.RunReport) error {
	if _, err := r.collection.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("insert run report: %w", err)
	}
	return nil
}

func (r *mongoReportRepo) Recent(ctx context.Context, limit int) ([]domain.RunReport, error) {
	opts := options.Find().
		SetSort(ReportIndex).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find run reports: %w", err)
	}
	defer cursor.Close(ctx)

	var reports []domain.RunReport
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("decode run reports: %w", err)
	}
	return reports, nil
}

type nopReportRepo struct{}

// NewNopReportRepo ReportRepo used when mongo is not configured
func NewNopReportRepo() ReportRepo {
	return nopReportRepo{}
}

func (nopReportRepo) Append(context.Context, domain.RunReport) error {
	return nil
}

func (nopReportRepo) Recent(context.Context, int) ([]domain.RunReport, error) {
	return nil, nil
}

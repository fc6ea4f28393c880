package mongostore

import (
	"context"

	"bootcamp-admin/internal/shared/model"
	"bootcamp-admin/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// BootcampStore
// ============================================================================

func (s *Store) CreateBootcamp(ctx context.Context, b *model.Bootcamp) error {
	return insertOne(ctx, s.col(storage.ColBootcamps), b)
}

func (s *Store) GetBootcamp(ctx context.Context, id string) (*model.Bootcamp, error) {
	return findOne[model.Bootcamp](ctx, s.col(storage.ColBootcamps), bson.D{{Key: "_id", Value: id}})
}

// GetBootcampByOwner 返回用户已发布的训练营；没有返回 (nil, nil)
func (s *Store) GetBootcampByOwner(ctx context.Context, userID string) (*model.Bootcamp, error) {
	return findOne[model.Bootcamp](ctx, s.col(storage.ColBootcamps), bson.D{{Key: "user", Value: userID}})
}

func (s *Store) UpdateBootcamp(ctx context.Context, id string, fields map[string]interface{}) error {
	return updateFields(ctx, s.col(storage.ColBootcamps), id, setFieldsMap(fields))
}

func (s *Store) DeleteBootcamp(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(storage.ColBootcamps), id)
}

// FindBootcampsWithinRadius 球面半径查询
//
// radius 单位为弧度（距离 / 地球半径），$centerSphere 不依赖 2dsphere 索引，
// 但建了索引可走索引扫描。
func (s *Store) FindBootcampsWithinRadius(ctx context.Context, lng, lat, radius float64) ([]*model.Bootcamp, error) {
	filter := bson.D{{Key: "location", Value: bson.D{
		{Key: "$geoWithin", Value: bson.D{
			{Key: "$centerSphere", Value: bson.A{bson.A{lng, lat}, radius}},
		}},
	}}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Bootcamp](ctx, s.col(storage.ColBootcamps), filter, opts)
}

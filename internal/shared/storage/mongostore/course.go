package mongostore

import (
	"context"

	"bootcamp-admin/internal/shared/model"
	"bootcamp-admin/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// CourseStore
// ============================================================================

func (s *Store) CreateCourse(ctx context.Context, c *model.Course) error {
	return insertOne(ctx, s.col(storage.ColCourses), c)
}

func (s *Store) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	return findOne[model.Course](ctx, s.col(storage.ColCourses), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListCoursesByBootcamp(ctx context.Context, bootcampID string) ([]*model.Course, error) {
	filter := bson.D{{Key: "bootcamp", Value: bootcampID}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Course](ctx, s.col(storage.ColCourses), filter, opts)
}

func (s *Store) UpdateCourse(ctx context.Context, id string, fields map[string]interface{}) error {
	return updateFields(ctx, s.col(storage.ColCourses), id, setFieldsMap(fields))
}

func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(storage.ColCourses), id)
}

// DeleteCoursesByBootcamp 级联删除训练营下的全部课程
func (s *Store) DeleteCoursesByBootcamp(ctx context.Context, bootcampID string) error {
	_, err := s.col(storage.ColCourses).DeleteMany(ctx, bson.D{{Key: "bootcamp", Value: bootcampID}})
	return wrapError(err)
}

package mongostore

import (
	"context"
	"time"

	"bootcamp-admin/internal/shared/model"
	"bootcamp-admin/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return insertOne(ctx, s.col(storage.ColUsers), user)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(storage.ColUsers), bson.D{{Key: "email", Value: email}})
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(storage.ColUsers), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	return updateFields(ctx, s.col(storage.ColUsers), id, bson.D{
		{Key: "password_hash", Value: passwordHash},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) SetUserResetToken(ctx context.Context, id, tokenHash string, expire time.Time) error {
	return updateFields(ctx, s.col(storage.ColUsers), id, bson.D{
		{Key: "reset_password_hash", Value: tokenHash},
		{Key: "reset_password_expire", Value: expire},
		{Key: "updated_at", Value: time.Now()},
	})
}

// ClearUserResetToken 撤销重置令牌（$unset，字段整体移除）
func (s *Store) ClearUserResetToken(ctx context.Context, id string) error {
	res, err := s.col(storage.ColUsers).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{
			{Key: "$unset", Value: bson.D{
				{Key: "reset_password_hash", Value: ""},
				{Key: "reset_password_expire", Value: ""},
			}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now()}}},
		})
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetUserByResetToken 按令牌哈希查找且要求未过期；查不到返回 (nil, nil)
func (s *Store) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	return findOne[model.User](ctx, s.col(storage.ColUsers), bson.D{
		{Key: "reset_password_hash", Value: tokenHash},
		{Key: "reset_password_expire", Value: bson.D{{Key: "$gt", Value: now}}},
	})
}

package repositories

import (
	"context"
	"errors"

	"github.com/3Eeeecho/go-linktrack/internal/models"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint64) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []uint64) (map[uint64]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

var _ UserRepository = (*userRepository)(nil)

// NewUserRepository 创建一个新的 UserRepository 实例
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		logger.Error("Error creating user", zap.Error(err))
		return err
	}
	return nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		logger.Error("Error getting user by email", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // 用户不存在，返回 nil
		}
		logger.Error("Error getting user by ID", zap.Uint64("userID", id), zap.Error(err))
		return nil, err
	}
	return &user, nil
}

// GetUsersByIDs 批量查询用户，返回以ID为键的映射，供通知分组使用
func (r *userRepository) GetUsersByIDs(ctx context.Context, ids []uint64) (map[uint64]models.User, error) {
	result := make(map[uint64]models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []models.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	if err != nil {
		logger.Error("Error getting users by IDs", zap.Error(err))
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

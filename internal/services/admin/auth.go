package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/3Eeeecho/go-linktrack/internal/config"
	"github.com/3Eeeecho/go-linktrack/internal/models"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/utils"
	"github.com/3Eeeecho/go-linktrack/internal/pkg/xerr"
	"github.com/3Eeeecho/go-linktrack/internal/repositories"
	"gorm.io/gorm"
)

type AuthService interface {
	RegisterUser(ctx context.Context, email, password string) (*models.User, error)
	LoginUser(ctx context.Context, email, password string) (string, error)
}

type authService struct {
	userRepo repositories.UserRepository
	cfg      *config.JWTConfig
}

// 确保authService实现了AuthService的方法
var _ AuthService = (*authService)(nil)

func NewAuthService(userRepo repositories.UserRepository, cfg *config.JWTConfig) AuthService {
	return &authService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

func (s *authService) RegisterUser(ctx context.Context, email, password string) (*models.User, error) {
	//检查邮箱是否存在
	existingUser, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if existingUser != nil {
		return nil, xerr.ErrEmailAlreadyExists
	}

	//哈希密码
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	//创建用户模型，默认普通用户角色，管理员由运维直接落库
	user := &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         models.RoleUser,
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user in database: %w", err)
	}

	return user, nil
}

func (s *authService) LoginUser(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", xerr.ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to get user by email: %w", err)
	}

	//验证密码
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return "", xerr.ErrInvalidCredentials
	}

	//生成JWT Token，角色随 Token 下发
	tokenString, err := utils.GenerateToken(
		user.ID,
		user.Email,
		user.Role,
		s.cfg.SecretKey,
		s.cfg.Issuer,
		s.cfg.ExpiresIn,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, nil
}

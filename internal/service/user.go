package service

import (
	"context"

	"github.com/omkargadekar/chats-app/internal/model"
	"github.com/omkargadekar/chats-app/internal/pkg/apperr"
	"github.com/omkargadekar/chats-app/internal/pkg/auth"
	"github.com/omkargadekar/chats-app/internal/repository"
)

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) Register(ctx context.Context, username, email, password string) (*model.PublicUser, error) {
	// Валидация данных перед созданием
	if username == "" || password == "" {
		return nil, apperr.BadRequest("Username and password are required")
	}

	exists, err := s.userRepo.UsernameExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("User with username already exists")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: username,
		Email:    email,
		Password: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	public := user.Public()
	return &public, nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (string, *model.PublicUser, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, apperr.NotFound("User does not exist")
	}

	if !auth.CheckPasswordHash(password, user.Password) {
		return "", nil, apperr.Unauthorized("Invalid user credentials")
	}

	token, err := auth.GenerateToken(user.ID)
	if err != nil {
		return "", nil, err
	}

	public := user.Public()
	return token, &public, nil
}

func (s *userService) GetByID(ctx context.Context, id uint) (*model.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

func (s *userService) SearchAvailable(ctx context.Context, excludeID uint) ([]model.PublicUser, error) {
	users, err := s.userRepo.SearchAvailable(ctx, excludeID)
	if err != nil {
		return nil, err
	}

	result := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		result = append(result, u.Public())
	}
	return result, nil
}

package service

import (
	"context"

	"github.com/chattyapp/chatty/internal/model"
	"github.com/chattyapp/chatty/internal/repository"
)

// IUserService resolves user-scoped fields. Every operation requires the
// requested user to be the caller; other users' email, friends, and
// groups are never readable.
type IUserService interface {
	GetUser(ctx context.Context, caller *Identity, userID string) (*model.User, error)
	Email(ctx context.Context, caller *Identity, userID string) (string, error)
	Friends(ctx context.Context, caller *Identity, userID string) ([]*model.User, error)
	Groups(ctx context.Context, caller *Identity, userID string) ([]*model.Group, error)
}

type UserService struct {
	userRepo  repository.IUserRepository
	groupRepo repository.IGroupRepository
}

func NewUserService(userRepo repository.IUserRepository, groupRepo repository.IGroupRepository) IUserService {
	return &UserService{
		userRepo:  userRepo,
		groupRepo: groupRepo,
	}
}

func (s *UserService) GetUser(ctx context.Context, caller *Identity, userID string) (*model.User, error) {
	if err := requireSelf(caller, userID); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError("load user", err)
	}
	return user, nil
}

func (s *UserService) Email(ctx context.Context, caller *Identity, userID string) (string, error) {
	if err := requireSelf(caller, userID); err != nil {
		return "", err
	}
	return caller.Email, nil
}

func (s *UserService) Friends(ctx context.Context, caller *Identity, userID string) ([]*model.User, error) {
	if err := requireSelf(caller, userID); err != nil {
		return nil, err
	}
	friends, err := s.userRepo.Friends(ctx, userID)
	if err != nil {
		return nil, storeError("load friends", err)
	}
	return friends, nil
}

func (s *UserService) Groups(ctx context.Context, caller *Identity, userID string) ([]*model.Group, error) {
	if err := requireSelf(caller, userID); err != nil {
		return nil, err
	}
	groups, err := s.groupRepo.MemberGroups(ctx, userID)
	if err != nil {
		return nil, storeError("load groups", err)
	}
	return groups, nil
}

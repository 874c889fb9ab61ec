package service

import (
	"context"

	"github.com/chattyapp/chatty/internal/repository"
)

// requireMember is the authorization gate for group-scoped operations.
// Anonymous callers, non-members, and absent groups all fail the same
// way so callers cannot probe for group existence.
func requireMember(ctx context.Context, groups repository.IGroupRepository, caller *Identity, groupID string) error {
	if caller == nil {
		return ErrUnauthorized
	}
	isMember, err := groups.IsMember(ctx, groupID, caller.ID)
	if err != nil {
		return storeError("check membership", err)
	}
	if !isMember {
		return ErrUnauthorized
	}
	return nil
}

// requireSelf gates user-scoped field resolution: callers may only read
// their own fields.
func requireSelf(caller *Identity, userID string) error {
	if caller == nil || caller.ID != userID {
		return ErrUnauthorized
	}
	return nil
}

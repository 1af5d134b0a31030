package models

import (
	"context"

	"github.com/hosteldesk/hostel_backend/utils"
)

// ResolveHostelScope applies the caller's hostel binding to a requested
// hostel id. Admin callers get the requested id back unchanged (zero
// means "all hostels" on read paths). A hostel operator is forced onto
// their bound hostel; asking for a different one is an authorization
// error, not a silent re-scope.
func ResolveHostelScope(ctx context.Context, requested int) (int, error) {
	roleId, _ := utils.GetRoleIdFromContext(ctx)
	if roleId != RoleIdHostelOperator {
		return requested, nil
	}

	bound, ok := utils.GetHostelIdFromContext(ctx)
	if !ok || bound == 0 {
		return 0, &AuthorizationError{Message: "your account is not linked to any hostel"}
	}
	if requested != 0 && requested != bound {
		return 0, &AuthorizationError{Message: "access to another hostel is not allowed"}
	}
	return bound, nil
}

// ResolveHostelScopeList applies the caller's hostel binding to every
// requested hostel id. A foreign id in the list is an authorization
// error for an operator, same as the single-id variant. An empty list
// resolves to the operator's bound hostel; for admins it stays empty,
// meaning all hostels.
func ResolveHostelScopeList(ctx context.Context, requested []int) ([]int, error) {
	if len(requested) == 0 {
		roleId, _ := utils.GetRoleIdFromContext(ctx)
		if roleId != RoleIdHostelOperator {
			return nil, nil
		}
		bound, err := ResolveHostelScope(ctx, 0)
		if err != nil {
			return nil, err
		}
		return []int{bound}, nil
	}

	scoped := make([]int, 0, len(requested))
	for _, id := range requested {
		resolved, err := ResolveHostelScope(ctx, id)
		if err != nil {
			return nil, err
		}
		scoped = append(scoped, resolved)
	}
	return utils.UniqueSlice(scoped), nil
}

// RequireHostelScope is ResolveHostelScope for operations that must
// target exactly one hostel (mutations): admins have to pass an explicit
// hostel id.
func RequireHostelScope(ctx context.Context, requested int) (int, error) {
	hostelId, err := ResolveHostelScope(ctx, requested)
	if err != nil {
		return 0, err
	}
	if hostelId == 0 {
		return 0, NewValidationError("hostel_id is required for admin users")
	}
	return hostelId, nil
}

package handler

import (
	"errors"

	"github.com/ogurasousui/staff-directory/internal/core/directory"
	"github.com/ogurasousui/staff-directory/internal/core/profile"
	"github.com/ogurasousui/staff-directory/internal/platform/auth"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toStatusError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, profile.ErrInvalidAccountID),
		errors.Is(err, profile.ErrUnknownField),
		errors.Is(err, profile.ErrInvalidFieldValue),
		errors.Is(err, profile.ErrInvalidPlatform),
		errors.Is(err, profile.ErrNothingToUpdate),
		errors.Is(err, directory.ErrInvalidSlug),
		errors.Is(err, directory.ErrUnknownInstance):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, directory.ErrEmployeeNotFound), errors.Is(err, profile.ErrAccountNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, directory.ErrLoginRequired), errors.Is(err, auth.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, auth.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

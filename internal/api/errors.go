package api

import (
	"errors"
	"fmt"

	"github.com/matheus3301/mockchat/internal/chat"
	"github.com/matheus3301/mockchat/internal/status"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// Errors for conditions that only exist on the wire.
var (
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrUnavailable = errors.New("daemon unavailable")
)

var codeKinds = []struct {
	kind error
	code codes.Code
}{
	{chat.ErrNotFound, codes.NotFound},
	{chat.ErrInvalidSender, codes.PermissionDenied},
	{chat.ErrInvalidCredentials, codes.Unauthenticated},
	{chat.ErrNotAuthenticated, codes.Unauthenticated},
	{chat.ErrDuplicateIdentity, codes.AlreadyExists},
	{chat.ErrValidation, codes.InvalidArgument},
	{status.ErrInvalidTransition, codes.FailedPrecondition},
}

// toStatus converts a domain error into a gRPC status error.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := grpcstatus.FromError(err); ok {
		return err
	}
	for _, k := range codeKinds {
		if errors.Is(err, k.kind) {
			return grpcstatus.Error(k.code, err.Error())
		}
	}
	return grpcstatus.Error(codes.Internal, err.Error())
}

// FromStatus turns a status error returned by the daemon back into an error
// that matches the domain sentinels with errors.Is.
func FromStatus(err error) error {
	st, ok := grpcstatus.FromError(err)
	if !ok || st.Code() == codes.OK {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", st.Message(), chat.ErrNotFound)
	case codes.PermissionDenied:
		return fmt.Errorf("%s: %w", st.Message(), chat.ErrInvalidSender)
	case codes.Unauthenticated:
		if st.Message() == chat.ErrInvalidCredentials.Error() {
			return chat.ErrInvalidCredentials
		}
		return fmt.Errorf("%s: %w", st.Message(), chat.ErrNotAuthenticated)
	case codes.AlreadyExists:
		return fmt.Errorf("%s: %w", st.Message(), chat.ErrDuplicateIdentity)
	case codes.InvalidArgument:
		return fmt.Errorf("%s: %w", st.Message(), chat.ErrValidation)
	case codes.FailedPrecondition:
		return fmt.Errorf("%s: %w", st.Message(), status.ErrInvalidTransition)
	case codes.ResourceExhausted:
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	case codes.Unavailable:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	}
	return err
}

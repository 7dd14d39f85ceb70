package grpc

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/domain"
)

// ErrorDomain 放在 ErrorInfo.Domain
const ErrorDomain = "ledger"

// toStatus 將領域錯誤轉成 gRPC status，並附上 ErrorInfo{Reason, Metadata[account_id]}
func toStatus(err error) error {
	st := status.New(codeOf(err), err.Error())

	info := &errdetails.ErrorInfo{
		Reason:   domain.Reason(err),
		Domain:   ErrorDomain,
		Metadata: map[string]string{},
	}
	if id, ok := domain.AccountIDOf(err); ok {
		info.Metadata["account_id"] = id
	}
	if detailed, detailErr := st.WithDetails(info); detailErr == nil {
		st = detailed
	}
	return st.Err()
}

func codeOf(err error) codes.Code {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return codes.InvalidArgument
	case domain.KindNotFound:
		return codes.NotFound
	case domain.KindConflict:
		return codes.AlreadyExists
	}
	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}
	return codes.Internal
}

// ErrorInfoOf 從 gRPC 錯誤取出 ErrorInfo (客戶端用)
func ErrorInfoOf(err error) (*errdetails.ErrorInfo, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return nil, false
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return info, true
		}
	}
	return nil, false
}

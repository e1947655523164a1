package minio

import (
	"context"
	"errors"
	"net/http"

	"github.com/koustreak/clientbook/internal/errs"
	miniogo "github.com/minio/minio-go/v7"
)

// mapError translates a MinIO SDK error into a *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var resp miniogo.ErrorResponse
	if asErrorResponse(err, &resp) {
		return errs.Wrap(classifyResponse(resp), msg, err)
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

// asErrorResponse extracts the S3 error response the SDK returns by value.
func asErrorResponse(err error, resp *miniogo.ErrorResponse) bool {
	if errors.As(err, resp) {
		return true
	}
	var ptr *miniogo.ErrorResponse
	if errors.As(err, &ptr) && ptr != nil {
		*resp = *ptr
		return true
	}
	return false
}

func classifyResponse(resp miniogo.ErrorResponse) errs.ErrKind {
	// S3 codes are more specific than the status, check them first.
	switch resp.Code {
	case "NoSuchBucket", "NoSuchKey", "NoSuchUpload":
		return errs.ErrKindNotFound
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return errs.ErrKindPermissionDenied
	case "InvalidBucketName", "InvalidObjectName", "KeyTooLongError":
		return errs.ErrKindInvalidInput
	case "BucketAlreadyExists", "BucketAlreadyOwnedByYou":
		return errs.ErrKindConflict
	case "RequestTimeout", "SlowDown":
		return errs.ErrKindTimeout
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return errs.ErrKindNotFound
	case http.StatusForbidden, http.StatusUnauthorized:
		return errs.ErrKindPermissionDenied
	case http.StatusBadRequest:
		return errs.ErrKindInvalidInput
	case http.StatusConflict:
		return errs.ErrKindConflict
	}
	return errs.ErrKindQueryFailed
}

package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestNetworkError_Is_MatchesByKind(t *testing.T) {
	err := NewStatusError(KindNotFound, 404)

	if !errors.Is(err, ErrNotFound) {
		t.Error("ErrNotFoundと一致するべき")
	}
	if errors.Is(err, ErrForbidden) {
		t.Error("ErrForbiddenとは一致しないべき")
	}

	wrapped := fmt.Errorf("failed to fetch article: %w", err)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("ラップされていても分類で一致するべき")
	}
}

func TestNetworkError_Error_DefaultMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NewStatusError(KindUnauthorized, 401), "Session expired. Please login again."},
		{NewStatusError(KindForbidden, 403), "You don't have permission to perform this action"},
		{NewStatusError(KindNotFound, 404), "Resource not found"},
		{NewStatusError(KindRateLimitExceeded, 429), "Too many requests. Please try again later."},
		{NewServerError(500, "Article not found with id: 5"), "Article not found with id: 5"},
		{NewInvalidInputError("Title and content are required"), "Title and content are required"},
		{&NetworkError{Kind: ErrorKind("BOGUS")}, "An unexpected error occurred"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestNetworkError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewUnknownError(cause)

	if !errors.Is(err, cause) {
		t.Error("原因エラーまでたどれるべき")
	}
	if !errors.Is(err, ErrUnknown) {
		t.Error("ErrUnknownと一致するべき")
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(fmt.Errorf("wrap: %w", NewDecodingError(nil))); got != KindDecodingError {
		t.Errorf("KindOf = %q, want %q", got, KindDecodingError)
	}
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Errorf("KindOf(plain) = %q, want %q", got, KindUnknown)
	}
}

func TestMessageOf(t *testing.T) {
	if got := MessageOf(nil); got != "" {
		t.Errorf("MessageOf(nil) = %q, want empty", got)
	}
	if got := MessageOf(NewStatusError(KindNotFound, 404)); got != "Resource not found" {
		t.Errorf("MessageOf = %q", got)
	}
	if got := MessageOf(errors.New("disk full")); got != "An unexpected error occurred: disk full" {
		t.Errorf("MessageOf(plain) = %q", got)
	}
}

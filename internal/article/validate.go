package article

import (
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/articlefeed/internal/model"
)

// 下書きの長さ制限
const (
	MinTitleLength   = 5
	MaxTitleLength   = 200
	MinContentLength = 10
)

// requireDraft はタイトルと本文が入力されていることを確認する。
func requireDraft(title, content string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return model.NewInvalidInputError("Title and content are required")
	}
	return nil
}

// ValidateDraft は投稿前の下書きを検証する。
// タイトルは5〜200文字、本文は10文字以上（前後の空白を除いて数える）。
func ValidateDraft(title, content string) error {
	if err := requireDraft(title, content); err != nil {
		return err
	}
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < MinTitleLength {
		return model.NewInvalidInputError("Title must be at least 5 characters")
	}
	if n > MaxTitleLength {
		return model.NewInvalidInputError("Title must be at most 200 characters")
	}
	if utf8.RuneCountInString(strings.TrimSpace(content)) < MinContentLength {
		return model.NewInvalidInputError("Content must be at least 10 characters")
	}
	return nil
}

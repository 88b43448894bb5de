// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizer は外部由来のHTMLを記事本文として扱えるプレーンテキストに変換する。
// bluemondayのStrictPolicyで全タグを除去し、ブロック要素の境界だけを改行として残す。
package security

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はHTMLからプレーンテキストを得るインターフェースを定義する。
// フィード取り込み時の本文変換とCLIでの記事表示に使用される。
type ContentSanitizerService interface {
	// PlainText はHTMLを全タグ除去済みのテキストに変換する。
	// p, br, li, h1-h6, blockquote, pre, div の境界は改行になる。
	// script, style の中身は出力されない。
	// 連続する空行は1行にまとめ、前後の空白は取り除く。
	// 同一入力に対して常に同一出力を返す（冪等）。
	PlainText(rawHTML string) string
}

var (
	// ブロック要素の境界。タグ除去前に改行マーカーへ置き換える。
	blockBoundary = regexp.MustCompile(`(?i)<\s*(br\s*/?|/\s*(p|li|h[1-6]|blockquote|pre|div|tr))\s*>`)
	// タグ除去後も本文として残ってはいけない要素。
	hiddenElement = regexp.MustCompile(`(?is)<\s*(script|style)[^>]*>.*?<\s*/\s*(script|style)\s*>`)
	spaceRun      = regexp.MustCompile(`[ \t\r\f\v]+`)
	blankLines    = regexp.MustCompile(`\n{3,}`)
)

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// PlainText はHTMLコンテンツをプレーンテキストに変換する。
func (s *contentSanitizer) PlainText(rawHTML string) string {
	if strings.TrimSpace(rawHTML) == "" {
		return ""
	}

	text := hiddenElement.ReplaceAllString(rawHTML, "")
	text = blockBoundary.ReplaceAllString(text, "\n")
	text = s.policy.Sanitize(text)
	// StrictPolicyはエンティティをエスケープしたまま返す
	text = html.UnescapeString(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

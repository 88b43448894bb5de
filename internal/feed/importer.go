// Package feed はRSS/Atomフィードの記事を投稿として取り込む。
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/articlefeed/internal/article"
	"github.com/hitoshi/articlefeed/internal/model"
)

// デフォルト値
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxBodySize = 5 << 20
	userAgent          = "articlefeed-importer/1.0"
)

// ErrUnexpectedStatus はフィード取得が2xx以外で終わったことを表す。
var ErrUnexpectedStatus = errors.New("unexpected feed status")

// ArticleCreator は記事作成のインターフェース。
// article.Serviceが実装し、作成済み記事は一覧状態にも反映される。
type ArticleCreator interface {
	Create(ctx context.Context, title, content string) (*model.Article, error)
}

// Sanitizer はフィード本文のHTMLをプレーンテキストに変換する。
type Sanitizer interface {
	PlainText(rawHTML string) string
}

// Draft はフィードの1エントリから組み立てた投稿候補。
type Draft struct {
	Title   string
	Content string
	Link    string
}

// Result は取り込み結果。
type Result struct {
	Total    int // 処理対象のエントリ数（limit適用後）
	Skipped  int // 下書き検証に失敗したもの
	Failed   int // 作成APIがエラーを返したもの
	Articles []model.Article
}

// Created は作成できた記事数を返す。
func (r Result) Created() int {
	return len(r.Articles)
}

// Importer はフィードを取得し、各エントリを記事として作成する。
type Importer struct {
	creator     ArticleCreator
	sanitizer   Sanitizer
	httpClient  *http.Client
	logger      *slog.Logger
	maxBodySize int64
}

// NewImporter はImporterの新しいインスタンスを生成する。
// httpClientがnilの場合はDefaultTimeoutのクライアントを使う。
func NewImporter(creator ArticleCreator, sanitizer Sanitizer, httpClient *http.Client, logger *slog.Logger) *Importer {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		creator:     creator,
		sanitizer:   sanitizer,
		httpClient:  httpClient,
		logger:      logger,
		maxBodySize: DefaultMaxBodySize,
	}
}

// Import はfeedURLのエントリを先頭からlimit件まで記事として作成する。
// limitが0以下の場合は全件を対象にする。
// 認証エラーが返った場合は以降の作成も失敗するため、その時点で中断してエラーを返す。
func (im *Importer) Import(ctx context.Context, feedURL string, limit int) (Result, error) {
	var result Result

	parsed, err := im.fetch(ctx, feedURL)
	if err != nil {
		return result, err
	}

	items := parsed.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	result.Total = len(items)

	for _, item := range items {
		d, ok := im.toDraft(item)
		if !ok {
			result.Skipped++
			continue
		}
		if err := article.ValidateDraft(d.Title, d.Content); err != nil {
			im.logger.Debug("feed entry skipped",
				slog.String("title", d.Title),
				slog.String("reason", err.Error()),
			)
			result.Skipped++
			continue
		}

		created, err := im.creator.Create(ctx, d.Title, d.Content)
		if err != nil {
			result.Failed++
			if errors.Is(err, model.ErrUnauthorized) || ctx.Err() != nil {
				return result, err
			}
			im.logger.Warn("failed to create article from feed entry",
				slog.String("title", d.Title),
				slog.String("error", err.Error()),
			)
			continue
		}
		result.Articles = append(result.Articles, *created)
	}

	im.logger.Info("feed import completed",
		slog.String("feed_url", feedURL),
		slog.Int("items_total", result.Total),
		slog.Int("items_created", result.Created()),
		slog.Int("items_skipped", result.Skipped),
		slog.Int("items_failed", result.Failed),
	)
	return result, nil
}

// fetch はフィードを取得してgofeedでパースする。
func (im *Importer) fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	u, err := url.Parse(feedURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, model.NewInvalidURLError(fmt.Errorf("invalid feed url: %q", feedURL))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := im.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	parsed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, im.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return parsed, nil
}

// toDraft はgofeedのエントリを下書きに変換する。
// 本文はContentを優先し、なければDescriptionを使う。リンクは末尾に追記する。
func (im *Importer) toDraft(item *gofeed.Item) (Draft, bool) {
	if item == nil {
		return Draft{}, false
	}

	body := item.Content
	if strings.TrimSpace(body) == "" {
		body = item.Description
	}

	d := Draft{
		Title: truncateRunes(strings.TrimSpace(im.sanitizer.PlainText(item.Title)), article.MaxTitleLength),
		Link:  strings.TrimSpace(item.Link),
	}
	d.Content = strings.TrimSpace(im.sanitizer.PlainText(body))
	if d.Link != "" {
		if d.Content != "" {
			d.Content += "\n\n"
		}
		d.Content += "Source: " + d.Link
	}
	return d, true
}

// truncateRunes は文字数がmaxを超える場合に切り詰める。
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:max]))
}

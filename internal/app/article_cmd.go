package app

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hitoshi/articlefeed/internal/article"
	"github.com/hitoshi/articlefeed/internal/model"
	"github.com/hitoshi/articlefeed/internal/security"
)

// listOutput は一覧系コマンドのJSON出力。
type listOutput struct {
	List        string          `json:"list"`
	Keyword     string          `json:"keyword,omitempty"`
	CurrentPage int             `json:"currentPage"`
	TotalPages  int             `json:"totalPages"`
	HasMore     bool            `json:"hasMore"`
	Articles    []model.Article `json:"articles"`
	Stats       *article.Stats  `json:"stats,omitempty"`
}

func (a *App) articleCommands() []*cobra.Command {
	feed := &cobra.Command{
		Use:   "feed",
		Short: "List the public article feed",
		Long: `List the public article feed, newest first by default.

Examples:
  articlefeed feed
  articlefeed feed --page 1 --size 20
  articlefeed feed --pages 3 --sort-by viewCount --sort-dir desc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, pages, err := listFlags(cmd)
			if err != nil {
				return err
			}
			return a.runList(cmd, article.ListFeed, params, pages)
		},
	}

	search := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search articles by keyword",
		Long: `Search article titles and contents. An empty keyword shows the feed.

Examples:
  articlefeed search golang
  articlefeed search "" --page 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, pages, err := listFlags(cmd)
			if err != nil {
				return err
			}
			params.Keyword = args[0]
			kind := article.ListSearch
			if strings.TrimSpace(args[0]) == "" {
				kind = article.ListFeed
			}
			if err := a.Services(cmd.Context()); err != nil {
				return err
			}
			if _, err := a.articles.Fetch(cmd.Context(), article.ListSearch, params); err != nil {
				return err
			}
			return a.loadMoreAndPrint(cmd, kind, pages)
		},
	}

	mine := &cobra.Command{
		Use:   "mine",
		Short: "List your own articles with view statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, pages, err := listFlags(cmd)
			if err != nil {
				return err
			}
			return a.runList(cmd, article.ListMine, params, pages)
		},
	}

	for _, c := range []*cobra.Command{feed, search, mine} {
		c.Flags().Int("page", 0, "first page to fetch (0-based)")
		c.Flags().Int("pages", 1, "number of pages to fetch")
		c.Flags().Int("size", 0, "page size (default PAGE_SIZE)")
	}
	feed.Flags().String("sort-by", article.DefaultSortBy, "sort field (createdAt, title, viewCount)")
	feed.Flags().String("sort-dir", article.DefaultSortDir, "sort direction (asc, desc)")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.Services(cmd.Context()); err != nil {
				return err
			}
			art, err := a.articles.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.printArticle(art)
		},
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Publish a new article",
		Long: `Publish a new article. The content can be read from a file.

Examples:
  articlefeed create --title "Hello world" --content "First post body"
  articlefeed create --title "Release notes" --content-file notes.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			title, content, err := draftFlags(cmd)
			if err != nil {
				return err
			}
			if err := a.Services(cmd.Context()); err != nil {
				return err
			}
			art, err := a.articles.Create(cmd.Context(), title, content)
			if err != nil {
				return err
			}
			return a.printArticle(art)
		},
	}

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update one of your articles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			title, content, err := draftFlags(cmd)
			if err != nil {
				return err
			}
			if err := a.Services(cmd.Context()); err != nil {
				return err
			}
			art, err := a.articles.Update(cmd.Context(), id, title, content)
			if err != nil {
				return err
			}
			return a.printArticle(art)
		},
	}

	for _, c := range []*cobra.Command{create, update} {
		c.Flags().String("title", "", "article title")
		c.Flags().String("content", "", "article content")
		c.Flags().String("content-file", "", "read the article content from a file")
		c.MarkFlagsMutuallyExclusive("content", "content-file")
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your articles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.Services(cmd.Context()); err != nil {
				return err
			}
			if err := a.articles.Delete(cmd.Context(), id); err != nil {
				return err
			}
			return a.printMessage(fmt.Sprintf("Article %d deleted", id))
		},
	}

	return []*cobra.Command{feed, search, mine, show, create, update, del}
}

// listFlags は一覧系コマンドの共通フラグを読み取る。
func listFlags(cmd *cobra.Command) (article.FetchParams, int, error) {
	page, _ := cmd.Flags().GetInt("page")
	pages, _ := cmd.Flags().GetInt("pages")
	size, _ := cmd.Flags().GetInt("size")
	if pages < 1 {
		return article.FetchParams{}, 0, model.NewInvalidInputError("--pages must be at least 1")
	}
	params := article.FetchParams{Page: page, Size: size}
	if f := cmd.Flags().Lookup("sort-by"); f != nil {
		params.SortBy = f.Value.String()
	}
	if f := cmd.Flags().Lookup("sort-dir"); f != nil {
		params.SortDir = f.Value.String()
	}
	return params, pages, nil
}

// draftFlags はタイトルと本文を読み取り、送信前に検証する。
func draftFlags(cmd *cobra.Command) (string, string, error) {
	title, _ := cmd.Flags().GetString("title")
	content, _ := cmd.Flags().GetString("content")
	if path, _ := cmd.Flags().GetString("content-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", "", fmt.Errorf("failed to read content file: %w", err)
		}
		content = string(data)
	}
	if err := article.ValidateDraft(title, content); err != nil {
		return "", "", err
	}
	return title, content, nil
}

func (a *App) runList(cmd *cobra.Command, kind article.ListKind, params article.FetchParams, pages int) error {
	if err := a.Services(cmd.Context()); err != nil {
		return err
	}
	if _, err := a.articles.Fetch(cmd.Context(), kind, params); err != nil {
		return err
	}
	return a.loadMoreAndPrint(cmd, kind, pages)
}

// loadMoreAndPrint は残りのページを順に取得してから一覧を出力する。
func (a *App) loadMoreAndPrint(cmd *cobra.Command, kind article.ListKind, pages int) error {
	for i := 1; i < pages; i++ {
		page, err := a.articles.LoadMore(cmd.Context(), kind)
		if err != nil {
			return err
		}
		if page == nil {
			break
		}
	}
	return a.printList(kind)
}

func (a *App) printList(kind article.ListKind) error {
	list := a.articles.List(kind)
	out := listOutput{
		List:        kind.String(),
		Keyword:     list.Keyword,
		CurrentPage: list.CurrentPage,
		TotalPages:  list.TotalPages,
		HasMore:     list.HasMore(),
		Articles:    list.Items,
	}
	if kind == article.ListMine {
		st := a.articles.MyStats()
		out.Stats = &st
	}
	if out.Articles == nil {
		out.Articles = []model.Article{}
	}
	if a.jsonOut {
		return a.printJSON(out)
	}

	if len(list.Items) == 0 {
		_, err := fmt.Fprintln(a.out, "No articles found")
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tVIEWS\tCREATED")
	for _, art := range list.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", art.ID, art.Title, art.AuthorName, art.ViewCount, art.CreatedAt)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\nPage %d of %d\n", list.CurrentPage+1, max(list.TotalPages, 1))
	if out.Stats != nil {
		fmt.Fprintf(a.out, "%d articles, %d views\n", out.Stats.Count, out.Stats.TotalViews)
	}
	return nil
}

func (a *App) printArticle(art *model.Article) error {
	if a.jsonOut {
		return a.printJSON(art)
	}
	fmt.Fprintf(a.out, "#%d %s\n", art.ID, art.Title)
	fmt.Fprintf(a.out, "by %s, %s, %d views\n\n", art.AuthorName, art.CreatedAt, art.ViewCount)
	_, err := fmt.Fprintln(a.out, security.NewContentSanitizer().PlainText(art.Content))
	return err
}

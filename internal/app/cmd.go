package app

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hitoshi/articlefeed/internal/model"
)

// NewRootCommand はサブコマンドを登録したルートコマンドを返す。
func (a *App) NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "articlefeed",
		Short: "Session-aware client for the article publishing API",
		Long: `articlefeed talks to the article publishing backend on behalf of one user.

The session (access and refresh tokens) is persisted between runs. Expired
access tokens are refreshed automatically.

Examples:
  articlefeed login --email alice@example.com --password 'Passw0rd!'
  articlefeed feed --page 0
  articlefeed create --title "Hello world" --content "First post body"
  articlefeed devserver`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.Init()
		},
	}
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "output in JSON format")

	root.AddCommand(a.authCommands()...)
	root.AddCommand(a.articleCommands()...)
	root.AddCommand(
		a.importCommand(),
		a.migrateCommand(),
		a.devserverCommand(),
	)
	return root
}

// printJSON はvをインデント付きJSONで出力する。
func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printMessage はサーバーから返されたメッセージを出力する。
func (a *App) printMessage(msg string) error {
	if a.jsonOut {
		return a.printJSON(model.MessageResponse{Message: msg})
	}
	_, err := fmt.Fprintln(a.out, msg)
	return err
}

// parseID は記事IDの引数を解析する。
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewInvalidInputError(fmt.Sprintf("invalid article id: %q", arg))
	}
	return id, nil
}

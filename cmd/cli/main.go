package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host   string
	user   string
	token  string
	output string
)

var rootCmd = &cobra.Command{
	Use:   "riichi-cli",
	Short: "A CLI to interact with the riichi-ledger server",
	Long: `A command-line interface for recording games, deciding proposals and
running tournament rounds against a riichi-ledger server.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The host address of the server")
	rootCmd.PersistentFlags().StringVar(&user, "user", "", "Acting user id, sent as X-User-ID when no token is given")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token identifying the acting user")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

var (
	competitionIDs []string
	competitionID  string
	scores         map[string]int
	fromVersion    string
	reason         string
	role           string
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(submitGameCmd)
	rootCmd.AddCommand(editGameCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(createRoundCmd)
	rootCmd.AddCommand(tableResultCmd)
	rootCmd.AddCommand(memberCmd)
	rootCmd.AddCommand(leaderboardCmd)

	for _, c := range []*cobra.Command{submitGameCmd, editGameCmd, tableResultCmd} {
		c.Flags().StringToIntVar(&scores, "score", nil, "Final score per player, e.g. --score aki=42300")
		c.MarkFlagRequired("score")
	}
	submitGameCmd.Flags().StringSliceVar(&competitionIDs, "competition", nil, "Competition ids the game counts toward")
	editGameCmd.Flags().StringSliceVar(&competitionIDs, "competition", nil, "Competition ids the game counts toward")
	editGameCmd.Flags().StringVar(&fromVersion, "from-version", "", "Version the edit is based on")
	editGameCmd.MarkFlagRequired("from-version")
	rejectCmd.Flags().StringVar(&reason, "reason", "", "Why the proposal is rejected")
	memberCmd.Flags().StringVar(&role, "role", "member", "Role to grant: admin or member")
	leaderboardCmd.Flags().StringVar(&competitionID, "competition", "", "Competition id, global standings when empty")
	leaderboardCmd.Flags().StringVarP(&output, "output", "o", "", "Write the standings as xlsx to this file")
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health", nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics", nil)
	},
}

var submitGameCmd = &cobra.Command{
	Use:   "submit-game <clubID>",
	Short: "Propose a new game result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/v1/clubs/"+url.PathEscape(args[0])+"/games", map[string]any{
			"participants":   participantsOf(scores),
			"finalScores":    scores,
			"competitionIds": competitionIDs,
		})
	},
}

var editGameCmd = &cobra.Command{
	Use:   "edit-game <gameID>",
	Short: "Propose a correction to a game",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/v1/games/"+url.PathEscape(args[0])+"/proposals", map[string]any{
			"fromVersionId": fromVersion,
			"proposedVersion": map[string]any{
				"participants":   participantsOf(scores),
				"finalScores":    scores,
				"competitionIds": competitionIDs,
			},
		})
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve <proposalID>",
	Short: "Approve a proposal you were asked to validate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/v1/proposals/"+url.PathEscape(args[0])+"/approve", nil)
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <proposalID>",
	Short: "Reject a proposal you were asked to validate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/v1/proposals/"+url.PathEscape(args[0])+"/reject", map[string]string{"reason": reason})
	},
}

var createRoundCmd = &cobra.Command{
	Use:   "create-round <clubID> <competitionID>",
	Short: "Generate or activate the next tournament round",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, competitionPath(args[0], args[1])+"/rounds", nil)
	},
}

var tableResultCmd = &cobra.Command{
	Use:   "table-result <clubID> <competitionID> <roundID> <tableIndex>",
	Short: "Submit the result of a tournament table",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := competitionPath(args[0], args[1]) + "/rounds/" + url.PathEscape(args[2]) + "/tables/" + url.PathEscape(args[3]) + "/result"
		return performRequest(http.MethodPost, endpoint, map[string]any{"finalScores": scores})
	},
}

var memberCmd = &cobra.Command{
	Use:   "member <clubID> <userID>",
	Short: "Add a club member or change their role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPut, "/v1/clubs/"+url.PathEscape(args[0])+"/members/"+url.PathEscape(args[1]), map[string]string{"role": role})
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard <clubID>",
	Short: "Show a club or competition leaderboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := "/v1/clubs/" + url.PathEscape(args[0]) + "/leaderboard"
		if output != "" {
			endpoint += ".xlsx"
		}
		if competitionID != "" {
			endpoint += "?competitionId=" + url.QueryEscape(competitionID)
		}
		if output != "" {
			return downloadFile(endpoint, output)
		}
		return performRequest(http.MethodGet, endpoint, nil)
	},
}

func competitionPath(clubID, competitionID string) string {
	return "/v1/clubs/" + url.PathEscape(clubID) + "/competitions/" + url.PathEscape(competitionID)
}

// participantsOf lists the players named in a score map. The server checks
// that both agree, so the order does not matter.
func participantsOf(scores map[string]int) []string {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	return ids
}

func newRequest(method, endpoint string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, host+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch {
	case token != "":
		req.Header.Set("Authorization", "Bearer "+token)
	case user != "":
		req.Header.Set("X-User-ID", user)
	}
	return req, nil
}

func performRequest(method, endpoint string, body any) error {
	req, err := newRequest(method, endpoint, body)
	if err != nil {
		return err
	}
	fmt.Printf("Making %s request to %s\n", method, req.URL)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(respBody))

	return nil
}

func downloadFile(endpoint, path string) error {
	req, err := newRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server answered %d: %s", resp.StatusCode, body)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Printf("Leaderboard written to %s\n", path)
	return nil
}

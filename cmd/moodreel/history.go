package main

import (
	"context"
	"fmt"

	"github.com/spacesedan/moodreel/internal/clients"
	"github.com/spacesedan/moodreel/internal/db"
	"github.com/spf13/cobra"
)

// historyAPI is swapped out in tests.
var historyAPI = func(ctx context.Context) (db.DynamoDBAPI, error) {
	return clients.GetDynamoDBClient(ctx)
}

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <user-id>",
		Short: "List the recommendations served to a user, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			api, err := historyAPI(cmd.Context())
			if err != nil {
				return err
			}
			records, err := db.NewHistoryStore(api).GetUserHistory(cmd.Context(), args[0], int32(limit))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of records")
	return cmd
}

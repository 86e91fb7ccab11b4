package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/adminkit/toggle/client"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query and maintain the audit log",
	}
	cmd.AddCommand(auditListCmd())
	cmd.AddCommand(auditPurgeCmd())
	return cmd
}

func auditListCmd() *cobra.Command {
	var resource, resourceID, actorID, action, since string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &client.AuditQueryOptions{
				Resource:   resource,
				ResourceID: resourceID,
				ActorID:    actorID,
				Action:     action,
				Limit:      limit,
				Offset:     offset,
			}
			if since != "" {
				t, err := time.Parse(time.RFC3339, since)
				if err != nil {
					return fmt.Errorf("--since must be RFC3339: %w", err)
				}
				opts.Since = &t
			}

			entries, hasMore, err := apiClient.Audit.Query(context.Background(), opts)
			if err != nil {
				return fmt.Errorf("audit query: %w", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "ACTION", "RESOURCE", "RESOURCE_ID", "ACTOR", "CREATED_AT"}
				var rows [][]string
				for _, e := range entries {
					rows = append(rows, []string{
						strconv.FormatInt(e.ID, 10), e.Action, e.Resource, e.ResourceID, e.ActorID,
						e.CreatedAt.Format("2006-01-02 15:04:05"),
					})
				}
				formatTable(headers, rows)
				return nil
			}
			output(map[string]any{"entries": entries, "has_more": hasMore}, strconv.Itoa(len(entries)))
			return nil
		},
	}
	cmd.Flags().StringVar(&resource, "resource", "", "Filter by resource key")
	cmd.Flags().StringVar(&resourceID, "id", "", "Filter by record id")
	cmd.Flags().StringVar(&actorID, "actor", "", "Filter by actor id")
	cmd.Flags().StringVar(&action, "action", "", "Filter by action")
	cmd.Flags().StringVar(&since, "since", "", "Only entries at or after this RFC3339 time")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip this many results")

	return cmd
}

func auditPurgeCmd() *cobra.Command {
	var retentionDays int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Purge old audit entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := apiClient.Audit.Purge(context.Background(), retentionDays)
			if err != nil {
				return fmt.Errorf("audit purge: %w", err)
			}
			output(map[string]int{"deleted": deleted}, strconv.Itoa(deleted))
			return nil
		},
	}
	cmd.Flags().IntVar(&retentionDays, "retention-days", 0, "Delete entries older than N days (0 uses the server default)")
	return cmd
}

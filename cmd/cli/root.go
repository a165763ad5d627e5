package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"comicsort/internal/session"
	"comicsort/pkg/models"
)

func newRootCommand() *cobra.Command {
	var baseURL, tokenPath string
	client := func() *apiClient { return newAPIClient(baseURL, tokenPath) }

	rootCmd := &cobra.Command{
		Use:           "comicsort",
		Short:         "Reconcile drive comic files against a series catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVar(&baseURL, "api", defaultBaseURL, "API base URL")
	rootCmd.PersistentFlags().StringVar(&tokenPath, "token", defaultTokenPath(), "token file path")

	rootCmd.AddCommand(
		newLoginCommand(&baseURL, &tokenPath),
		newLogoutCommand(client, &tokenPath),
		newStatusCommand(client),
		newCatalogCommand(client),
		newFilesCommand(client),
		newPreviewCommand(client),
		newFinalizeCommand(client),
		newSnapshotsCommand(client),
		newWatchCommand(&baseURL, &tokenPath),
	)
	return rootCmd
}

func newLoginCommand(baseURL, tokenPath *string) *cobra.Command {
	var password, accessToken string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open a reconciliation session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if accessToken == "" {
				accessToken = os.Getenv("COMICSORT_GRAPH_TOKEN")
			}
			if accessToken == "" {
				return fmt.Errorf("--access-token or COMICSORT_GRAPH_TOKEN is required")
			}

			var resp struct {
				SessionID string `json:"session_id"`
				Token     string `json:"token"`
				ExpiresAt string `json:"expires_at"`
			}
			payload := map[string]string{"password": password, "access_token": accessToken}
			c := &http.Client{Timeout: 15 * time.Second}
			if err := doJSON(cmd.Context(), c, http.MethodPost, *baseURL+"/auth/session", "", payload, &resp); err != nil {
				return err
			}
			if err := saveToken(*tokenPath, tokenData{Token: resp.Token, SessionID: resp.SessionID}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s open until %s\n", resp.SessionID, resp.ExpiresAt)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "operator password")
	cmd.Flags().StringVar(&accessToken, "access-token", "", "Microsoft Graph access token")
	return cmd
}

func newLogoutCommand(client func() *apiClient, tokenPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Close the session and forget the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client().call(cmd.Context(), http.MethodPost, "/auth/logout", nil, nil); err != nil {
				log.Printf("logout: %v", err)
			}
			return clearToken(*tokenPath)
		},
	}
}

func newStatusCommand(client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session catalog, files and state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return viewCall(cmd, client(), http.MethodGet, "/reconcile", nil)
		},
	}
}

func newCatalogCommand(client func() *apiClient) *cobra.Command {
	cmd := &cobra.Command{Use: "catalog", Short: "Load, filter and approve the series catalog"}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <series_id>",
			Short: "Load a series, from its snapshot when one is stored",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return viewCall(cmd, client(), http.MethodPost, "/reconcile/series", map[string]string{"series_id": args[0]})
			},
		},
		&cobra.Command{
			Use:   "fetch",
			Short: "Scrape the series again and replace its snapshot",
			RunE: func(cmd *cobra.Command, args []string) error {
				return viewCall(cmd, client(), http.MethodPost, "/reconcile/catalog/fetch", nil)
			},
		},
		&cobra.Command{
			Use:   "filter <pattern>",
			Short: "Exclude issues whose name matches pattern",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return viewCall(cmd, client(), http.MethodPost, "/reconcile/filters", map[string]string{"pattern": args[0]})
			},
		},
		&cobra.Command{
			Use:   "reset-filters",
			Short: "Go back to the default filter",
			RunE: func(cmd *cobra.Command, args []string) error {
				return viewCall(cmd, client(), http.MethodDelete, "/reconcile/filters", nil)
			},
		},
		&cobra.Command{
			Use:   "approve",
			Short: "Approve the filtered catalog",
			RunE: func(cmd *cobra.Command, args []string) error {
				return viewCall(cmd, client(), http.MethodPost, "/reconcile/catalog/approve", nil)
			},
		},
	)
	return cmd
}

func newFilesCommand(client func() *apiClient) *cobra.Command {
	cmd := &cobra.Command{Use: "files", Short: "Search, edit and approve drive files"}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "search <query>",
			Short: "Search the drive for files",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return viewCall(cmd, client(), http.MethodPost, "/reconcile/files/search", map[string]string{"query": args[0]})
			},
		},
		&cobra.Command{
			Use:   "remove <file_name>",
			Short: "Drop every file with this name",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return viewCall(cmd, client(), http.MethodPost, "/reconcile/files/remove", map[string]string{"file_name": args[0]})
			},
		},
		&cobra.Command{
			Use:   "truncate <index>",
			Short: "Keep only the files listed before row <index>",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("index must be a number: %w", err)
				}
				return viewCall(cmd, client(), http.MethodPost, "/reconcile/files/truncate", map[string]int{"index": n})
			},
		},
		&cobra.Command{
			Use:   "approve",
			Short: "Approve the file list",
			RunE: func(cmd *cobra.Command, args []string) error {
				return viewCall(cmd, client(), http.MethodPost, "/reconcile/files/approve", nil)
			},
		},
	)
	return cmd
}

func newPreviewCommand(client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Show where each file will go",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Rows []models.PreviewRow `json:"rows"`
			}
			if err := client().call(cmd.Context(), http.MethodGet, "/reconcile/preview", nil, &resp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPreview(resp.Rows))
			return nil
		},
	}
}

func newFinalizeCommand(client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "finalize <publisher>",
		Short: "Move the files into their monthly folders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res session.FinalizeResult
			err := client().call(cmd.Context(), http.MethodPost, "/reconcile/finalize", map[string]string{"publisher": args[0]}, &res)
			if err != nil {
				return err
			}
			renderFinalize(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newSnapshotsCommand(client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots",
		Short: "List stored catalog snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Items []models.SnapshotInfo `json:"items"`
			}
			if err := client().call(cmd.Context(), http.MethodGet, "/snapshots", nil, &resp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSnapshots(resp.Items))
			return nil
		},
	}
}

func newWatchCommand(baseURL, tokenPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream session events",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readToken(*tokenPath)
			if err != nil {
				return fmt.Errorf("no session, run login first: %w", err)
			}
			wsURL, err := websocketURL(*baseURL, "/ws")
			if err != nil {
				return err
			}
			return runWebSocket(cmd.Context(), wsURL, token.Token, func(msg []byte) {
				fmt.Fprintln(cmd.OutOrStdout(), string(msg))
			})
		},
	}
}

func runWebSocket(ctx context.Context, wsURL, token string, onMessage func([]byte)) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[ws] connected to %s", wsURL)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		onMessage(msg)
	}
}

func viewCall(cmd *cobra.Command, c *apiClient, method, path string, payload any) error {
	var v session.View
	if err := c.call(cmd.Context(), method, path, payload, &v); err != nil {
		return err
	}
	renderView(cmd.OutOrStdout(), v)
	return nil
}

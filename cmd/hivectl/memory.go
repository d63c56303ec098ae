package main

import (
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"
)

func newMemoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Read and write the shared memory store",
	}
	cmd.AddCommand(
		newMemoryGetCommand(),
		newMemoryPutCommand(),
		newMemoryDeleteCommand(),
		newMemoryListCommand(),
		newMemorySearchCommand(),
	)
	return cmd
}

func newMemoryGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <namespace> <key>",
		Short: "Fetch a single memory entry",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return usageErrf("get requires <namespace> and <key>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			var value interface{}
			if err := client.do("GET", "/memory/"+args[0]+"/"+args[1], nil, &value); err != nil {
				return err
			}
			return printJSON(value)
		},
	}
	return cmd
}

func newMemoryPutCommand() *cobra.Command {
	var ttlSeconds int

	cmd := &cobra.Command{
		Use:   "put <namespace> <key> <value>",
		Short: "Store a memory entry",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 {
				return usageErrf("put requires <namespace> <key> <value>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			req := map[string]interface{}{
				"value":       rawJSONOrString(args[2]),
				"ttl_seconds": ttlSeconds,
			}
			var resp map[string]string
			if err := client.do("PUT", "/memory/"+args[0]+"/"+args[1], req, &resp); err != nil {
				return err
			}
			return printJSON(resp)
		},
	}

	cmd.Flags().IntVar(&ttlSeconds, "ttl", 0, "entry time-to-live in seconds (0 = namespace default)")
	return cmd
}

func newMemoryDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <namespace> <key>",
		Short: "Delete a memory entry",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return usageErrf("delete requires <namespace> and <key>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			var resp map[string]string
			if err := client.do("DELETE", "/memory/"+args[0]+"/"+args[1], nil, &resp); err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
	return cmd
}

func newMemoryListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list <namespace>",
		Short: "List entries in a namespace",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageErrf("list requires <namespace>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			path := "/memory/" + args[0]
			if limit > 0 {
				path += "?limit=" + strconv.Itoa(limit)
			}
			var entries interface{}
			if err := client.do("GET", path, nil, &entries); err != nil {
				return err
			}
			return printJSON(entries)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries to return (0 = no limit)")
	return cmd
}

func newMemorySearchCommand() *cobra.Command {
	var (
		namespace string
		pattern   string
		keyPrefix string
		minAccess int
		limit     int
		sortBy    string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search memory entries across filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			q := "?namespace=" + namespace +
				"&pattern=" + pattern +
				"&key_prefix=" + keyPrefix +
				"&min_access_count=" + strconv.Itoa(minAccess) +
				"&limit=" + strconv.Itoa(limit) +
				"&sort_by=" + sortBy

			var entries interface{}
			if err := client.do("GET", "/memory/search"+q, nil, &entries); err != nil {
				return err
			}
			return printJSON(entries)
		},
	}

	cmd.Flags().StringVar(&namespace, "namespace", "", "restrict to a namespace")
	cmd.Flags().StringVar(&pattern, "pattern", "", "case-insensitive substring matched against key or value")
	cmd.Flags().StringVar(&keyPrefix, "key-prefix", "", "key prefix filter")
	cmd.Flags().IntVar(&minAccess, "min-access-count", 0, "minimum access count")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries to return (0 = no limit)")
	cmd.Flags().StringVar(&sortBy, "sort-by", "", "sort order: access|recent|created (default recent)")
	return cmd
}

// rawJSONOrString lets `memory put` accept either a raw JSON literal
// (`'{"a":1}'`, `42`, `true`) or a bare string, which it quotes itself.
func rawJSONOrString(s string) interface{} {
	if s == "" {
		return ""
	}
	switch s[0] {
	case '{', '[', '"':
		return json.RawMessage(s)
	}
	if s == "true" || s == "false" || s == "null" {
		return json.RawMessage(s)
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return json.RawMessage(s)
	}
	return s
}

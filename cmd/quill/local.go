package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/internal/presentation/graph"
	"github.com/aretw0/quill/internal/presentation/tui"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/relay"
	"github.com/spf13/cobra"
)

// localSession runs fn against an in-process host serving the configured document.
func localSession(cmd *cobra.Command, fn func(ctx context.Context, c *relay.Client) error) error {
	if doc, _ := cmd.Flags().GetString("document"); doc != "" {
		cfg.Host.Document = doc
	}
	x, err := newExecutor(nil)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	var opts []relay.Option
	if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
		opts = append(opts, relay.WithProgress(tui.NewProgressPrinter(cmd.ErrOrStderr()).Publish))
	}
	client, shutdown := quill.Local(ctx, x, opts...)
	err = fn(ctx, client)
	if serr := shutdown(); err == nil {
		err = serr
	}
	return err
}

func render(w io.Writer, md string) error {
	out, err := tui.NewRenderer()(md)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}

var scanCmd = &cobra.Command{
	Use:   "scan [nodeId]",
	Short: "List the visible text nodes of a document",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]any{"nodeId": "0:0", "useChunking": true}
		if len(args) == 1 {
			params["nodeId"] = args[0]
		}
		if n, _ := cmd.Flags().GetInt("chunk-size"); n > 0 {
			params["chunkSize"] = n
		}
		return localSession(cmd, func(ctx context.Context, c *relay.Client) error {
			raw, err := c.Send(ctx, "scan_text_nodes", params, cfg.Timeouts.Batch)
			if err != nil {
				return err
			}
			var report domain.ScanReport
			if err := json.Unmarshal(raw, &report); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), tui.ScanMarkdown(report))
		})
	},
}

var execCmd = &cobra.Command{
	Use:   "exec <command> [params-json]",
	Short: "Run a single command against a document and print the result",
	Example: `  quill exec get_node_info '{"nodeId":"1:2"}'
  quill exec set_multiple_text_contents '{"nodeId":"1:1","text":[{"nodeId":"1:2","text":"Hi"}]}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]any{}
		if len(args) == 2 {
			if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
				return fmt.Errorf("invalid params: %w", err)
			}
		}
		timeout := relay.Timeouts{
			Light: cfg.Timeouts.Light,
			Text:  cfg.Timeouts.Text,
			Batch: cfg.Timeouts.Batch,
		}.For(args[0])

		return localSession(cmd, func(ctx context.Context, c *relay.Client) error {
			raw, err := c.Send(ctx, args[0], params, timeout)
			if err != nil {
				return err
			}
			if args[0] == "set_multiple_text_contents" {
				var report domain.BatchReport
				if err := json.Unmarshal(raw, &report); err == nil {
					return render(cmd.OutOrStdout(), tui.BatchMarkdown(report))
				}
			}
			var pretty any
			if err := json.Unmarshal(raw, &pretty); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(pretty)
		})
	},
}

var outlineCmd = &cobra.Command{
	Use:   "outline [nodeId]",
	Short: "Export the document tree as a Mermaid diagram",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeID := "0:0"
		if len(args) == 1 {
			nodeID = args[0]
		}
		highlight, _ := cmd.Flags().GetString("highlight")

		return localSession(cmd, func(ctx context.Context, c *relay.Client) error {
			raw, err := c.Send(ctx, "get_node_info", map[string]any{"nodeId": nodeID, "depth": -1}, 10*time.Second)
			if err != nil {
				return err
			}
			var info domain.NodeInfo
			if err := json.Unmarshal(raw, &info); err != nil {
				return err
			}

			var overlay *graph.Overlay
			if highlight != "" {
				raw, err := c.Send(ctx, "find_nodes", map[string]any{"query": highlight}, 10*time.Second)
				if err != nil {
					return err
				}
				var found struct {
					Matches []struct {
						ID string `json:"id"`
					} `json:"matches"`
				}
				if err := json.Unmarshal(raw, &found); err != nil {
					return err
				}
				overlay = &graph.Overlay{}
				for _, m := range found.Matches {
					overlay.Highlighted = append(overlay.Highlighted, m.ID)
				}
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(info, overlay))
			return err
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{scanCmd, execCmd, outlineCmd} {
		c.Flags().String("document", "", "YAML document to load (default: bundled demo)")
		c.Flags().BoolP("quiet", "q", false, "Do not print progress events")
		rootCmd.AddCommand(c)
	}
	scanCmd.Flags().Int("chunk-size", 0, "Nodes per scan chunk (overrides batch.scan_chunk_size)")
	outlineCmd.Flags().String("highlight", "", "Highlight nodes matching this name query")
}

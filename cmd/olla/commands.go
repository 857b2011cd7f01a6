package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ollama-go/internal/agent"
	"ollama-go/internal/render"
	"ollama-go/internal/tools"
	"ollama-go/internal/version"
	"ollama-go/pkg/ollama"
	"ollama-go/pkg/value"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Complete a single prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			system, _ := cmd.Flags().GetString("system")
			format, err := formatFlag(cmd)
			if err != nil {
				return err
			}
			req := ollama.GenerateRequest{
				Model:     s.cfg.Model,
				Prompt:    strings.Join(args, " "),
				System:    system,
				Format:    format,
				KeepAlive: s.cfg.KeepAlive,
			}

			if s.cfg.JSON {
				resp, err := s.client.Generate(cmd.Context(), req)
				if err != nil {
					return err
				}
				return s.printJSON(resp)
			}

			var last ollama.GenerateResponse
			for chunk, err := range s.client.GenerateStream(cmd.Context(), req).All() {
				if err != nil {
					return err
				}
				fmt.Fprint(s.out, chunk.Response)
				last = chunk
			}
			fmt.Fprintln(s.out)
			s.logger.Debug("generation finished", zap.String("done_reason", last.DoneReason), zap.Int("eval_count", last.EvalCount), zap.Duration("total", last.TotalDuration))
			return nil
		},
	}
	cmd.Flags().String("system", "", "System prompt")
	cmd.Flags().String("format", "", `Output format: "json" or a JSON Schema object`)
	return cmd
}

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Send one message, running any tool calls once",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			format, err := formatFlag(cmd)
			if err != nil {
				return err
			}
			paths, _ := cmd.Flags().GetStringSlice("image")
			images := make([][]byte, 0, len(paths))
			for _, path := range paths {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				images = append(images, data)
			}

			req := ollama.ChatRequest{
				Model:     s.cfg.Model,
				Messages:  []ollama.Message{ollama.UserMessage(strings.Join(args, " "), images...)},
				Format:    format,
				KeepAlive: s.cfg.KeepAlive,
			}

			var resp *ollama.ChatResponse
			if s.cfg.NoTools {
				resp, err = s.client.Chat(cmd.Context(), req)
			} else {
				resp, _, err = s.client.ChatWithTools(cmd.Context(), req, tools.Default(s.client))
			}
			if err != nil {
				return err
			}
			if s.cfg.JSON {
				return s.printJSON(resp)
			}
			_, err = fmt.Fprintln(s.out, strings.TrimSpace(resp.Message.Content))
			return err
		},
	}
	cmd.Flags().String("format", "", `Output format: "json" or a JSON Schema object`)
	cmd.Flags().StringSlice("image", nil, "Image file to attach (repeatable)")
	return cmd
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [question]",
		Short: "Answer a question, calling tools for as many steps as needed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			question := strings.Join(args, " ")
			registry := tools.Default(s.client)

			if s.cfg.JSON {
				ag := agent.NewAgent(s.client, registry, nil, s.logger, s.cfg)
				result, runErr := ag.Run(cmd.Context(), question)
				if err := s.printJSON(result); err != nil {
					return err
				}
				return partialIsSuccess(runErr)
			}

			renderer := render.NewStdoutRenderer(s.out, render.Options{Verbose: s.cfg.Verbose, Quiet: s.cfg.Quiet, ShowTools: true})
			defer renderer.Close()
			ag := agent.NewAgent(s.client, registry, renderer, s.logger, s.cfg)
			_, runErr := ag.Run(cmd.Context(), question)
			return partialIsSuccess(runErr)
		},
	}
}

// partialIsSuccess keeps a max-steps answer from failing the command; the
// answer itself already carries the warning.
func partialIsSuccess(err error) error {
	if errors.Is(err, agent.ErrMaxSteps) {
		return nil
	}
	return err
}

func newEmbedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed [text...]",
		Short: "Embed one or more inputs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			req := ollama.EmbedRequest{Model: s.cfg.Model, Input: args, KeepAlive: s.cfg.KeepAlive}
			if cmd.Flags().Changed("truncate") {
				truncate, _ := cmd.Flags().GetBool("truncate")
				req.Truncate = &truncate
			}
			resp, err := s.client.Embed(cmd.Context(), req)
			if err != nil {
				return err
			}
			if s.cfg.JSON {
				return s.printJSON(resp)
			}
			for i, embedding := range resp.Embeddings {
				fmt.Fprintf(s.out, "%d\t%d dims\t%s\n", i, len(embedding), previewVector(embedding))
			}
			return nil
		},
	}
	cmd.Flags().Bool("truncate", true, "Truncate inputs that exceed the context length")
	return cmd
}

func previewVector(v []float64) string {
	const shown = 4
	parts := make([]string, 0, shown+1)
	for i, f := range v {
		if i == shown {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, fmt.Sprintf("%.4f", f))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List local models",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			models, err := s.client.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			if s.cfg.JSON {
				return s.printJSON(models)
			}
			w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tFAMILY\tMODIFIED")
			for _, m := range models {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Name, humanBytes(m.Size), m.Details.Family, m.ModifiedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func newPsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ps",
		Short: "List models loaded in memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			models, err := s.client.ListRunning(cmd.Context())
			if err != nil {
				return err
			}
			if s.cfg.JSON {
				return s.printJSON(models)
			}
			w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tVRAM\tEXPIRES")
			for _, m := range models {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Name, humanBytes(m.Size), humanBytes(m.SizeVRAM), m.ExpiresAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [model]",
		Short: "Show model details",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			name := s.cfg.Model
			if len(args) == 1 {
				name = args[0]
			}
			info, err := s.client.Show(cmd.Context(), name)
			if err != nil {
				return err
			}
			if s.cfg.JSON {
				return s.printJSON(info)
			}
			w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "model\t%s\n", name)
			fmt.Fprintf(w, "family\t%s\n", info.Details.Family)
			fmt.Fprintf(w, "parameters\t%s\n", info.Details.ParameterSize)
			fmt.Fprintf(w, "quantization\t%s\n", info.Details.QuantizationLevel)
			if len(info.Capabilities) > 0 {
				fmt.Fprintf(w, "capabilities\t%s\n", strings.Join(info.Capabilities, ", "))
			}
			if ctxLen, ok := contextLength(info.ModelInfo); ok {
				fmt.Fprintf(w, "context length\t%d\n", ctxLen)
			}
			return w.Flush()
		},
	}
}

// contextLength finds "<arch>.context_length" in model_info.
func contextLength(info map[string]value.Value) (int64, bool) {
	for key, v := range info {
		if strings.HasSuffix(key, ".context_length") {
			return v.AsInt(false)
		}
	}
	return 0, false
}

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a model from a Modelfile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			file, _ := cmd.Flags().GetString("file")
			path, _ := cmd.Flags().GetString("path")
			req := ollama.CreateRequest{Name: args[0], Path: path}
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				req.Modelfile = string(data)
			}
			if req.Modelfile == "" && req.Path == "" {
				return errors.New("one of --file or --path is required")
			}
			ok, err := s.client.Create(cmd.Context(), req)
			return s.report(ok, err, "created %s", args[0])
		},
	}
	cmd.Flags().StringP("file", "f", "", "Local Modelfile to send")
	cmd.Flags().String("path", "", "Modelfile path on the server")
	return cmd
}

func newCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "copy [source] [destination]",
		Aliases: []string{"cp"},
		Short:   "Copy a model",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			ok, err := s.client.Copy(cmd.Context(), args[0], args[1])
			return s.report(ok, err, "copied %s to %s", args[0], args[1])
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete [model]",
		Aliases: []string{"rm"},
		Short:   "Delete a model",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			ok, err := s.client.Delete(cmd.Context(), args[0])
			return s.report(ok, err, "deleted %s", args[0])
		},
	}
}

func newPullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull [model]",
		Short: "Download a model from a registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			insecure, _ := cmd.Flags().GetBool("insecure")
			if s.cfg.JSON || s.cfg.Quiet {
				ok, err := s.client.Pull(cmd.Context(), args[0], insecure)
				return s.report(ok, err, "pulled %s", args[0])
			}

			status := ""
			for progress, err := range s.client.PullStream(cmd.Context(), args[0], insecure).All() {
				if err != nil {
					return err
				}
				line := progress.Status
				if progress.Total > 0 {
					line = fmt.Sprintf("%s %3d%% of %s", progress.Status, progress.Completed*100/progress.Total, humanBytes(progress.Total))
				}
				if line != status {
					fmt.Fprintln(s.out, line)
					status = line
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("insecure", false, "Allow insecure registry connections")
	return cmd
}

func newPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push [model]",
		Short: "Upload a model to a registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			insecure, _ := cmd.Flags().GetBool("insecure")
			ok, err := s.client.Push(cmd.Context(), args[0], insecure)
			return s.report(ok, err, "pushed %s", args[0])
		},
	}
	cmd.Flags().Bool("insecure", false, "Allow insecure registry connections")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print client and server versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			server, err := s.client.Version(cmd.Context())
			if err != nil {
				s.logger.Warn("server version unavailable", zap.Error(err))
			}
			if s.cfg.JSON {
				return s.printJSON(map[string]string{"client": version.Version, "server": server})
			}
			fmt.Fprintf(s.out, "client: %s\n", version.Version)
			if server != "" {
				fmt.Fprintf(s.out, "server: %s\n", server)
			}
			return nil
		},
	}
}

// report prints the outcome of a bool management call.
func (s *session) report(ok bool, err error, format string, args ...any) error {
	if err != nil {
		return err
	}
	if s.cfg.JSON {
		if err := s.printJSON(map[string]bool{"ok": ok}); err != nil {
			return err
		}
	}
	if !ok {
		return fmt.Errorf("server refused: "+format, args...)
	}
	if s.cfg.JSON {
		return nil
	}
	if !s.cfg.Quiet {
		fmt.Fprintf(s.out, format+"\n", args...)
	}
	return nil
}

func formatFlag(cmd *cobra.Command) (value.Value, error) {
	raw, _ := cmd.Flags().GetString("format")
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return value.Null(), nil
	case strings.HasPrefix(raw, "{"):
		schema, err := value.Unmarshal([]byte(raw))
		if err != nil {
			return value.Value{}, fmt.Errorf("invalid --format schema: %w", err)
		}
		return schema, nil
	default:
		return value.String(raw), nil
	}
}

func humanBytes(n int64) string {
	const unit = 1000
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "kMGTPE"[exp])
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"murmur/internal/bootstrap"
	conversationdto "murmur/internal/modules/conversation/dto"
	dispatchdto "murmur/internal/modules/dispatch/dto"
	speechdto "murmur/internal/modules/speech/dto"
	"murmur/internal/platform/config"
	apperrors "murmur/internal/platform/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "murmur",
		Short:         "Conversational assistant client with speech and file input",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "dotenv file to load (default .env when present)")

	root.AddCommand(newChatCmd(flags))
	root.AddCommand(newSendCmd(flags))
	root.AddCommand(newUploadCmd(flags))
	root.AddCommand(newHistoryCmd(flags))
	root.AddCommand(newTasksCmd(flags))
	root.AddCommand(newWhenCmd(flags))
	root.AddCommand(newListenCmd(flags))
	root.AddCommand(newTokenCmd(flags))
	return root
}

func loadConfig(flags *rootFlags) (config.Config, error) {
	return config.Load(config.Options{ConfigPath: flags.configPath, EnvFile: flags.envFile})
}

func loadApp(flags *rootFlags, logOut io.Writer) (*bootstrap.App, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg, logOut)
}

func newChatCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Run the terminal chat client",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			logFile, err := bootstrap.OpenLogFile(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logFile.Close() }()
			app, err := bootstrap.New(cfg, logFile)
			if err != nil {
				return err
			}
			return bootstrap.RunTUI(app)
		},
	}
}

func newSendCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "send <message>",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(flags, nil)
			if err != nil {
				return err
			}
			ctx := context.Background()
			out, err := app.DispatchCLI.SendText(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printReply(ctx, cmd.OutOrStdout(), app, out)
		},
	}
}

func newUploadCmd(flags *rootFlags) *cobra.Command {
	var prompt string
	upload := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a file with an optional prompt and print the reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(flags, nil)
			if err != nil {
				return err
			}
			ctx := context.Background()
			out, err := app.DispatchCLI.SendFile(ctx, args[0], prompt)
			if err != nil {
				return err
			}
			return printReply(ctx, cmd.OutOrStdout(), app, out)
		},
	}
	upload.Flags().StringVar(&prompt, "prompt", "", "text sent alongside the file")
	return upload
}

func newHistoryCmd(flags *rootFlags) *cobra.Command {
	history := &cobra.Command{Use: "history", Short: "Past conversations"}

	var local bool
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List past conversations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, nil)
			if err != nil {
				return err
			}
			summaries, err := app.ConversationCLI.ListHistory(context.Background(), local, limit)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no conversations")
				return nil
			}
			for _, s := range summaries {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", s.SessionID, formatTime(s.LastAt), s.Title)
			}
			return nil
		},
	}
	list.Flags().BoolVar(&local, "local", false, "list from the local index only")
	list.Flags().IntVar(&limit, "limit", 50, "maximum number of conversations")

	var title string
	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a past conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(flags, nil)
			if err != nil {
				return err
			}
			session, err := app.ConversationCLI.OpenHistory(context.Background(), args[0], title)
			if err != nil {
				return err
			}
			if session.Fallback {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "history unavailable: %s\n", session.FallbackReason)
				return nil
			}
			printSession(cmd.OutOrStdout(), session)
			return nil
		},
	}
	show.Flags().StringVar(&title, "title", "", "title to display")

	history.AddCommand(list, show)
	return history
}

func newTasksCmd(flags *rootFlags) *cobra.Command {
	tasks := &cobra.Command{Use: "tasks", Short: "Tasks and reminders"}

	var status string
	var refresh bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, nil)
			if err != nil {
				return err
			}
			out, err := app.TasksCLI.List(context.Background(), status, refresh)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, t := range out.Tasks {
				due := t.DueRaw
				if !t.Due.IsZero() {
					due = formatTime(t.Due)
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Status, due, t.Title)
			}
			_, _ = fmt.Fprintf(w, "%d pending, %d completed\n", out.Pending, out.Completed)
			return nil
		},
	}
	list.Flags().StringVar(&status, "status", "all", "filter: all|pending|completed")
	list.Flags().BoolVar(&refresh, "refresh", true, "fetch from the backend")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(flags, nil)
			if err != nil {
				return err
			}
			if err := app.TasksCLI.Delete(context.Background(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	tasks.AddCommand(list, del)
	return tasks
}

func newWhenCmd(flags *rootFlags) *cobra.Command {
	var at string
	when := &cobra.Command{
		Use:   "when <text>",
		Short: "Extract date and time expressions and suggest task drafts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reference := time.Now()
			if at != "" {
				parsed, err := time.ParseInLocation("2006-01-02T15:04", at, time.Local)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				reference = parsed
			}
			app, err := loadApp(flags, nil)
			if err != nil {
				return err
			}
			ctx := context.Background()
			text := strings.Join(args, " ")
			candidates, err := app.TemporalCLI.Extract(ctx, text, reference)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(candidates) == 0 {
				_, _ = fmt.Fprintln(w, "no date or time found")
				return nil
			}
			for _, c := range candidates {
				_, _ = fmt.Fprintf(w, "%d\t%q\t%s\t%s\n", c.Rank, c.Text, formatTime(c.Start), formatTime(c.End))
			}
			drafts, err := app.TasksCLI.Drafts(ctx, text, reference)
			if err != nil {
				return err
			}
			for _, d := range drafts {
				_, _ = fmt.Fprintf(w, "draft: %s @ %s\n", d.Title, formatTime(d.Start))
			}
			return nil
		},
	}
	when.Flags().StringVar(&at, "at", "", "reference time, YYYY-MM-DDTHH:MM in local time")
	return when
}

func newListenCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Capture one spoken utterance and send it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, nil)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			events := app.SpeechCLI.Events()
			if err := app.SpeechCLI.Start(ctx); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(w, "listening… (ctrl+c to cancel)")

			for {
				select {
				case <-ctx.Done():
					_ = app.SpeechCLI.Stop(context.Background())
					return ctx.Err()
				case ev, ok := <-events:
					if !ok {
						return fmt.Errorf("speech events closed")
					}
					switch ev.Kind {
					case speechdto.EventTranscript:
						_, _ = fmt.Fprintf(w, "\r… %s", ev.Transcript)
					case speechdto.EventError:
						return fmt.Errorf("speech capture: %s", ev.Error)
					case speechdto.EventUtteranceComplete:
						_, _ = fmt.Fprintf(w, "\r› %s\n", ev.Transcript)
						out, err := app.DispatchCLI.SendUtterance(context.Background(), ev.Transcript)
						if err != nil {
							return err
						}
						return printReply(context.Background(), w, app, out)
					}
				}
			}
		},
	}
}

func newTokenCmd(flags *rootFlags) *cobra.Command {
	token := &cobra.Command{Use: "token", Short: "Manage the stored access token"}

	token.AddCommand(&cobra.Command{
		Use:   "set [token]",
		Short: "Store an access token (reads stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(flags, nil)
			if err != nil {
				return err
			}
			value := ""
			if len(args) == 1 {
				value = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && err != io.EOF {
					return err
				}
				value = line
			}
			if err := app.Credentials.Save(strings.TrimSpace(value)); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "token saved")
			return nil
		},
	})

	token.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, nil)
			if err != nil {
				return err
			}
			if err := app.Credentials.Clear(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "token cleared")
			return nil
		},
	})

	token.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show whether a token is available",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, nil)
			if err != nil {
				return err
			}
			value, err := app.Credentials.Token(context.Background())
			if errors.Is(err, apperrors.ErrUnauthenticated) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no token")
				return nil
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "token: %s…\n", value[:min(6, len(value))])
			return nil
		},
	})
	return token
}

// ─── output helpers ──────────────────────────────────────────────────────────

func printReply(ctx context.Context, w io.Writer, app *bootstrap.App, out dispatchdto.SendOutput) error {
	if out.Skipped {
		_, _ = fmt.Fprintln(w, "nothing to send")
		return nil
	}
	reply, err := app.DispatchCLI.Await(ctx, out.CorrelationID)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w, reply.Reply)
	if reply.Failed {
		return fmt.Errorf("request failed: %s", reply.Error)
	}
	return nil
}

func printSession(w io.Writer, session conversationdto.SessionOutput) {
	if session.Title != "" {
		_, _ = fmt.Fprintf(w, "# %s (%s)\n\n", session.Title, session.SessionID)
	}
	for _, msg := range session.Messages {
		who := "you"
		if msg.Origin == "assistant" {
			who = "assistant"
		}
		body := msg.Payload
		if msg.Kind != "text" {
			body = fmt.Sprintf("[%s %s]", msg.Kind, msg.AttachmentName)
		}
		_, _ = fmt.Fprintf(w, "%s: %s\n", who, body)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iksnae/askdata/internal"
	"github.com/spf13/cobra"
)

const chatHelp = `Type a question and press Enter. Commands:
  /upload <file>   upload a new dataset (starts a fresh conversation)
  /schema          show the active dataset again
  /history         show the whole conversation
  /charts <dir>    download every chart so far into <dir>
  /export <path>   write the transcript (.md, .json, .jsonl, .yaml, .db)
  /help            show this help
  /quit            leave`

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [file]",
	Short: "Start an interactive question session",
	Long: `Start an interactive session. Optionally upload a dataset right away,
then ask questions line by line.

In a terminal, you can keep typing while an answer is pending; a second
question sent before the first resolves is refused rather than queued.

` + chatHelp,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newClientSession()
		if err != nil {
			return err
		}

		r := &repl{
			session: s,
			in:      cmd.InOrStdin(),
			out:     cmd.OutOrStdout(),
			errOut:  cmd.ErrOrStderr(),
			async:   isInteractive(cmd.InOrStdin()),
		}
		return r.run(cmd.Context(), args)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

type askResult struct {
	question string
	entry    internal.MessageEntry
	err      error
}

// repl reads lines and turns them into uploads, questions and commands.
// In async mode questions run in the background and their answers are
// printed as they arrive; otherwise each question completes before the next
// line is read.
type repl struct {
	session *clientSession
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
	async   bool

	results  chan askResult
	inFlight int
}

func (r *repl) run(ctx context.Context, args []string) error {
	r.results = make(chan askResult, 4)

	fmt.Fprintln(r.out, sectionStyle.Render("💬 askdata chat"))
	fmt.Fprintln(r.out, metaStyle.Render("Type /help for commands."))
	fmt.Fprintln(r.out)

	if len(args) == 1 {
		_, _ = r.session.upload(ctx, r.out, r.errOut, args[0])
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case res := <-r.results:
			r.inFlight--
			r.report(res)

		case line, ok := <-lines:
			if !ok {
				r.drain()
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			if quit := r.handle(ctx, line); quit {
				r.drain()
				return nil
			}
		}
	}
}

// handle processes one input line and reports whether to quit
func (r *repl) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if !strings.HasPrefix(line, "/") {
		r.submit(ctx, line)
		return false
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, chatHelp)
	case "/upload":
		if arg == "" {
			internal.PrintError(r.errOut, "usage: /upload <file>")
			return false
		}
		_, _ = r.session.upload(ctx, r.out, r.errOut, arg)
	case "/schema":
		renderDataset(r.out, r.session.orch.Dataset())
	case "/history":
		renderConversation(r.out, r.session.orch.Messages(), chartResolver(r.session.client.BaseURL()))
	case "/charts":
		if arg == "" {
			internal.PrintError(r.errOut, "usage: /charts <dir>")
			return false
		}
		if err := r.session.saveCharts(ctx, r.out, arg); err != nil {
			internal.PrintError(r.errOut, internal.UserMessage(err))
		}
	case "/export":
		if arg == "" {
			internal.PrintError(r.errOut, "usage: /export <path>")
			return false
		}
		if err := r.session.exportTo(ctx, r.out, arg, ""); err != nil {
			internal.PrintError(r.errOut, err.Error())
		}
	default:
		internal.PrintWarning(r.errOut, fmt.Sprintf("Unknown command %s (try /help)", name))
	}
	return false
}

func (r *repl) submit(ctx context.Context, question string) {
	if !r.async {
		entry, err := r.session.orch.Ask(ctx, question)
		r.report(askResult{question: question, entry: entry, err: err})
		return
	}

	if r.session.orch.State() == internal.Dispatching {
		r.report(askResult{question: question, err: internal.ErrDispatchInFlight})
		return
	}
	r.inFlight++
	go func() {
		entry, err := r.session.orch.Ask(ctx, question)
		r.results <- askResult{question: question, entry: entry, err: err}
	}()
}

func (r *repl) report(res askResult) {
	switch {
	case res.err == nil:
		r.session.renderLastExchange(r.out)
	case errors.Is(res.err, internal.ErrNoDataset):
		internal.PrintWarning(r.errOut, "Upload a dataset first: /upload <file>")
	case errors.Is(res.err, internal.ErrDispatchInFlight):
		internal.PrintWarning(r.errOut, fmt.Sprintf("Still working on the previous question; %q was not sent", res.question))
	case errors.Is(res.err, internal.ErrStaleResponse):
		internal.PrintWarning(r.errOut, fmt.Sprintf("Answer to %q discarded: a new dataset was uploaded meanwhile", res.question))
	case errors.Is(res.err, internal.ErrEmptyQuestion):
	default:
		internal.PrintError(r.errOut, internal.UserMessage(res.err))
	}
}

// drain waits for questions still in flight so their answers are shown
func (r *repl) drain() {
	for r.inFlight > 0 {
		res := <-r.results
		r.inFlight--
		r.report(res)
	}
}

func isInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}

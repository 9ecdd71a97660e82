package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/skosovsky/toolrelay/agent"
)

const defaultAgentName = "default"

// noToolAnswer is printed when the model found no relevant tool.
const noToolAnswer = "(no tool matched the request)"

func newChatCmd(opts *rootOptions) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: "Reads one question per line and prints the agent's answer.\n\n" +
			"Commands: /clear empties the transcript, /agent NAME switches to (or creates)\n" +
			"a separate transcript, /agents lists them, /exit quits.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(true)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Level())
			reg, err := buildRegistry(cfg, logger)
			if err != nil {
				return err
			}
			p, err := buildProcessor(cmd.Context(), cfg, reg, logger)
			if err != nil {
				return err
			}
			logger.Info("chat ready", "backend", cfg.Kind(), "model", cfg.Model, "tools", reg.Len())

			interactive := false
			if f, ok := cmd.InOrStdin().(*os.File); ok {
				interactive = term.IsTerminal(int(f.Fd()))
			}
			s := newSession(p, cmd.OutOrStdout(), verbose)
			return s.run(cmd.Context(), cmd.InOrStdin(), interactive)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the prompt sent to the model before each answer")
	return cmd
}

// session is one REPL over a directory of agents sharing a processor.
type session struct {
	processor *agent.Processor
	agents    *agent.Directory
	current   string
	out       io.Writer
	verbose   bool
}

func newSession(p *agent.Processor, out io.Writer, verbose bool) *session {
	s := &session{processor: p, agents: agent.NewDirectory(), out: out, verbose: verbose}
	s.use(defaultAgentName)
	return s
}

func (s *session) use(name string) {
	if _, ok := s.agents.Get(name); !ok {
		s.agents.Register(name, agent.New(s.processor))
	}
	s.current = name
}

func (s *session) agent() *agent.Agent {
	a, _ := s.agents.Get(s.current)
	return a
}

// run reads lines from in until EOF or an exit command. The "User: " prompt
// is shown only when interactive.
func (s *session) run(ctx context.Context, in io.Reader, interactive bool) error {
	sc := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(s.out, "User: ")
		}
		if !sc.Scan() {
			return sc.Err()
		}
		if !s.handle(ctx, sc.Text()) {
			return nil
		}
	}
}

// handle answers one line. It reports false when the session should end.
func (s *session) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return true
	case line == "exit" || line == "quit" || line == "/exit":
		return false
	case line == "/clear":
		s.agent().ClearHistory()
		fmt.Fprintf(s.out, "History of %s cleared.\n", s.current)
		return true
	case line == "/agents":
		for _, name := range s.agents.Names() {
			marker := " "
			if name == s.current {
				marker = "*"
			}
			fmt.Fprintf(s.out, "%s %s\n", marker, name)
		}
		return true
	case strings.HasPrefix(line, "/agent"):
		name := strings.TrimSpace(strings.TrimPrefix(line, "/agent"))
		if name == "" {
			fmt.Fprintln(s.out, "usage: /agent NAME")
			return true
		}
		s.use(name)
		fmt.Fprintf(s.out, "Switched to %s.\n", name)
		return true
	}

	a := s.agent()
	if s.verbose {
		fmt.Fprintf(s.out, "--- prompt ---\n%s\n--------------\n", a.Prompt(line))
	}
	answer, ok := a.Chat(ctx, line)
	if !ok {
		answer = noToolAnswer
	}
	fmt.Fprintf(s.out, "Agent: %s\n", answer)
	return true
}

package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/benvon/smart-todo-client/internal/chat"
	"github.com/benvon/smart-todo-client/internal/models"
)

const quitCommand = "/quit"

// lineReader is the part of readline the REPL uses
type lineReader interface {
	Readline() (string, error)
	Close() error
}

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message...]",
		Short: "Talk to the todo assistant",
		Long: "With a message, sends it and prints the reply. Without one, starts an " +
			"interactive session; type " + quitCommand + " to leave.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return a.chatOnce(cmd, strings.Join(args, " "))
			}

			rl, err := newChatReadline()
			if err != nil {
				return fmt.Errorf("failed to start interactive chat: %w", err)
			}
			defer func() { _ = rl.Close() }()

			ctrl := chat.New(a.client, a.session, a.logger, chat.WithGreeting())
			return chatLoop(cmd, ctrl, rl)
		},
	}
}

func (a *app) chatOnce(cmd *cobra.Command, message string) error {
	ctrl := chat.New(a.client, a.session, a.logger)
	if !ctrl.Send(cmd.Context(), message) {
		return errors.New("nothing to send")
	}
	reply, _ := ctrl.Last()
	return render(cmd.OutOrStdout(), a.output, reply, func(w io.Writer) error {
		return renderTurn(w, reply)
	})
}

// chatLoop reads lines until /quit, EOF or interrupt, printing each reply
func chatLoop(cmd *cobra.Command, ctrl *chat.Controller, rl lineReader) error {
	out := cmd.OutOrStdout()
	for _, turn := range ctrl.Transcript() {
		if err := renderTurn(out, turn); err != nil {
			return err
		}
	}

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if strings.TrimSpace(line) == quitCommand {
			return nil
		}
		if !ctrl.Send(cmd.Context(), line) {
			continue
		}
		if reply, ok := ctrl.Last(); ok && reply.Role == models.ChatRoleAssistant {
			if err := renderTurn(out, reply); err != nil {
				return err
			}
		}
	}
}

// chatReadlineConfig keeps line history in memory only; nothing typed in
// the chat is written to disk
func chatReadlineConfig() *readline.Config {
	return &readline.Config{
		Prompt:            "you> ",
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         quitCommand,
	}
}

func newChatReadline() (*readline.Instance, error) {
	return readline.NewEx(chatReadlineConfig())
}

package chatcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/autonomind/autonomind-go/chat"
	"github.com/autonomind/autonomind-go/client"
	"github.com/autonomind/autonomind-go/cmd/autonomind/bootstrap"
	"github.com/autonomind/autonomind-go/pkg/api"
)

const chatLongDesc string = `Start an interactive chat with the AutonoMind backend.

Replies stream token by token. Slash commands switch modality
without leaving the session:

  /mode text|voice|image|search   select the input mode
  /lang <code>                    select the reply language
  /upload <path>                  ingest a file (images prime image queries)
  /voice <path>                   send an audio recording
  /clear                          wipe the conversation history
  /quit                           leave

Conversation history and session identity survive restarts.`

const chatShortDesc string = "Interactive chat session"

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	metaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type chatCommander struct {
	flags bootstrap.Flags
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmder.flags.Register(cmd)
	return cmd
}

func (c *chatCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	rt, err := bootstrap.Build(ctx, c.flags,
		chat.WithChunkListener(func(fragment string) {
			fmt.Fprint(out, fragment)
		}),
	)
	if err != nil {
		return err
	}
	defer rt.Close()

	session := rt.Session
	fmt.Fprintf(out, "%s\n", metaStyle.Render(
		fmt.Sprintf("session %s · mode %s · lang %s · %d messages",
			session.SessionID(), session.Mode(), session.Language(), len(session.Messages()))))

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, promptStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := c.command(cmd, session, line)
			if err != nil {
				fmt.Fprintln(out, errStyle.Render(err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}

		if err := session.Send(ctx, line); err != nil {
			fmt.Fprintln(out, errStyle.Render(err.Error()))
			continue
		}
		fmt.Fprintln(out)
		printStructured(out, session)
	}
}

// command handles one slash command. The bool result reports quit.
func (c *chatCommander) command(cmd *cobra.Command, session *chat.Session, line string) (bool, error) {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true, nil

	case "/clear":
		if err := session.ClearMessages(ctx); err != nil {
			return false, err
		}
		fmt.Fprintln(out, metaStyle.Render("history cleared"))
		return false, nil

	case "/mode":
		m := api.Mode(arg)
		if !m.Valid() {
			return false, fmt.Errorf("unknown mode %q (text|voice|image|search)", arg)
		}
		session.SetMode(m)
		fmt.Fprintln(out, metaStyle.Render("mode "+arg))
		return false, nil

	case "/lang":
		if arg == "" {
			return false, errors.New("usage: /lang <code>")
		}
		session.SetLanguage(arg)
		fmt.Fprintln(out, metaStyle.Render("lang "+arg))
		return false, nil

	case "/upload":
		if arg == "" {
			return false, errors.New("usage: /upload <path>")
		}
		return false, upload(cmd, session, arg, "")

	case "/voice":
		if arg == "" {
			return false, errors.New("usage: /voice <path>")
		}
		return false, voice(cmd, session, arg)
	}

	return false, fmt.Errorf("unknown command %s", name)
}

// upload ingests a local file, classifying it by its declared media type.
func upload(cmd *cobra.Command, session *chat.Session, path, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
	}

	err = session.Upload(cmd.Context(), client.Attachment{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Data:        f,
	})
	if err != nil {
		return err
	}
	printStructured(cmd.OutOrStdout(), session)
	return nil
}

// voice sends an audio file as one recording. The handle is released when
// the send returns, whatever the outcome.
func voice(cmd *cobra.Command, session *chat.Session, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := session.SendVoice(cmd.Context(), f); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

// printStructured renders the non-streamed parts of the trailing assistant
// message: acknowledgment text, caption, and similarity matches.
func printStructured(out io.Writer, session *chat.Session) {
	msgs := session.Messages()
	if len(msgs) == 0 {
		return
	}
	last := msgs[len(msgs)-1]
	if last.Role != api.RoleAssistant {
		return
	}

	if last.Error {
		fmt.Fprintln(out, errStyle.Render(last.Content))
		return
	}
	if last.Content != "" && len(last.ImageResults) == 0 && last.Description == "" {
		// Streamed content was already echoed chunk by chunk.
		return
	}
	if last.Content != "" {
		fmt.Fprintln(out, last.Content)
	}
	for _, img := range last.ImageResults {
		fmt.Fprintln(out, metaStyle.Render(fmt.Sprintf("  %s (score %.2f)", img.URL, img.Score)))
	}
	if last.Description != "" {
		fmt.Fprintln(out, last.Description)
	}
}

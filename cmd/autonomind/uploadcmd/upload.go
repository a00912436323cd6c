package uploadcmder

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/autonomind/autonomind-go/client"
	"github.com/autonomind/autonomind-go/cmd/autonomind/bootstrap"
	"github.com/autonomind/autonomind-go/pkg/api"
)

const uploadLongDesc string = `Ingest a file into the current session without entering the REPL.

The file's declared media type decides what happens next: images
prime the session for image-contextual queries (and switch the
mode to image), documents switch the mode back to text.

Examples:
  autonomind upload report.pdf
  autonomind upload --content-type image/png snapshot.bin`

const uploadShortDesc string = "Ingest a file into the session"

type uploadCommander struct {
	flags       bootstrap.Flags
	contentType string
}

func NewUploadCmd() *cobra.Command {
	cmder := &uploadCommander{}

	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: uploadShortDesc,
		Long:  uploadLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	cmder.flags.Register(cmd)
	cmd.Flags().StringVar(&cmder.contentType, "content-type", "", "Declared media type (default: by extension)")

	return cmd
}

func (c *uploadCommander) run(cmd *cobra.Command, path string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	rt, err := bootstrap.Build(ctx, c.flags)
	if err != nil {
		return err
	}
	defer rt.Close()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	contentType := c.contentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
	}

	session := rt.Session
	err = session.Upload(ctx, client.Attachment{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Data:        f,
	})
	if err != nil {
		return err
	}

	msgs := session.Messages()
	last := msgs[len(msgs)-1]
	fmt.Fprintln(out, last.Content)
	if last.Description != "" {
		fmt.Fprintln(out, last.Description)
	}
	for _, img := range last.ImageResults {
		fmt.Fprintf(out, "  %s (score %.2f)\n", img.URL, img.Score)
	}
	if session.Mode() == api.ModeImage {
		fmt.Fprintln(out, "session primed for image queries")
	}
	return nil
}

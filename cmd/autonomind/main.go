package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	chatcmder "github.com/autonomind/autonomind-go/cmd/autonomind/chatcmd"
	uploadcmder "github.com/autonomind/autonomind-go/cmd/autonomind/uploadcmd"
)

func main() {
	root := &cobra.Command{
		Use:   "autonomind",
		Short: "Terminal client for the AutonoMind assistant",
		Long: `autonomind talks to an AutonoMind backend: streamed text chat,
voice transcription, image-contextual queries, and file ingest,
with conversation history cached locally between runs.`,
		SilenceUsage: true,
	}

	root.AddCommand(chatcmder.NewChatCmd())
	root.AddCommand(uploadcmder.NewUploadCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

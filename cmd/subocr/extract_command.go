package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/events"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/extractor"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/processor"
)

type extractFlags struct {
	output   string
	profile  string
	duration string
}

func (f *extractFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Directory for extracted frames (default: <video name> next to the video)")
	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "Crop profile name")
	cmd.Flags().StringVarP(&f.duration, "duration", "d", "", "Video length as HH:MM:SS (default: probe with ffprobe)")
}

func (f *extractFlags) request(video string) processor.ExtractRequest {
	out := strings.TrimSpace(f.output)
	if out == "" {
		out = strings.TrimSuffix(video, filepath.Ext(video))
	}
	return processor.ExtractRequest{
		Video:      video,
		OutputBase: out,
		Profile:    f.profile,
		Duration:   f.duration,
	}
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var flags extractFlags

	cmd := &cobra.Command{
		Use:   "extract <video>",
		Short: "Run the frame extractor over a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bus := events.NewBus(0)
			done := consumeEvents(bus, cmd.OutOrStdout())
			defer func() {
				bus.Close()
				<-done
			}()

			proc, err := ctx.newProcessor(cmd.Context(), bus, false)
			if err != nil {
				return err
			}
			out, err := proc.Extract(cmd.Context(), flags.request(args[0]))
			if err != nil {
				return err
			}
			printExtractOutcome(cmd, out)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func printExtractOutcome(cmd *cobra.Command, out extractor.Outcome) {
	fmt.Fprintf(cmd.OutOrStdout(), "Frames: %s (%d images, exit code %d)\n", out.ImagesDir, out.Files, out.ExitCode)
}

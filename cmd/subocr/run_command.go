package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/events"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var extract extractFlags
	var ocr ocrFlags

	cmd := &cobra.Command{
		Use:   "run <video>",
		Short: "Extract frames from a video and recognize them in one go",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			video := args[0]

			bus := events.NewBus(0)
			done := consumeEvents(bus, cmd.OutOrStdout())
			proc, err := ctx.newProcessor(cmd.Context(), bus, false)
			if err != nil {
				bus.Close()
				<-done
				return err
			}
			outcome, err := proc.Extract(cmd.Context(), extract.request(video))
			bus.Close()
			<-done
			if err != nil {
				return err
			}
			printExtractOutcome(cmd, outcome)

			name := strings.TrimSuffix(video, filepath.Ext(video))
			req, err := ocr.request(cmd, ctx, outcome.ImagesDir, name)
			if err != nil {
				return err
			}
			return runOCR(cmd, ctx, req)
		},
	}
	extract.register(cmd)
	cmd.Flags().StringVar(&ocr.output, "srt", "", "Subtitle file to write (default: <video name>.srt)")
	cmd.Flags().StringVar(&ocr.workDir, "work-dir", "", "Directory for raw_texts and texts (default: current directory)")
	cmd.Flags().BoolVar(&ocr.correct, "correct", false, "Correct recognized text with Gemini (needs gemini.enabled)")
	cmd.Flags().BoolVar(&ocr.docx, "docx", false, "Also write a .docx transcript")
	return cmd
}

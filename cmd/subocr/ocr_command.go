package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/events"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/processor"
)

type ocrFlags struct {
	output  string
	workDir string
	correct bool
	docx    bool
}

func (f *ocrFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Subtitle file to write (.srt is enforced)")
	cmd.Flags().StringVar(&f.workDir, "work-dir", "", "Directory for raw_texts and texts (default: current directory)")
	cmd.Flags().BoolVar(&f.correct, "correct", false, "Correct recognized text with Gemini (needs gemini.enabled)")
	cmd.Flags().BoolVar(&f.docx, "docx", false, "Also write a .docx transcript")
}

func (f *ocrFlags) request(cmd *cobra.Command, ctx *commandContext, imagesDir, fallbackName string) (processor.Request, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return processor.Request{}, err
	}
	out := strings.TrimSpace(f.output)
	if out == "" {
		out = fallbackName + ".srt"
	}
	docx := f.docx
	if !cmd.Flags().Changed("docx") {
		docx = cfg.Export.Docx
	}
	return processor.Request{
		ImagesDir:  imagesDir,
		OutputPath: out,
		WorkDir:    f.workDir,
		Correct:    f.correct,
		Docx:       docx,
	}, nil
}

func newOCRCommand(ctx *commandContext) *cobra.Command {
	var flags ocrFlags

	cmd := &cobra.Command{
		Use:   "ocr <images-dir>",
		Short: "Recognize subtitle frames and write a subtitle file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imagesDir := args[0]
			fallback := filepath.Base(filepath.Dir(filepath.Clean(imagesDir)))
			req, err := flags.request(cmd, ctx, imagesDir, fallback)
			if err != nil {
				return err
			}
			return runOCR(cmd, ctx, req)
		},
	}
	flags.register(cmd)
	return cmd
}

func runOCR(cmd *cobra.Command, ctx *commandContext, req processor.Request) error {
	bus := events.NewBus(0)
	done := consumeEvents(bus, cmd.OutOrStdout())
	finish := func() {
		bus.Close()
		<-done
	}

	proc, err := ctx.newProcessor(cmd.Context(), bus, true)
	if err != nil {
		finish()
		return err
	}

	report, err := proc.Process(cmd.Context(), req)
	finish()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderReport(report))
	if report.Cleanup != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Post-processing problems:\n%v\n", report.Cleanup)
	}
	return nil
}

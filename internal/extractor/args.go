package extractor

import (
	"path/filepath"
	"strconv"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/config"
)

const (
	rgbImagesDir = "RGBImages"
	txtImagesDir = "TXTImages"
)

// Options describes one extraction.
type Options struct {
	Binary          string
	Video           string
	OutputBase      string
	Crop            config.CropProfile
	CreateTXTImages bool
}

// RGBImagesDir is where the extractor writes its raw subtitle frames.
func (o Options) RGBImagesDir() string {
	return filepath.Join(o.OutputBase, rgbImagesDir)
}

// ImagesDir is the directory OCR should read: the cleaned text images when
// requested, the raw frames otherwise.
func (o Options) ImagesDir() string {
	if o.CreateTXTImages {
		return filepath.Join(o.OutputBase, txtImagesDir)
	}
	return o.RGBImagesDir()
}

// BuildArgs returns the extractor arguments: clear, run, optional cleaned
// images, input, output and the crop edges as fractions of the frame.
func BuildArgs(o Options) []string {
	args := []string{"-c", "-r"}
	if o.CreateTXTImages {
		args = append(args, "-ccti")
	}
	return append(args,
		"-i", o.Video,
		"-o", o.OutputBase,
		"-te", formatEdge(o.Crop.Top),
		"-be", formatEdge(o.Crop.Bottom),
		"-le", formatEdge(o.Crop.Left),
		"-re", formatEdge(o.Crop.Right),
	)
}

func formatEdge(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

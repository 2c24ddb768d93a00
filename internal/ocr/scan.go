package ocr

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

var imageExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".bmp":  true,
	".gif":  true,
}

// Scan walks imagesDir recursively and returns one task per image, indexed
// 1..N in lexical walk order. Frame names start with their timestamp, so this
// order follows the video.
func Scan(imagesDir, rawDir, textsDir string) ([]Task, error) {
	var tasks []Task
	err := filepath.WalkDir(imagesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		stem := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		tasks = append(tasks, Task{
			Path:     abs,
			Index:    len(tasks) + 1,
			RawPath:  filepath.Join(rawDir, stem+".txt"),
			TextPath: filepath.Join(textsDir, stem+".txt"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan images: %w", err)
	}
	return tasks, nil
}

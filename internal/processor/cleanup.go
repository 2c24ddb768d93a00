package processor

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// finalize runs the configured post-processing. Each step runs even when an
// earlier one failed; failures are logged, published and returned joined.
func (p *implProcessor) finalize(ctx context.Context, runID, subtitlePath, rawDir, textsDir string) (string, error) {
	var errs []error
	var archivePath string

	fail := func(err error) {
		p.logger.Error(ctx, "%v", err)
		p.bus.Error(runID, err.Error())
		errs = append(errs, err)
	}

	if p.cfg.Cleanup.ArchiveRawTexts {
		path := strings.TrimSuffix(subtitlePath, filepath.Ext(subtitlePath)) + ".zip"
		if err := zipDir(rawDir, path); err != nil {
			fail(fmt.Errorf("archive %s: %w", rawDir, err))
		} else {
			archivePath = path
			p.logger.Info(ctx, "Archived directory: %s -> %s", rawDir, path)
		}
	}

	if p.cfg.Cleanup.DeleteRawTexts {
		if err := os.RemoveAll(rawDir); err != nil {
			fail(fmt.Errorf("delete raw_texts: %w", err))
		} else {
			p.logger.Info(ctx, "Deleted directory: %s", rawDir)
		}
	}

	if p.cfg.Cleanup.DeleteTexts {
		if err := os.RemoveAll(textsDir); err != nil {
			fail(fmt.Errorf("delete texts: %w", err))
		} else {
			p.logger.Info(ctx, "Deleted directory: %s", textsDir)
		}
	}

	return archivePath, errors.Join(errs...)
}

// zipDir writes every file under dir into a zip archive at dest, with paths
// relative to dir.
func zipDir(dir, dest string) (err error) {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dest)
		}
	}()

	zw := zip.NewWriter(out)
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
	if walkErr != nil {
		zw.Close()
		return walkErr
	}
	return zw.Close()
}

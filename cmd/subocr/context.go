package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/nguyentantai21042004/subtitle-ocr/internal/config"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/corrector"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/drive"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/events"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/logger"
	"github.com/nguyentantai21042004/subtitle-ocr/internal/processor"
	"github.com/nguyentantai21042004/subtitle-ocr/pkg/executor"
)

const defaultConfigPath = "config.yaml"

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     logger.Logger
	logCloser  io.Closer
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil || strings.TrimSpace(*c.configFlag) == "" {
		return defaultConfigPath
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = config.Load(c.configPath())
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (logger.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		if cfg.Logging.File == "" {
			c.logger = logger.New(cfg.Logging.Level)
			return
		}
		c.logger, c.logCloser, c.loggerErr = logger.NewWithFile(cfg.Logging.Level, cfg.Logging.File)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) close() error {
	if c.logCloser == nil {
		return nil
	}
	return c.logCloser.Close()
}

// newProcessor wires a processor for one command. withBackend connects to
// Drive first, which needs a saved token.
func (c *commandContext) newProcessor(ctx context.Context, bus *events.Bus, withBackend bool) (processor.Processor, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	log, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	deps := processor.Dependencies{
		Executor: executor.New(),
		Logger:   log,
		Bus:      bus,
	}

	if withBackend {
		client, err := newDriveClient(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		deps.Backend = client
	}

	if cfg.Gemini.Enabled {
		deps.Corrector = corrector.New(corrector.Options{
			APIKeys:   cfg.Gemini.APIKeys,
			Model:     cfg.Gemini.Model,
			BatchSize: cfg.Gemini.BatchSize,
		}, log)
	}

	return processor.New(cfg, deps), nil
}

func newDriveClient(ctx context.Context, cfg *config.Config, log logger.Logger) (*drive.Client, error) {
	httpClient, err := drive.LoadHTTPClient(ctx, cfg.Drive.CredentialsFile, cfg.Drive.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("%w (run 'subocr auth' first)", err)
	}
	client, err := drive.New(ctx, httpClient, cfg.Drive.FolderID)
	if err != nil {
		return nil, err
	}
	folderID, err := client.EnsureFolder(ctx, cfg.Drive.FolderName)
	if err != nil {
		return nil, err
	}
	log.Debug(ctx, "Using Drive folder %s", folderID)
	return client, nil
}

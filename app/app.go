package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/d1nch8g/ask/config"
	"github.com/d1nch8g/ask/gpt"
	"github.com/d1nch8g/ask/logger"
	"github.com/d1nch8g/ask/metrics"
)

const (
	promptLabel    = "Enter your prompt: "
	responseHeader = "Model response:"
	failureLine    = "Failed to get a response from the model."
)

type App struct {
	config  *config.Config
	logger  *logger.Logger
	client  gpt.Client
	metrics *metrics.Metrics
	in      io.Reader
	out     io.Writer
}

func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	return newApp(cfg, log, createClient(cfg, log), os.Stdin, os.Stdout), nil
}

func newApp(cfg *config.Config, log *logger.Logger, client gpt.Client, in io.Reader, out io.Writer) *App {
	m := metrics.New(nil)
	return &App{
		config:  cfg,
		logger:  log,
		client:  metrics.Instrument(client, m),
		metrics: m,
		in:      in,
		out:     out,
	}
}

func createClient(cfg *config.Config, log *logger.Logger) gpt.Client {
	log.WithFields(logrus.Fields{
		"base_url": cfg.BaseURL,
		"model":    cfg.Model,
	}).Debug("Creating chat client")

	return gpt.NewChatClient(gpt.Options{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		Timeout:   cfg.Timeout,
		Referer:   cfg.Referer,
		Title:     cfg.Title,
		Logger:    log.WithField("component", "gpt"),
	})
}

// Run reads the prompt, asks the model once and prints the outcome.
// Model failures are reported to the user and are not returned as errors.
func (a *App) Run(ctx context.Context) error {
	prompt, ok := a.config.PromptText()
	if !ok {
		var err error
		prompt, err = a.readPrompt()
		if err != nil {
			return err
		}
	}

	a.logger.WithFields(logrus.Fields{
		"model":      a.config.Model,
		"max_tokens": a.config.MaxTokens,
	}).Info("Sending prompt")

	start := time.Now()
	reply, err := a.client.Ask(ctx, prompt)
	if err != nil {
		a.reportFailure(err)
	} else if reply == "" {
		a.logger.Warn("Model returned an empty reply")
		a.printFailure()
	} else {
		a.logger.WithField("duration", time.Since(start)).Info("Model replied")
		a.printReply(reply)
	}

	if a.config.MetricsFile != "" {
		if err := a.metrics.WriteTextfile(a.config.MetricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	return nil
}

func (a *App) readPrompt() (string, error) {
	fmt.Fprint(a.out, promptLabel)

	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read prompt: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *App) reportFailure(err error) {
	if f, ok := gpt.AsFailure(err); ok {
		a.logger.LogFailure(string(f.Kind), f.Message, f.StatusCode)
	} else {
		a.logger.WithError(err).Error("Completion request failed")
	}
	a.printFailure()
}

func (a *App) printReply(reply string) {
	fmt.Fprintln(a.out)
	color.New(color.FgGreen, color.Bold).Fprintln(a.out, responseHeader)
	fmt.Fprintln(a.out, reply)
}

func (a *App) printFailure() {
	color.New(color.FgRed).Fprintln(a.out, failureLine)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the client
type Config struct {
	// Provider Configuration
	APIKey    string        `short:"k" long:"api-key" env:"OPENROUTER_API_KEY" description:"Bearer token for the chat completions API" yaml:"api_key" validate:"required"`
	BaseURL   string        `short:"u" long:"base-url" env:"OPENROUTER_BASE_URL" description:"Base URL of the OpenAI-compatible API" default:"https://openrouter.ai/api/v1" yaml:"base_url" validate:"required,url"`
	Model     string        `short:"m" long:"model" env:"OPENROUTER_MODEL" description:"Model identifier" default:"meta-llama/llama-3.2-3b-instruct:free" yaml:"model" validate:"required"`
	MaxTokens int           `short:"n" long:"max-tokens" env:"OPENROUTER_MAX_TOKENS" description:"Maximum number of tokens in the reply" default:"512" yaml:"max_tokens" validate:"gt=0"`
	Timeout   time.Duration `short:"t" long:"timeout" env:"OPENROUTER_TIMEOUT" description:"Request timeout" default:"60s" yaml:"timeout" validate:"gt=0"`
	Referer   string        `long:"referer" env:"OPENROUTER_REFERER" description:"Optional HTTP-Referer attribution header" yaml:"referer" validate:"omitempty,url"`
	Title     string        `long:"title" env:"OPENROUTER_TITLE" description:"Optional X-Title attribution header" yaml:"title"`

	// Input Configuration
	Prompt     string `short:"p" long:"prompt" description:"Prompt text (read from stdin when omitted)" yaml:"-"`
	ConfigFile string `short:"c" long:"config" env:"ASK_CONFIG" description:"YAML configuration file" yaml:"-"`

	// Output Configuration
	LogFile     string `short:"l" long:"log-file" description:"Log file path (optional)" yaml:"log_file"`
	Verbose     bool   `short:"v" long:"verbose" description:"Enable verbose output" yaml:"verbose"`
	Quiet       bool   `short:"q" long:"quiet" description:"Suppress non-essential output" yaml:"quiet"`
	MetricsFile string `long:"metrics-file" description:"Write Prometheus metrics to this file on exit" yaml:"metrics_file"`

	// Args are the positional arguments, joined into the prompt when --prompt is empty.
	Args []string `yaml:"-"`
}

// Parse parses command line arguments and environment variables
func Parse() (*Config, error) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses args on top of the environment, the .env file and the
// optional YAML config file. Precedence: flags, environment, file, defaults.
func ParseArgs(args []string) (*Config, error) {
	if err := loadEnv(); err != nil {
		return nil, err
	}

	var config Config

	parser := flags.NewParser(&config, flags.Default)
	parser.Usage = "[OPTIONS] [PROMPT...]"

	parser.Name = "ask"
	parser.ShortDescription = "Send a prompt to a chat completion model"
	parser.LongDescription = `Sends a single prompt to an OpenAI-compatible chat completions API
(OpenRouter by default) and prints the reply.

When no prompt is given with --prompt or as arguments, it is read from stdin.

Examples:
  ask "What is the capital of France?"
  ask -m openai/gpt-4o-mini -n 256 --prompt "Summarize RFC 9110"
  ask --config ~/.config/ask.yaml

Environment Variables:
  OPENROUTER_API_KEY     Bearer token (required)
  OPENROUTER_BASE_URL    API base URL
  OPENROUTER_MODEL       Model identifier
  OPENROUTER_MAX_TOKENS  Reply token cap
  OPENROUTER_TIMEOUT     Request timeout, e.g. 30s
  ENV_FILE               Dotenv file to load instead of ./.env`

	rest, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, err
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	config.Args = rest

	if config.ConfigFile != "" {
		file, err := readFile(config.ConfigFile)
		if err != nil {
			return nil, err
		}
		config.merge(parser, file)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func readFile(path string) (Config, error) {
	var file Config

	data, err := os.ReadFile(path)
	if err != nil {
		return file, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return file, nil
}

// merge copies values from the config file for every option that was not
// given on the command line or through the environment.
func (c *Config) merge(parser *flags.Parser, file Config) {
	useFile := func(long string, present bool) bool {
		return present && !explicitlySet(parser, long)
	}

	if useFile("api-key", file.APIKey != "") {
		c.APIKey = file.APIKey
	}
	if useFile("base-url", file.BaseURL != "") {
		c.BaseURL = file.BaseURL
	}
	if useFile("model", file.Model != "") {
		c.Model = file.Model
	}
	if useFile("max-tokens", file.MaxTokens != 0) {
		c.MaxTokens = file.MaxTokens
	}
	if useFile("timeout", file.Timeout != 0) {
		c.Timeout = file.Timeout
	}
	if useFile("referer", file.Referer != "") {
		c.Referer = file.Referer
	}
	if useFile("title", file.Title != "") {
		c.Title = file.Title
	}
	if useFile("log-file", file.LogFile != "") {
		c.LogFile = file.LogFile
	}
	if useFile("verbose", file.Verbose) {
		c.Verbose = true
	}
	if useFile("quiet", file.Quiet) {
		c.Quiet = true
	}
	if useFile("metrics-file", file.MetricsFile != "") {
		c.MetricsFile = file.MetricsFile
	}
}

func explicitlySet(parser *flags.Parser, long string) bool {
	opt := parser.FindOptionByLongName(long)
	if opt == nil {
		return false
	}
	if opt.IsSet() && !opt.IsSetDefault() {
		return true
	}
	if opt.EnvDefaultKey != "" {
		if _, ok := os.LookupEnv(opt.EnvDefaultKey); ok {
			return true
		}
	}
	return false
}

// Validate performs additional validation on the configuration
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("long"); name != "" {
			return name
		}
		return field.Name
	})

	if err := validate.Struct(c); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			return describe(validationErrs[0])
		}
		return err
	}

	if c.Verbose && c.Quiet {
		return fmt.Errorf("verbose and quiet options are mutually exclusive")
	}

	// Validate log file path if provided
	if c.LogFile != "" {
		dir := filepath.Dir(c.LogFile)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("log file directory does not exist: %s", dir)
		}
	}

	return nil
}

func describe(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "url":
		return fmt.Errorf("%s must be a valid URL, got %q", fe.Field(), fe.Value())
	case "gt":
		return fmt.Errorf("%s must be greater than %s", fe.Field(), fe.Param())
	default:
		return fmt.Errorf("%s failed %q validation", fe.Field(), fe.Tag())
	}
}

// GetLogLevel returns the appropriate log level based on configuration
func (c *Config) GetLogLevel() string {
	if c.Quiet {
		return "error"
	}
	if c.Verbose {
		return "debug"
	}
	return "info"
}

// PromptText returns the prompt given on the command line, if any.
func (c *Config) PromptText() (string, bool) {
	if c.Prompt != "" {
		return c.Prompt, true
	}
	if len(c.Args) > 0 {
		return strings.Join(c.Args, " "), true
	}
	return "", false
}

// PrintConfig prints the current configuration (excluding sensitive data)
func (c *Config) PrintConfig() {
	fmt.Fprintf(os.Stderr, "Configuration:\n")
	fmt.Fprintf(os.Stderr, "  API Key: %s***\n", c.APIKey[:min(8, len(c.APIKey))])
	fmt.Fprintf(os.Stderr, "  Base URL: %s\n", c.BaseURL)
	fmt.Fprintf(os.Stderr, "  Model: %s\n", c.Model)
	fmt.Fprintf(os.Stderr, "  Max Tokens: %d\n", c.MaxTokens)
	fmt.Fprintf(os.Stderr, "  Timeout: %s\n", c.Timeout)
	if c.ConfigFile != "" {
		fmt.Fprintf(os.Stderr, "  Config File: %s\n", c.ConfigFile)
	}
	if c.LogFile != "" {
		fmt.Fprintf(os.Stderr, "  Log File: %s\n", c.LogFile)
	}
	if c.MetricsFile != "" {
		fmt.Fprintf(os.Stderr, "  Metrics File: %s\n", c.MetricsFile)
	}
	fmt.Fprintln(os.Stderr)
}

func loadEnv() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: inference.go
Description: Intent parameter inference. Defines the Inferrer interface consumed by the scan
pipeline, the endpoint configuration, and the error taxonomy: network failures that survived
every retry and replies that do not match the extras schema. Both degrade to empty extras.
*/

package inference

import (
	"context"
	"fmt"
	"time"

	"github.com/kleascm/intentscout/pkg/intent"
	"github.com/kleascm/intentscout/pkg/manifest"
)

// DefaultEndpoint is the local LM Studio server
const DefaultEndpoint = "http://localhost:1234/v1"

// Request carries everything the model sees about one component
type Request struct {
	Component manifest.ComponentRecord
	// Filter is the intent filter the command will use, nil for a bare target
	Filter *manifest.IntentFilter
	// SourcePath and Source are empty when no source file was located
	SourcePath string
	Source     string
}

// Inferrer proposes intent extras for a component
type Inferrer interface {
	Infer(ctx context.Context, req Request) ([]intent.ExtraParameter, error)
}

// Config configures the chat-completion endpoint
type Config struct {
	Endpoint       string        `mapstructure:"endpoint" json:"endpoint"`
	APIKey         string        `mapstructure:"api_key" json:"-"`
	Model          string        `mapstructure:"model" json:"model"`
	Temperature    float64       `mapstructure:"temperature" json:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens" json:"max_tokens"`
	MaxRetries     int           `mapstructure:"max_retries" json:"max_retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" json:"retry_base_delay"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout"`
	// JSONMode asks the server for a JSON object reply via response_format
	JSONMode bool `mapstructure:"json_mode" json:"json_mode"`
}

// DefaultConfig returns the settings used when only an endpoint and model are given
func DefaultConfig() Config {
	return Config{
		Endpoint:       DefaultEndpoint,
		Temperature:    0.3,
		MaxTokens:      4096,
		MaxRetries:     3,
		RetryBaseDelay: 500 * time.Millisecond,
		RequestTimeout: 60 * time.Second,
	}
}

// Enabled reports whether inference should run at all
func (c Config) Enabled() bool {
	return c.Endpoint != "" && c.Model != ""
}

// Validate checks the numeric settings
func (c Config) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative, got %d", c.MaxRetries)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max tokens must be non-negative, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %g", c.Temperature)
	}
	if c.RequestTimeout < 0 || c.RetryBaseDelay < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}
	return nil
}

// NetworkError reports a request that failed after every retry
type NetworkError struct {
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("inference request failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SchemaError reports a reply that did not carry a conforming extras payload
type SchemaError struct {
	Reason string
	Raw    string
}

func (e *SchemaError) Error() string {
	return "inference reply does not match schema: " + e.Reason
}

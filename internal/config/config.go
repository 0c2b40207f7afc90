package config

import (
	"fmt"
	"time"

	"robotorder/lib/configutil"
)

const (
	DefaultSiteURL   = "https://robotsparebinindustries.com/#/robot-order"
	DefaultOrdersURL = "https://robotsparebinindustries.com/orders.csv"
)

type BrowserConfig struct {
	// runs chrome with a visible window instead of headless, receipts cannot be
	// printed to pdf in this mode
	Headful bool `json:"headful"`
	// delay between two page actions, 0 turns slow motion off
	SlowMotionMs int `json:"slow_motion_ms"`
	// 0 lets a page action wait forever
	ActionTimeoutSeconds int    `json:"action_timeout_seconds"`
	ExecPath             string `json:"exec_path"`
}

func (c BrowserConfig) SlowMotion() time.Duration {
	return time.Duration(c.SlowMotionMs) * time.Millisecond
}

func (c BrowserConfig) ActionTimeout() time.Duration {
	return time.Duration(c.ActionTimeoutSeconds) * time.Second
}

type SubmitConfig struct {
	MaxAttempts int `json:"max_attempts"`
}

type HttpConfig struct {
	TimeoutSeconds   int  `json:"timeout_seconds"`
	CloudflareBypass bool `json:"cloudflare_bypass"`
	// 0 turns the request limit off
	RequestsPerSecond float64 `json:"requests_per_second"`
	// directory the raw http exchanges are written to, empty disables it
	DumpDir string `json:"dump_dir"`
}

func (c HttpConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type Config struct {
	SiteURL    string        `json:"site_url"`
	OrdersURL  string        `json:"orders_url"`
	OrdersPath string        `json:"orders_path"`
	OutputDir  string        `json:"output_dir"`
	Browser    BrowserConfig `json:"browser"`
	Submit     SubmitConfig  `json:"submit"`
	Http       HttpConfig    `json:"http"`
}

func Default() Config {
	return Config{
		SiteURL:    DefaultSiteURL,
		OrdersURL:  DefaultOrdersURL,
		OrdersPath: "orders.csv",
		OutputDir:  "output",
		Browser: BrowserConfig{
			SlowMotionMs:         100,
			ActionTimeoutSeconds: 30,
		},
		Submit: SubmitConfig{
			MaxAttempts: 25,
		},
		Http: HttpConfig{
			TimeoutSeconds:    30,
			RequestsPerSecond: 2,
		},
	}
}

// Load reads the config file at path (and its .local override), any field it
// leaves unset takes the value from Default. A missing file yields Default.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadWithDefaults(path, Default())
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	err = cfg.validate()
	if err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Submit.MaxAttempts < 1 {
		return fmt.Errorf("submit.max_attempts must be at least 1, got %d", c.Submit.MaxAttempts)
	}
	if c.Browser.SlowMotionMs < 0 {
		return fmt.Errorf("browser.slow_motion_ms must not be negative, got %d", c.Browser.SlowMotionMs)
	}
	if c.Http.RequestsPerSecond < 0 {
		return fmt.Errorf("http.requests_per_second must not be negative, got %v", c.Http.RequestsPerSecond)
	}
	return nil
}

package config

import "runtime"

// Defaults shared with the commands that report them.
const (
	DefaultContentDir    = "docs"
	DefaultRouteBase     = "docs"
	DefaultOutputDir     = "build"
	DefaultReportFile    = "build-report.json"
	DefaultRepoHost      = "https://github.com"
	DefaultRepoBranch    = "main"
	DefaultPreviewPort   = 3000
	DefaultDebounce      = "300ms"
	DefaultHistoryPath   = ".docsite/history.db"
	DefaultHistoryKeep   = 50
	DefaultMetricsPath   = "/metrics"
	DefaultNotifySubject = "docsite.builds"
	DefaultNotifyTimeout = "5s"
	DefaultMaxDepth      = 8
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// SiteDefaultApplier handles site identity defaults.
type SiteDefaultApplier struct{}

func (SiteDefaultApplier) Domain() string { return "site" }

func (SiteDefaultApplier) ApplyDefaults(cfg *Config) error {
	s := &cfg.Site
	if s.BaseURL == "" {
		s.BaseURL = "/"
	}
	if s.Language == "" {
		s.Language = "en"
	}
	if s.RepoHost == "" {
		s.RepoHost = DefaultRepoHost
	}
	if s.RepoBranch == "" {
		s.RepoBranch = DefaultRepoBranch
	}
	if s.Meta == "" {
		s.Meta = s.Description
	}
	if cfg.Navbar.Title == "" {
		cfg.Navbar.Title = s.Title
	}
	for i := range cfg.Navbar.Items {
		if cfg.Navbar.Items[i].Position == "" {
			cfg.Navbar.Items[i].Position = NavbarLeft
		}
	}
	return nil
}

// ContentDefaultApplier handles content defaults.
type ContentDefaultApplier struct{}

func (ContentDefaultApplier) Domain() string { return "content" }

func (ContentDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Content.Dir == "" {
		cfg.Content.Dir = DefaultContentDir
	}
	if cfg.Content.RouteBase == "" {
		cfg.Content.RouteBase = DefaultRouteBase
	}
	if cfg.Content.OnBrokenMarkdownLinks == "" {
		cfg.Content.OnBrokenMarkdownLinks = LinkPolicyThrow
	}
	return nil
}

// BuildDefaultApplier handles build defaults.
type BuildDefaultApplier struct{}

func (BuildDefaultApplier) Domain() string { return "build" }

func (BuildDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Build.Workers == 0 {
		cfg.Build.Workers = runtime.NumCPU()
	}
	if cfg.Build.MaxDepth <= 0 {
		cfg.Build.MaxDepth = DefaultMaxDepth
	}
	if cfg.Build.OnBrokenLinks == "" {
		cfg.Build.OnBrokenLinks = LinkPolicyThrow
	}
	return nil
}

// OutputDefaultApplier handles output defaults.
type OutputDefaultApplier struct{}

func (OutputDefaultApplier) Domain() string { return "output" }

func (OutputDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDir
	}
	if cfg.Output.ReportFile == "" {
		cfg.Output.ReportFile = DefaultReportFile
	}
	return nil
}

// RuntimeDefaultApplier handles preview, history, notify and monitoring defaults.
type RuntimeDefaultApplier struct{}

func (RuntimeDefaultApplier) Domain() string { return "runtime" }

func (RuntimeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Preview.Host == "" {
		cfg.Preview.Host = "localhost"
	}
	if cfg.Preview.Port == 0 {
		cfg.Preview.Port = DefaultPreviewPort
	}
	if cfg.Preview.Debounce == "" {
		cfg.Preview.Debounce = DefaultDebounce
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	if cfg.History.Keep <= 0 {
		cfg.History.Keep = DefaultHistoryKeep
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultNotifySubject
	}
	if cfg.Notify.Timeout == "" {
		cfg.Notify.Timeout = DefaultNotifyTimeout
	}
	if cfg.Monitoring.Metrics.Path == "" {
		cfg.Monitoring.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Monitoring.Logging.Level == "" {
		cfg.Monitoring.Logging.Level = LogLevelInfo
	}
	if cfg.Monitoring.Logging.Format == "" {
		cfg.Monitoring.Logging.Format = LogFormatText
	}
	return nil
}

// DefaultApplierChain runs appliers in order.
type DefaultApplierChain struct {
	appliers []DefaultApplier
}

// NewDefaultApplier returns the chain used by Load.
func NewDefaultApplier() *DefaultApplierChain {
	return &DefaultApplierChain{appliers: []DefaultApplier{
		SiteDefaultApplier{},
		ContentDefaultApplier{},
		BuildDefaultApplier{},
		OutputDefaultApplier{},
		RuntimeDefaultApplier{},
	}}
}

func (c *DefaultApplierChain) ApplyDefaults(cfg *Config) error {
	for _, a := range c.appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

func applyDefaults(cfg *Config) error {
	return NewDefaultApplier().ApplyDefaults(cfg)
}

package config

import (
	"errors"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/foundation/normalization"
)

// LinkPolicy decides what a broken link does to the build.
type LinkPolicy string

const (
	LinkPolicyThrow  LinkPolicy = "throw"
	LinkPolicyWarn   LinkPolicy = "warn"
	LinkPolicyIgnore LinkPolicy = "ignore"
)

var linkPolicyNormalizer = normalization.NewNormalizer("link policy", map[string]LinkPolicy{
	"throw":  LinkPolicyThrow,
	"error":  LinkPolicyThrow,
	"warn":   LinkPolicyWarn,
	"log":    LinkPolicyWarn,
	"ignore": LinkPolicyIgnore,
}, LinkPolicyThrow)

// NormalizeLinkPolicy maps raw onto a LinkPolicy, "" when unknown.
func NormalizeLinkPolicy(raw string) LinkPolicy {
	if !linkPolicyNormalizer.Known(raw) {
		return ""
	}
	return linkPolicyNormalizer.Normalize(raw)
}

// NavbarPosition places a navbar item.
type NavbarPosition string

const (
	NavbarLeft  NavbarPosition = "left"
	NavbarRight NavbarPosition = "right"
)

var navbarPositionNormalizer = normalization.NewNormalizer("navbar position", map[string]NavbarPosition{
	"left":  NavbarLeft,
	"right": NavbarRight,
}, NavbarLeft)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = normalization.NewNormalizer("log level", map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, LogLevelInfo)

// NormalizeLogLevel maps raw onto a LogLevel, info when unknown.
func NormalizeLogLevel(raw string) LogLevel {
	return logLevelNormalizer.Normalize(raw)
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = normalization.NewNormalizer("log format", map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, LogFormatText)

// NormalizeLogFormat maps raw onto a LogFormat, text when unknown.
func NormalizeLogFormat(raw string) LogFormat {
	return logFormatNormalizer.Normalize(raw)
}

// NormalizationResult captures coercions made by NormalizeConfig.
type NormalizationResult struct{ Warnings []string }

func (r *NormalizationResult) changed(field string, from, to any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to))
}

func (r *NormalizationResult) unknown(field, value string, def any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf("unknown %s '%s', defaulting to %v", field, value, def))
}

// normalizeEnum canonicalizes *v in place through n.
func normalizeEnum[T ~string](field string, v *T, n *normalization.Normalizer[T], res *NormalizationResult) {
	raw := string(*v)
	if strings.TrimSpace(raw) == "" {
		return
	}
	if !n.Known(raw) {
		def := n.Normalize("")
		res.unknown(field, raw, def)
		*v = def
		return
	}
	if canonical := n.Normalize(raw); canonical != *v {
		res.changed(field, *v, canonical)
		*v = canonical
	}
}

// NormalizeConfig canonicalizes enumerations and paths before defaults are applied.
func NormalizeConfig(c *Config) (*NormalizationResult, error) {
	if c == nil {
		return nil, errors.New("config nil")
	}
	res := &NormalizationResult{}

	normalizeEnum("content.on_broken_markdown_links", &c.Content.OnBrokenMarkdownLinks, linkPolicyNormalizer, res)
	normalizeEnum("build.on_broken_links", &c.Build.OnBrokenLinks, linkPolicyNormalizer, res)
	normalizeEnum("monitoring.logging.level", &c.Monitoring.Logging.Level, logLevelNormalizer, res)
	normalizeEnum("monitoring.logging.format", &c.Monitoring.Logging.Format, logFormatNormalizer, res)
	for i := range c.Navbar.Items {
		normalizeEnum(fmt.Sprintf("navbar.items[%d].position", i), &c.Navbar.Items[i].Position, navbarPositionNormalizer, res)
	}

	if c.Site.BaseURL != "" {
		base := "/" + strings.Trim(c.Site.BaseURL, "/") + "/"
		if base == "//" {
			base = "/"
		}
		if base != c.Site.BaseURL {
			res.changed("site.base_url", c.Site.BaseURL, base)
			c.Site.BaseURL = base
		}
	}
	// "/" serves documents from the site root and is kept as written.
	if rb := strings.Trim(c.Content.RouteBase, "/"); rb != "" && rb != c.Content.RouteBase {
		res.changed("content.route_base", c.Content.RouteBase, rb)
		c.Content.RouteBase = rb
	}
	if c.Build.Workers < 0 {
		res.changed("build.workers", c.Build.Workers, 0)
		c.Build.Workers = 0
	}
	return res, nil
}

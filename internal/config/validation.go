package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// ValidateConfig checks a defaulted configuration.
func ValidateConfig(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	for _, step := range []func() error{
		cv.validateSite,
		cv.validateContent,
		cv.validateChrome,
		cv.validateBuild,
		cv.validatePaths,
		cv.validateRuntime,
	} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateSite() error {
	s := cv.config.Site
	if strings.TrimSpace(s.Title) == "" {
		return errors.New("site.title is required")
	}
	if s.URL != "" {
		u, err := url.Parse(s.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("site.url must be an absolute URL: %q", s.URL)
		}
	}
	if (s.RepoOwnerName == "") != (s.RepoName == "") {
		return errors.New("site.repo_owner_name and site.repo_name must be set together")
	}
	return nil
}

func (cv *configurationValidator) validateContent() error {
	for key := range cv.config.Content.Vars {
		if !validVarKey(key) {
			return fmt.Errorf("content.vars key %q must contain only letters, digits and underscores", key)
		}
	}
	return nil
}

func validVarKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return false
		}
	}
	return true
}

func (cv *configurationValidator) validateChrome() error {
	for i, item := range cv.config.Navbar.Items {
		if item.Label == "" {
			return fmt.Errorf("navbar.items[%d]: label is required", i)
		}
		if (item.DocID == "") == (item.Href == "") {
			return fmt.Errorf("navbar.items[%d] (%s): exactly one of doc_id and href is required", i, item.Label)
		}
	}
	for i, col := range cv.config.Footer.Links {
		for j, link := range col.Items {
			if link.Label == "" || link.Href == "" {
				return fmt.Errorf("footer.links[%d].items[%d]: label and href are required", i, j)
			}
		}
	}
	for i, b := range cv.config.Homepage.Buttons {
		if b.Label == "" || b.To == "" {
			return fmt.Errorf("homepage.buttons[%d]: label and to are required", i)
		}
	}
	return nil
}

func (cv *configurationValidator) validateBuild() error {
	if cv.config.Build.MaxDepth > 64 {
		return fmt.Errorf("build.max_depth %d exceeds 64", cv.config.Build.MaxDepth)
	}
	return nil
}

func (cv *configurationValidator) validatePaths() error {
	c := cv.config
	content := filepath.Clean(c.Content.Dir)
	out := filepath.Clean(c.Output.Directory)
	if content == out {
		return fmt.Errorf("output.directory (%s) must differ from content.dir", c.Output.Directory)
	}
	if c.Output.Clean && (out == "." || out == "/" || out == "..") {
		return fmt.Errorf("refusing to clean output.directory %q", c.Output.Directory)
	}
	return nil
}

func (cv *configurationValidator) validateRuntime() error {
	c := cv.config
	if c.Preview.Port < 1 || c.Preview.Port > 65535 {
		return fmt.Errorf("preview.port %d out of range", c.Preview.Port)
	}
	if _, err := time.ParseDuration(c.Preview.Debounce); err != nil {
		return fmt.Errorf("preview.debounce: %w", err)
	}
	if c.Preview.RebuildEvery != "" {
		d, err := time.ParseDuration(c.Preview.RebuildEvery)
		if err != nil {
			return fmt.Errorf("preview.rebuild_every: %w", err)
		}
		if d < time.Second {
			return fmt.Errorf("preview.rebuild_every %s is below one second", d)
		}
	}
	if _, err := time.ParseDuration(c.Notify.Timeout); err != nil {
		return fmt.Errorf("notify.timeout: %w", err)
	}
	if !strings.HasPrefix(c.Monitoring.Metrics.Path, "/") {
		return fmt.Errorf("monitoring.metrics.path must start with '/': %q", c.Monitoring.Metrics.Path)
	}
	return nil
}

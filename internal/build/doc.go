// Package build runs the docsite pipeline: load the content store, register
// components, render every document on a bounded worker pool, write the
// site, verify its links and report the outcome.
//
// The content store must load completely before any render starts. A
// LoadError aborts the whole build; a failing document is reported and the
// remaining documents keep rendering. Every run produces a Report, which
// is persisted as JSON next to the site, recorded in the build history and
// published to the notification subject when one is configured.
package build

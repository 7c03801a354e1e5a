// Package errors provides the classified error primitives shared across docsite.
//
// Domain packages (content, components, render) expose their own typed errors and
// sentinels; the build and CLI layers wrap those into ClassifiedError values so that
// exit codes, HTTP status codes and log levels can be derived from one place.
//
// Example usage:
//
//	err := errors.WrapError(loadErr, errors.CategoryContent, "content load failed").
//		Fatal().
//		WithContext("dir", contentDir).
//		Build()
package errors

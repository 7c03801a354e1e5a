package components

import (
	"fmt"
	"log/slog"
	"regexp"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// PartialSource provides the partial documents of a content store.
type PartialSource interface {
	Partials() []*docmodel.DocumentNode
}

// MissingPropError reports a {props.<name>} placeholder the reference did
// not supply.
type MissingPropError struct {
	Component string
	Prop      string
}

func (e *MissingPropError) Error() string {
	return fmt.Sprintf("component %q: missing prop %q", e.Component, e.Prop)
}

var propPlaceholder = regexp.MustCompile(`\{props\.([A-Za-z0-9_]+)\}`)

// RegisterPartials registers every partial under its component name. The
// expansion returns the partial's blocks with {props.<name>} placeholders
// replaced by the reference's attributes.
func RegisterPartials(reg *Registry, src PartialSource) error {
	for _, p := range src.Partials() {
		if err := reg.RegisterFrom(p.Component, p, Partial(p)); err != nil {
			return err
		}
		slog.Debug("Registered partial", logfields.Component(p.Component), logfields.Path(p.Source))
	}
	return nil
}

// Partial returns the RenderFunc that splices doc's blocks. A placeholder
// without a matching prop fails with *MissingPropError.
func Partial(doc *docmodel.DocumentNode) RenderFunc {
	return func(inv Invocation) ([]docmodel.Block, error) {
		var missing string
		blocks := docmodel.MapText(doc.Blocks, func(s string) string {
			return propPlaceholder.ReplaceAllStringFunc(s, func(m string) string {
				key := propPlaceholder.FindStringSubmatch(m)[1]
				if v, ok := inv.Props[key]; ok {
					return v
				}
				if missing == "" {
					missing = key
				}
				return m
			})
		})
		if missing != "" {
			return nil, &MissingPropError{Component: doc.Component, Prop: missing}
		}
		return blocks, nil
	}
}

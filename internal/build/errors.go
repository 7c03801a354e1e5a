package build

import "errors"

// Sentinels wrapped by the classified errors Run returns.
var (
	ErrLoad   = errors.New("docsite: content load failed")
	ErrRender = errors.New("docsite: documents failed to render")
	ErrWrite  = errors.New("docsite: writing the site failed")
)

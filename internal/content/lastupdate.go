package content

import (
	"errors"
	"log/slog"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

var errStop = errors.New("stop iteration")

// gitHistory answers "who touched this file last" from the repository that
// contains the content directory.
type gitHistory struct {
	repo *git.Repository
	root string
}

// openGitHistory returns nil when dir is not inside a git work tree.
func openGitHistory(dir string) *gitHistory {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		slog.Debug("Last update metadata disabled: no git repository", logfields.Path(dir), logfields.Error(err))
		return nil
	}
	wt, err := repo.Worktree()
	if err != nil {
		slog.Debug("Last update metadata disabled: bare repository", logfields.Path(dir), logfields.Error(err))
		return nil
	}
	root, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		root = wt.Filesystem.Root()
	}
	return &gitHistory{repo: repo, root: root}
}

func (h *gitHistory) lastUpdate(absPath string) docmodel.LastUpdate {
	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		resolved = absPath
	}
	rel, err := filepath.Rel(h.root, resolved)
	if err != nil {
		return docmodel.LastUpdate{}
	}
	rel = filepath.ToSlash(rel)

	head, err := h.repo.Head()
	if err != nil {
		return docmodel.LastUpdate{}
	}
	iter, err := h.repo.Log(&git.LogOptions{From: head.Hash(), FileName: &rel})
	if err != nil {
		slog.Debug("Failed to read git log", logfields.Path(rel), logfields.Error(err))
		return docmodel.LastUpdate{}
	}
	defer iter.Close()

	var out docmodel.LastUpdate
	err = iter.ForEach(func(c *object.Commit) error {
		out = docmodel.LastUpdate{Author: c.Author.Name, Time: c.Author.When.UTC()}
		return errStop
	})
	if err != nil && !errors.Is(err, errStop) {
		return docmodel.LastUpdate{}
	}
	return out
}

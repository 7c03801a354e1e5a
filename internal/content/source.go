package content

import (
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// docIgnoreFile excludes the directory that contains it (and everything below).
const docIgnoreFile = ".docignore"

var numericPrefix = regexp.MustCompile(`^(\d+)[-_. ]+`)

// sourceFile is a Markdown file found under the content directory.
type sourceFile struct {
	abs string
	// rel is slash separated and relative to the content root.
	rel string
	// dir is the raw directory of rel, "" for the root.
	dir string
	// group is the directory path with numeric prefixes stripped.
	group string
	// name is the base name without extension, underscore or numeric prefix.
	name    string
	prefix  int
	partial bool
	// order is the 1-based position among pages of the same directory.
	order int
}

func isMarkdownFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".mdx", ".markdown":
		return true
	}
	return false
}

// discover walks root in lexical order and returns every Markdown source.
func discover(root string) ([]sourceFile, error) {
	var files []sourceFile
	orderInDir := map[string]int{}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if p != root && (strings.HasPrefix(name, ".") || name == "node_modules") {
				return filepath.SkipDir
			}
			if _, statErr := os.Stat(filepath.Join(p, docIgnoreFile)); statErr == nil {
				slog.Info("Skipping directory due to .docignore file", logfields.Path(p))
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !isMarkdownFile(name) {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		dir := path.Dir(rel)
		if dir == "." {
			dir = ""
		}

		base := strings.TrimSuffix(name, filepath.Ext(name))
		sf := sourceFile{abs: p, rel: rel, dir: dir, group: groupPath(dir), partial: strings.HasPrefix(base, "_")}
		sf.prefix, sf.name = splitPrefix(strings.TrimPrefix(base, "_"))
		if !sf.partial {
			orderInDir[dir]++
			sf.order = orderInDir[dir]
		}
		files = append(files, sf)

		slog.Debug("Discovered file", logfields.Path(rel), slog.String("group", sf.group), slog.Bool("partial", sf.partial))
		return nil
	})
	return files, err
}

// splitPrefix strips an ordering prefix such as "02-" and returns it (0 when absent).
func splitPrefix(name string) (int, string) {
	m := numericPrefix.FindStringSubmatch(name)
	if m == nil {
		return 0, name
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, name
	}
	return n, name[len(m[0]):]
}

func groupPath(dir string) string {
	if dir == "" {
		return ""
	}
	parts := strings.Split(dir, "/")
	for i, p := range parts {
		_, parts[i] = splitPrefix(p)
	}
	return strings.Join(parts, "/")
}

// dirOrder is the sort key of a directory: its segments' prefixes and names.
type dirKey struct {
	prefix int
	name   string
}

func dirOrder(dir string) []dirKey {
	if dir == "" {
		return nil
	}
	segments := strings.Split(dir, "/")
	keys := make([]dirKey, len(segments))
	for i, s := range segments {
		n, name := splitPrefix(s)
		keys[i] = dirKey{prefix: n, name: name}
	}
	return keys
}

func compareDirs(a, b string) int {
	return slices.CompareFunc(dirOrder(a), dirOrder(b), func(x, y dirKey) int {
		if x.prefix != y.prefix {
			return x.prefix - y.prefix
		}
		return strings.Compare(x.name, y.name)
	})
}

// groupLabel turns "help" or "getting-started" into a sidebar heading.
func groupLabel(group string) string {
	if group == "" {
		return ""
	}
	last := path.Base(group)
	words := strings.FieldsFunc(last, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		words[i] = upperFirst(w)
	}
	return strings.Join(words, " ")
}

// componentName derives "AccessingTagsPartial" from "accessing-tags".
func componentName(name string) string {
	var b strings.Builder
	for _, w := range strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == ' ' || r == '.'
	}) {
		b.WriteString(upperFirst(w))
	}
	b.WriteString("Partial")
	return b.String()
}

func upperFirst(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + w[size:]
}

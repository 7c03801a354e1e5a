package content

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSplitPrefix(t *testing.T) {
	tests := []struct {
		in     string
		prefix int
		name   string
	}{
		{"02-CHANGELOG", 2, "CHANGELOG"},
		{"06_help", 6, "help"},
		{"10. release notes", 10, "release notes"},
		{"2024-roadmap", 2024, "roadmap"},
		{"introduction", 0, "introduction"},
		{"123", 0, "123"},
	}
	for _, tt := range tests {
		n, name := splitPrefix(tt.in)
		assert.Equal(t, tt.prefix, n, tt.in)
		assert.Equal(t, tt.name, name, tt.in)
	}
}

func TestComponentName(t *testing.T) {
	assert.Equal(t, "AccessingTagsPartial", componentName("accessing-tags"))
	assert.Equal(t, "AccessingTagsPartial", componentName("AccessingTags"))
	assert.Equal(t, "DataLoggingPartial", componentName("data_logging"))
	assert.Equal(t, "ÜberTagsPartial", componentName("über-tags"))
	assert.True(t, utf8.ValidString(componentName("über-tags")))
	assert.Equal(t, "ÉtatPartial", componentName("état"))
}

func TestGroupPathAndLabel(t *testing.T) {
	assert.Equal(t, "help/advanced", groupPath("06-help/01-advanced"))
	assert.Equal(t, "", groupPath(""))
	assert.Equal(t, "Getting Started", groupLabel("setup/getting-started"))
	assert.Equal(t, "", groupLabel(""))
	assert.Equal(t, "Über Uns", groupLabel("über-uns"))
}

func TestCompareDirs(t *testing.T) {
	assert.Negative(t, compareDirs("", "01-a"))
	assert.Negative(t, compareDirs("02-b", "10-a"))
	assert.Negative(t, compareDirs("alpha", "beta"))
	assert.Negative(t, compareDirs("01-a", "01-a/01-b"))
	assert.Zero(t, compareDirs("03-x", "03-x"))
}

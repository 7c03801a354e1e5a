package components

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/content"
	"git.home.luguber.info/inful/docsite/internal/docmodel"
)

func static(text string) RenderFunc {
	return func(Invocation) ([]docmodel.Block, error) {
		return []docmodel.Block{docmodel.Paragraph([]docmodel.InlineRun{docmodel.Text(text)})}, nil
	}
}

func TestRegistry_RegisterAndResolve(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("Hello", static("hi")))

	fn, err := reg.Resolve("Hello")
	require.NoError(t, err)
	blocks, err := fn(Invocation{})
	require.NoError(t, err)
	assert.Equal(t, "hi", blocks[0].Runs[0].Text)
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("Hello", static("a")))

	err := reg.Register("Hello", static("b"))
	var dup *DuplicateRegistrationError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Hello", dup.Name)
}

func TestRegistry_UnresolvedNamesExactlyTheMissingComponent(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("Known", static("a")))

	fn, err := reg.Resolve("NeverRegistered")
	assert.Nil(t, fn)
	var unresolved *UnresolvedComponentError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "NeverRegistered", unresolved.Name)
	assert.Contains(t, err.Error(), `"NeverRegistered"`)
}

func TestRegistry_ForwardReferenceResolvesAfterLateRegistration(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Resolve("Late")
	require.Error(t, err)

	require.NoError(t, reg.Register("Late", static("x")))
	_, err = reg.Resolve("Late")
	require.NoError(t, err)
}

func TestRegistry_Freeze(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("A", static("a")))
	reg.Freeze()
	assert.True(t, reg.Frozen())

	err := reg.Register("B", static("b"))
	assert.True(t, errors.Is(err, ErrRegistryFrozen))

	_, err = reg.Resolve("A")
	assert.NoError(t, err)
}

func TestRegistry_RejectsInvalidInput(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.Register("", static("a")))
	assert.Error(t, reg.Register("Nil", nil))
	assert.Empty(t, reg.Names())
}

func TestRegistry_IndependentInstances(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	require.NoError(t, a.Register("Only", static("a")))
	_, err := b.Resolve("Only")
	assert.Error(t, err)
}

func TestRegistry_ConcurrentResolve(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("A", static("a")))
	reg.Freeze()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Resolve("A")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

type partialList []*docmodel.DocumentNode

func (p partialList) Partials() []*docmodel.DocumentNode { return p }

func TestRegisterPartials_SubstitutesProps(t *testing.T) {
	partial := &docmodel.DocumentNode{
		ID:        "_accessing-tags.md",
		Source:    "_accessing-tags.md",
		Partial:   true,
		Component: "AccessingTagsPartial",
		Blocks:    []docmodel.Block{docmodel.Paragraph([]docmodel.InlineRun{docmodel.Text("Find {props.topic} in {props.topicName}.")})},
	}
	reg := NewRegistry()
	require.NoError(t, RegisterPartials(reg, partialList{partial}))
	assert.Equal(t, []string{"AccessingTagsPartial"}, reg.Names())

	fn, err := reg.Resolve("AccessingTagsPartial")
	require.NoError(t, err)

	blocks, err := fn(Invocation{Props: map[string]string{"topic": "tags", "topicName": "history"}})
	require.NoError(t, err)
	assert.Equal(t, "Find tags in history.", blocks[0].Runs[0].Text)
	assert.Equal(t, "Find {props.topic} in {props.topicName}.", partial.Blocks[0].Runs[0].Text)

	tests := []struct {
		name  string
		props map[string]string
		want  string
	}{
		{"no props", nil, "topic"},
		{"key differs in case", map[string]string{"topic": "tags", "topicname": "history"}, "topicName"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fn(Invocation{Props: tt.props})
			var missing *MissingPropError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, "AccessingTagsPartial", missing.Component)
			assert.Equal(t, tt.want, missing.Prop)
		})
	}

	err = RegisterPartials(reg, partialList{partial})
	var dup *DuplicateRegistrationError
	assert.ErrorAs(t, err, &dup)
}

type sidebarStub []content.Group

func (s sidebarStub) Sidebar() []content.Group { return s }

func TestDocCardList_ListsSiblings(t *testing.T) {
	faq := &docmodel.DocumentNode{ID: "help/faq", Title: "FAQ", Group: "help", Source: "06-help/01-FAQ.md", Description: "Answers."}
	support := &docmodel.DocumentNode{ID: "help/support", Title: "Support", Group: "help", Source: "06-help/02-support.md"}
	overview := &docmodel.DocumentNode{ID: "help/index", Title: "Help", Group: "help", Source: "06-help/index.md"}
	intro := &docmodel.DocumentNode{ID: "intro", Title: "Intro", Source: "intro.md"}
	sidebar := sidebarStub{
		{Name: "", Docs: []*docmodel.DocumentNode{intro}},
		{Name: "help", Label: "Help", Docs: []*docmodel.DocumentNode{overview, faq, support}},
	}

	reg := NewRegistry()
	require.NoError(t, RegisterBuiltins(reg, sidebar))
	fn, err := reg.Resolve("DocCardList")
	require.NoError(t, err)

	blocks, err := fn(Invocation{Doc: overview})
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	list := blocks[0]
	require.Equal(t, docmodel.BlockList, list.Kind)
	require.Len(t, list.Items, 2)

	first := list.Items[0]
	require.Len(t, first, 2)
	link := first[0].Runs[0]
	assert.Equal(t, "01-FAQ.md", link.Href)
	assert.Equal(t, "FAQ", docmodel.PlainText(link.Children))
	assert.Equal(t, "Answers.", docmodel.PlainText(first[1].Runs))
	assert.Len(t, list.Items[1], 1)

	blocks, err = fn(Invocation{Doc: overview, Props: map[string]string{"group": ""}})
	require.NoError(t, err)
	require.Len(t, blocks[0].Items, 1)
	assert.Equal(t, "../intro.md", blocks[0].Items[0][0].Runs[0].Href)

	blocks, err = fn(Invocation{Doc: intro})
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

package mdexport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	md, err := Convert(`<h2 id="setup">Setup</h2>
<p>Install the <strong>module</strong> from <a href="/IgnitionEwonConnector/docs/quick-start-guide">the guide</a>.</p>
<ul><li>one</li><li>two</li></ul>`, "")
	require.NoError(t, err)

	assert.Contains(t, md, "## Setup")
	assert.Contains(t, md, "**module**")
	assert.Contains(t, md, "[the guide](/IgnitionEwonConnector/docs/quick-start-guide)")
	assert.Contains(t, md, "- one")
}

func TestConvert_AbsoluteLinksWithDomain(t *testing.T) {
	md, err := Convert(`<p><a href="/IgnitionEwonConnector/docs/faq">FAQ</a></p>`, "https://hms-networks.github.io")
	require.NoError(t, err)
	assert.Equal(t, "[FAQ](https://hms-networks.github.io/IgnitionEwonConnector/docs/faq)", md)
}

func TestDocument(t *testing.T) {
	md, err := Document("FAQ", "<p>Answers.</p>", "")
	require.NoError(t, err)
	assert.Equal(t, "# FAQ\n\nAnswers.\n", md)

	md, err = Document("Empty", "", "")
	require.NoError(t, err)
	assert.Equal(t, "# Empty\n", md)
}

func TestConvert_DropsHeadingPermalinks(t *testing.T) {
	md, err := Convert(`<h2 id="usage">Usage<a class="hash-link" href="#usage" aria-label="Direct link to Usage">#</a></h2>`, "")
	require.NoError(t, err)
	assert.Equal(t, "## Usage", md)
}

package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeEmpty(t *testing.T) {
	assert.Equal(t, Stats{}, Analyze(""))
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Stats
	}{
		{
			name: "tags stripped before counting",
			body: "<p>Hello world</p>",
			want: Stats{WordCount: 2, CharCount: 11, ReadingTimeMinutes: 1},
		},
		{
			name: "links and images counted on markup",
			body: `<a href="https://a.example">one</a> <a href="">two</a><img src="x.png"><IMG src="y">`,
			want: Stats{WordCount: 2, CharCount: 7, LinkCount: 2, ImageCount: 1, ReadingTimeMinutes: 1},
		},
		{
			name: "characters are runes",
			body: "<b>café</b>",
			want: Stats{WordCount: 1, CharCount: 4, ReadingTimeMinutes: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Analyze(tt.body))
		})
	}
}

func TestReadingTime(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 0},
		{1, 1},
		{99, 1},
		{300, 2},
		{500, 2},
		{700, 4},
		{1000, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReadingTime(tt.words), "words=%d", tt.words)
	}
}

func TestCheckTagBalance(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		issues := CheckTagBalance("<html><body></body></html>")
		assert.Equal(t, []Issue{NoIssues}, issues)
		assert.True(t, Valid(issues))
	})

	t.Run("attributes and case", func(t *testing.T) {
		issues := CheckTagBalance(`<HTML lang="en"><Body class="x"><p>hi</p></BODY></html>`)
		assert.True(t, Valid(issues))
	})

	t.Run("lone div", func(t *testing.T) {
		issues := CheckTagBalance("<div>")
		require.Len(t, issues, 5)
		assert.False(t, Valid(issues))
		for _, issue := range issues[:4] {
			assert.Equal(t, KindMissingTag, issue.Kind)
		}
		assert.Equal(t, "Missing <body> tag", issues[1].Detail)
		assert.Equal(t, "Missing closing </html> tag", issues[2].Detail)
		assert.Equal(t, Issue{Kind: KindUnbalancedTags, Detail: "Possible unbalanced tags (Open: 1, Close: 0)"}, issues[4])
	})

	t.Run("empty", func(t *testing.T) {
		issues := CheckTagBalance("  \n")
		assert.Equal(t, []Issue{{Kind: KindEmpty, Detail: "HTML code is empty"}}, issues)
		assert.False(t, Valid(issues))
	})

	t.Run("void elements count as open", func(t *testing.T) {
		issues := CheckTagBalance("<html><body><br></body></html>")
		require.Len(t, issues, 1)
		assert.Equal(t, KindUnbalancedTags, issues[0].Kind)
	})
}

func TestValidEmpty(t *testing.T) {
	assert.False(t, Valid(nil))
}

func TestCountElements(t *testing.T) {
	body := `<div><p>a</p><pre>b</pre><a href="#">c</a><img src="i"></div><div></div>`
	got := CountElements(body)
	assert.Equal(t, Elements{Divs: 2, Paragraphs: 2, Anchors: 1, Images: 1}, got)
	assert.Equal(t, Elements{Divs: 4, Paragraphs: 4, Anchors: 2, Images: 2}, got.Add(got))
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "a b", StripTags("<p>a</p> <br/>b"))
	assert.Equal(t, strings.Repeat("x", 3), StripTags("<i>xxx</i>"))
}

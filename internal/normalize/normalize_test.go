package normalize

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestFromHTMLKeepsBlockTagsInOrder(t *testing.T) {
	t.Parallel()

	got, err := FromHTML(`<html><body>
		<h1>Heading</h1>
		<script>var x = 1;</script>
		<p>First paragraph.</p>
		<div>div text is ignored</div>
		<h2>Sub</h2>
		<p>Second paragraph.</p>
		<style>p { color: red }</style>
	</body></html>`)
	require.NoError(t, err)
	require.Equal(t, "Heading\nFirst paragraph.\nSub\nSecond paragraph.", got)
}

func TestFromHTMLIgnoresH6(t *testing.T) {
	t.Parallel()

	got, err := FromHTML(`<p>kept</p><h6>dropped</h6>`)
	require.NoError(t, err)
	require.Equal(t, "kept", got)
}

func TestTextWhitespacePass(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf to lf", "a\r\nb", "a\nb"},
		{"trims lines", "  a  \n\tb\t", "a\nb"},
		{"splits double spaces", "a  b   c", "a\nb\nc"},
		{"keeps single spaces", "a b c", "a b c"},
		{"drops blank lines", "a\n\n\nb", "a\nb"},
		{"empty input", "   \n  ", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Text(tc.in))
		})
	}
}

func TestTextIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"a  b\r\n  c \n\nd",
		"Heading\nFirst paragraph.\nword",
		"  mixed \t content  with   runs ",
	}
	for _, in := range inputs {
		once := Text(in)
		require.Equal(t, once, Text(once))
	}
}

func TestCommentThreadNumbersFromOne(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `
		<div class="usertext-body">first comment</div>
		<div class="usertext-body">   </div>
		<div class="other">not a comment</div>
		<div class="usertext-body">second comment</div>`)

	got := CommentThread(doc, "")
	require.Equal(t, "Comment 1:\nfirst comment\nComment 2:\nsecond comment\n", got)
}

func TestCommentThreadCustomClass(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<div class="entry-comment">only</div>`)
	require.Equal(t, "Comment 1:\nonly\n", CommentThread(doc, "entry-comment"))
	require.Equal(t, "", CommentThread(doc, ""))
}

func TestTitle(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<head><title>  Page Title </title></head><body></body>`)
	require.Equal(t, "Page Title", Title(doc))

	empty := parseDoc(t, `<body><p>no title</p></body>`)
	require.Equal(t, "", Title(empty))
}

func TestImageURLs(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `
		<img src="/a.png">
		<img src="https://cdn.example.com/b.jpg">
		<img src="/a.png">
		<img src="data:image/png;base64,AAAA">
		<img src="">
		<img alt="no src">`)

	base, err := url.Parse("https://example.com/article")
	require.NoError(t, err)

	got := ImageURLs(doc, base)
	require.Equal(t, []string{
		"https://example.com/a.png",
		"https://cdn.example.com/b.jpg",
	}, got)
}

func TestImageURLsWithoutBaseDropsRelative(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<img src="/relative.png"><img src="http://example.com/abs.png">`)
	require.Equal(t, []string{"http://example.com/abs.png"}, ImageURLs(doc, nil))
}

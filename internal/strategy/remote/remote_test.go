package remote

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNeedsPremiumProxy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want bool
	}{
		{"https://reddit.com/r/golang", true},
		{"https://www.reddit.com/r/golang", true},
		{"https://old.reddit.com/r/golang/comments/1", true},
		{"https://twitter.com/someone/status/1", true},
		{"https://www.linkedin.com/in/someone", true},
		{"https://instagram.com/p/abc", true},
		{"https://example.com/article", false},
		{"https://notreddit.com/r/golang", false},
		{"https://reddit.com.evil.example/", false},
		{"https://REDDIT.com/r/golang", true},
		{"://bad-url", false},
	}
	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, NeedsPremiumProxy(tc.url))
		})
	}
}

func TestParseResponseDocument(t *testing.T) {
	t.Parallel()

	got, err := parseResponse(`<html><head><title>T</title></head><body>
		<p>Body text long enough to matter.</p>
		<script>ignored()</script>
	</body></html>`, false)
	require.NoError(t, err)
	require.Equal(t, "Body text long enough to matter.", got.Content)
	require.Equal(t, "T", got.Title)
	require.NotNil(t, got.ImageURLs)
	require.Empty(t, got.ImageURLs)
}

func TestParseResponseCommentThread(t *testing.T) {
	t.Parallel()

	got, err := parseResponse(`<div class="usertext-body">hello thread</div>`, true)
	require.NoError(t, err)
	require.Equal(t, "Comment 1:\nhello thread\n", got.Content)
}

package urlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsYouTubeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"watch URL without www", "https://youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"mobile host", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", true},
		{"shorts", "https://www.youtube.com/shorts/dQw4w9WgXcQ", true},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", true},
		{"surrounding whitespace", "  https://youtu.be/dQw4w9WgXcQ  ", true},
		{"empty string", "", false},
		{"other host", "https://vimeo.com/12345", false},
		{"lookalike host", "https://notyoutube.com/watch?v=dQw4w9WgXcQ", false},
		{"watch without video param", "https://www.youtube.com/watch", false},
		{"bare short host", "https://youtu.be/", false},
		{"channel page", "https://www.youtube.com/@somechannel", false},
		{"not a URL", "dQw4w9WgXcQ", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsYouTubeURL(tt.raw), "url: %q", tt.raw)
		})
	}
}

func TestExtractVideoID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short link with query", "https://youtu.be/dQw4w9WgXcQ?t=42", "dQw4w9WgXcQ"},
		{"shorts", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"no identifier", "https://www.youtube.com/watch", ""},
		{"other host", "https://vimeo.com/12345", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractVideoID(tt.raw))
		})
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	t.Run("splits on whitespace and newlines", func(t *testing.T) {
		t.Parallel()

		input := "https://youtu.be/one\nhttps://youtu.be/two https://youtu.be/three"
		assert.Equal(t, []string{
			"https://youtu.be/one",
			"https://youtu.be/two",
			"https://youtu.be/three",
		}, Sanitize(input))
	})

	t.Run("drops invalid entries", func(t *testing.T) {
		t.Parallel()

		input := "https://youtu.be/good https://vimeo.com/bad not-a-url"
		assert.Equal(t, []string{"https://youtu.be/good"}, Sanitize(input))
	})

	t.Run("deduplicates preserving first-seen order", func(t *testing.T) {
		t.Parallel()

		input := "https://youtu.be/b https://youtu.be/a https://youtu.be/b"
		assert.Equal(t, []string{
			"https://youtu.be/b",
			"https://youtu.be/a",
		}, Sanitize(input))
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, Sanitize("   \n  "))
	})
}

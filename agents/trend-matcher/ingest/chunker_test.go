package ingest

import (
	"strings"
	"testing"
)

func TestChunkTranscript(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		size       int
		overlap    int
		wantChunks int
	}{
		{
			name:       "Empty transcript",
			transcript: "",
			size:       10,
			overlap:    2,
			wantChunks: 0,
		},
		{
			name:       "Shorter than one window",
			transcript: "short",
			size:       100,
			overlap:    20,
			wantChunks: 1,
		},
		{
			name:       "Exact multiple of the step",
			transcript: strings.Repeat("a", 24),
			size:       10,
			overlap:    2,
			wantChunks: 3, // steps of 8: [0,10) [8,18) [16,24)
		},
		{
			name:       "Trailing partial window kept",
			transcript: strings.Repeat("a", 30),
			size:       10,
			overlap:    2,
			wantChunks: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := ChunkTranscript("v1", tt.transcript, tt.size, tt.overlap)
			if len(chunks) != tt.wantChunks {
				t.Fatalf("got %d chunks, want %d", len(chunks), tt.wantChunks)
			}
			for i, c := range chunks {
				if c.VideoID != "v1" {
					t.Errorf("chunk %d video = %s, want v1", i, c.VideoID)
				}
				if c.Index != i {
					t.Errorf("chunk %d index = %d", i, c.Index)
				}
				if len(c.Text) > tt.size {
					t.Errorf("chunk %d is %d chars, window is %d", i, len(c.Text), tt.size)
				}
			}
		})
	}
}

func TestChunkTranscriptOverlapPreservesBoundaryContext(t *testing.T) {
	// Distinct characters make the overlap visible.
	transcript := "abcdefghijklmnopqrstuvwxyz"
	chunks := ChunkTranscript("v1", transcript, 10, 4)

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(chunks))
	}
	first, second := chunks[0].Text, chunks[1].Text
	tail := first[len(first)-4:]
	if !strings.HasPrefix(second, tail) {
		t.Errorf("second chunk %q should start with the last 4 chars of the first %q", second, first)
	}
}

func TestIntroExcerpt(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		words      int
		want       string
	}{
		{
			name:       "Truncates to the word budget",
			transcript: "one two three four five",
			words:      3,
			want:       "one two three",
		},
		{
			name:       "Short transcript untouched",
			transcript: "one two",
			words:      10,
			want:       "one two",
		},
		{
			name:       "Whitespace normalized",
			transcript: "  one\n two\t three  ",
			words:      5,
			want:       "one two three",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IntroExcerpt(tt.transcript, tt.words); got != tt.want {
				t.Errorf("IntroExcerpt() = %q, want %q", got, tt.want)
			}
		})
	}
}

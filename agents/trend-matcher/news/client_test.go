package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"repack-agent/shared/config"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Business News</title>
    <item>
      <title>Central bank holds interest rates steady</title>
      <link>https://example.com/rates</link>
      <description>&lt;p&gt;The central bank kept rates unchanged amid sticky inflation.&lt;/p&gt;</description>
    </item>
    <item>
      <title>Tech layoffs continue into the quarter</title>
      <link>https://example.com/layoffs</link>
      <description>Another round of job cuts hits the sector.</description>
    </item>
    <item>
      <title></title>
      <link>https://example.com/empty</link>
      <description>an item with no title is skipped</description>
    </item>
    <item>
      <title>Housing prices cool in major metros</title>
      <link>https://example.com/housing</link>
      <description></description>
    </item>
  </channel>
</rss>`

func testClient(t *testing.T, handler http.HandlerFunc, maxTrends int) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(&config.NewsConfig{
		FeedURL:   server.URL,
		Source:    "business-news",
		MaxTrends: maxTrends,
	})
}

func TestFetchTrends(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	}, 10)

	trends, err := client.FetchTrends(context.Background())
	if err != nil {
		t.Fatalf("FetchTrends() error = %v", err)
	}
	if len(trends) != 3 {
		t.Fatalf("got %d trends, want 3 (untitled item skipped)", len(trends))
	}

	first := trends[0]
	if first.Title != "Central bank holds interest rates steady" {
		t.Errorf("title = %q", first.Title)
	}
	if first.Summary != "The central bank kept rates unchanged amid sticky inflation." {
		t.Errorf("summary should have HTML stripped, got %q", first.Summary)
	}
	if first.Source != "business-news" {
		t.Errorf("source = %q", first.Source)
	}
	if len(first.Keywords) == 0 {
		t.Error("keywords should be derived from title+summary")
	}
	if first.ID == "" || first.ID == trends[1].ID {
		t.Error("trend IDs must be non-empty and distinct")
	}

	// An item with no description falls back to its title.
	last := trends[2]
	if last.Summary != last.Title {
		t.Errorf("empty description should fall back to title, got %q", last.Summary)
	}
}

func TestFetchTrendsStableIDs(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	}, 10)

	first, err := client.FetchTrends(context.Background())
	if err != nil {
		t.Fatalf("FetchTrends() error = %v", err)
	}
	second, err := client.FetchTrends(context.Background())
	if err != nil {
		t.Fatalf("FetchTrends() second call error = %v", err)
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("trend %d ID changed between fetches: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestFetchTrendsHonorsMaxTrends(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	}, 2)

	trends, err := client.FetchTrends(context.Background())
	if err != nil {
		t.Fatalf("FetchTrends() error = %v", err)
	}
	if len(trends) != 2 {
		t.Errorf("got %d trends, want 2", len(trends))
	}
}

func TestFetchTrendsServerError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, 10)

	if _, err := client.FetchTrends(context.Background()); err == nil {
		t.Error("FetchTrends() should fail on a 500 response")
	}
}

func TestDeriveKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "Stopwords and short tokens dropped",
			text: "The central bank holds its interest rate",
			want: []string{"central", "bank", "holds", "interest", "rate"},
		},
		{
			name: "Duplicates collapse",
			text: "housing housing market market",
			want: []string{"housing", "market"},
		},
		{
			name: "Empty text",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveKeywords(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("DeriveKeywords() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("keyword %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

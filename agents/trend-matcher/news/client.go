// Package news fetches the trending topics a match run works against.
// Any RSS 2.0 feed works; each fetch cycle produces a complete trend set
// that replaces the previous one.
package news

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"repack-agent/internal/models"
	"repack-agent/shared/config"
)

// Client fetches and parses the configured news feed.
type Client struct {
	config *config.NewsConfig
	client *http.Client
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

func NewClient(cfg *config.NewsConfig) *Client {
	return &Client{
		config: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchTrends downloads the feed and converts the newest items into Trend
// records, up to the configured maximum.
func (c *Client) FetchTrends(ctx context.Context) ([]*models.Trend, error) {
	log.Printf("Fetching trends from: %s", c.config.FeedURL)

	req, err := http.NewRequestWithContext(ctx, "GET", c.config.FeedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	var feed rssFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	now := time.Now()
	var trends []*models.Trend
	for _, item := range feed.Channel.Items {
		if len(trends) >= c.config.MaxTrends {
			break
		}
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		summary := strings.TrimSpace(stripHTML(item.Description))
		if summary == "" {
			summary = title
		}

		trends = append(trends, &models.Trend{
			ID:        trendID(item.Link, title),
			Title:     title,
			Summary:   summary,
			Keywords:  DeriveKeywords(title + " " + summary),
			Source:    c.config.Source,
			CreatedAt: now,
		})
	}

	log.Printf("Fetched %d trends", len(trends))
	return trends, nil
}

// trendID derives a stable identifier from the item's link (or title when
// the feed omits links), so re-fetching an unchanged feed yields the same
// IDs.
func trendID(link, title string) string {
	key := link
	if key == "" {
		key = title
	}
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:8])
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	tokenPattern = regexp.MustCompile(`[A-Za-z0-9]+(?:-[A-Za-z0-9]+)*`)
)

func stripHTML(s string) string {
	return tagPattern.ReplaceAllString(s, " ")
}

// stopwords are dropped during keyword derivation; they carry no topical
// signal and would pollute the evaluation prompt.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "to": true, "of": true, "in": true,
	"on": true, "for": true, "with": true, "by": true, "and": true, "or": true,
	"as": true, "at": true, "from": true, "is": true, "are": true, "was": true,
	"be": true, "it": true, "its": true, "this": true, "that": true,
	"after": true, "before": true, "amid": true, "over": true, "under": true,
	"into": true, "out": true, "up": true, "down": true, "how": true,
	"what": true, "why": true, "will": true, "has": true, "have": true,
	"new": true, "says": true, "their": true, "his": true, "her": true,
}

// DeriveKeywords extracts up to eight distinct lowercase tokens from the
// text, in order of first appearance, skipping stopwords and short tokens.
func DeriveKeywords(text string) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, token := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if len(keywords) >= 8 {
			break
		}
		if len(token) < 3 || stopwords[token] || seen[token] {
			continue
		}
		seen[token] = true
		keywords = append(keywords, token)
	}
	return keywords
}

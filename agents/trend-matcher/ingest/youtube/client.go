// Package youtube syncs the channel's upload list into the video corpus.
// Only metadata comes from the API; transcripts are ingested separately.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"repack-agent/internal/models"
	"repack-agent/shared/config"
)

type Client struct {
	service *youtube.Service
	config  *config.YouTubeConfig
}

func NewClient(cfg *config.YouTubeConfig) (*Client, error) {
	ctx := context.Background()

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{"https://www.googleapis.com/auth/youtube.readonly"},
		Endpoint:     google.Endpoint,
	}

	token, err := getToken(oauthConfig, cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth token: %w", err)
	}

	httpClient := oauth2.NewClient(ctx, &tokenSaver{
		config:    oauthConfig,
		token:     token,
		tokenFile: cfg.TokenFile,
	})

	service, err := youtube.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{service: service, config: cfg}, nil
}

// GetChannelUploads lists the configured channel's uploads, newest first,
// classified long/short-form by duration. Transcripts are left empty.
func (c *Client) GetChannelUploads(ctx context.Context, maxResults int64) ([]*models.Video, error) {
	channelResp, err := c.service.Channels.List([]string{"contentDetails"}).
		Id(c.config.ChannelID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to look up channel %s: %w", c.config.ChannelID, err)
	}
	if len(channelResp.Items) == 0 {
		return nil, fmt.Errorf("channel %s not found", c.config.ChannelID)
	}
	uploadsPlaylist := channelResp.Items[0].ContentDetails.RelatedPlaylists.Uploads

	var videoIDs []string
	pageToken := ""
	for int64(len(videoIDs)) < maxResults {
		call := c.service.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(uploadsPlaylist).
			MaxResults(50).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list uploads: %w", err)
		}
		for _, item := range resp.Items {
			videoIDs = append(videoIDs, item.ContentDetails.VideoId)
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	if int64(len(videoIDs)) > maxResults {
		videoIDs = videoIDs[:maxResults]
	}

	var videos []*models.Video
	for start := 0; start < len(videoIDs); start += 50 {
		end := start + 50
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		resp, err := c.service.Videos.List([]string{"snippet", "contentDetails"}).
			Id(videoIDs[start:end]...).
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch video details: %w", err)
		}
		for _, item := range resp.Items {
			publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
			if err != nil {
				log.Printf("Warning: Unparseable publish time for %s: %v", item.Id, err)
				publishedAt = time.Time{}
			}
			contentType := models.ContentTypeShortForm
			if parseDurationSeconds(item.ContentDetails.Duration) >= c.config.LongFormMinutes*60 {
				contentType = models.ContentTypeLongForm
			}
			videos = append(videos, &models.Video{
				ID:          item.Id,
				Title:       item.Snippet.Title,
				PublishedAt: publishedAt,
				URL:         "https://www.youtube.com/watch?v=" + item.Id,
				ContentType: contentType,
			})
		}
	}

	log.Printf("Fetched %d uploads for channel %s", len(videos), c.config.ChannelID)
	return videos, nil
}

// tokenSaver wraps an oauth2.TokenSource so refreshed tokens are written
// back to disk and survive restarts.
type tokenSaver struct {
	config    *oauth2.Config
	token     *oauth2.Token
	tokenFile string
	mu        sync.Mutex
}

func (ts *tokenSaver) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	newToken, err := ts.config.TokenSource(context.Background(), ts.token).Token()
	if err != nil {
		return nil, err
	}
	if newToken.AccessToken != ts.token.AccessToken {
		log.Println("Token refreshed, saving to file")
		ts.token = newToken
		if err := saveToken(ts.tokenFile, newToken); err != nil {
			log.Printf("Warning: Failed to save refreshed token: %v", err)
		}
	}
	return newToken, nil
}

// getToken loads a cached token, keeping an expired one if it carries a
// refresh token, and otherwise runs the device authorization flow.
func getToken(oauthConfig *oauth2.Config, tokenFile string) (*oauth2.Token, error) {
	if tok, err := tokenFromFile(tokenFile); err == nil {
		if tok.RefreshToken != "" || tok.Valid() {
			return tok, nil
		}
	}

	log.Println("No usable cached token, starting device authorization...")
	tok, err := getTokenWithDeviceFlow(oauthConfig)
	if err != nil {
		return nil, fmt.Errorf("device authorization failed: %w (ensure the OAuth client is a 'TVs and Limited Input devices' client and the YouTube Data API v3 is enabled)", err)
	}
	if err := saveToken(tokenFile, tok); err != nil {
		log.Printf("Warning: Failed to save token: %v", err)
	}
	return tok, nil
}

func getTokenWithDeviceFlow(oauthConfig *oauth2.Config) (*oauth2.Token, error) {
	ctx := context.Background()

	resp, err := oauthConfig.DeviceAuth(ctx, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, fmt.Errorf("unable to start device authorization: %w", err)
	}

	fmt.Printf("\nVisit %s and enter code: %s\n", resp.VerificationURI, resp.UserCode)
	fmt.Println("Waiting for authorization to complete... (Ctrl+C to cancel)")

	tok, err := oauthConfig.DeviceAccessToken(ctx, resp, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, fmt.Errorf("device authorization did not complete: %w", err)
	}
	return tok, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	return tok, json.NewDecoder(f).Decode(tok)
}

func saveToken(path string, token *oauth2.Token) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("unable to create token directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

var durationPattern = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// parseDurationSeconds parses ISO 8601 durations like "PT2H15M30S".
func parseDurationSeconds(duration string) int {
	matches := durationPattern.FindStringSubmatch(duration)
	if len(matches) == 0 {
		return 0
	}
	total := 0
	for i, mult := range []int{3600, 60, 1} {
		if matches[i+1] == "" {
			continue
		}
		if n, err := strconv.Atoi(matches[i+1]); err == nil {
			total += n * mult
		}
	}
	return total
}

package services

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/harmonia-app/harmonia-api/internal/logger"
	"github.com/harmonia-app/harmonia-api/internal/models"
)

const musicVideoCategoryID = "10"

// VideoMetadataService looks up video-platform metadata for tracks. Lookups
// are best effort; a missing API key disables the service.
type VideoMetadataService struct {
	yt *youtube.Service
}

// NewVideoMetadataService creates the service. An empty API key returns a
// disabled instance whose Enrich is a no-op.
func NewVideoMetadataService(ctx context.Context, apiKey string) (*VideoMetadataService, error) {
	if apiKey == "" {
		return &VideoMetadataService{}, nil
	}
	yt, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}
	return &VideoMetadataService{yt: yt}, nil
}

// Enabled reports whether lookups will actually hit the API
func (s *VideoMetadataService) Enabled() bool {
	return s != nil && s.yt != nil
}

// Enrich fills the track's video ID and thumbnail from the best search match.
// Failures are logged and swallowed; catalog writes never depend on them.
func (s *VideoMetadataService) Enrich(ctx context.Context, track *models.Track) {
	if !s.Enabled() {
		return
	}

	query := fmt.Sprintf("%s %s", track.Artist, track.Title)
	resp, err := s.yt.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		VideoCategoryId(musicVideoCategoryID).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		logger.Warn("Video metadata lookup failed", logger.Fields{
			"track": query,
			"error": err.Error(),
		})
		return
	}
	if len(resp.Items) == 0 || resp.Items[0].Id == nil {
		return
	}

	item := resp.Items[0]
	track.YouTubeVideoID = item.Id.VideoId
	if item.Snippet != nil && item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.High != nil {
		track.ThumbnailURL = item.Snippet.Thumbnails.High.Url
	}
}

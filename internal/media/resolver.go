package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultManifestURL = "https://fast.wistia.com/embed/medias/%s.json"

// maxManifestBytes caps how much of a manifest response is read.
const maxManifestBytes = 1 << 20

var (
	ErrManifestStatus  = errors.New("manifest request failed")
	ErrNoPlayableAsset = errors.New("no playable asset in manifest")
	ErrEmptyMediaID    = errors.New("media id required")
)

// Source is a resolved, playable rendition of a media item.
type Source struct {
	MediaID  string  `json:"media_id"`
	URL      string  `json:"url"`
	Width    int     `json:"width,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// SourceResolver turns a media id into a playable source.
type SourceResolver interface {
	Resolve(ctx context.Context, mediaID string) (Source, error)
}

// HTTPResolver fetches the manifest over HTTP.
type HTTPResolver struct {
	Client *http.Client
	// URLTemplate has a single %s for the escaped media id.
	URLTemplate string
	Logger      *zap.Logger
}

func NewHTTPResolver(template string, timeout time.Duration, logger *zap.Logger) *HTTPResolver {
	if template == "" {
		template = DefaultManifestURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPResolver{
		Client:      &http.Client{Timeout: timeout},
		URLTemplate: template,
		Logger:      logger,
	}
}

func (r *HTTPResolver) manifestURL(mediaID string) string {
	return fmt.Sprintf(r.URLTemplate, url.PathEscape(mediaID))
}

func (r *HTTPResolver) Resolve(ctx context.Context, mediaID string) (Source, error) {
	mediaID = strings.TrimSpace(mediaID)
	if mediaID == "" {
		return Source{}, ErrEmptyMediaID
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.manifestURL(mediaID), nil)
	if err != nil {
		return Source{}, fmt.Errorf("build manifest request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Source{}, fmt.Errorf("fetch manifest %s: %w", mediaID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Source{}, fmt.Errorf("%w: %s returned %d", ErrManifestStatus, mediaID, resp.StatusCode)
	}

	var m Manifest
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxManifestBytes)).Decode(&m); err != nil {
		return Source{}, fmt.Errorf("decode manifest %s: %w", mediaID, err)
	}
	asset, ok := PickBestAsset(m.Media.Assets)
	if !ok {
		return Source{}, fmt.Errorf("%w: %s", ErrNoPlayableAsset, mediaID)
	}

	r.logger().Debug("manifest resolved",
		zap.String("media_id", mediaID),
		zap.Int("assets", len(m.Media.Assets)),
		zap.Int("width", asset.Width))

	return Source{
		MediaID:  mediaID,
		URL:      asset.URL,
		Width:    asset.Width,
		Duration: m.Media.Duration,
	}, nil
}

func (r *HTTPResolver) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

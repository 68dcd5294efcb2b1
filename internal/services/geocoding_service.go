package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/KarinaChumak/tour-booking-system/internal/domain"
)

const placeDetailsURL = "https://maps.googleapis.com/maps/api/place/details/json"

// GeocodingService proxies Google Place Details for the browser, which
// cannot call the API directly.
type GeocodingService struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewGeocodingService(apiKey string) *GeocodingService {
	return &GeocodingService{
		APIKey:  apiKey,
		BaseURL: placeDetailsURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// PlaceDetails returns the decoded upstream document unchanged.
func (s *GeocodingService) PlaceDetails(ctx context.Context, placeID string) (map[string]any, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, domain.ValidationError{Field: "placeId", Msg: "Please provide a place id"}
	}
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("key", s.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("place details request: %w", err)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, domain.InternalError{Msg: "place details", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, domain.InternalError{Msg: "read place details", Err: err}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, domain.InternalError{Msg: fmt.Sprintf("place details: upstream status %d", resp.StatusCode)}
	}
	doc := map[string]any{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, domain.InternalError{Msg: "decode place details", Err: err}
	}
	return doc, nil
}

package fitbit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"
)

// stepsWindow is the fixed 7-day historical window sampled for the average.
const stepsWindow = "2024-01-08/2024-01-14"

// Client is a client for the Fitbit activity time-series API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Fitbit API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// AverageSteps fetches daily step counts over the fixed window and returns
// the average, rounded to the nearest integer. Zero when the API returns no
// data points.
func (c *Client) AverageSteps(ctx context.Context, accessToken, userID string) (int, error) {
	url := fmt.Sprintf("%s/1/user/%s/activities/steps/date/%s.json", c.baseURL, userID, stepsWindow)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch step data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("fitbit api error: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	var stepsResp struct {
		ActivitiesSteps []struct {
			DateTime string `json:"dateTime"`
			Value    string `json:"value"`
		} `json:"activities-steps"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stepsResp); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(stepsResp.ActivitiesSteps) == 0 {
		return 0, nil
	}

	total := 0
	for _, day := range stepsResp.ActivitiesSteps {
		steps, err := strconv.Atoi(day.Value)
		if err != nil {
			return 0, fmt.Errorf("malformed step count %q for %s: %w", day.Value, day.DateTime, err)
		}
		total += steps
	}

	return int(math.Round(float64(total) / float64(len(stepsResp.ActivitiesSteps)))), nil
}

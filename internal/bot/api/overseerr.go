// Package api implements the Overseerr HTTP client used by the bot: search,
// request and issue creation, user management and local login.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/seerrbot/OverseerrBot/internal/bot/models"
	"github.com/sirupsen/logrus"
)

// Overseerr issue type codes.
const (
	IssueTypeVideo    = 1
	IssueTypeAudio    = 2
	IssueTypeSubtitle = 3
	IssueTypeOther    = 4
)

// OverseerrAPI manages interactions with an Overseerr server.
type OverseerrAPI struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewOverseerrAPI creates a client for the given Overseerr base URL
// (including the /api/v1 prefix) authenticated with the given API key.
func NewOverseerrAPI(baseURL, apiKey string, timeout time.Duration) *OverseerrAPI {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &OverseerrAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	OriginalName string `json:"originalName"`
	Title        string `json:"title"`
	MediaType    string `json:"mediaType"`
	ReleaseDate  string `json:"releaseDate"`
	FirstAirDate string `json:"firstAirDate"`
	MediaInfo    *struct {
		Status   int `json:"status"`
		Requests []struct {
			ID int `json:"id"`
		} `json:"requests"`
	} `json:"mediaInfo"`
}

// Overseerr media availability status codes; 4 is partially available and
// 5 fully available.
const (
	mediaStatusPartial   = 4
	mediaStatusAvailable = 5
)

type requestBody struct {
	MediaID   int    `json:"mediaId"`
	MediaType string `json:"mediaType"`
	Seasons   string `json:"seasons,omitempty"`
	UserID    int    `json:"userId,omitempty"`
}

type issueBody struct {
	IssueType int    `json:"issueType"`
	Message   string `json:"message"`
	MediaID   int    `json:"mediaId"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createUserBody struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

type notificationBody struct {
	Enabled bool `json:"enableNotifications"`
	Silent  bool `json:"silent"`
}

type listedUser struct {
	ID          int    `json:"id"`
	DisplayName string `json:"displayName"`
	Username    string `json:"username"`
	Email       string `json:"email"`
}

type usersResponse struct {
	Results []listedUser `json:"results"`
}

// Search queries Overseerr and returns processed results in the server's
// ranking order.
func (o *OverseerrAPI) Search(query string) ([]models.MediaResult, error) {
	endpoint := o.baseURL + "/search?query=" + url.QueryEscape(query)
	data, _, err := o.call(http.MethodGet, endpoint, nil, models.Identity{})
	if err != nil {
		return nil, err
	}

	var response searchResponse
	if err = json.Unmarshal(data, &response); err != nil {
		logrus.WithError(err).Error("Failed to unmarshal search response")
		return nil, fmt.Errorf("failed to unmarshal search response: %w", err)
	}

	results := make([]models.MediaResult, 0, len(response.Results))
	for _, r := range response.Results {
		if r.MediaType != "movie" && r.MediaType != "tv" {
			continue
		}
		results = append(results, processResult(r))
	}
	logrus.Infof("Search %q returned %d results", query, len(results))
	return results, nil
}

// processResult maps a raw search hit to the bot's result shape. TV shows
// take their year from firstAirDate, movies from releaseDate.
func processResult(r searchResult) models.MediaResult {
	title := r.Name
	if title == "" {
		title = r.OriginalName
	}
	if title == "" {
		title = r.Title
	}
	if title == "" {
		title = "Unknown Title"
	}

	date := r.ReleaseDate
	if r.MediaType == "tv" {
		date = r.FirstAirDate
	}
	year := ""
	if i := strings.Index(date, "-"); i > 0 {
		year = date[:i]
	} else if date != "" {
		year = date
	}

	m := models.MediaResult{
		ID:        r.ID,
		Title:     title,
		Year:      year,
		MediaType: r.MediaType,
	}
	if r.MediaInfo != nil {
		m.Available = r.MediaInfo.Status == mediaStatusPartial || r.MediaInfo.Status == mediaStatusAvailable
		m.Requested = len(r.MediaInfo.Requests) > 0 || r.MediaInfo.Status > 1
	}
	return m
}

// CreateRequest submits a media request for the given identity. TV requests
// ask for all seasons.
func (o *OverseerrAPI) CreateRequest(id models.Identity, mediaID int, mediaType string) error {
	body := requestBody{MediaID: mediaID, MediaType: mediaType}
	if mediaType == "tv" {
		body.Seasons = "all"
	}
	if id.OnBehalfOf != 0 {
		body.UserID = id.OnBehalfOf
	}
	_, status, err := o.call(http.MethodPost, o.baseURL+"/request", body, id)
	if err != nil {
		return err
	}
	logrus.Infof("Created request for media %d (%s), status %d", mediaID, mediaType, status)
	return nil
}

// CreateIssue reports a playback issue against a library item.
func (o *OverseerrAPI) CreateIssue(id models.Identity, mediaID int, issueType int, message string) error {
	body := issueBody{IssueType: issueType, Message: message, MediaID: mediaID}
	_, _, err := o.call(http.MethodPost, o.baseURL+"/issue", body, id)
	if err != nil {
		return err
	}
	logrus.Infof("Created issue type %d for media %d", issueType, mediaID)
	return nil
}

// ListUsers returns the Overseerr accounts known to the server.
func (o *OverseerrAPI) ListUsers() ([]models.BackendUser, error) {
	data, _, err := o.call(http.MethodGet, o.baseURL+"/user?take=100", nil, models.Identity{})
	if err != nil {
		return nil, err
	}
	var response usersResponse
	if err = json.Unmarshal(data, &response); err != nil {
		logrus.WithError(err).Error("Failed to unmarshal user list response")
		return nil, fmt.Errorf("failed to unmarshal user list: %w", err)
	}
	users := make([]models.BackendUser, 0, len(response.Results))
	for _, u := range response.Results {
		name := u.DisplayName
		if name == "" {
			name = u.Username
		}
		if name == "" {
			name = u.Email
		}
		users = append(users, models.BackendUser{ID: u.ID, DisplayName: name})
	}
	return users, nil
}

// CreateUser registers a new Overseerr account.
func (o *OverseerrAPI) CreateUser(email, username string) error {
	_, _, err := o.call(http.MethodPost, o.baseURL+"/user", createUserBody{Email: email, Username: username}, models.Identity{})
	if err != nil {
		return err
	}
	logrus.Infof("Created Overseerr user %s", email)
	return nil
}

// Login performs a local Overseerr login and returns the session cookie that
// authenticates subsequent calls as that account.
func (o *OverseerrAPI) Login(email, password string) (string, error) {
	jsonBody, err := json.Marshal(loginBody{Email: email, Password: password})
	if err != nil {
		return "", fmt.Errorf("failed to marshal login body: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/auth/local", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := o.client.Do(req)
	if err != nil {
		logrus.WithError(err).Error("Login request failed")
		return "", fmt.Errorf("login request failed: %w", models.ErrTransientBackend)
	}
	defer func() {
		if cerr := res.Body.Close(); cerr != nil {
			logrus.WithError(cerr).Error("Failed to close login response body")
		}
	}()

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		return "", models.ErrBadCredentials
	}
	if res.StatusCode >= http.StatusInternalServerError {
		return "", fmt.Errorf("login failed with status %d: %w", res.StatusCode, models.ErrTransientBackend)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d: %w", res.StatusCode, models.ErrBadCredentials)
	}

	for _, c := range res.Cookies() {
		if c.Name == "connect.sid" {
			return c.Name + "=" + c.Value, nil
		}
	}
	return "", fmt.Errorf("login succeeded but no session cookie returned: %w", models.ErrTransientBackend)
}

// SetNotifications updates notification delivery for the resolved identity.
func (o *OverseerrAPI) SetNotifications(id models.Identity, enabled, silent bool) error {
	endpoint := o.baseURL + "/user/settings/notifications"
	if id.OnBehalfOf != 0 {
		endpoint = o.baseURL + "/user/" + strconv.Itoa(id.OnBehalfOf) + "/settings/notifications"
	}
	_, _, err := o.call(http.MethodPost, endpoint, notificationBody{Enabled: enabled, Silent: silent}, id)
	return err
}

// call executes one Overseerr request. Identity cookies take precedence over
// the API key. Timeouts and 5xx responses are classified as transient,
// 401/403 as credential rejections.
func (o *OverseerrAPI) call(method, endpoint string, body interface{}, id models.Identity) ([]byte, int, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id.Cookie != "" {
		req.Header.Set("Cookie", id.Cookie)
	} else {
		req.Header.Set("X-Api-Key", o.apiKey)
	}

	res, err := o.client.Do(req)
	if err != nil {
		logrus.WithError(err).Errorf("Overseerr request to %s failed", endpoint)
		return nil, 0, fmt.Errorf("request to %s failed: %w", endpoint, models.ErrTransientBackend)
	}
	defer func() {
		if cerr := res.Body.Close(); cerr != nil {
			logrus.WithError(cerr).Error("Failed to close response body")
		}
	}()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, res.StatusCode, fmt.Errorf("failed to read response body: %w", models.ErrTransientBackend)
	}

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return nil, res.StatusCode, fmt.Errorf("status %d from %s: %w", res.StatusCode, endpoint, models.ErrBadCredentials)
	case res.StatusCode >= http.StatusInternalServerError:
		logrus.Errorf("Overseerr returned status %d for %s", res.StatusCode, endpoint)
		return nil, res.StatusCode, fmt.Errorf("status %d from %s: %w", res.StatusCode, endpoint, models.ErrTransientBackend)
	case res.StatusCode >= http.StatusBadRequest:
		return nil, res.StatusCode, fmt.Errorf("unexpected status %d from %s, body: %s", res.StatusCode, endpoint, string(data))
	}
	return data, res.StatusCode, nil
}

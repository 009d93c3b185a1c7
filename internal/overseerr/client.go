package overseerr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	apperrors "github.com/hermes-bot/hermes/internal/errors"
	"github.com/hermes-bot/hermes/internal/model"
	"github.com/hermes-bot/hermes/internal/util"
)

const (
	serviceName  = "Overseerr"
	apiKeyHeader = "X-Api-Key"
	userPageSize = 100
)

// Keys that older Overseerr versions put at the top level of GET /user/{id}.
var flatNotificationKeys = []string{
	"discordId", "discordEnabled", "discordEnabledTypes", "notificationTypes", "emailEnabled",
}

type Client struct {
	client *resty.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader(apiKeyHeader, apiKey).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	return &Client{client: c}
}

type pageInfo struct {
	Pages    int `json:"pages"`
	PageSize int `json:"pageSize"`
	Results  int `json:"results"`
	Page     int `json:"page"`
}

type userListResponse struct {
	PageInfo pageInfo                `json:"pageInfo"`
	Results  []model.ExternalAccount `json:"results"`
}

// ListUsers returns every Overseerr user, following pagination.
func (c *Client) ListUsers(ctx context.Context) ([]model.ExternalAccount, error) {
	var users []model.ExternalAccount

	for skip := 0; ; skip += userPageSize {
		resp, err := c.client.R().
			SetContext(ctx).
			SetQueryParam("take", strconv.Itoa(userPageSize)).
			SetQueryParam("skip", strconv.Itoa(skip)).
			Get("/user")
		if err := checkResponse(resp, err, "list users"); err != nil {
			return nil, err
		}

		var page userListResponse
		if err := json.Unmarshal(resp.Body(), &page); err != nil {
			return nil, apperrors.ServiceUnavailable(serviceName, fmt.Errorf("decode users: %w", err))
		}
		users = append(users, page.Results...)

		if len(page.Results) < userPageSize || len(users) >= page.PageInfo.Results {
			break
		}
	}

	log.Debug().Int("count", len(users)).Msg("fetched overseerr users")
	return users, nil
}

// GetNotificationSettings returns the user's notification settings, or nil
// when Overseerr has none for the user. The dedicated endpoint is tried first;
// the full user record is the fallback.
func (c *Client) GetNotificationSettings(ctx context.Context, userID int) (*model.NotificationSettings, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", strconv.Itoa(userID)).
		Get("/user/{id}/settings/notifications")
	if err == nil && resp.StatusCode() == http.StatusOK {
		var settings model.NotificationSettings
		if err := json.Unmarshal(resp.Body(), &settings); err == nil {
			return &settings, nil
		}
	}
	if err != nil {
		log.Warn().Err(err).Int("userId", userID).Msg("notification settings endpoint failed, falling back to user record")
	}

	resp, err = c.client.R().
		SetContext(ctx).
		SetPathParam("id", strconv.Itoa(userID)).
		Get("/user/{id}")
	if err := checkResponse(resp, err, "get user"); err != nil {
		return nil, err
	}

	return mergeNotificationSettings(resp.Body())
}

// UpdateNotificationSettings links discordID to the user (enable=true) or
// clears the link (discordID nil, enable=false).
func (c *Client) UpdateNotificationSettings(ctx context.Context, userID int, discordID *string, enable bool) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", strconv.Itoa(userID)).
		SetHeader("Content-Type", "application/json").
		SetBody(model.NewNotificationSettingsUpdate(discordID, enable)).
		Post("/user/{id}/settings/notifications")
	if err := checkResponse(resp, err, "update notification settings"); err != nil {
		return err
	}

	log.Info().
		Int("userId", userID).
		Bool("enabled", enable).
		Bool("hasDiscordId", discordID != nil).
		Msg("updated overseerr notification settings")
	return nil
}

func mergeNotificationSettings(body []byte) (*model.NotificationSettings, error) {
	var user map[string]json.RawMessage
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, apperrors.ServiceUnavailable(serviceName, fmt.Errorf("decode user: %w", err))
	}

	merged := make(map[string]json.RawMessage)
	for _, key := range flatNotificationKeys {
		if v, ok := user[key]; ok && string(v) != "null" {
			merged[key] = v
		}
	}

	var nested struct {
		Notifications map[string]json.RawMessage `json:"notifications"`
	}
	if raw, ok := user["settings"]; ok {
		_ = json.Unmarshal(raw, &nested)
	}
	for k, v := range nested.Notifications {
		merged[k] = v
	}

	if len(merged) == 0 {
		return nil, nil
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode merged settings: %w", err)
	}
	var settings model.NotificationSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, apperrors.ServiceUnavailable(serviceName, fmt.Errorf("decode merged settings: %w", err))
	}
	return &settings, nil
}

func checkResponse(resp *resty.Response, err error, op string) error {
	if err != nil {
		log.Error().Err(err).Str("op", op).Msg("overseerr request failed")
		return apperrors.ServiceUnavailable(serviceName, fmt.Errorf("%s: %w", op, err))
	}
	if !resp.IsSuccess() {
		log.Error().
			Str("op", op).
			Int("status", resp.StatusCode()).
			Str("body", util.Truncate(resp.String(), 200)).
			Msg("overseerr request returned error status")
		return apperrors.ServiceUnavailable(serviceName, fmt.Errorf("%s: status %d", op, resp.StatusCode())).
			WithDetails(map[string]int{"status": resp.StatusCode()})
	}
	return nil
}

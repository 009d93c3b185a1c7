package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ExternalAccount is an Overseerr user as returned by the user endpoints.
type ExternalAccount struct {
	ID           int              `json:"id"`
	Email        string           `json:"email"`
	PlexUsername string           `json:"plexUsername"`
	Username     string           `json:"username"`
	DisplayName  string           `json:"displayName"`
	Settings     *AccountSettings `json:"settings,omitempty"`
}

type AccountSettings struct {
	Notifications *NotificationSettings `json:"notifications,omitempty"`
}

type NotificationSettings struct {
	DiscordID           ChatID `json:"discordId"`
	DiscordEnabled      bool   `json:"discordEnabled"`
	DiscordEnabledTypes int    `json:"discordEnabledTypes"`
}

// LinkedChatID returns the Discord id stored in the account's embedded
// notification settings, or "" when none is present.
func (a *ExternalAccount) LinkedChatID() string {
	if a.Settings == nil || a.Settings.Notifications == nil {
		return ""
	}
	return a.Settings.Notifications.DiscordID.String()
}

// Label is the name shown to users when an account was found without an
// identifier they typed themselves.
func (a *ExternalAccount) Label() string {
	switch {
	case a.PlexUsername != "":
		return a.PlexUsername
	case a.Email != "":
		return a.Email
	default:
		return "Unknown"
	}
}

// ChatID is a Discord snowflake as Overseerr stores it. Depending on the
// Overseerr version it arrives as a JSON string, a number, or null.
type ChatID string

func (c *ChatID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ChatID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = ChatID(n.String())
	return nil
}

func (c ChatID) MarshalJSON() ([]byte, error) {
	if c == "" {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(string(c))), nil
}

func (c ChatID) String() string {
	return string(c)
}

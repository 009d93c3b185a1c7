package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatIDUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected ChatID
	}{
		{"string id", `{"discordId":"123456789012345678"}`, "123456789012345678"},
		{"numeric id", `{"discordId":123456789012345678}`, "123456789012345678"},
		{"null id", `{"discordId":null}`, ""},
		{"missing id", `{}`, ""},
		{"empty string", `{"discordId":""}`, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var settings NotificationSettings
			require.NoError(t, json.Unmarshal([]byte(tc.input), &settings))
			assert.Equal(t, tc.expected, settings.DiscordID)
		})
	}
}

func TestExternalAccount(t *testing.T) {
	t.Run("LinkedChatID reads nested notification settings", func(t *testing.T) {
		var account ExternalAccount
		err := json.Unmarshal([]byte(`{
			"id": 7,
			"displayName": "Player",
			"settings": {"notifications": {"discordId": "42"}}
		}`), &account)
		require.NoError(t, err)
		assert.Equal(t, "42", account.LinkedChatID())
	})

	t.Run("LinkedChatID is empty without settings", func(t *testing.T) {
		account := ExternalAccount{ID: 7}
		assert.Equal(t, "", account.LinkedChatID())
	})

	t.Run("Label prefers plex username then email", func(t *testing.T) {
		assert.Equal(t, "plexy", (&ExternalAccount{PlexUsername: "plexy", Email: "a@b.c"}).Label())
		assert.Equal(t, "a@b.c", (&ExternalAccount{Email: "a@b.c"}).Label())
		assert.Equal(t, "Unknown", (&ExternalAccount{DisplayName: "x"}).Label())
	})
}

func TestNewNotificationSettingsUpdate(t *testing.T) {
	t.Run("enable grants approved and available", func(t *testing.T) {
		id := "42"
		update := NewNotificationSettingsUpdate(&id, true)

		assert.True(t, update.DiscordEnabled)
		assert.Equal(t, 12, update.DiscordEnabledTypes)
		assert.Equal(t, 12, update.NotificationTypes.Discord)
		assert.Equal(t, 0, update.NotificationTypes.Email)
		assert.False(t, update.EmailEnabled)
		assert.False(t, update.TelegramEnabled)
		require.NotNil(t, update.DiscordID)
		assert.Equal(t, "42", *update.DiscordID)
	})

	t.Run("disable clears id and bitmask", func(t *testing.T) {
		update := NewNotificationSettingsUpdate(nil, false)

		data, err := json.Marshal(update)
		require.NoError(t, err)

		var body map[string]any
		require.NoError(t, json.Unmarshal(data, &body))
		assert.Nil(t, body["discordId"])
		assert.Equal(t, false, body["discordEnabled"])
		assert.Equal(t, float64(0), body["discordEnabledTypes"])
		assert.Contains(t, body, "pushoverUserKey")
		assert.Nil(t, body["telegramChatId"])
	})
}

func TestPendingLinkExpired(t *testing.T) {
	now := time.Now()
	link := PendingLink{CreatedAt: now.Add(-20 * time.Minute)}

	assert.True(t, link.Expired(now, 15*time.Minute))
	assert.False(t, link.Expired(now, 30*time.Minute))
	assert.Equal(t, 20*time.Minute, link.Age(now))
}

package model

// Discord notification type bits understood by Overseerr.
const (
	NotificationRequestApproved  = 4
	NotificationRequestAvailable = 8

	LinkedDiscordTypes = NotificationRequestApproved | NotificationRequestAvailable
)

type NotificationTypes struct {
	Discord    int `json:"discord"`
	Email      int `json:"email"`
	Pushbullet int `json:"pushbullet"`
	Pushover   int `json:"pushover"`
	Slack      int `json:"slack"`
	Telegram   int `json:"telegram"`
	Webhook    int `json:"webhook"`
	Webpush    int `json:"webpush"`
}

// NotificationSettingsUpdate is the full body Overseerr expects when saving
// a user's notification settings. Every channel other than Discord is sent
// disabled.
type NotificationSettingsUpdate struct {
	NotificationTypes        NotificationTypes `json:"notificationTypes"`
	EmailEnabled             bool              `json:"emailEnabled"`
	PGPKey                   *string           `json:"pgpKey"`
	DiscordEnabled           bool              `json:"discordEnabled"`
	DiscordEnabledTypes      int               `json:"discordEnabledTypes"`
	DiscordID                *string           `json:"discordId"`
	PushbulletAccessToken    *string           `json:"pushbulletAccessToken"`
	PushoverApplicationToken *string           `json:"pushoverApplicationToken"`
	PushoverUserKey          *string           `json:"pushoverUserKey"`
	PushoverSound            *string           `json:"pushoverSound"`
	TelegramEnabled          bool              `json:"telegramEnabled"`
	TelegramBotUsername      *string           `json:"telegramBotUsername"`
	TelegramChatID           *string           `json:"telegramChatId"`
	TelegramSendSilently     bool              `json:"telegramSendSilently"`
}

// NewNotificationSettingsUpdate builds the payload that links (enable=true)
// or unlinks a Discord id.
func NewNotificationSettingsUpdate(discordID *string, enable bool) NotificationSettingsUpdate {
	types := 0
	if enable {
		types = LinkedDiscordTypes
	}
	return NotificationSettingsUpdate{
		NotificationTypes:   NotificationTypes{Discord: types},
		DiscordEnabled:      enable,
		DiscordEnabledTypes: types,
		DiscordID:           discordID,
	}
}

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/hermes-bot/hermes/internal/errors"
	"github.com/hermes-bot/hermes/internal/model"
)

// AccountClient is the subset of the Overseerr API the link workflow needs.
type AccountClient interface {
	ListUsers(ctx context.Context) ([]model.ExternalAccount, error)
	GetNotificationSettings(ctx context.Context, userID int) (*model.NotificationSettings, error)
	UpdateNotificationSettings(ctx context.Context, userID int, discordID *string, enable bool) error
}

type AccountDirectory struct {
	client AccountClient
}

func NewAccountDirectory(client AccountClient) *AccountDirectory {
	return &AccountDirectory{client: client}
}

// FindAccount returns the first account whose plex username, email, display
// name or username equals identifier, ignoring case. It returns nil, nil
// when nothing matches.
func (d *AccountDirectory) FindAccount(ctx context.Context, identifier string) (*model.ExternalAccount, error) {
	needle := strings.TrimSpace(identifier)
	if needle == "" {
		return nil, nil
	}

	users, err := d.client.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}

	for i := range users {
		if matchesIdentifier(&users[i], needle) {
			return &users[i], nil
		}
	}
	return nil, nil
}

// FindAccountByChatID scans every account's notification settings for the
// given Discord id. The user list carries no notification settings, so this
// costs one request per account until a match is found. Results are never
// cached since links can change from the Overseerr UI. An unreadable account
// is skipped, but a cancelled ctx aborts the scan with an error.
func (d *AccountDirectory) FindAccountByChatID(ctx context.Context, chatUserID string) (*model.ExternalAccount, error) {
	if chatUserID == "" {
		return nil, nil
	}

	users, err := d.client.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("find account by chat id: %w", err)
	}

	for i := range users {
		user := &users[i]
		if user.ID == 0 {
			continue
		}

		settings, err := d.client.GetNotificationSettings(ctx, user.ID)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, apperrors.ServiceUnavailable("Overseerr", fmt.Errorf("find account by chat id: %w", ctxErr))
		}
		if err != nil {
			log.Warn().Err(err).Int("userId", user.ID).Msg("skipping account with unreadable notification settings")
			continue
		}
		if settings == nil {
			continue
		}

		if settings.DiscordID.String() == chatUserID {
			found := *user
			found.Settings = &model.AccountSettings{Notifications: settings}
			return &found, nil
		}
	}
	return nil, nil
}

// LinkedChatID returns the Discord id linked to account. The user list does
// not always embed notification settings; when it doesn't they are fetched.
func (d *AccountDirectory) LinkedChatID(ctx context.Context, account *model.ExternalAccount) (string, error) {
	if account.Settings != nil && account.Settings.Notifications != nil {
		return account.LinkedChatID(), nil
	}

	settings, err := d.client.GetNotificationSettings(ctx, account.ID)
	if err != nil {
		return "", fmt.Errorf("get notification settings: %w", err)
	}
	if settings == nil {
		return "", nil
	}
	return settings.DiscordID.String(), nil
}

func (d *AccountDirectory) UpdateNotifications(ctx context.Context, userID int, discordID *string, enable bool) error {
	return d.client.UpdateNotificationSettings(ctx, userID, discordID, enable)
}

func matchesIdentifier(account *model.ExternalAccount, identifier string) bool {
	for _, field := range []string{account.PlexUsername, account.Email, account.DisplayName, account.Username} {
		if field != "" && strings.EqualFold(field, identifier) {
			return true
		}
	}
	return false
}

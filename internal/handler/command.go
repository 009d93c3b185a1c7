package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hermes-bot/hermes/internal/audit"
	apperrors "github.com/hermes-bot/hermes/internal/errors"
	"github.com/hermes-bot/hermes/internal/metrics"
	"github.com/hermes-bot/hermes/internal/ratelimit"
	"github.com/hermes-bot/hermes/internal/service"
)

const (
	CommandLink   = "link"
	CommandDone   = "done"
	CommandUnlink = "unlink"
	CommandStatus = "status"
	CommandHelp   = "help"
)

const guildRejectedText = "For privacy, please DM me this command instead."

// CommandEvent is a chat message as seen by the command surface.
type CommandEvent struct {
	ChatUserID      string
	IsDirectMessage bool
	Content         string
}

type Command struct {
	Name string
	Arg  string
}

// parseCommand returns nil unless content is a known command. The argument
// is everything after the command name, trimmed.
func parseCommand(prefix, content string) *Command {
	trimmed := strings.TrimSpace(content)
	if prefix == "" || !strings.HasPrefix(trimmed, prefix) {
		return nil
	}
	rest := trimmed[len(prefix):]

	name, arg, _ := strings.Cut(rest, " ")
	switch name {
	case CommandLink, CommandDone, CommandUnlink, CommandStatus, CommandHelp:
		return &Command{Name: name, Arg: strings.TrimSpace(arg)}
	}
	return nil
}

// LinkWorkflow is the part of the link service the command surface drives.
type LinkWorkflow interface {
	StartLink(ctx context.Context, chatUserID, identifier string) service.Outcome
	CompleteLink(ctx context.Context, chatUserID string) service.Outcome
	Unlink(ctx context.Context, chatUserID, identifier string) service.Outcome
	Status(ctx context.Context, chatUserID string) service.Outcome
}

type CommandHandler struct {
	links       LinkWorkflow
	limiter     ratelimit.Limiter
	metrics     *metrics.Metrics
	prefix      string
	allowGuild  bool
	limitPerMin int
}

func NewCommandHandler(
	links LinkWorkflow,
	limiter ratelimit.Limiter,
	m *metrics.Metrics,
	prefix string,
	allowGuild bool,
	limitPerMin int,
) *CommandHandler {
	return &CommandHandler{
		links:       links,
		limiter:     limiter,
		metrics:     m,
		prefix:      prefix,
		allowGuild:  allowGuild,
		limitPerMin: limitPerMin,
	}
}

// Handle returns the reply for ev, or "" when ev is not a command.
func (h *CommandHandler) Handle(ctx context.Context, ev CommandEvent) string {
	cmd := parseCommand(h.prefix, ev.Content)
	if cmd == nil {
		return ""
	}

	if !ev.IsDirectMessage && !h.allowGuild {
		audit.Log(ctx, audit.Event{
			Type:       audit.EventGuildRejected,
			ChatUserID: ev.ChatUserID,
			Details:    map[string]interface{}{"command": cmd.Name},
		})
		return guildRejectedText
	}

	if h.limitPerMin > 0 {
		allowed, resetAt := h.limiter.Allow(ctx, ev.ChatUserID, h.limitPerMin)
		if !allowed {
			h.metrics.RateLimited.Inc()
			audit.Log(ctx, audit.Event{
				Type:       audit.EventRateLimitExceed,
				ChatUserID: ev.ChatUserID,
				Details:    map[string]interface{}{"command": cmd.Name, "reset_at": resetAt},
			})
			return rateLimitedText(resetAt)
		}
	}

	h.metrics.Commands.WithLabelValues(cmd.Name).Inc()
	log.Debug().Str("command", cmd.Name).Str("chatUserId", ev.ChatUserID).Msg("handling command")

	switch cmd.Name {
	case CommandLink:
		if err := validateIdentifier(cmd.Arg); err != nil {
			return h.usage(CommandLink)
		}
		return h.render(h.links.StartLink(ctx, ev.ChatUserID, cmd.Arg))
	case CommandDone:
		return h.render(h.links.CompleteLink(ctx, ev.ChatUserID))
	case CommandUnlink:
		out := h.links.Unlink(ctx, ev.ChatUserID, cmd.Arg)
		if out.Kind == service.OutcomeNotLinked && cmd.Arg == "" {
			return h.usage(CommandUnlink) + "\n\nYour Discord account is not currently linked to any Overseerr account."
		}
		return h.render(out)
	case CommandStatus:
		return h.render(h.links.Status(ctx, ev.ChatUserID))
	default:
		return h.helpText()
	}
}

func validateIdentifier(identifier string) error {
	if identifier == "" {
		return apperrors.ValidationError("identifier is required")
	}
	return nil
}

func (h *CommandHandler) usage(command string) string {
	switch command {
	case CommandLink:
		return fmt.Sprintf("Usage: `%[1]slink <identifier>`\nExample: `%[1]slink YourPlexUsername`\n\n"+
			"Your identifier can be your Plex username, email, or Overseerr display name.", h.prefix)
	default:
		return fmt.Sprintf("Usage: `%sunlink <identifier>`", h.prefix)
	}
}

func (h *CommandHandler) render(out service.Outcome) string {
	p := h.prefix

	switch out.Kind {
	case service.OutcomeStarted:
		return fmt.Sprintf("**Verification started for `%s`**\n\n"+
			"To verify you control this Overseerr account:\n\n"+
			"1. Open Overseerr and click your profile icon (top-right)\n"+
			"2. Go to **Settings** → **General**\n"+
			"3. Change your **Display Name** to include: `[%s]`\n"+
			"   (You can put it anywhere in your display name)\n"+
			"4. **Save** your settings\n"+
			"5. Return here and type: `%sdone`\n\n"+
			"This code expires in %s.", out.Identifier, out.Code, p, minutes(out.ExpiresIn))

	case service.OutcomeAlreadyPending:
		return fmt.Sprintf("You already have a pending verification for `%s`.\n"+
			"Use the existing code `%s` or wait %s for it to expire.", out.Identifier, out.Code, minutes(out.ExpiresIn))

	case service.OutcomeAccountNotFound:
		return fmt.Sprintf("Could not find an Overseerr account matching `%s`.\n"+
			"Please check the spelling and try again. You can use your Plex username, email, or display name.", out.Identifier)

	case service.OutcomeAlreadySelfLinked:
		return fmt.Sprintf("Your Overseerr account `%s` is already linked to your Discord account!", out.Identifier)

	case service.OutcomeLinkedToOther:
		return fmt.Sprintf("The Overseerr account `%s` is already linked to a different Discord account.\n"+
			"If this is your account, please unlink it first using `%sunlink %s`.", out.Identifier, p, out.Identifier)

	case service.OutcomeNoPending:
		return fmt.Sprintf("You don't have a pending verification request.\nStart by using `%slink <identifier>`", p)

	case service.OutcomeAccountVanished:
		return fmt.Sprintf("Could not find Overseerr account `%s`. Please try again with `%slink`.", out.Identifier, p)

	case service.OutcomeCodeNotFound:
		return fmt.Sprintf("❌ Verification code `%s` not found in your Overseerr display name.\n"+
			"Current display name: `%s`\n\n"+
			"Please add `[%s]` to your display name and try `%sdone` again.", out.Code, out.DisplayName, out.Code, p)

	case service.OutcomeLinked:
		if out.Code != "" {
			return fmt.Sprintf("✅ **Success!** Your Overseerr account `%s` is now linked to your Discord account.\n\n"+
				"Overseerr will now @mention you in Discord when:\n"+
				"• Your requests are approved\n"+
				"• Requested media is available\n\n"+
				"You can now remove `[%s]` from your Overseerr display name.", out.Identifier, out.Code)
		}
		text := fmt.Sprintf("✅ **Linked**\n\nYour Discord account is linked to Overseerr account: `%s`\n", out.Identifier)
		if out.LinkedAt != nil {
			text += fmt.Sprintf("Linked since: %s\n", out.LinkedAt.UTC().Format("2006-01-02 15:04 MST"))
		}
		return text + fmt.Sprintf("You will receive @mentions in Overseerr notifications.\n\n"+
			"To unlink, use `%sunlink <identifier>`", p)

	case service.OutcomeUpdateFailed:
		return "❌ Failed to update your Overseerr account due to an API error.\n" +
			"Please try again later or contact an administrator."

	case service.OutcomeNotLinked:
		return fmt.Sprintf("❌ **Not Linked**\n\nYour Discord account is not linked to any Overseerr account.\n"+
			"To link, use `%slink <identifier>`", p)

	case service.OutcomeNotYourAccount:
		return fmt.Sprintf("The Overseerr account `%s` is not linked to your Discord account.\n"+
			"You can only unlink your own account.", out.Identifier)

	case service.OutcomeUnlinked:
		return fmt.Sprintf("🔓 **Unlinked successfully!**\n\n"+
			"Your Overseerr account `%s` is no longer linked to Discord.\n"+
			"Overseerr will no longer @mention you in notifications.\n\n"+
			"You can re-link anytime with `%slink <identifier>`", out.Identifier, p)

	case service.OutcomePending:
		return fmt.Sprintf("📋 **Pending Verification**\n\n"+
			"Identifier: `%s`\n"+
			"Verification Code: `%s`\n"+
			"Expires in: ~%s\n\n"+
			"Complete verification with `%sdone`", out.Identifier, out.Code, minutes(out.ExpiresIn), p)

	case service.OutcomeServiceUnavailable:
		return "⚠️ Overseerr could not be reached right now. Please try again in a few minutes."

	default:
		log.Error().Str("outcome", string(out.Kind)).Msg("unrendered outcome")
		return "Something went wrong. Please try again later."
	}
}

func (h *CommandHandler) helpText() string {
	p := h.prefix
	privacy := "All commands must be sent via DM."
	if h.allowGuild {
		privacy = "Commands work in DMs and server channels, but DMs keep your account details private."
	}

	return fmt.Sprintf(`**Hermes - Overseerr Discord Link Bot**

Link your Discord account to Overseerr so you can be @mentioned in notifications!

**Commands:**

`+"`%[1]slink <identifier>`"+` - Start linking your Discord to your Overseerr account
  (identifier can be your Plex username, email, or display name)

`+"`%[1]sdone`"+` - Complete the verification after adding the code to your Overseerr display name

`+"`%[1]sstatus`"+` - Check if your Discord account is linked to Overseerr

`+"`%[1]sunlink [identifier]`"+` - Remove the link between your Discord and Overseerr

`+"`%[1]shelp`"+` - Show this help message

**How to Link:**
1. DM me: `+"`%[1]slink YourUsername`"+`
2. I'll give you a verification code like [ABCD-1234]
3. In Overseerr, edit your Display Name to include that code
4. Come back here and type `+"`%[1]sdone`"+`

**Privacy:**
%[2]s Your Discord ID is only stored in Overseerr so Overseerr can @mention you when your requests are approved or available.`, p, privacy)
}

func rateLimitedText(resetAt time.Time) string {
	wait := time.Until(resetAt).Round(time.Second)
	if wait <= 0 {
		return "You're sending commands too quickly. Please wait a moment and try again."
	}
	return fmt.Sprintf("You're sending commands too quickly. Please try again in %s.", wait)
}

// minutes renders d as whole minutes, rounded up.
func minutes(d time.Duration) string {
	m := int((d + time.Minute - 1) / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}

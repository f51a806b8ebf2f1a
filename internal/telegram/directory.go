// Package telegram adapts the Bot API and MTProto SDKs to the application's
// collaborator contracts.
package telegram

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/applygate/applybot/internal/errors"
	"github.com/applygate/applybot/internal/membership"
)

// communityRef addresses a public community by username for Bot API calls.
type communityRef string

func (r communityRef) Recipient() string {
	return "@" + string(r)
}

// Directory resolves membership through the Bot API getChatMember call.
type Directory struct {
	bot *telebot.Bot
	log *slog.Logger
}

// NewDirectory builds a Directory over the given bot.
func NewDirectory(bot *telebot.Bot, log *slog.Logger) *Directory {
	if log == nil {
		log = slog.Default()
	}

	return &Directory{
		bot: bot,
		log: log,
	}
}

// GetMembership reports the user's standing in the named community.
func (d *Directory) GetMembership(_ context.Context, community string, userID int64) (membership.Status, error) {
	member, err := d.bot.ChatMemberOf(communityRef(community), &telebot.User{ID: userID})
	if err != nil {
		return membership.StatusUnknown, apperrors.NewDirectoryError(community, err)
	}

	return mapRole(member.Role), nil
}

func mapRole(role telebot.MemberStatus) membership.Status {
	switch role {
	case telebot.Creator:
		return membership.StatusOwner
	case telebot.Administrator:
		return membership.StatusAdministrator
	case telebot.Member:
		return membership.StatusMember
	case telebot.Left:
		return membership.StatusLeft
	case telebot.Kicked:
		return membership.StatusBanned
	default:
		return membership.StatusUnknown
	}
}

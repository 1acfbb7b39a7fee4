package bot

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// channelRecipient lets a channel username act as a tele.Recipient.
type channelRecipient string

func (r channelRecipient) Recipient() string { return string(r) }

// memberLookup is the one transport call the gate needs.
type memberLookup interface {
	ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error)
}

// isChannelMember reports whether the user belongs to the broadcast
// channel. Creator and administrator count as members.
func isChannelMember(bot memberLookup, channel string, userID int64) (bool, error) {
	member, err := bot.ChatMemberOf(channelRecipient(normalizeChannel(channel)), &tele.User{ID: userID})
	if err != nil {
		return false, fmt.Errorf("chat member of %s: %w", channel, err)
	}
	switch member.Role {
	case tele.Creator, tele.Administrator, tele.Member:
		return true, nil
	}
	return false, nil
}

func normalizeChannel(channel string) string {
	channel = strings.TrimSpace(channel)
	if channel == "" || strings.HasPrefix(channel, "@") || strings.HasPrefix(channel, "-") {
		return channel
	}
	return "@" + channel
}

package bot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type fakeMemberLookup struct {
	role     tele.MemberStatus
	err      error
	lastChat string
}

func (f *fakeMemberLookup) ChatMemberOf(chat, _ tele.Recipient) (*tele.ChatMember, error) {
	f.lastChat = chat.Recipient()
	if f.err != nil {
		return nil, f.err
	}
	return &tele.ChatMember{Role: f.role}, nil
}

func TestIsChannelMemberRoles(t *testing.T) {
	cases := []struct {
		role   tele.MemberStatus
		member bool
	}{
		{tele.Creator, true},
		{tele.Administrator, true},
		{tele.Member, true},
		{tele.Restricted, false},
		{tele.Left, false},
		{tele.Kicked, false},
	}
	for _, tc := range cases {
		lookup := &fakeMemberLookup{role: tc.role}
		got, err := isChannelMember(lookup, "@mychannel", 101)
		require.NoError(t, err)
		assert.Equal(t, tc.member, got, "role %s", tc.role)
	}
}

func TestIsChannelMemberPropagatesLookupErrors(t *testing.T) {
	lookup := &fakeMemberLookup{err: errors.New("api down")}
	_, err := isChannelMember(lookup, "@mychannel", 101)
	assert.Error(t, err)
}

func TestNormalizeChannel(t *testing.T) {
	lookup := &fakeMemberLookup{role: tele.Member}

	_, err := isChannelMember(lookup, "mychannel", 101)
	require.NoError(t, err)
	assert.Equal(t, "@mychannel", lookup.lastChat)

	_, err = isChannelMember(lookup, "@already", 101)
	require.NoError(t, err)
	assert.Equal(t, "@already", lookup.lastChat)

	_, err = isChannelMember(lookup, "-1001234", 101)
	require.NoError(t, err)
	assert.Equal(t, "-1001234", lookup.lastChat)
}

package unit

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
)

var permissionTokens = map[string]discord.Permissions{
	"createinstantinvite":   discord.PermissionCreateInstantInvite,
	"kickmembers":           discord.PermissionKickMembers,
	"banmembers":            discord.PermissionBanMembers,
	"administrator":         discord.PermissionAdministrator,
	"managechannels":        discord.PermissionManageChannels,
	"manageguild":           discord.PermissionManageGuild,
	"addreactions":          discord.PermissionAddReactions,
	"viewchannel":           discord.PermissionViewChannel,
	"sendmessages":          discord.PermissionSendMessages,
	"managemessages":        discord.PermissionManageMessages,
	"embedlinks":            discord.PermissionEmbedLinks,
	"attachfiles":           discord.PermissionAttachFiles,
	"readmessagehistory":    discord.PermissionReadMessageHistory,
	"mentioneveryone":       discord.PermissionMentionEveryone,
	"useexternalemojis":     discord.PermissionUseExternalEmojis,
	"connect":               discord.PermissionConnect,
	"speak":                 discord.PermissionSpeak,
	"mutemembers":           discord.PermissionMuteMembers,
	"deafenmembers":         discord.PermissionDeafenMembers,
	"movemembers":           discord.PermissionMoveMembers,
	"changenickname":        discord.PermissionChangeNickname,
	"managenicknames":       discord.PermissionManageNicknames,
	"manageroles":           discord.PermissionManageRoles,
	"managewebhooks":        discord.PermissionManageWebhooks,
	"manageevents":          discord.PermissionManageEvents,
	"managethreads":         discord.PermissionManageThreads,
	"createpublicthreads":   discord.PermissionCreatePublicThreads,
	"createprivatethreads":  discord.PermissionCreatePrivateThreads,
	"sendmessagesinthreads": discord.PermissionSendMessagesInThreads,
	"moderatemembers":       discord.PermissionModerateMembers,
}

var channelTypeTokens = map[string]discord.ChannelType{
	"guildtext":          discord.ChannelTypeGuildText,
	"dm":                 discord.ChannelTypeDM,
	"guildvoice":         discord.ChannelTypeGuildVoice,
	"groupdm":            discord.ChannelTypeGroupDM,
	"guildcategory":      discord.ChannelTypeGuildCategory,
	"guildnews":          discord.ChannelTypeGuildNews,
	"guildnewsthread":    discord.ChannelTypeGuildNewsThread,
	"guildpublicthread":  discord.ChannelTypeGuildPublicThread,
	"guildprivatethread": discord.ChannelTypeGuildPrivateThread,
	"guildstagevoice":    discord.ChannelTypeGuildStageVoice,
	"guildforum":         discord.ChannelTypeGuildForum,
	"guildannouncement":  discord.ChannelTypeGuildNews,
	"announcementthread": discord.ChannelTypeGuildNewsThread,
	"publicthread":       discord.ChannelTypeGuildPublicThread,
	"privatethread":      discord.ChannelTypeGuildPrivateThread,
}

var channelTypeNames = map[discord.ChannelType]string{
	discord.ChannelTypeGuildText:          "GuildText",
	discord.ChannelTypeDM:                 "DM",
	discord.ChannelTypeGuildVoice:         "GuildVoice",
	discord.ChannelTypeGroupDM:            "GroupDM",
	discord.ChannelTypeGuildCategory:      "GuildCategory",
	discord.ChannelTypeGuildNews:          "GuildNews",
	discord.ChannelTypeGuildNewsThread:    "GuildNewsThread",
	discord.ChannelTypeGuildPublicThread:  "GuildPublicThread",
	discord.ChannelTypeGuildPrivateThread: "GuildPrivateThread",
	discord.ChannelTypeGuildStageVoice:    "GuildStageVoice",
	discord.ChannelTypeGuildForum:         "GuildForum",
}

// normalizeToken accepts "BanMembers", "BAN_MEMBERS" and "ban-members" alike.
func normalizeToken(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
}

// Permission resolves a capability token.
func Permission(token string) (discord.Permissions, error) {
	p, ok := permissionTokens[normalizeToken(token)]
	if !ok {
		return 0, fmt.Errorf("unknown permission %q", token)
	}
	return p, nil
}

// PermissionSet resolves tokens into one bitset.
func PermissionSet(tokens []string) (discord.Permissions, error) {
	var set discord.Permissions
	for _, t := range tokens {
		p, err := Permission(t)
		if err != nil {
			return 0, err
		}
		set |= p
	}
	return set, nil
}

// MissingPermissions returns the tokens not granted by have. Administrator grants everything.
func MissingPermissions(have discord.Permissions, tokens []string) []string {
	if have&discord.PermissionAdministrator == discord.PermissionAdministrator {
		return nil
	}
	var missing []string
	for _, t := range tokens {
		p, err := Permission(t)
		if err != nil || have&p != p {
			missing = append(missing, t)
		}
	}
	return missing
}

func ChannelType(token string) (discord.ChannelType, error) {
	c, ok := channelTypeTokens[normalizeToken(token)]
	if !ok {
		return 0, fmt.Errorf("unknown channel type %q", token)
	}
	return c, nil
}

func ChannelTypeName(c discord.ChannelType) string {
	if name, ok := channelTypeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ChannelType(%d)", int(c))
}

func channelTypes(tokens []string) ([]discord.ChannelType, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	out := make([]discord.ChannelType, 0, len(tokens))
	for _, t := range tokens {
		c, err := ChannelType(t)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

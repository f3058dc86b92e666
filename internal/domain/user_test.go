package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUser_LegacyDiscriminator(t *testing.T) {
	u, err := ParseUser([]byte(`{"id": "123", "username": "john", "discriminator": "0042", "avatar": null}`))
	require.NoError(t, err)

	assert.Equal(t, 42, u.Discriminator)
	assert.Equal(t, "0042", u.DiscriminatorFormatted())
	assert.Equal(t, "john#0042", u.FullName())
	// Стандартный аватар старой схемы выводится из дискриминатора.
	assert.Contains(t, u.AvatarURL, "embed/avatars/2.png")
}

func TestParseUser_NewScheme(t *testing.T) {
	// Дискриминатор "0" нормализуется к отсутствующему.
	u, err := ParseUser([]byte(`{"id": "175928847299117063", "username": "john", "global_name": "Johnny", "discriminator": "0"}`))
	require.NoError(t, err)

	assert.Equal(t, 0, u.Discriminator)
	assert.Equal(t, "john", u.FullName())
	assert.Equal(t, "Johnny", u.DisplayName)
	// Индекс стандартного аватара новой схемы выводится из идентификатора.
	assert.Contains(t, u.AvatarURL, "embed/avatars/")
}

func TestParseUser_CustomAvatar(t *testing.T) {
	u, err := ParseUser([]byte(`{"id": "123", "username": "john", "discriminator": "0", "avatar": "a_deadbeef"}`))
	require.NoError(t, err)

	// Анимированный хеш дает GIF.
	assert.Contains(t, u.AvatarURL, "avatars/123/a_deadbeef.gif")
}

func TestMemberOfUser(t *testing.T) {
	u := User{ID: 1, Name: "john", DisplayName: "Johnny", AvatarURL: "http://example.com/a.png"}
	m := MemberOfUser(u)

	assert.Equal(t, u, m.User)
	assert.Empty(t, m.Nick)
	assert.Equal(t, "Johnny", m.DisplayName())
	assert.Equal(t, u.AvatarURL, m.EffectiveAvatarURL())
}

func TestMember_DisplayName(t *testing.T) {
	m := Member{User: User{DisplayName: "Johnny"}, Nick: "J-dog"}
	assert.Equal(t, "J-dog", m.DisplayName())
}

func TestAttachment_Predicates(t *testing.T) {
	tests := []struct {
		fileName string
		isImage  bool
		isVideo  bool
		isAudio  bool
		spoiler  bool
	}{
		{fileName: "photo.PNG", isImage: true},
		{fileName: "clip.mp4", isVideo: true},
		{fileName: "song.ogg", isAudio: true},
		{fileName: "SPOILER_secret.jpg", isImage: true, spoiler: true},
		{fileName: "document.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			a := Attachment{FileName: tt.fileName}
			assert.Equal(t, tt.isImage, a.IsImage())
			assert.Equal(t, tt.isVideo, a.IsVideo())
			assert.Equal(t, tt.isAudio, a.IsAudio())
			assert.Equal(t, tt.spoiler, a.IsSpoiler())
		})
	}
}

func TestChannel_Predicates(t *testing.T) {
	empty := &Channel{ID: 100}
	assert.True(t, empty.IsEmpty())
	assert.False(t, empty.MayHaveMessagesAfter(0))
	assert.False(t, empty.MayHaveMessagesBefore(200))

	ch := &Channel{ID: 100, LastMessageID: 500}
	assert.False(t, ch.IsEmpty())
	assert.True(t, ch.MayHaveMessagesAfter(499))
	assert.False(t, ch.MayHaveMessagesAfter(500))
	assert.True(t, ch.MayHaveMessagesBefore(101))
	assert.False(t, ch.MayHaveMessagesBefore(100))
}

func TestChannel_HierarchicalName(t *testing.T) {
	category := &Channel{Name: "Text Channels", Kind: ChannelKindGuildCategory}
	channel := &Channel{Name: "general", Parent: category}
	thread := &Channel{Name: "my-thread", Parent: channel}

	assert.Equal(t, "Text Channels / general / my-thread", thread.HierarchicalName())
	assert.Equal(t, "general", (&Channel{Name: "general"}).HierarchicalName())
}

func TestDomainError_Fatality(t *testing.T) {
	fatal := WrapFatalError("boom", assert.AnError)
	assert.True(t, IsFatal(fatal))

	nonFatal := WrapError("meh", assert.AnError)
	assert.False(t, IsFatal(nonFatal))
	assert.False(t, IsFatal(assert.AnError))

	assert.True(t, IsFatal(ErrUnsupportedChannel))
	assert.False(t, IsFatal(ErrChannelEmpty))
}

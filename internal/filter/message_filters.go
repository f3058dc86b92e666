package filter

import (
	"fmt"
	"regexp"
	"strings"

	"discord-chat-archiver/internal/domain"
)

var (
	linkRegexp   = regexp.MustCompile(`(?i)\bhttps?://\S+`)
	inviteRegexp = regexp.MustCompile(`(?i)\b(?:discord\.gg|discord(?:app)?\.com/invite)/\w+`)
)

// containsFilter — поиск подстроки в тексте сообщения без учета регистра.
type containsFilter struct {
	text string
}

func (f containsFilter) Matches(m *domain.Message) bool {
	return strings.Contains(strings.ToLower(m.Content), strings.ToLower(f.text))
}

// matchesUser сверяет пользователя со значением фильтра: по идентификатору,
// имени или полному имени со старым дискриминатором.
func matchesUser(u domain.User, value string) bool {
	return u.ID.String() == value ||
		strings.EqualFold(u.Name, value) ||
		strings.EqualFold(u.FullName(), value)
}

// fromFilter — сообщения конкретного автора.
type fromFilter struct {
	value string
}

func (f fromFilter) Matches(m *domain.Message) bool {
	return matchesUser(m.Author, f.value)
}

// mentionsFilter — сообщения, упоминающие пользователя.
type mentionsFilter struct {
	value string
}

func (f mentionsFilter) Matches(m *domain.Message) bool {
	for _, u := range m.MentionedUsers {
		if matchesUser(u, f.value) {
			return true
		}
	}
	return false
}

// reactionFilter — сообщения с реакцией: по коду или имени эмодзи.
type reactionFilter struct {
	value string
}

func (f reactionFilter) Matches(m *domain.Message) bool {
	for _, r := range m.Reactions {
		if strings.EqualFold(r.Emoji.Code(), f.value) || strings.EqualFold(r.Emoji.Name, f.value) {
			return true
		}
	}
	return false
}

// hasFilter — сообщения с контентом определенного рода.
type hasFilter struct {
	kind    string
	matches func(m *domain.Message) bool
}

func (f hasFilter) Matches(m *domain.Message) bool {
	return f.matches(m)
}

// newHasFilter строит has-фильтр по имени рода контента.
// Формы единственного и множественного числа равнозначны.
func newHasFilter(kind string) (MessageFilter, error) {
	normalized := strings.TrimSuffix(strings.ToLower(kind), "s")

	var fn func(m *domain.Message) bool
	switch normalized {
	case "link":
		fn = hasLink
	case "embed":
		fn = func(m *domain.Message) bool { return len(m.Embeds) > 0 }
	case "file", "attachment":
		fn = func(m *domain.Message) bool { return len(m.Attachments) > 0 }
	case "video":
		fn = hasVideo
	case "image", "img":
		fn = hasImage
	case "sound", "audio":
		fn = hasSound
	case "sticker":
		fn = func(m *domain.Message) bool { return len(m.Stickers) > 0 }
	case "invite":
		fn = func(m *domain.Message) bool { return inviteRegexp.MatchString(m.Content) }
	case "mention":
		fn = func(m *domain.Message) bool { return len(m.MentionedUsers) > 0 }
	case "pin", "pinned":
		fn = func(m *domain.Message) bool { return m.IsPinned }
	default:
		return nil, fmt.Errorf("unknown content kind %q in has: filter", kind)
	}

	return hasFilter{kind: normalized, matches: fn}, nil
}

func hasLink(m *domain.Message) bool {
	if linkRegexp.MatchString(m.Content) {
		return true
	}
	for _, e := range m.Embeds {
		if e.URL != "" {
			return true
		}
	}
	return false
}

func hasVideo(m *domain.Message) bool {
	for _, a := range m.Attachments {
		if a.IsVideo() {
			return true
		}
	}
	for _, e := range m.Embeds {
		if e.Video != nil {
			return true
		}
	}
	return false
}

func hasImage(m *domain.Message) bool {
	for _, a := range m.Attachments {
		if a.IsImage() {
			return true
		}
	}
	for _, e := range m.Embeds {
		if len(e.Images) > 0 || e.Thumbnail != nil {
			return true
		}
	}
	return false
}

func hasSound(m *domain.Message) bool {
	for _, a := range m.Attachments {
		if a.IsAudio() {
			return true
		}
	}
	return false
}

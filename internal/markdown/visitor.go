package markdown

import "fmt"

// Visitor — контракт рендерера AST. Каждый формат экспорта реализует
// свой визитер; обход детей контейнерных узлов — забота реализации
// (обычно повторным вызовом Accept).
type Visitor interface {
	VisitText(n TextNode) error
	VisitFormatting(n FormattingNode) error
	VisitHeading(n HeadingNode) error
	VisitList(n ListNode) error
	VisitInlineCode(n InlineCodeNode) error
	VisitMultiLineCode(n MultiLineCodeNode) error
	VisitLink(n LinkNode) error
	VisitEmoji(n EmojiNode) error
	VisitMention(n MentionNode) error
	VisitTimestamp(n TimestampNode) error
}

// Accept диспетчеризует узлы по вариантам размеченного объединения.
func Accept(nodes []Node, v Visitor) error {
	for _, n := range nodes {
		var err error
		switch node := n.(type) {
		case TextNode:
			err = v.VisitText(node)
		case FormattingNode:
			err = v.VisitFormatting(node)
		case HeadingNode:
			err = v.VisitHeading(node)
		case ListNode:
			err = v.VisitList(node)
		case InlineCodeNode:
			err = v.VisitInlineCode(node)
		case MultiLineCodeNode:
			err = v.VisitMultiLineCode(node)
		case LinkNode:
			err = v.VisitLink(node)
		case EmojiNode:
			err = v.VisitEmoji(node)
		case MentionNode:
			err = v.VisitMention(node)
		case TimestampNode:
			err = v.VisitTimestamp(node)
		default:
			err = fmt.Errorf("unknown markdown node %T", n)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

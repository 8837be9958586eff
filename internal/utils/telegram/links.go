package telegram

import (
	"fmt"
	"html"
	"strings"

	"giveaway-draw-bot/internal/features/giveaway/models"
)

// maxMessageLen keeps chunked HTML messages safely under the Bot API limit.
const maxMessageLen = 3500

// FormatUserLink renders a candidate as an HTML link: @username profile link
// when a username exists, otherwise a tg://user deep link by id with the
// display name as a suffix.
func FormatUserLink(c models.Candidate) string {
	if c.Username != "" {
		uname := html.EscapeString(c.Username)
		return fmt.Sprintf(`<a href="https://t.me/%s">@%s</a>`, uname, uname)
	}
	id := html.EscapeString(c.UserID)
	link := fmt.Sprintf(`<a href="tg://user?id=%s">id:%s</a>`, id, id)
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name != "" {
		link += " (" + html.EscapeString(name) + ")"
	}
	return link
}

// FormatNumberedList renders candidates as a numbered list of user links,
// numbering from start+1.
func FormatNumberedList(candidates []models.Candidate, start int) []string {
	lines := make([]string, len(candidates))
	for i, c := range candidates {
		lines[i] = fmt.Sprintf("%d. %s", start+i+1, FormatUserLink(c))
	}
	return lines
}

// ChunkLines joins lines into messages no longer than the Bot API allows.
func ChunkLines(lines []string) []string {
	var chunks []string
	var current []string
	length := 0
	for _, line := range lines {
		if length+len(line)+1 > maxMessageLen && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = current[:0]
			length = 0
		}
		current = append(current, line)
		length += len(line) + 1
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}
	return chunks
}

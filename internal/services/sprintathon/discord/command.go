package discord

import "strings"

// Parsed is the command portion of one chat message.
type Parsed struct {
	Name string
	Args []string
	// Mentioned is set when the message addressed the bot by mention.
	Mentioned bool
}

// ParseCommand extracts a command from content. Commands start with prefix
// ("!start_sprint 20") or with a mention of the bot ("@bot help"); anything
// else reports ok=false.
func ParseCommand(content, prefix, botUserID string) (Parsed, bool) {
	text := strings.TrimSpace(content)
	var parsed Parsed

	if rest, ok := stripMention(text, botUserID); ok {
		parsed.Mentioned = true
		text = strings.TrimSpace(rest)
		if prefix != "" {
			text = strings.TrimPrefix(text, prefix)
		}
	} else {
		if prefix == "" || !strings.HasPrefix(text, prefix) {
			return Parsed{}, false
		}
		text = strings.TrimPrefix(text, prefix)
	}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Parsed{}, false
	}
	parsed.Name = strings.ToLower(fields[0])
	parsed.Args = fields[1:]
	return parsed, true
}

func stripMention(text, botUserID string) (string, bool) {
	if botUserID == "" {
		return "", false
	}
	for _, mention := range []string{"<@" + botUserID + ">", "<@!" + botUserID + ">"} {
		if strings.HasPrefix(text, mention) {
			return text[len(mention):], true
		}
	}
	return "", false
}

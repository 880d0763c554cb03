package dispatch

import "strings"

// parseCommand extracts the command name from "/name", "/name@bot" or "/name args".
// A command addressed to a different bot is not a command for us.
func parseCommand(text, botUsername string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	head := text[1:]
	if i := strings.IndexAny(head, " \t\n"); i >= 0 {
		head = head[:i]
	}
	name, target, addressed := strings.Cut(head, "@")
	if addressed && botUsername != "" && !strings.EqualFold(target, strings.TrimPrefix(botUsername, "@")) {
		return "", false
	}
	if name == "" {
		return "", false
	}
	return strings.ToLower(name), true
}

package bot

import "strings"

// PostbackData is the decoded payload of a postback event.
// The wire format is a single "key=value" pair, e.g. "mode=speaking" or
// "action=weekly". LINE caps postback data at 300 bytes.
type PostbackData struct {
	Key   string
	Value string
}

// ParsePostback decodes a postback payload. Data without a '=' separator
// is treated as a bare mode switch, matching the rich menu defaults.
func ParsePostback(data string) PostbackData {
	data = strings.TrimSpace(data)
	key, value, found := strings.Cut(data, "=")
	if !found {
		return PostbackData{Key: "mode", Value: data}
	}
	return PostbackData{Key: key, Value: value}
}

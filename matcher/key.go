package matcher

import "strings"

// Key identifies one command entry within a channel.
type Key struct {
	Channel string `json:"channel"`
	Name    string `json:"name"`
}

// NewKey builds a Key with the name lower-cased, so lookups are
// case-insensitive on the command name.
func NewKey(channel, name string) Key {
	return Key{
		Channel: channel,
		Name:    strings.ToLower(name),
	}
}

func (k Key) String() string {
	return k.Channel + "/" + k.Name
}

package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/go-go-golems/chatrelay/pkg/control"
	"github.com/pkg/errors"
)

const customIDSeparator = ":"

// CustomID encodes the action and control a button is bound to.
func CustomID(a control.Action, controlID string) string {
	return string(a) + customIDSeparator + controlID
}

// ParseCustomID is the inverse of CustomID.
func ParseCustomID(s string) (control.Action, string, error) {
	action, controlID, ok := strings.Cut(s, customIDSeparator)
	if !ok || controlID == "" {
		return "", "", errors.Errorf("malformed custom id %q", s)
	}
	switch a := control.Action(action); a {
	case control.ActionRegenerate, control.ActionDelete:
		return a, controlID, nil
	default:
		return "", "", errors.Errorf("unknown action %q in custom id", action)
	}
}

// controlComponents returns the button row for controlID, or no components
// when controlID is empty.
func controlComponents(controlID string) []discordgo.MessageComponent {
	if controlID == "" {
		return []discordgo.MessageComponent{}
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    control.ActionRegenerate.Label(),
					Style:    discordgo.SecondaryButton,
					CustomID: CustomID(control.ActionRegenerate, controlID),
				},
				discordgo.Button{
					Label:    control.ActionDelete.Label(),
					Style:    discordgo.DangerButton,
					CustomID: CustomID(control.ActionDelete, controlID),
				},
			},
		},
	}
}

package cmds

import (
	"fmt"
	"strings"

	"github.com/go-go-golems/chatrelay/pkg/persona"
	"github.com/spf13/cobra"
)

func NewPersonaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "persona",
		Short: "Show and edit the bot's persona",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the persona",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := personaService(cmd)
				if err != nil {
					return err
				}
				p, err := svc.Get(cmd.Context())
				if err != nil {
					return err
				}
				return printPersona(cmd, p)
			},
		},
		&cobra.Command{
			Use:   "set-description <description...>",
			Short: "Replace the persona description",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := personaService(cmd)
				if err != nil {
					return err
				}
				p, err := svc.SetDescription(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				return printPersona(cmd, p)
			},
		},
		&cobra.Command{
			Use:   "set-name <name>",
			Short: "Rename the persona",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := personaService(cmd)
				if err != nil {
					return err
				}
				p, err := svc.SetName(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printPersona(cmd, p)
			},
		},
	)
	return cmd
}

func personaService(cmd *cobra.Command) (*persona.Service, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	fs, err := openStore(cmd.Context(), s)
	if err != nil {
		return nil, err
	}
	return persona.NewService(fs), nil
}

func printPersona(cmd *cobra.Command, p *persona.Persona) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Name: %s\nDescription: %s\n", p.Name, p.Description)
	return err
}

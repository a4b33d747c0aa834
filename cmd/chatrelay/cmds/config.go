package cmds

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// commands for manipulating the config file
//
// - get prints a key, or the whole file
// - set writes a scalar key, keeping comments and order of the other keys
// - unset removes a key

const defaultConfigFile = "config.yaml"

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and edit the configuration file",
	}
	cmd.PersistentFlags().String("file", "", "Config file to edit (default: the loaded config file, or ./config.yaml)")

	cmd.AddCommand(NewConfigGetCommand())
	cmd.AddCommand(NewConfigSetCommand())
	cmd.AddCommand(NewConfigUnsetCommand())

	return cmd
}

func NewConfigGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Print a configuration value, or the whole configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := readAndParseConfig(configFilePath(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				if len(root.Content) == 0 {
					return nil
				}
				return encodeNode(out, root)
			}

			key := normalizeKey(args[0])
			value, ok := getValue(root, key)
			if !ok {
				// fall back to defaults and the environment
				if !viper.IsSet(key) {
					return errors.Errorf("key %s is not set", key)
				}
				_, err = fmt.Fprintln(out, viper.Get(key))
				return err
			}
			if value.Kind == yaml.ScalarNode {
				_, err = fmt.Fprintln(out, value.Value)
				return err
			}
			return encodeNode(out, value)
		},
	}
}

func NewConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFilePath(cmd)
			root, err := readAndParseConfig(path)
			if err != nil {
				return err
			}
			key := normalizeKey(args[0])
			if err := setValue(root, key, args[1]); err != nil {
				return err
			}
			if err := writeConfig(path, root); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", key, path)
			return err
		},
	}
}

func NewConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFilePath(cmd)
			root, err := readAndParseConfig(path)
			if err != nil {
				return err
			}
			key := normalizeKey(args[0])
			if !unsetValue(root, key) {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Key %s is not set in %s. Skipping.\n", key, path)
				return err
			}
			if err := writeConfig(path, root); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", key, path)
			return err
		},
	}
}

// normalizeKey maps ai_engine, AI_ENGINE and aiEngine to ai-engine, the
// spelling the flags and the config file use.
func normalizeKey(key string) string {
	return strcase.ToKebab(strings.TrimSpace(key))
}

func configFilePath(cmd *cobra.Command) string {
	if f, _ := cmd.Flags().GetString("file"); f != "" {
		return f
	}
	if f := viper.ConfigFileUsed(); f != "" {
		return f
	}
	return defaultConfigFile
}

// readAndParseConfig parses a config file into a yaml document node. A
// missing file is an empty document.
func readAndParseConfig(configFile string) (*yaml.Node, error) {
	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return &yaml.Node{Kind: yaml.DocumentNode}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}

	var root yaml.Node
	err = yaml.Unmarshal(data, &root)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing config file")
	}
	if root.Kind == 0 {
		root.Kind = yaml.DocumentNode
	}

	return &root, nil
}

func writeConfig(configFile string, root *yaml.Node) error {
	f, err := os.Create(configFile)
	if err != nil {
		return errors.Wrap(err, "error opening config file for writing")
	}
	defer f.Close()

	return encodeNode(f, root)
}

func encodeNode(w io.Writer, n *yaml.Node) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(n); err != nil {
		return errors.Wrap(err, "error writing yaml")
	}
	return encoder.Close()
}

// mappingNode returns the top-level mapping of a document, creating it when
// the document is empty.
func mappingNode(root *yaml.Node) (*yaml.Node, error) {
	if len(root.Content) == 0 {
		m := &yaml.Node{Kind: yaml.MappingNode}
		root.Content = []*yaml.Node{m}
		return m, nil
	}
	m := root.Content[0]
	if m.Kind != yaml.MappingNode {
		return nil, errors.New("config file is not a mapping")
	}
	return m, nil
}

func getValue(root *yaml.Node, key string) (*yaml.Node, bool) {
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, false
	}
	m := root.Content[0]
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1], true
		}
	}
	return nil, false
}

// setValue stores value under key. The value is parsed as yaml so numbers,
// booleans and durations keep their type. Replacing a string keeps it a
// string.
func setValue(root *yaml.Node, key string, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("key cannot be empty")
	}
	m, err := mappingNode(root)
	if err != nil {
		return err
	}

	valueNode := &yaml.Node{Kind: yaml.ScalarNode, Value: value}
	var parsed yaml.Node
	if err := yaml.Unmarshal([]byte(value), &parsed); err == nil &&
		len(parsed.Content) == 1 && parsed.Content[0].Kind == yaml.ScalarNode {
		valueNode = parsed.Content[0]
	}

	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			old := m.Content[i+1]
			// ids and names stay strings even when the new value looks numeric
			if old.Kind == yaml.ScalarNode && old.Tag == "!!str" && valueNode.Kind == yaml.ScalarNode {
				valueNode.Tag = old.Tag
				valueNode.Style = old.Style
			}
			m.Content[i+1] = valueNode
			return nil
		}
	}
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, valueNode)
	return nil
}

func unsetValue(root *yaml.Node, key string) bool {
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return false
	}
	m := root.Content[0]
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return true
		}
	}
	return false
}

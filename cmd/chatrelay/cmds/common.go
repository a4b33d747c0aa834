package cmds

import (
	"context"

	"github.com/go-go-golems/chatrelay/pkg/config"
	"github.com/go-go-golems/chatrelay/pkg/ledger"
	"github.com/go-go-golems/chatrelay/pkg/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadSettings binds the local flags of cmd and reads the settings.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	v := viper.GetViper()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	return config.Load(v)
}

// openStore opens the data directory and writes the default documents that
// are missing. The relay cannot run without them.
func openStore(ctx context.Context, s *config.Settings) (*store.FileStore, error) {
	fs, err := store.NewFileStore(s.DataDir, store.WithDefaultSchemas())
	if err != nil {
		return nil, err
	}
	err = fs.Bootstrap(ctx, map[store.Kind]interface{}{
		store.KindHistory: ledger.NewHistory(),
		store.KindPersona: s.DefaultPersona(),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not initialise data directory %s", s.DataDir)
	}
	return fs, nil
}

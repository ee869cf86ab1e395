package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/pantry/internal/paths"
	"github.com/mesh-intelligence/pantry/internal/sqlite"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize pantry storage",
		Long:  "Create the configuration and data directories, then initialize the storage backend.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return systemError("resolve config dir: %w", err)
	}
	dataDir, err := a.resolvedDataDir()
	if err != nil {
		return err
	}

	// Pin an explicit --data-dir in config.yaml so later runs find it.
	if a.dataDir != "" {
		if err := writeDataDir(paths.ConfigFile(configDir), dataDir); err != nil {
			return systemError("write config: %w", err)
		}
	}

	store := sqlite.NewBackend()
	if err := store.Attach(types.Config{Backend: a.settings.Backend, DataDir: dataDir}); err != nil {
		return systemError("initialize storage: %w", err)
	}
	if err := store.Detach(); err != nil {
		return systemError("finalize storage: %w", err)
	}

	if a.jsonMode {
		return printJSON(cmd, map[string]string{"config_dir": configDir, "data_dir": dataDir})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pantry initialized\nconfig: %s\ndata:   %s\n", configDir, dataDir)
	return nil
}

// writeDataDir sets data_dir in the config file at path. Every other key,
// the legacy product block included, and the comments are kept.
func writeDataDir(path, dataDir string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read config: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("parse config: top level of %s is not a mapping", path)
	}
	setScalar(root, cfgKeyDataDir, dataDir)

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}

// setScalar sets key to a string value in mapping, appending the key when
// it is missing.
func setScalar(mapping *yaml.Node, key, value string) {
	val := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = val
			return
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		val,
	)
}

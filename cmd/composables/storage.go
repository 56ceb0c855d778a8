package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/composables/internal/errors"
	"github.com/vango-dev/composables/pkg/hub"
	"github.com/vango-dev/composables/pkg/storage"
)

// storeFlags select the store the storage subcommands operate on.
type storeFlags struct {
	remote bool
	hubURL string
	area   string
}

func (f *storeFlags) open(g *globals) (storage.Storage, func() error, error) {
	if f.remote || f.hubURL != "" {
		base := f.hubURL
		if base == "" {
			base = g.cfg.HubHTTPURL()
		}
		return hub.NewRemote(base, f.area, nil), func() error { return nil }, nil
	}
	if f.area != storage.AreaLocal {
		return nil, nil, errors.Newf(errors.CategoryCLI,
			"%s storage only exists on a running hub; pass --remote", f.area)
	}
	return openBackend(g.cfg)
}

func storageCmd(g *globals) *cobra.Command {
	f := &storeFlags{}

	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Inspect and edit stored values",
		Long: `Inspect and edit stored values.

By default the commands open the configured backend directly. With
--remote they go through a running hub, so connected windows see
every change.

Examples:
  composables storage list
  composables storage set theme dark --remote
  composables storage get lang --remote --area=session`,
	}

	cmd.PersistentFlags().BoolVarP(&f.remote, "remote", "r", false, "Go through the hub configured in hub.url")
	cmd.PersistentFlags().StringVar(&f.hubURL, "hub", "", "Hub base URL, e.g. http://localhost:7300 (implies --remote)")
	cmd.PersistentFlags().StringVar(&f.area, "area", storage.AreaLocal, "Storage area: local or session")

	cmd.AddCommand(
		storageGetCmd(g, f),
		storageSetCmd(g, f),
		storageRemoveCmd(g, f),
		storageClearCmd(g, f),
		storageListCmd(g, f),
	)
	return cmd
}

// withStore opens the selected store for the duration of fn.
func withStore(g *globals, f *storeFlags, fn func(storage.Storage) error) (err error) {
	store, closeStore, err := f.open(g)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeStore(); err == nil {
			err = cerr
		}
	}()
	return fn(store)
}

func storageGetCmd(g *globals, f *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value stored under KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(g, f, func(store storage.Storage) error {
				v, err := store.GetItem(args[0])
				if err != nil {
					return err
				}
				value, ok := v.Get()
				if !ok {
					return errors.Newf(errors.CategoryCLI, "%q is not set", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			})
		},
	}
}

func storageSetCmd(g *globals, f *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Store VALUE under KEY",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(g, f, func(store storage.Storage) error {
				if err := store.SetItem(args[0], args[1]); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "%s = %s", args[0], args[1])
				return nil
			})
		},
	}
}

func storageRemoveCmd(g *globals, f *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "rm KEY...",
		Aliases: []string{"remove"},
		Short:   "Remove keys",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(g, f, func(store storage.Storage) error {
				for _, key := range args {
					if err := store.RemoveItem(key); err != nil {
						return err
					}
					success(cmd.OutOrStdout(), "removed %s", key)
				}
				return nil
			})
		},
	}
}

func storageClearCmd(g *globals, f *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every key of the area",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(g, f, func(store storage.Storage) error {
				if err := store.Clear(); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "cleared %s storage", f.area)
				return nil
			})
		},
	}
}

func storageListCmd(g *globals, f *storeFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored keys and values",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(g, f, func(store storage.Storage) error {
				keys, err := store.Keys()
				if err != nil {
					return err
				}
				items := make(map[string]string, len(keys))
				for _, k := range keys {
					v, err := store.GetItem(k)
					if err != nil {
						return err
					}
					if value, ok := v.Get(); ok {
						items[k] = value
					}
				}

				w := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					return enc.Encode(items)
				}
				if len(keys) == 0 {
					info(w, "no keys in %s storage", f.area)
					return nil
				}
				for _, k := range keys {
					fmt.Fprintf(w, "%s %s\n", paint(colorDim, k+" ="), items[k])
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print a JSON object")

	return cmd
}

package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/delivro/rateshop/pkg/carrier"
)

// Admin commands operating directly on the carrier store. They replace the
// embedded admin UI of a hosted deployment for local and scripted use.
var carriersCmd = &cobra.Command{
	Use:   "carriers",
	Short: "Manage the carrier registry",
}

var carriersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all carriers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(cmd, func(r *carrier.Registry) error {
			carriers, err := r.List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPRICE (CENTS)\tUPDATED")
			for _, c := range carriers {
				fmt.Fprintf(w, "%s\t%d\t%s\n",
					c.Name, c.PricePerParcel, c.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		})
	},
}

var carriersAddCmd = &cobra.Command{
	Use:   "add <name> <price-cents>",
	Short: "Add a carrier with a flat per-parcel price",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		price, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("price must be an integer number of cents: %w", err)
		}

		return withRegistry(cmd, func(r *carrier.Registry) error {
			c, err := r.Create(cmd.Context(), args[0], price)
			if err != nil {
				return err
			}
			fmt.Printf("Added carrier %s (%d cents per parcel)\n", c.Name, c.PricePerParcel)
			return nil
		})
	},
}

var carriersSetPriceCmd = &cobra.Command{
	Use:   "set-price <name> <price-cents>",
	Short: "Change a carrier's per-parcel price",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		price, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("price must be an integer number of cents: %w", err)
		}

		return withRegistry(cmd, func(r *carrier.Registry) error {
			result, err := r.UpdatePrice(cmd.Context(), args[0], price)
			if err != nil {
				return err
			}
			if !result.Changed {
				return fmt.Errorf("carrier %q not found", args[0])
			}
			fmt.Printf("Updated carrier %s to %d cents per parcel\n",
				result.Carrier.Name, result.Carrier.PricePerParcel)
			return nil
		})
	},
}

var carriersRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a carrier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRegistry(cmd, func(r *carrier.Registry) error {
			changed, err := r.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !changed {
				return fmt.Errorf("carrier %q not found", args[0])
			}
			fmt.Printf("Removed carrier %s\n", args[0])
			return nil
		})
	},
}

func init() {
	carriersCmd.AddCommand(carriersListCmd)
	carriersCmd.AddCommand(carriersAddCmd)
	carriersCmd.AddCommand(carriersSetPriceCmd)
	carriersCmd.AddCommand(carriersRemoveCmd)
}

// withRegistry opens the store from config, runs fn against the registry and
// closes the store again.
func withRegistry(cmd *cobra.Command, fn func(*carrier.Registry) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := initLogger("error")
	if err != nil {
		return err
	}
	defer logger.Sync()

	registry, closeStore, err := openRegistry(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	return fn(registry)
}

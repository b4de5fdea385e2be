package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wildoasis/booking/internal/config"
	"github.com/wildoasis/booking/internal/entrypoint"
	"github.com/wildoasis/booking/internal/seed"
)

type seedOpts struct {
	fixtures     string
	bookings     int
	imageBaseURL string
	seed         int64
	yes          bool
}

// SeedCommand wipes the domain tables and loads sample data.
func SeedCommand() *cobra.Command {
	var opts seedOpts
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Reset the database and load sample cabins, guests and bookings",
		Long: `Deletes every cabin, guest and booking, then loads the fixture file
(the built-in sample data by default) and generates random bookings around today.
Staff accounts are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, config.NewConfig(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.fixtures, "fixtures", "", "YAML fixture file (default: built-in sample data)")
	cmd.Flags().IntVar(&opts.bookings, "bookings", 10, "Number of random bookings to generate")
	cmd.Flags().StringVar(&opts.imageBaseURL, "image-base-url", seed.DefaultImageBaseURL, "Prefix for fixture image names")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Random seed for reproducible bookings (default: time based)")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Confirm that existing data may be deleted")

	return cmd
}

func runSeed(cmd *cobra.Command, cfg *config.Config, opts seedOpts) error {
	if !opts.yes {
		return errors.New("seeding deletes all cabins, guests and bookings; pass --yes to continue")
	}

	fixtures, err := loadFixtures(opts.fixtures)
	if err != nil {
		return err
	}

	app, err := entrypoint.NewApp(cfg, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := seed.NewSeeder(app.DB, app.Sealer, app.Clock).Run(fixtures, seed.Options{
		Bookings:     opts.bookings,
		ImageBaseURL: opts.imageBaseURL,
		Seed:         opts.seed,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d cabins, %d guests and %d bookings into %s\n",
		result.Cabins, result.Guests, result.Bookings, cfg.Database.Path)
	return nil
}

func loadFixtures(path string) (*seed.Fixtures, error) {
	if path == "" {
		return seed.DefaultFixtures()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return seed.ParseFixtures(data)
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/xenking/catalog-admin/internal/seed"
)

func (c *cli) seedCmd() *cobra.Command {
	var (
		file        string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create products from a newline-delimited JSON file",
		Long: `Reads one product per line in the same shape as the create form
({"title","price","description","categoryId","images"}) and creates them.
Files ending in .gz are decompressed. Invalid lines are reported and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := seed.New(c.catalog,
				seed.WithConcurrency(concurrency),
				seed.WithSkipHandler(func(err *seed.LineError) {
					_, _ = c.err.Write([]byte("Skipped " + err.Error() + "\n"))
				}),
			)
			res, err := s.File(cmd.Context(), file)
			c.printf("Created %d, invalid %d, failed %d\n", res.Created, res.Invalid, res.Failed)
			return err
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to the .ndjson or .ndjson.gz file")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "products created at once")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

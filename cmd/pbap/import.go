package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.vcf|->",
		Short: "Import vCards into the sqlite store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			ctx, cancel := requestContext(cmd.Context())
			defer cancel()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()
			s, err := e.requireSQLite("import")
			if err != nil {
				return err
			}

			n, err := s.ImportVCards(ctx, r)
			if err != nil {
				return fmt.Errorf("imported %d contacts before failing: %w", n, err)
			}
			e.logger.Info("import complete", "contacts", n)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d contacts\n", n)
			return err
		},
	}
}

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/spachava753/pbap/phonebook"
)

func newEntryCmd() *cobra.Command {
	var (
		format string
		filter string
		raw    bool
	)
	cmd := &cobra.Command{
		Use:   "entry <folder> <handle.vcf|id>",
		Short: "Pull a single vCard by listing handle or source id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			mask, err := parseFilter(filter)
			if err != nil {
				return err
			}

			ctx, cancel := requestContext(cmd.Context())
			defer cancel()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			folder := folderPath(args[0])
			id := args[1]
			if !raw && strings.HasSuffix(id, ".vcf") {
				cache, err := loadCache(ctx, e, folder)
				if err != nil {
					return err
				}
				if id, err = cache.LookupName(id); err != nil {
					return err
				}
			}

			buf := phonebook.NewBuffer()
			params := phonebook.Params{MaxCount: 1, Format: f, Filter: mask}
			req, err := e.provider.GetEntry(ctx, folder, id, params, buf)
			if err != nil {
				return err
			}
			defer req.Finalize()
			if err := buf.Wait(ctx); err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(buf.Bytes())
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "2.1", "vCard version: 2.1|3.0.")
	cmd.Flags().StringVar(&filter, "filter", "", "Attribute filter: hex mask or names (tel,email,...).")
	cmd.Flags().BoolVar(&raw, "raw", false, "Treat the second argument as a source id even if it ends in .vcf.")
	return cmd
}

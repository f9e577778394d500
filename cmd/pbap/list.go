package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/spachava753/pbap/phonebook"
	"github.com/spachava753/pbap/vcard"
)

// loadCache fills a listing cache for folder.
func loadCache(ctx context.Context, e *env, folder string) (*phonebook.Cache, error) {
	cache := phonebook.NewCache()
	req, err := e.provider.CreateCache(ctx, folder, cache)
	if err != nil {
		return nil, err
	}
	defer req.Finalize()
	if err := cache.Wait(ctx); err != nil {
		return nil, err
	}
	return cache, nil
}

func newListCmd() *cobra.Command {
	var (
		offset   uint32
		maxCount uint32
	)
	cmd := &cobra.Command{
		Use:   "list <folder>",
		Short: "Print the vCard listing of a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd.Context())
			defer cancel()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			cache, err := loadCache(ctx, e, folderPath(args[0]))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(vcard.MarshalListing(cache.Listing(offset, maxCount)))
			return err
		},
	}
	cmd.Flags().Uint32Var(&offset, "offset", 0, "ListStartOffset: entries to skip.")
	cmd.Flags().Uint32Var(&maxCount, "max-count", phonebook.DefaultMaxCount, "MaxListCount.")
	return cmd
}

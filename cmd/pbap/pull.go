package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spachava753/pbap/phonebook"
)

func newPullCmd() *cobra.Command {
	var (
		offset   uint32
		maxCount uint32
		format   string
		filter   string
	)
	cmd := &cobra.Command{
		Use:   "pull <object>",
		Short: "Pull a phonebook object (pb, ich, och, mch, cch) as vCards",
		Args:  cobra.ExactArgs(1),
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

			params := phonebook.Params{Offset: offset, MaxCount: maxCount, Format: f, Filter: mask}
			buf := phonebook.NewBuffer()
			req, err := e.provider.Pull(ctx, objectName(args[0]), params, buf)
			if err != nil {
				return err
			}
			defer req.Finalize()

			if err := buf.Wait(ctx); err != nil {
				return err
			}
			contacts, newMissed := buf.Result()
			if maxCount == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), contacts)
			} else {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
			}
			if err != nil {
				return err
			}
			e.logger.Info("pull complete", "request_id", req.ID(), "contacts", contacts, "new_missed", newMissed)
			return nil
		},
	}
	cmd.Flags().Uint32Var(&offset, "offset", 0, "ListStartOffset: contacts to skip.")
	cmd.Flags().Uint32Var(&maxCount, "max-count", phonebook.DefaultMaxCount, "MaxListCount; 0 prints the phonebook size.")
	cmd.Flags().StringVar(&format, "format", "2.1", "vCard version: 2.1|3.0.")
	cmd.Flags().StringVar(&filter, "filter", "", "Attribute filter: hex mask or names (tel,email,...).")
	return cmd
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spachava753/pbap/phonebook"
	"github.com/spachava753/pbap/store/sqlstore"
)

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call",
		Short: "Manage call history",
	}
	cmd.AddCommand(newCallAddCmd())
	cmd.AddCommand(newCallMissedCmd())
	return cmd
}

func parseDirection(s string) (sent bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", "incoming":
		return false, nil
	case "out", "outgoing":
		return true, nil
	default:
		return false, fmt.Errorf("invalid direction %q (want in or out)", s)
	}
}

func newCallAddCmd() *cobra.Command {
	var (
		number    string
		direction string
		answered  bool
		read      bool
		at        string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a call in the sqlite store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sent, err := parseDirection(direction)
			if err != nil {
				return err
			}
			var when time.Time
			if at != "" {
				if when, err = time.Parse(time.RFC3339, at); err != nil {
					return fmt.Errorf("invalid --at %q: %w", at, err)
				}
			}

			ctx, cancel := requestContext(cmd.Context())
			defer cancel()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()
			s, err := e.requireSQLite("call add")
			if err != nil {
				return err
			}

			id, err := s.AddCall(ctx, sqlstore.Call{
				Number:   number,
				Date:     when,
				Sent:     sent,
				Answered: answered || sent,
				Read:     read,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}
	cmd.Flags().StringVar(&number, "number", "", "Peer phone number.")
	cmd.Flags().StringVar(&direction, "direction", "in", "Call direction: in|out.")
	cmd.Flags().BoolVar(&answered, "answered", false, "Incoming call was answered.")
	cmd.Flags().BoolVar(&read, "read", false, "Missed call was already seen.")
	cmd.Flags().StringVar(&at, "at", "", "Call time (RFC 3339); defaults to now.")
	_ = cmd.MarkFlagRequired("number")
	return cmd
}

func newCallMissedCmd() *cobra.Command {
	var markRead bool
	cmd := &cobra.Command{
		Use:   "missed",
		Short: "Report unseen missed calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd.Context())
			defer cancel()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			if e.opimd != nil {
				n, err := e.opimd.NewMissedCalls(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
				return err
			}
			buf := phonebook.NewBuffer()
			req, err := e.provider.Pull(ctx, phonebook.ObjectMissed, phonebook.Params{}, buf)
			if err != nil {
				return err
			}
			defer req.Finalize()
			if err := buf.Wait(ctx); err != nil {
				return err
			}
			_, newMissed := buf.Result()
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), newMissed); err != nil {
				return err
			}
			if !markRead {
				return nil
			}
			s, err := e.requireSQLite("--mark-read")
			if err != nil {
				return err
			}
			n, err := s.MarkMissedRead(ctx)
			if err != nil {
				return err
			}
			e.logger.Info("marked missed calls read", "calls", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&markRead, "mark-read", false, "Mark every missed call as read (sqlite backend).")
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/garyellow/degree-planner/internal/profile"
)

func newProfileCmd(opts *options) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update a user's profile",
	}
	cmd.PersistentFlags().StringVarP(&user, "user", "u", "", "User id")
	_ = cmd.MarkPersistentFlagRequired("user")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the profile (the empty default if none is stored)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkUser(user); err != nil {
				return err
			}
			e, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.profiles.Read(cmd.Context(), user)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "update <json|->",
		Short: "Apply an update mapping such as '{\"majors\": [\"...\"], \"courses_completed\": {\"add\": [\"COSC-1010\"]}}'",
		Long:  "Apply an update mapping atomically. Pass - to read the mapping from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkUser(user); err != nil {
				return err
			}
			body := []byte(args[0])
			if args[0] == "-" {
				var err error
				if body, err = io.ReadAll(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
			}
			var raw map[string]json.RawMessage
			if err := json.Unmarshal(body, &raw); err != nil {
				return fmt.Errorf("invalid update mapping: %w", err)
			}
			updates, err := profile.ParseUpdates(raw)
			if err != nil {
				return err
			}

			e, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := e.profiles.Update(cmd.Context(), user, updates)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), res.Message)
			return printJSON(cmd.OutOrStdout(), res.Profile)
		},
	})
	return cmd
}

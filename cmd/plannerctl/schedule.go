package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/garyellow/degree-planner/internal/schedule"
)

func newScheduleCmd(opts *options) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "View or edit a user's schedule",
	}
	cmd.PersistentFlags().StringVarP(&user, "user", "u", "", "User id")
	_ = cmd.MarkPersistentFlagRequired("user")

	// run opens the data directory, runs fn and prints its result.
	run := func(cmd *cobra.Command, fn func(e *env) (*schedule.Result, error)) error {
		if err := checkUser(user); err != nil {
			return err
		}
		e, err := opts.open(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := fn(e)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "view",
		Short: "List scheduled courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(e *env) (*schedule.Result, error) {
				return e.schedules.View(cmd.Context(), user)
			})
		},
	})

	var course schedule.ScheduledCourse
	var crn string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a course section if it does not conflict",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			course.CRN = schedule.CRN(strings.TrimSpace(crn))
			return run(cmd, func(e *env) (*schedule.Result, error) {
				return e.schedules.Add(cmd.Context(), user, course)
			})
		},
	}
	add.Flags().StringVar(&course.Title, "title", "", "Course title")
	add.Flags().StringVar(&crn, "crn", "", "Course reference number")
	add.Flags().StringVar(&course.Instructor, "instructor", "", "Instructor name")
	add.Flags().StringVar(&course.Schedule, "schedule", "", `Meeting time, e.g. "9:00AM - 10:15AM on Tuesday and Thursday"`)
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <crn>",
		Short: "Remove the course with the given CRN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(e *env) (*schedule.Result, error) {
				return e.schedules.Remove(cmd.Context(), user, schedule.CRN(args[0]))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every course",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(e *env) (*schedule.Result, error) {
				return e.schedules.Clear(cmd.Context(), user)
			})
		},
	})
	return cmd
}

package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newAskCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message...>",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(true)
			if err != nil {
				return err
			}
			defer rt.close()

			app, err := rt.newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			reply := app.Handle(cmd.Context(), "cli:"+uuid.NewString(), strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), reply)

			return nil
		},
	}
}

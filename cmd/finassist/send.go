package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loft/finassist/core"
	"github.com/loft/finassist/internal/whatsapp"
)

func newSendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send --to <number> <message...>",
		Short: "Send a WhatsApp message through Twilio",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, _ := cmd.Flags().GetString("to")

			rt, err := bootstrap(true)
			if err != nil {
				return err
			}
			defer rt.close()

			tw := rt.cfg.Twilio
			if !tw.CanSend() {
				return core.ConfigErrorf("send", "TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_WHATSAPP_NUMBER must be set")
			}

			sender, err := whatsapp.NewSender(tw.AccountSID, tw.AuthToken, tw.WhatsAppNumber, func(o *whatsapp.Options) {
				o.RatePerSecond = rt.cfg.RateLimit.OutboundPerSecond
				o.Logger = rt.logger
			})
			if err != nil {
				return err
			}

			sids, err := sender.Send(cmd.Context(), to, strings.Join(args, " "))
			if err != nil {
				return err
			}

			for _, sid := range sids {
				fmt.Fprintln(cmd.OutOrStdout(), sid)
			}
			return nil
		},
	}

	cmd.Flags().String("to", "", "Recipient number in E.164 format, e.g. +5511912345678")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const (
	chatBanner   = "Bem-vindo ao chatbot de financiamento imobiliário da Loft!\nDigite 'sair' para encerrar a conversa.\n-------------------------------------------------\n"
	chatPrompt   = "\nVocê: "
	chatGoodbye  = "Obrigado por usar nosso chatbot. Até logo!"
	chatQuitWord = "sair"
)

type handleFunc func(ctx context.Context, identity, text string) string

func newChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runChat,
	}
}

func runChat(cmd *cobra.Command, _ []string) error {
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

	return chat(cmd.Context(), os.Stdin, cmd.OutOrStdout(), app.Handle)
}

// chat runs the interactive loop until "sair" or end of input. The whole
// session shares one identity, so the conversation keeps its context.
func chat(ctx context.Context, in io.Reader, out io.Writer, handle handleFunc) error {
	identity := "cli:" + uuid.NewString()
	scanner := bufio.NewScanner(in)

	fmt.Fprint(out, chatBanner)

	for {
		fmt.Fprint(out, chatPrompt)

		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		text := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(text, chatQuitWord) {
			fmt.Fprintln(out, chatGoodbye)
			return nil
		}

		fmt.Fprintf(out, "\nAgente: %s\n", handle(ctx, identity, text))
	}
}

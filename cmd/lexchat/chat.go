package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/mbenaiss/lexchat/chat"
	"github.com/mbenaiss/lexchat/models"
	"github.com/mbenaiss/lexchat/transport"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const chatHelp = `Commands: /pay to request a session, /wallet to refresh the balance, /status, /quit`

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <counterparty-id>",
		Short: "Open an interactive chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.identity()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(runContext(cmd), os.Interrupt)
			defer stop()

			counterparty := models.Counterparty{ID: args[0]}
			price := a.cfg.ConsultationPrice
			if !id.IsLawyer() {
				if lawyers, err := a.client.ListLawyers(ctx); err == nil {
					for _, l := range lawyers {
						if l.ID == args[0] {
							counterparty = l.Counterparty()
							if l.Price > 0 {
								price = l.Price
							}
						}
					}
				}
			}

			out := cmd.OutOrStdout()
			var outMu sync.Mutex
			printf := func(format string, v ...any) {
				outMu.Lock()
				defer outMu.Unlock()
				fmt.Fprintf(out, format, v...)
			}

			binding := transport.NewWebsocketBinding(a.cfg.SocketURL, transport.DefaultOptions(), a.logger)
			ctrl, err := chat.New(a.client, binding, id, counterparty, price,
				chat.WithLogger(a.logger),
				chat.WithNoticeHandler(func(n chat.Notice) {
					printf("! %s\n", n.Text)
				}),
			)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			if err := ctrl.Open(ctx); err != nil {
				return err
			}
			printf("%s\n%s\n", describe(ctrl.State()), chatHelp)

			eg, egCtx := errgroup.WithContext(ctx)
			lines := make(chan string)
			go readLines(egCtx, cmd.InOrStdin(), lines)

			eg.Go(func() error {
				return printLog(egCtx, ctrl, printf)
			})
			eg.Go(func() error {
				for {
					select {
					case <-egCtx.Done():
						return nil
					case line, ok := <-lines:
						if !ok {
							return context.Canceled
						}
						quit, err := handleLine(egCtx, ctrl, line, printf)
						if err != nil {
							a.logger.Debug().Err(err).Msg("command failed")
						}
						if quit {
							return context.Canceled
						}
					}
				}
			})

			if err := eg.Wait(); err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}
}

func handleLine(ctx context.Context, ctrl *chat.Controller, line string, printf func(string, ...any)) (bool, error) {
	switch strings.TrimSpace(line) {
	case "/quit", "/exit":
		return true, nil
	case "/status":
		printf("%s\n", describe(ctrl.State()))
		return false, nil
	case "/wallet":
		wallet, err := ctrl.RefreshWallet(ctx)
		if err == nil {
			printf("Balance: %.0f\n", wallet.Balance)
		}
		return false, err
	case "/pay":
		booking, err := ctrl.RequestSession(ctx)
		if err != nil {
			if errors.Is(err, chat.ErrSessionInProgress) || errors.Is(err, chat.ErrNotClient) {
				printf("! %s\n", err)
			}
			return false, err
		}
		printf("Paid %.0f, waiting for %s to accept (booking %s)\n", booking.Price, ctrl.Counterparty().Name, booking.ID)
		return false, nil
	}
	return false, ctrl.Send(ctx, line)
}

// printLog prints new log entries as they are appended
func printLog(ctx context.Context, ctrl *chat.Controller, printf func(string, ...any)) error {
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	printed := 0
	for {
		msgs := ctrl.Messages()
		for _, m := range msgs[printed:] {
			printf("%s\n", formatMessage(m, ctrl.Counterparty()))
		}
		printed = len(msgs)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// readLines forwards stdin lines until EOF or until ctx is done
func readLines(ctx context.Context, in io.Reader, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
}

func formatMessage(m models.Message, cp models.Counterparty) string {
	ts := m.Timestamp.Local().Format("15:04")
	switch m.Sender {
	case models.SenderSelf:
		return fmt.Sprintf("[%s] you: %s", ts, m.Text)
	case models.SenderSystem:
		return fmt.Sprintf("[%s] -- %s", ts, m.Text)
	}
	name := cp.Name
	if name == "" {
		name = cp.ID
	}
	return fmt.Sprintf("[%s] %s: %s", ts, name, m.Text)
}

func describe(st chat.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chat with %s: %s", st.Session.Counterparty.ID, st.Session.Status)
	if st.BalanceKnown {
		fmt.Fprintf(&b, ", balance %.0f", st.Balance)
	}
	switch {
	case st.CanSend:
		b.WriteString(", you can chat now")
	case st.CanRequest:
		fmt.Fprintf(&b, ", /pay %.0f to request a session", st.Session.Price)
	case st.Session.Status == models.StatusPending:
		b.WriteString(", waiting for acceptance")
	}
	return b.String()
}

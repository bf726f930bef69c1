package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"webchat/apperrors"
	"webchat/services/chat"
	"webchat/services/history"
	"webchat/services/render"
	"webchat/services/transport"

	"github.com/spf13/cobra"
)

// lineTarget prints fragments as plain text lines
type lineTarget struct {
	mu sync.Mutex
	w  io.Writer
}

func (t *lineTarget) Append(f render.Fragment) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, f.Text())
}

func runTail(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	socketURL, err := cfg.SocketURL()
	if err != nil {
		return err
	}

	session := chat.Session{UserID: chat.ID(flagUser)}
	kind := chat.KindPrivate
	if flagGroup {
		kind = chat.KindGroup
	}

	state := chat.NewState()
	users := chat.NewUserMap()
	out := &lineTarget{w: cmd.OutOrStdout()}
	router := chat.NewRouter(session, state, users, render.NewRenderer(out))
	state.Select(chat.ID(flagWith), kind, chat.ID(flagWith).String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := history.New(cfg.Backend.BaseURL, cfg.Backend.RequestTimeout)
	if kind == chat.KindPrivate {
		if list, err := api.Users(ctx); err == nil {
			for _, u := range list {
				users.Put(u.UserID, u.Username)
			}
		}
	}

	msgs, err := api.Messages(ctx, history.MessagesRequest{
		UserID:   session.UserID,
		ChatID:   chat.ID(flagWith),
		Type:     kind,
		Page:     1,
		PageSize: cfg.Backend.PageSize,
	})
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		out.Append(render.Build(chat.Normalize(msgs[i], session, users), kind))
	}

	exhausted := make(chan *apperrors.AppError, 1)
	socket := newSocket(cfg, socketURL, session.UserID, transport.Handlers{
		OnEvent: func(ev chat.Event) { router.Dispatch(ev) },
		OnExhausted: func(notice *apperrors.AppError) {
			exhausted <- notice
		},
	})
	socket.Connect()

	var result error
	select {
	case <-ctx.Done():
	case notice := <-exhausted:
		result = notice
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	socket.Close(closeCtx)
	return result
}

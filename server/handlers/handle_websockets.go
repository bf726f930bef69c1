package handlers

import (
	"time"

	"webchat/pkg/logger"
	"webchat/pkg/metrics"
	"webchat/server/middleware/auth"
	"webchat/services/chat"
	"webchat/services/client"
	"webchat/services/render"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const (
	viewWriteWait    = 10 * time.Second
	viewPingPeriod   = 30 * time.Second
	viewNoticePeriod = 2 * time.Second
)

// FragmentRenderer renders a named template to a single line of HTML
type FragmentRenderer interface {
	RenderToSingleLine(name string, binding any) (string, error)
}

// HandleViewUpgrade lets only websocket upgrades through to HandleView
func HandleViewUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// HandleView streams the user's pane updates to the page as JSON
// {op, html} frames, plus the blocking notice once the backend socket
// gives up.
func HandleView(mgr *client.Manager, fragments FragmentRenderer) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals(auth.LocalUserID).(chat.ID)
		log := logger.WithComponent("view").WithUserID(int64(userID))

		cl, ok := mgr.Lookup(userID)
		if !ok {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "no chat client"))
			return
		}

		snapshot, updates, unsubscribe := cl.Pane().Subscribe()
		defer unsubscribe()

		// the page was drawn before this socket opened; resync it
		conn.SetWriteDeadline(time.Now().Add(viewWriteWait))
		if err := conn.WriteJSON(render.Update{Op: render.OpReplace, HTML: snapshot}); err != nil {
			log.WithError(err).Debug("View socket write failed")
			return
		}

		metrics.IncrementViewSubscribers()
		defer metrics.DecrementViewSubscribers()

		// the page never sends anything; reading only detects the close
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
						log.WithError(err).Warn("View socket read error")
					}
					return
				}
			}
		}()

		ping := time.NewTicker(viewPingPeriod)
		defer ping.Stop()
		noticeTick := time.NewTicker(viewNoticePeriod)
		defer noticeTick.Stop()

		lastNotice := ""
		for {
			select {
			case u, ok := <-updates:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(viewWriteWait))
				if err := conn.WriteJSON(u); err != nil {
					log.WithError(err).Debug("View socket write failed")
					return
				}

			case <-noticeTick.C:
				notice := cl.Board().Notice()
				if notice == "" || notice == lastNotice {
					continue
				}
				html, err := fragments.RenderToSingleLine("partials/notice", fiber.Map{"Notice": notice})
				if err != nil {
					log.WithError(err).Error("Failed to render notice")
					continue
				}
				lastNotice = notice
				conn.SetWriteDeadline(time.Now().Add(viewWriteWait))
				if err := conn.WriteJSON(render.Update{Op: render.OpNotice, HTML: html}); err != nil {
					return
				}

			case <-ping.C:
				conn.SetWriteDeadline(time.Now().Add(viewWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}

			case <-closed:
				log.Debug("View socket closed")
				return
			}
		}
	})
}

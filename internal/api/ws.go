package api

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/adminkit/toggle/internal/auth"
	"github.com/adminkit/toggle/internal/middleware"
	"github.com/adminkit/toggle/internal/ws"
)

// wsDeps holds what the websocket endpoint needs.
type wsDeps struct {
	log         *logrus.Logger
	hub         *ws.Hub
	resources   ResourceRepository
	guards      []auth.Guard
	allowed     []string
	corsOrigins []string
}

// revalidator re-runs the guard that admitted the connection against the
// credential it presented.
func revalidator(guards []auth.Guard, guardName string, r *http.Request) ws.Revalidator {
	for _, g := range guards {
		if g.Name() != guardName {
			continue
		}

		cred := g.Credential(r)
		if cred == "" {
			return nil
		}

		return func(ctx context.Context) error {
			_, err := g.Authenticate(ctx, cred)
			return err
		}
	}

	return nil
}

// wsHandler handles GET /api/v1/ws?resource=<key>.
func wsHandler(appCtx context.Context, d wsDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.AuthContext(c).SatisfiesAny(d.allowed)
		if !ok {
			respondError(c, http.StatusForbidden, ErrCodeUnauthorized, MsgUnauthorized)
			return
		}

		resource := c.Query("resource")
		if _, ok := d.resources.Resource(resource); !ok {
			respondError(c, http.StatusNotFound, ErrCodeResourceNotFound, MsgResourceNotFound)
			return
		}

		// CORS origins are reused as WebSocket origin patterns. The config
		// validator ensures these are safe host patterns (no wildcards etc.).
		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			OriginPatterns:       d.corsOrigins,
			CompressionMode:      websocket.CompressionContextTakeover,
			CompressionThreshold: 128,
		})
		if err != nil {
			d.log.WithError(err).Error("websocket accept failed")
			return
		}

		client := ws.NewClient(d.hub, conn, resource, actor.ID, revalidator(d.guards, actor.Guard, c.Request))
		d.hub.Register(client)

		// Derive a context that cancels when either the server shuts down or the request ends.
		wsCtx, wsCancel := context.WithCancel(appCtx)
		go func() {
			select {
			case <-c.Request.Context().Done():
				wsCancel()
			case <-wsCtx.Done():
			}
		}()

		go client.WritePump(wsCtx)
		client.ReadPump(wsCtx)
		wsCancel()
	}
}

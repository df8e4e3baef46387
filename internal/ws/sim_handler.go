package ws

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/geo/r2"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/collisionlab/internal/auth"
	"github.com/playmatatu/collisionlab/internal/config"
	"github.com/playmatatu/collisionlab/internal/physics"
	"github.com/playmatatu/collisionlab/internal/sim"
)

// Command payloads
type StepData struct {
	DT float64 `json:"dt"`
}

type DragData struct {
	Ball    physics.BallID `json:"ball"`
	X       float64        `json:"x"`
	Y       float64        `json:"y"`
	Release bool           `json:"release"`
}

type BallData struct {
	Ball     physics.BallID `json:"ball"`
	Mass     *float64       `json:"mass"`
	Velocity *r2.Point      `json:"velocity"`
}

func newClientID() string {
	b := make([]byte, 6)
	rand.Read(b)
	return "v_" + hex.EncodeToString(b)
}

// HandleWebSocket upgrades a viewer of one simulation. A valid token in the
// query makes the viewer a controller; without one it is read-only.
func HandleWebSocket(mgr *sim.Manager, hub *Hub, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		simID := c.Param("id")
		s, err := mgr.Get(simID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "simulation not found"})
			return
		}

		format := c.DefaultQuery("format", FormatJSON)
		if format != FormatJSON && format != FormatMsgpack {
			c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json or msgpack"})
			return
		}

		controller := false
		if token := c.Query("token"); token != "" {
			claims, err := auth.Parse(cfg, token)
			if err != nil || !claims.Authorizes(simID) {
				c.JSON(http.StatusForbidden, gin.H{"error": "invalid simulation token"})
				return
			}
			controller = true
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := &Client{
			conn:       conn,
			id:         newClientID(),
			simID:      simID,
			format:     format,
			controller: controller,
			send:       make(chan []byte, 256),
		}
		if !hub.join(client) {
			conn.Close()
			return
		}
		client.deliver(s.Snapshot())

		go client.writePump()
		go client.readPump(mgr, hub)
	}
}

// readPump reads commands until the connection drops.
func (c *Client) readPump(mgr *sim.Manager, hub *Hub) {
	defer func() {
		hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] Unexpected close for viewer %s: %v", c.id, err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("Invalid message")
			continue
		}
		c.handleMessage(mgr, msg)
	}
}

// handleMessage applies one command to the viewer's simulation.
func (c *Client) handleMessage(mgr *sim.Manager, msg Message) {
	s, err := mgr.Get(c.simID)
	if err != nil {
		c.sendError("Simulation not found")
		return
	}

	if msg.Type == "get_state" {
		c.deliver(s.Snapshot())
		return
	}
	if !c.controller {
		c.sendError("Read-only viewer")
		return
	}

	switch msg.Type {
	case "play":
		s.Play()
	case "pause":
		s.Pause()
	case "restart":
		s.Restart()
	case "reset":
		err = s.Reset()
	case "step":
		var data StepData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid step data")
			return
		}
		err = s.StepOnce(data.DT)
	case "drag":
		var data DragData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid drag data")
			return
		}
		err = s.DragBall(data.Ball, r2.Point{X: data.X, Y: data.Y}, data.Release)
	case "set_ball":
		var data BallData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid ball data")
			return
		}
		err = applyBall(s, data)
	case "configure":
		var data sim.AreaSettings
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid settings")
			return
		}
		err = s.Configure(data)
	default:
		c.sendError("Unknown message type")
		return
	}

	if err != nil {
		c.sendError(err.Error())
		return
	}
	mgr.Publish(s)
}

func applyBall(s *sim.Simulation, data BallData) error {
	if data.Mass == nil && data.Velocity == nil {
		return errors.New("mass or velocity required")
	}
	if data.Mass != nil {
		if err := s.SetBallMass(data.Ball, *data.Mass); err != nil {
			return err
		}
	}
	if data.Velocity != nil {
		return s.SetBallVelocity(data.Ball, *data.Velocity)
	}
	return nil
}

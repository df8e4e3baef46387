package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/playmatatu/collisionlab/internal/sim"
	"github.com/redis/go-redis/v9"
)

// StartEventSubscriber relays snapshots published on sim.EventsChannel, by
// this or any other instance, to local viewers. It returns once subscribed.
func StartEventSubscriber(ctx context.Context, rdb *redis.Client, hub *Hub) {
	if rdb == nil {
		log.Println("[WS] Redis client not set; event subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, sim.EventsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[WS] %s subscriber started", sim.EventsChannel)
		for {
			select {
			case <-ctx.Done():
				log.Printf("[WS] %s subscriber stopping", sim.EventsChannel)
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				relay(hub, []byte(msg.Payload))
			}
		}
	}()
}

func relay(hub *Hub, payload []byte) {
	var u sim.Update
	if err := json.Unmarshal(payload, &u); err != nil {
		log.Printf("[WS] invalid event payload: %v", err)
		return
	}
	if u.SimID == "" {
		log.Printf("[WS] event without sim_id dropped (type=%s)", u.Type)
		return
	}
	if hub.RoomSize(u.SimID) == 0 {
		return
	}
	hub.BroadcastToSim(u)
}

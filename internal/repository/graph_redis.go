package repository

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-sync/internal/graph"
)

// mergeScript - stores ARGV[4] under field ARGV[1] unless the stored node wins, then publishes it.
// Both happen inside one script so a published node is always readable.
var mergeScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], ARGV[1])
if current then
	local node = cjson.decode(current)
	local state = tonumber(ARGV[2])
	if node.state > state or (node.state == state and node.writer >= ARGV[3]) then
		return 0
	end
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[4])
redis.call('PUBLISH', KEYS[2], ARGV[4])
return 1
`)

type redisGraph struct {
	logger *slog.Logger
	client *redis.Client
}

// NewRedisGraph - graph.Backend sharing souls between every process connected to the same Redis.
func NewRedisGraph(logger *slog.Logger, client *redis.Client) graph.Backend {
	return &redisGraph{
		logger: logger.With("component", "redisGraph"),
		client: client,
	}
}

func soulKey(soul string) string {
	return "graph:" + soul
}

func soulChannel(soul string) string {
	return "graph:changes:" + soul
}

func (that *redisGraph) Merge(ctx context.Context, soul string, node graph.Node) (bool, error) {
	nodeJSON, err := json.Marshal(node)
	if err != nil {
		return false, fmt.Errorf("failed to marshal node: %w", err)
	}

	applied, err := mergeScript.Run(ctx, that.client,
		[]string{soulKey(soul), soulChannel(soul)},
		node.Key, node.State, node.Writer, nodeJSON,
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to merge node: %w", err)
	}

	return applied == 1, nil
}

func (that *redisGraph) Get(ctx context.Context, soul, key string) (graph.Node, bool, error) {
	response, err := that.client.HGet(ctx, soulKey(soul), key).Result()
	if errors.Is(err, redis.Nil) {
		return graph.Node{}, false, nil
	}

	if err != nil {
		return graph.Node{}, false, fmt.Errorf("failed to get node: %w", err)
	}

	var node graph.Node
	if err = json.Unmarshal([]byte(response), &node); err != nil {
		return graph.Node{}, false, fmt.Errorf("failed to unmarshal node: %w", err)
	}

	return node, true, nil
}

func (that *redisGraph) Snapshot(ctx context.Context, soul string) ([]graph.Node, error) {
	response, err := that.client.HGetAll(ctx, soulKey(soul)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get soul: %w", err)
	}

	nodes := make([]graph.Node, 0, len(response))
	for key, value := range response {
		var node graph.Node
		if err = json.Unmarshal([]byte(value), &node); err != nil {
			return nil, fmt.Errorf("failed to unmarshal node %s: %w", key, err)
		}
		nodes = append(nodes, node)
	}

	slices.SortFunc(nodes, func(a, b graph.Node) int {
		return cmp.Compare(a.Key, b.Key)
	})

	return nodes, nil
}

func (that *redisGraph) Subscribe(ctx context.Context, soul string, fn func(graph.Node)) error {
	log := that.logger.With("method", "Subscribe", "soul", soul)

	pubsub := that.client.Subscribe(ctx, soulChannel(soul))

	// wait for the subscription to be confirmed, otherwise early publishes are lost
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	messages := pubsub.Channel()

	go func() {
		defer func() {
			if err := pubsub.Close(); err != nil {
				log.Error("failed to close subscription", "error", err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				var node graph.Node
				if err := json.Unmarshal([]byte(msg.Payload), &node); err != nil {
					log.Error("failed to unmarshal node", "error", err)
					continue
				}

				fn(node)
			}
		}
	}()

	return nil
}

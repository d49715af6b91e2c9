package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// paintScript applies one paint atomically.
//
// KEYS: meta, pixels, contributors, coin owners, payer coins
// ARGV: index, coin id, payer, pixel JSON, events channel, event JSON
var paintScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return redis.error_reply('CANVAS_NOT_FOUND')
end
local meta = redis.call('HMGET', KEYS[1], 'size', 'pixel_price', 'is_completed')
local size = tonumber(meta[1])
local price = tonumber(meta[2]) or 0
if meta[3] == 'true' then
	return redis.error_reply('CANVAS_COMPLETED')
end
local index = tonumber(ARGV[1])
if index == nil or index < 0 or index >= size * size then
	return redis.error_reply('OUT_OF_RANGE')
end
if redis.call('HEXISTS', KEYS[2], ARGV[1]) == 1 then
	return redis.error_reply('CELL_OWNED')
end
if redis.call('HGET', KEYS[4], ARGV[2]) ~= ARGV[3] then
	return redis.error_reply('COIN_NOT_FOUND')
end
local balance = tonumber(redis.call('HGET', KEYS[5], ARGV[2]) or '0')
if balance < price then
	return redis.error_reply('INSUFFICIENT_FUNDS')
end
if price > 0 then
	redis.call('HINCRBY', KEYS[5], ARGV[2], '-' .. meta[2])
end
redis.call('HSET', KEYS[2], ARGV[1], ARGV[4])
redis.call('HINCRBY', KEYS[3], ARGV[3], 1)
local total = redis.call('HINCRBY', KEYS[1], 'total_painted', 1)
if total >= size * size then
	redis.call('HSET', KEYS[1], 'is_completed', 'true')
end
redis.call('PUBLISH', ARGV[5], ARGV[6])
return total
`)

// Option configures a Client.
type Option func(*Client)

// WithClock overrides the time source used for paint timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// Client provides ledger operations on Redis.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb *redis.Client
	now func() time.Time
}

// NewClient creates a new ledger client.
func NewClient(redisOpts *redis.Options, opts ...Option) *Client {
	c := &Client{
		rdb: redis.NewClient(redisOpts),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromURL creates a client from a redis:// URL.
func NewClientFromURL(url string, opts ...Option) (*Client, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return NewClient(redisOpts, opts...), nil
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// CreateCanvas creates an empty size×size canvas where each cell costs
// pixelPrice, and returns its id.
func (c *Client) CreateCanvas(ctx context.Context, size int, pixelPrice int64) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("canvas size must be positive, got %d", size)
	}
	if pixelPrice < 0 {
		return "", fmt.Errorf("pixel price cannot be negative, got %d", pixelPrice)
	}

	id := uuid.New().String()
	meta := map[string]interface{}{
		"size":          size,
		"pixel_price":   pixelPrice,
		"total_painted": 0,
		"is_completed":  "false",
		"created_at_ms": c.now().UnixMilli(),
	}
	if err := c.rdb.HSet(ctx, MetaKey(id), meta).Err(); err != nil {
		return "", fmt.Errorf("failed to write canvas to Redis: %w", err)
	}
	return id, nil
}

// GetCanvas returns a canvas's metadata, or ErrCanvasNotFound.
func (c *Client) GetCanvas(ctx context.Context, canvasID string) (*CanvasInfo, error) {
	hashData, err := c.rdb.HGetAll(ctx, MetaKey(canvasID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read canvas from Redis: %w", err)
	}
	if len(hashData) == 0 {
		return nil, ErrCanvasNotFound
	}
	return hashToCanvasInfo(canvasID, hashData)
}

// Mint creates a new coin worth amount for identity and returns its id.
// This is the development faucet; there is no supply limit.
func (c *Client) Mint(ctx context.Context, identity string, amount int64) (string, error) {
	if identity == "" {
		return "", fmt.Errorf("identity cannot be empty")
	}
	if amount <= 0 {
		return "", fmt.Errorf("mint amount must be positive, got %d", amount)
	}

	coinID := uuid.New().String()
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, CoinsKey(identity), coinID, amount)
		pipe.HSet(ctx, CoinOwnersKey(), coinID, identity)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to mint coin: %w", err)
	}
	return coinID, nil
}

// Coins returns identity's coin balances keyed by coin id.
func (c *Client) Coins(ctx context.Context, identity string) (map[string]int64, error) {
	raw, err := c.rdb.HGetAll(ctx, CoinsKey(identity)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read coins from Redis: %w", err)
	}
	coins := make(map[string]int64, len(raw))
	for coinID, v := range raw {
		balance, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("coin %s has invalid balance %q: %w", coinID, v, err)
		}
		coins[coinID] = balance
	}
	return coins, nil
}

// Balance returns the total balance across identity's coins.
func (c *Client) Balance(ctx context.Context, identity string) (int64, error) {
	coins, err := c.Coins(ctx, identity)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, balance := range coins {
		total += balance
	}
	return total, nil
}

// SelectFundingHandle returns the first of identity's coins, ordered by id,
// with a positive balance. Returns ErrNoFunds when there is none.
func (c *Client) SelectFundingHandle(ctx context.Context, identity string) (string, error) {
	coins, err := c.Coins(ctx, identity)
	if err != nil {
		return "", err
	}

	ids := make([]string, 0, len(coins))
	for coinID := range coins {
		ids = append(ids, coinID)
	}
	sort.Strings(ids)

	for _, coinID := range ids {
		if coins[coinID] > 0 {
			return coinID, nil
		}
	}
	return "", ErrNoFunds
}

// SubmitPaint paints one cell of a canvas, paid with coinID. The coin's
// owner becomes the cell's owner. Rejections are reported as ledger
// sentinels; nothing is written when the paint is rejected.
func (c *Client) SubmitPaint(ctx context.Context, canvasID string, index int, color uint32, coinID string) error {
	if color > 0xFFFFFF {
		return fmt.Errorf("color %#x is wider than 24 bits", color)
	}

	owner, err := c.rdb.HGet(ctx, CoinOwnersKey(), coinID).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCoinNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up coin owner: %w", err)
	}

	ts := c.now().UnixMilli()
	pixelJSON, err := json.Marshal(Pixel{Color: color, Owner: owner, Timestamp: ts})
	if err != nil {
		return fmt.Errorf("failed to marshal pixel: %w", err)
	}
	eventJSON, err := json.Marshal(PaintEvent{
		CanvasID:  canvasID,
		Index:     index,
		Color:     color,
		Owner:     owner,
		Timestamp: ts,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal paint event: %w", err)
	}

	keys := []string{
		MetaKey(canvasID),
		PixelsKey(canvasID),
		ContributorsKey(canvasID),
		CoinOwnersKey(),
		CoinsKey(owner),
	}
	args := []interface{}{
		strconv.Itoa(index),
		coinID,
		owner,
		string(pixelJSON),
		PaintEventsChannel(canvasID),
		string(eventJSON),
	}
	if err := paintScript.Run(ctx, c.rdb, keys, args...).Err(); err != nil {
		return scriptError(err)
	}
	return nil
}

// Pixels returns the painted cells of a canvas keyed by index. Stored
// values that cannot be parsed are returned in the second map untouched.
func (c *Client) Pixels(ctx context.Context, canvasID string) (map[int]Pixel, map[string]string, error) {
	raw, err := c.rdb.HGetAll(ctx, PixelsKey(canvasID)).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read pixels from Redis: %w", err)
	}

	pixels := make(map[int]Pixel, len(raw))
	var corrupt map[string]string
	for key, value := range raw {
		index, errIndex := strconv.Atoi(key)
		var p Pixel
		if errIndex != nil || json.Unmarshal([]byte(value), &p) != nil {
			if corrupt == nil {
				corrupt = make(map[string]string)
			}
			corrupt[key] = value
			continue
		}
		pixels[index] = p
	}
	return pixels, corrupt, nil
}

// Contributors returns each identity's painted cell count on a canvas.
func (c *Client) Contributors(ctx context.Context, canvasID string) (map[string]int, error) {
	raw, err := c.rdb.HGetAll(ctx, ContributorsKey(canvasID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read contributors from Redis: %w", err)
	}
	counts := make(map[string]int, len(raw))
	for identity, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("contributor %s has invalid count %q: %w", identity, v, err)
		}
		counts[identity] = n
	}
	return counts, nil
}

func hashToCanvasInfo(canvasID string, hash map[string]string) (*CanvasInfo, error) {
	info := &CanvasInfo{ID: canvasID}
	var err error

	if info.Size, err = strconv.Atoi(hash["size"]); err != nil {
		return nil, fmt.Errorf("invalid canvas size %q: %w", hash["size"], err)
	}
	if info.PixelPrice, err = strconv.ParseInt(hash["pixel_price"], 10, 64); err != nil {
		return nil, fmt.Errorf("invalid pixel price %q: %w", hash["pixel_price"], err)
	}
	if info.TotalPainted, err = strconv.Atoi(hash["total_painted"]); err != nil {
		return nil, fmt.Errorf("invalid total painted %q: %w", hash["total_painted"], err)
	}
	if v, ok := hash["created_at_ms"]; ok {
		if info.CreatedAtMs, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid created_at_ms %q: %w", v, err)
		}
	}
	info.IsCompleted = hash["is_completed"] == "true"

	return info, nil
}

// FindCanvases returns the ids of every canvas whose id starts with prefix,
// sorted. Uses SCAN so large servers are not blocked.
func (c *Client) FindCanvases(ctx context.Context, prefix string) ([]string, error) {
	iter := c.rdb.Scan(ctx, 0, MetaKey(prefix+"*"), 0).Iterator()

	var ids []string
	for iter.Next(ctx) {
		key := iter.Val()
		id := strings.TrimSuffix(strings.TrimPrefix(key, "daub:"), ":meta")
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		ids = append(ids, id)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan canvases: %w", err)
	}

	sort.Strings(ids)
	return ids, nil
}

package geo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/trip-sharing/internal/models"
)

// RedisGeo implements Geo using Redis GEO commands. Trip start points
// live in a geo set keyed by trip ID; the rest of the trip summary
// lives in a per-trip metadata hash maintained by the indexer.
type RedisGeo struct {
	client *redis.Client
	key    string
}

func NewRedisGeo(addr, password, key string) *RedisGeo {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisGeo{client: c, key: key}
}

// NewRedisGeoWithClient wraps an existing client, used by the indexer.
func NewRedisGeoWithClient(c *redis.Client, key string) *RedisGeo {
	return &RedisGeo{client: c, key: key}
}

func (r *RedisGeo) Upsert(ctx context.Context, tp models.TripPoint) error {
	if _, err := r.client.GeoAdd(ctx, r.key, &redis.GeoLocation{
		Longitude: tp.StartPoint.Lon,
		Latitude:  tp.StartPoint.Lat,
		Name:      tp.TripID,
	}).Result(); err != nil {
		return err
	}
	return r.client.HSet(ctx, metaKey(tp.TripID), map[string]interface{}{
		"owner_id":    tp.OwnerID,
		"status":      string(tp.Status),
		"end_lat":     fmt.Sprintf("%f", tp.EndPoint.Lat),
		"end_lon":     fmt.Sprintf("%f", tp.EndPoint.Lon),
		"start_label": tp.StartLabel,
		"end_label":   tp.EndLabel,
		"created_at":  tp.CreatedAt.Format(time.RFC3339),
		"departure":   tp.DepartureTime.Format(time.RFC3339),
	}).Err()
}

func (r *RedisGeo) Remove(ctx context.Context, tripID string) error {
	if err := r.client.ZRem(ctx, r.key, tripID).Err(); err != nil {
		return err
	}
	return r.client.Del(ctx, metaKey(tripID)).Err()
}

func (r *RedisGeo) Nearby(ctx context.Context, center models.Coord, radiusKm float64, limit int) ([]models.TripPoint, error) {
	res, err := r.client.GeoSearchLocation(ctx, r.key, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  center.Lon,
			Latitude:   center.Lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
			Count:      limit,
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	out := make([]models.TripPoint, 0, len(res))
	for _, g := range res {
		tp := models.TripPoint{
			TripID:     g.Name,
			StartPoint: models.Coord{Lat: g.Latitude, Lon: g.Longitude},
			DistanceKm: g.Dist,
		}
		m, err := r.client.HGetAll(ctx, metaKey(g.Name)).Result()
		if err != nil || len(m) == 0 {
			// geo entry without metadata is a stale index artifact
			continue
		}
		tp.OwnerID = m["owner_id"]
		tp.Status = models.TripStatus(m["status"])
		tp.StartLabel = m["start_label"]
		tp.EndLabel = m["end_label"]
		if v, err := strconv.ParseFloat(m["end_lat"], 64); err == nil {
			tp.EndPoint.Lat = v
		}
		if v, err := strconv.ParseFloat(m["end_lon"], 64); err == nil {
			tp.EndPoint.Lon = v
		}
		if t, err := time.Parse(time.RFC3339, m["created_at"]); err == nil {
			tp.CreatedAt = t
		}
		if t, err := time.Parse(time.RFC3339, m["departure"]); err == nil {
			tp.DepartureTime = t
		}
		out = append(out, tp)
	}
	return out, nil
}

func metaKey(id string) string { return "trip:meta:" + id }

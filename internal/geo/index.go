// Package geo maintains the discovery index of open tasks in Redis.
package geo

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const openTasksKey = "tasks:geo:open"

// Hit is one indexed task ordered by distance from the query point.
type Hit struct {
	ID        string
	DistanceM float64
}

// Index stores open-task coordinates and answers radius queries, nearest
// first. Unlike the cache wrapper, Index surfaces Redis errors: a silently
// empty discovery result would be indistinguishable from "nothing nearby",
// so the caller decides how to degrade.
type Index struct {
	client *redis.Client
}

// NewIndex builds a geo index on an existing Redis connection.
func NewIndex(client *redis.Client) *Index {
	return &Index{client: client}
}

// Add upserts a task's position in the open-task set.
func (ix *Index) Add(ctx context.Context, id string, lat, lng float64) error {
	if ix == nil || ix.client == nil {
		return fmt.Errorf("geo index unavailable")
	}
	err := ix.client.GeoAdd(ctx, openTasksKey, &redis.GeoLocation{
		Name:      id,
		Latitude:  lat,
		Longitude: lng,
	}).Err()
	if err != nil {
		return fmt.Errorf("geo add %s: %w", id, err)
	}
	return nil
}

// Remove drops a task from the open-task set. Removing an absent member is
// not an error; every transition out of open calls this unconditionally.
func (ix *Index) Remove(ctx context.Context, id string) error {
	if ix == nil || ix.client == nil {
		return fmt.Errorf("geo index unavailable")
	}
	if err := ix.client.ZRem(ctx, openTasksKey, id).Err(); err != nil {
		return fmt.Errorf("geo remove %s: %w", id, err)
	}
	return nil
}

// SearchKM returns the indexed tasks within radiusKM of the point, ordered by
// increasing distance. The radius is converted to meters before the query;
// distances come back in meters.
func (ix *Index) SearchKM(ctx context.Context, lat, lng, radiusKM float64) ([]Hit, error) {
	if ix == nil || ix.client == nil {
		return nil, fmt.Errorf("geo index unavailable")
	}
	locations, err := ix.client.GeoSearchLocation(ctx, openTasksKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Latitude:   lat,
			Longitude:  lng,
			Radius:     radiusKM * 1000,
			RadiusUnit: "m",
			Sort:       "ASC",
		},
		WithDist: true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("geo search: %w", err)
	}

	hits := make([]Hit, 0, len(locations))
	for _, loc := range locations {
		hits = append(hits, Hit{ID: loc.Name, DistanceM: loc.Dist})
	}
	return hits, nil
}

package bdd

import (
	"testing"

	"github.com/chirino/media-tracker/internal/config"
	"github.com/chirino/media-tracker/internal/testutil/testmongo"
	"github.com/chirino/media-tracker/internal/testutil/testredis"

	_ "github.com/chirino/media-tracker/internal/plugin/cache/redis"
	_ "github.com/chirino/media-tracker/internal/plugin/store/mongo"
)

func TestFeaturesMongo(t *testing.T) {
	mongoURL := testmongo.StartMongo(t)
	redis := testredis.StartRedis(t)

	cfg := config.DefaultConfig()
	cfg.DatastoreType = "mongo"
	cfg.DBURL = mongoURL
	cfg.CacheType = "redis"
	cfg.RedisURL = redis.URL
	runFeatures(t, &cfg, nil)
}

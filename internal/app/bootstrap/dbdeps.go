// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/organigram/internal/app/system/orgseed"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// Seeder is built with the connection so that Startup, the health check
// and the org chart API all share one once-per-process seed guard.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis is nil when the tree cache runs in process.
	Redis *redis.Client

	Seeder *orgseed.Seeder
}

package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	mongoOnce sync.Once
	mongoURI  string
	mongoErr  error
)

// GetMongoURI returns the URI of a shared MongoDB container, starting it on
// first use. The test is skipped if the container cannot start.
func GetMongoURI(t *testing.T) string {
	t.Helper()
	containersDisabled(t)

	mongoOnce.Do(startMongo)
	skipUnlessStarted(t, "mongo", mongoErr)
	return mongoURI
}

func startMongo() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	mongoC, err := testcontainers.Run(
		ctx, "mongo:7",
		testcontainers.WithExposedPorts("27017/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("27017/tcp"),
			wait.ForLog("mongod startup complete"),
		),
	)
	if err != nil {
		mongoErr = err
		return
	}

	endpoint, err := mongoC.Endpoint(ctx, "")
	if err != nil {
		_ = mongoC.Terminate(context.Background()) // best-effort cleanup
		mongoErr = err
		return
	}

	mongoURI = fmt.Sprintf("mongodb://%s", endpoint)
}

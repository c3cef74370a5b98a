// Package testutil starts the database containers used by the store tests.
//
// Each container is started once per test binary and shared by every test.
// Tests are skipped when the container cannot be started, for example when
// Docker is not available, and in -short mode.
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

// startupTimeout is generous for CI environments pulling images.
const startupTimeout = 3 * time.Minute

type shared struct {
	once     sync.Once
	endpoint string
	err      error
}

func (s *shared) get(t *testing.T, name string, start func(ctx context.Context) (string, error)) string {
	t.Helper()

	if testing.Short() {
		t.Skipf("skipping %s tests in short mode", name)
	}

	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()

		s.endpoint, s.err = run(ctx, name, start)
	})

	if s.err != nil {
		t.Skipf("skipping %s tests: %v", name, s.err)
	}

	return s.endpoint
}

// run guards against testcontainers panicking when no Docker host is found.
func run(ctx context.Context, name string, start func(ctx context.Context) (string, error)) (endpoint string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("starting %s testcontainer panicked: %v", name, r)
		}
	}()

	return start(ctx)
}

// Containers are not tied to a test through t.Cleanup since they outlive
// the first test; the testcontainers reaper removes them at process exit.
var postgres, redis, mongo shared

// GetPostgresDSN returns a DSN for the shared PostgreSQL container.
func GetPostgresDSN(t *testing.T) string {
	return postgres.get(t, "PostgreSQL", func(ctx context.Context) (string, error) {
		c, err := testcontainers.Run(
			ctx, "postgres:16",
			testcontainers.WithExposedPorts("5432/tcp"),
			testcontainers.WithWaitStrategy(
				wait.ForListeningPort("5432/tcp"),
				// The init process restarts the server once.
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			),
			testcontainers.WithEnv(map[string]string{
				"POSTGRES_USER":     "fsmodel",
				"POSTGRES_PASSWORD": "fsmodel",
				"POSTGRES_DB":       "fsmodel_test",
			}),
		)
		if err != nil {
			return "", fmt.Errorf("failed to start PostgreSQL testcontainer: %w", err)
		}

		endpoint, err := c.Endpoint(ctx, "")
		if err != nil {
			_ = c.Terminate(context.Background())
			return "", err
		}

		return fmt.Sprintf("postgres://fsmodel:fsmodel@%s/fsmodel_test?sslmode=disable", endpoint), nil
	})
}

// GetRedisAddress returns the host:port of the shared Redis container.
func GetRedisAddress(t *testing.T) string {
	return redis.get(t, "Redis", func(ctx context.Context) (string, error) {
		c, err := testcontainers.Run(
			ctx, "redis:latest",
			testcontainers.WithExposedPorts("6379/tcp"),
			testcontainers.WithWaitStrategy(
				wait.ForListeningPort("6379/tcp"),
				wait.ForLog("Ready to accept connections"),
			),
		)
		if err != nil {
			return "", fmt.Errorf("failed to start Redis testcontainer: %w", err)
		}

		endpoint, err := c.Endpoint(ctx, "")
		if err != nil {
			_ = c.Terminate(context.Background())
			return "", err
		}

		return endpoint, nil
	})
}

// GetMongoURI returns the URI of the shared MongoDB container.
func GetMongoURI(t *testing.T) string {
	return mongo.get(t, "MongoDB", func(ctx context.Context) (string, error) {
		c, err := testcontainers.Run(
			ctx, "mongo:7",
			testcontainers.WithExposedPorts("27017/tcp"),
			testcontainers.WithWaitStrategy(
				wait.ForListeningPort("27017/tcp").WithStartupTimeout(2*time.Minute),
			),
		)
		if err != nil {
			return "", fmt.Errorf("failed to start MongoDB testcontainer: %w", err)
		}

		host, err := c.Host(ctx)
		if err != nil {
			_ = c.Terminate(context.Background())
			return "", err
		}

		port, err := c.MappedPort(ctx, "27017/tcp")
		if err != nil {
			_ = c.Terminate(context.Background())
			return "", err
		}

		// Avoid [::1]:port resolution problems.
		if host == "" || host == "localhost" || host == "::1" {
			host = "127.0.0.1"
		}

		return fmt.Sprintf("mongodb://%s:%s", host, port.Port()), nil
	})
}

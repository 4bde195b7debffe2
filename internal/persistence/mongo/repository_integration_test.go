//go:build integration

package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	mongocontainer "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Aman-Sigroha/WildWardenServer/internal/domain"
)

func TestRepositoryIngestSweepAndTransitions(t *testing.T) {
	ctx := context.Background()

	container, err := mongocontainer.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })

	repo := NewRepository(client.Database("wildwarden_test"))
	require.NoError(t, repo.EnsureIndexes(ctx))

	first := sampleCase("D1")
	require.NoError(t, repo.Insert(ctx, first))
	require.NoError(t, repo.Insert(ctx, sampleCase("D2")))

	// Accept D1's first case so it becomes history the sweep must not touch.
	accepted, err := repo.UpdateStatus(ctx, first.ID, domain.StatusAccepted)
	require.NoError(t, err)
	require.NotNil(t, accepted)
	require.Equal(t, domain.StatusAccepted, accepted.Status)

	require.NoError(t, repo.Insert(ctx, sampleCase("D1")))
	require.NoError(t, repo.Insert(ctx, sampleCase("D1")))

	removed, err := repo.DeletePending(ctx, "D1")
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	replacement := sampleCase("D1")
	require.NoError(t, repo.Insert(ctx, replacement))

	d1, err := repo.ListByDevice(ctx, "D1")
	require.NoError(t, err)
	require.Len(t, d1, 2, "accepted history plus one fresh pending case")

	pending, err := repo.ListByStatus(ctx, domain.StatusNone)
	require.NoError(t, err)
	require.Len(t, pending, 2, "one pending per device")
	for _, c := range pending {
		require.Equal(t, domain.StatusNone, c.Status)
	}

	// Newest first.
	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		require.False(t, all[i-1].Timestamp.Before(all[i].Timestamp))
	}

	found, err := repo.Delete(ctx, replacement.ID)
	require.NoError(t, err)
	require.True(t, found)

	found, err = repo.Delete(ctx, replacement.ID)
	require.NoError(t, err)
	require.False(t, found)

	missing, err := repo.UpdateStatus(ctx, "no-such-id", domain.StatusRejected)
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, repo.Ping(ctx))
}

func sampleCase(deviceID string) domain.Case {
	return domain.Case{
		ID:          uuid.NewString(),
		HeartRate:   80,
		Temperature: 37,
		SpO2:        98,
		GPS:         domain.GPS{Latitude: 1, Longitude: 2},
		DeviceID:    deviceID,
		Status:      domain.StatusNone,
		Timestamp:   time.Now().UTC(),
	}
}

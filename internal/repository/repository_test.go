package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/bimflow/engine/internal/models"
	appErr "github.com/bimflow/engine/pkg/errors"
)

// startPostgres spins up a disposable database for the repository suite.
func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed repository tests in short mode")
	}

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("engine_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error)
	require.NoError(t, db.AutoMigrate(
		&models.Project{}, &models.TIDP{}, &models.Container{},
		&models.MIDP{}, &models.Snapshot{},
	))
	return db
}

func TestRepositories(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	projectRepo := NewProjectRepository(db)
	tidpRepo := NewTIDPRepository(db)
	midpRepo := NewMIDPRepository(db)
	snapshotRepo := NewSnapshotRepository(db)

	project := &models.Project{Name: "Riverside Campus"}
	require.NoError(t, projectRepo.Create(ctx, project))

	t.Run("tidp create preserves container order", func(t *testing.T) {
		deps, _ := json.Marshal([]string{"ARC-001"})
		tidp := &models.TIDP{
			ProjectID:  project.ID,
			TeamName:   "Architecture Team",
			Discipline: "Architecture",
			Status:     "Draft",
			Containers: []models.Container{
				{ContainerID: "ARC-002", Name: "Floor plans", Position: 0, Status: "Planned",
					TeamName: "Architecture Team", Discipline: "Architecture", Dependencies: datatypes.JSON(deps)},
				{ContainerID: "ARC-001", Name: "Site plan", Position: 1, Status: "Planned",
					TeamName: "Architecture Team", Discipline: "Architecture"},
			},
		}
		require.NoError(t, tidpRepo.Create(ctx, tidp))

		got, err := tidpRepo.GetWithContainers(ctx, tidp.ID)
		require.NoError(t, err)
		require.Len(t, got.Containers, 2)
		// authoring order, not alphabetical
		require.Equal(t, "ARC-002", got.Containers[0].ContainerID)
		require.Equal(t, "ARC-001", got.Containers[1].ContainerID)
	})

	t.Run("replace containers is atomic per tidp", func(t *testing.T) {
		tidp := &models.TIDP{
			ProjectID: project.ID, TeamName: "MEP Team", Discipline: "MEP", Status: "Draft",
			Containers: []models.Container{
				{ContainerID: "MEP-001", Name: "Ducts", Status: "Planned", TeamName: "MEP Team", Discipline: "MEP"},
			},
		}
		require.NoError(t, tidpRepo.Create(ctx, tidp))

		require.NoError(t, tidpRepo.ReplaceContainers(ctx, tidp.ID, []models.Container{
			{ContainerID: "MEP-010", Name: "Pipes", Status: "Planned", TeamName: "MEP Team", Discipline: "MEP"},
			{ContainerID: "MEP-011", Name: "Valves", Status: "Planned", TeamName: "MEP Team", Discipline: "MEP"},
		}))

		got, err := tidpRepo.GetWithContainers(ctx, tidp.ID)
		require.NoError(t, err)
		require.Len(t, got.Containers, 2)
		require.Equal(t, "MEP-010", got.Containers[0].ContainerID)
		require.Equal(t, 1, got.Containers[1].Position)
	})

	t.Run("midp unique per project and atomic data swap", func(t *testing.T) {
		midp := &models.MIDP{
			ProjectID:   project.ID,
			ProjectName: project.Name,
			Status:      "Active",
		}
		require.NoError(t, midpRepo.Create(ctx, midp))

		upd := MIDPDataUpdate{
			IncludedTIDPs:  datatypes.JSON(`["` + uuid.NewString() + `"]`),
			AggregatedData: datatypes.JSON(`{"totalContainers":3}`),
			QualityGates:   datatypes.JSON(`[]`),
			RiskRegister:   datatypes.JSON(`{"risks":[]}`),
			Status:         "Active",
		}
		require.NoError(t, midpRepo.ReplaceAggregatedData(ctx, midp.ID, upd))

		got, err := midpRepo.GetByProject(ctx, project.ID)
		require.NoError(t, err)
		require.JSONEq(t, `{"totalContainers":3}`, string(got.AggregatedData))

		err = midpRepo.ReplaceAggregatedData(ctx, uuid.New(), upd)
		require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
	})

	t.Run("snapshots list oldest first", func(t *testing.T) {
		midp, err := midpRepo.GetByProject(ctx, project.ID)
		require.NoError(t, err)

		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		for _, d := range []int{2, 0, 1} {
			require.NoError(t, snapshotRepo.Append(ctx, &models.Snapshot{
				MIDPID:          midp.ID,
				TakenAt:         base.AddDate(0, 0, d),
				TotalContainers: 10 + d,
			}))
		}

		rows, err := snapshotRepo.ListByMIDP(ctx, midp.ID)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		require.True(t, rows[0].TakenAt.Before(rows[1].TakenAt))
		require.True(t, rows[1].TakenAt.Before(rows[2].TakenAt))
	})

	t.Run("get missing returns not found", func(t *testing.T) {
		_, err := tidpRepo.GetWithContainers(ctx, uuid.New())
		require.True(t, appErr.IsCode(err, appErr.CodeNotFound))

		_, err = midpRepo.GetByProject(ctx, uuid.New())
		require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
	})
}

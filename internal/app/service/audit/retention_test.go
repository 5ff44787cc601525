package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/rhosegym/gymcore/internal/models"
	"github.com/rhosegym/gymcore/internal/testutil"
	"github.com/rhosegym/gymcore/pkg/config"
	"github.com/rhosegym/gymcore/pkg/types"
)

func TestRetention_NotScheduledByDefault(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(zap.NewNop().Sugar(), db)
	cfg := &config.Config{
		Audit: config.AuditConfig{RetentionDays: 365},
		Sweep: config.SweepConfig{Schedule: "0 2 * * *"},
	}

	lc := fxtest.NewLifecycle(t)
	r, err := NewRetention(lc, zap.NewNop().Sugar(), cfg, svc)
	require.NoError(t, err)
	assert.Nil(t, r.cron)
	lc.RequireStart().RequireStop()
}

func TestRetention_OptInPurgesPastHorizon(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(zap.NewNop().Sugar(), db)
	ctx := context.Background()

	svc.Log(ctx, Entry{Action: types.AuditActionCheckIn, Description: "recent"})
	svc.Log(ctx, Entry{Action: types.AuditActionCheckOut, Description: "old"})
	old := time.Now().AddDate(-2, 0, 0)
	require.NoError(t, db.Model(&models.AuditLogEntry{}).
		Where("description = ?", "old").
		Update("created_at", old).Error)

	cfg := &config.Config{
		Audit: config.AuditConfig{RetentionDays: 365, AutoPurge: true},
		Sweep: config.SweepConfig{Schedule: "0 2 * * *"},
	}
	lc := fxtest.NewLifecycle(t)
	r, err := NewRetention(lc, zap.NewNop().Sugar(), cfg, svc)
	require.NoError(t, err)
	require.NotNil(t, r.cron)

	r.run()

	var n int64
	require.NoError(t, db.Model(&models.AuditLogEntry{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

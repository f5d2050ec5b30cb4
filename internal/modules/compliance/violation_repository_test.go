package compliance

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/quantcore/internal/database"
	"github.com/quantfolio/quantcore/internal/domain"
	"github.com/quantfolio/quantcore/pkg/logger"
)

func testViolationRepo(t *testing.T) *ViolationRepository {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "compliance.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	return NewViolationRepository(db.Conn(), logger.New(logger.Config{Level: "error", Pretty: false}))
}

func violationRecord(id string, portfolioID int64) domain.ComplianceViolation {
	return domain.ComplianceViolation{
		ID:          id,
		PortfolioID: portfolioID,
		RuleID:      1,
		OccurredAt:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Severity:    domain.SeverityError,
		Description: "position limit exceeded",
	}
}

func TestViolationResolveLifecycle(t *testing.T) {
	repo := testViolationRepo(t)

	require.NoError(t, repo.Save(violationRecord("v-1", 1)))

	open, err := repo.ListOpen(1)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "v-1", open[0].ID)
	assert.False(t, open[0].Resolved)

	require.NoError(t, repo.Resolve("v-1", 1))

	open, err = repo.ListOpen(1)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestViolationResolveUnknownID(t *testing.T) {
	repo := testViolationRepo(t)

	err := repo.Resolve("missing", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestViolationResolveScopedToPortfolio(t *testing.T) {
	repo := testViolationRepo(t)

	require.NoError(t, repo.Save(violationRecord("v-1", 1)))

	// The wrong portfolio id cannot resolve the record.
	err := repo.Resolve("v-1", 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	open, err := repo.ListOpen(1)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

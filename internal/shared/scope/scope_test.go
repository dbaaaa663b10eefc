package scope_test

import (
	"testing"
	"time"

	"go-skillmatrix/internal/shared/scope"
	"go-skillmatrix/internal/shared/testdb"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type row struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Status     string
	ReleasedAt *time.Time
}

func TestScopes(t *testing.T) {
	db := testdb.Open(t, &row{})
	now := time.Now()
	rows := []row{
		{ID: uuid.New(), Status: "PENDING"},
		{ID: uuid.New(), Status: "APPROVED"},
		{ID: uuid.New(), Status: "PENDING", ReleasedAt: &now},
	}
	assert.NoError(t, db.Create(&rows).Error)

	var n int64
	assert.NoError(t, db.Model(&row{}).Scopes(scope.Unreleased("rows")).Count(&n).Error)
	assert.Equal(t, int64(2), n)

	assert.NoError(t, db.Model(&row{}).Scopes(scope.Status("rows", "PENDING")).Count(&n).Error)
	assert.Equal(t, int64(2), n)

	assert.NoError(t, db.Model(&row{}).Scopes(scope.Unreleased("rows"), scope.Status("rows", "PENDING")).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swipeattend/backend/internal/app/repositories/memstore"
	"github.com/swipeattend/backend/internal/pkg/auth"
)

func TestCreateDemoData_Idempotent(t *testing.T) {
	cost := auth.BcryptCost
	auth.BcryptCost = 4
	t.Cleanup(func() { auth.BcryptCost = cost })

	ctx := context.Background()
	repos, _ := memstore.NewRepositories()

	first, err := CreateDemoData(ctx, repos, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, Result{Teachers: 2, Classes: 3, Students: 30}, first)

	second, err := CreateDemoData(ctx, repos, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, Result{}, second)

	teacher, err := repos.Teachers.GetByEmail(ctx, "maria.lopez@school.test")
	require.NoError(t, err)
	assert.True(t, teacher.IsActive)
	assert.True(t, auth.CheckPassword(teacher.PasswordHash, DemoPassword))

	classes, err := repos.Classes.ListByTeacher(ctx, teacher.ID)
	require.NoError(t, err)
	require.Len(t, classes, 2)

	students, err := repos.Students.ListByClass(ctx, classes[0].ID)
	require.NoError(t, err)
	assert.Len(t, students, len(demoStudents))
}

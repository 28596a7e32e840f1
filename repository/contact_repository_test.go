package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/goktugarikci/galeryBlog-sub000/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactListNewestFirst(t *testing.T) {
	repo := NewContactRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &entity.ContactMessage{
			Name:      fmt.Sprintf("n%d", i),
			Email:     "a@b.co",
			Body:      "hello",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	out, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "n2", out[0].Name)
	assert.Equal(t, "n1", out[1].Name)

	out, err = repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

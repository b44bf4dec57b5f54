package repository

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langpredict/internal/detection"
	"langpredict/internal/detection/profile"
)

func TestDecodeRow(t *testing.T) {
	p, err := decodeRow("fr", []int64{3, 2, 1}, []byte(`{"é":2,"e":1,"le":2,"le ":1}`))
	require.NoError(t, err)
	assert.Equal(t, "fr", p.Name)
	assert.Equal(t, [3]int{3, 2, 1}, p.NGramCounts)
	assert.Equal(t, 2, p.Freq["le"])
}

func TestDecodeRowRejectsBadRows(t *testing.T) {
	_, err := decodeRow("fr", []int64{3, 2}, []byte(`{}`))
	assert.ErrorIs(t, err, detection.ErrConfiguration)

	_, err = decodeRow("fr", []int64{1, 0, 0}, []byte(`{"toolong":1}`))
	assert.ErrorIs(t, err, detection.ErrConfiguration)
}

func TestNWords(t *testing.T) {
	p := profile.New("en")
	p.Update("abc")
	assert.Equal(t, []int64{3, 4, 3}, nWords(p))
}

// poolForTest connects to the database named by LANGPREDICT_TEST_DATABASE_URL.
func poolForTest(t *testing.T) *pgxpool.Pool {
	dsn := os.Getenv("LANGPREDICT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("LANGPREDICT_TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestProfileRepositoryRoundTrip(t *testing.T) {
	pool := poolForTest(t)
	ctx := context.Background()
	repo := NewProfileRepository(pool)
	require.NoError(t, repo.EnsureSchema(ctx))

	p := profile.New("zz-test")
	p.Update("the quick brown fox")
	require.NoError(t, repo.Save(ctx, p))
	t.Cleanup(func() { _ = repo.Delete(ctx, "zz-test") })

	got, err := repo.Get(ctx, "zz-test")
	require.NoError(t, err)
	assert.Equal(t, p.NGramCounts, got.NGramCounts)
	assert.Equal(t, p.Freq, got.Freq)

	names, err := repo.Names(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, "zz-test")

	require.NoError(t, repo.Delete(ctx, "zz-test"))
	_, err = repo.Get(ctx, "zz-test")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "zz-test"), ErrProfileNotFound)
}

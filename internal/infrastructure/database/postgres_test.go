package database

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"langpredict/pkg/logger"
)

func TestCompactSQL(t *testing.T) {
	assert.Equal(t, "SELECT name FROM language_profiles ORDER BY name",
		compactSQL("\n\tSELECT name\n\tFROM language_profiles\n\tORDER BY name\n"))
}

func TestQueryTracer(t *testing.T) {
	var buf bytes.Buffer
	tracer := &queryTracer{logger: logger.New(logger.Config{Level: "info", Format: "json", Output: &buf})}

	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT 1"})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{CommandTag: pgconn.NewCommandTag("SELECT 1")})
	assert.Empty(t, buf.String(), "fast queries are debug only")

	ctx = tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT\n  broken"})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: errors.New("syntax error")})
	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"sql":"SELECT broken"`)
	assert.Contains(t, out, `"error":"syntax error"`)

	// no start data, nothing to report
	buf.Reset()
	tracer.TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{Err: errors.New("x")})
	assert.Empty(t, buf.String())
}

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}

func TestWithOperationAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := WithLogger(context.Background(), logger)

	ctx, opID := WithOperation(ctx, "closing", slog.String("exercise", "2024"))
	require.NotEmpty(t, opID)

	NewMessageLog().Warning(ctx, KeyClosedExercise, slog.String("extra", "x"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, KeyClosedExercise, rec["msg"])
	assert.Equal(t, KeyClosedExercise, rec["message_key"])
	assert.Equal(t, opID, rec["operation_id"])
	assert.Equal(t, "closing", rec["operation"])
	assert.Equal(t, "2024", rec["exercise"])
	assert.Equal(t, "x", rec["extra"])
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	r.Info(ctx, KeyEntryPosted)
	r.Warning(ctx, KeyZeroTotal)
	r.Error(ctx, KeyAccountingLinesError)

	assert.Equal(t, []string{KeyEntryPosted, KeyZeroTotal, KeyAccountingLinesError}, r.Keys())
	assert.Equal(t, []string{KeyZeroTotal}, r.Keys(slog.LevelWarn))
	assert.True(t, r.Has(KeyAccountingLinesError))

	r.Reset()
	assert.Empty(t, r.Keys())
}

package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/moneyflow/internal/identity"
	"github.com/MrJamesThe3rd/moneyflow/internal/logging"
)

func TestNew_AddsRequestContext(t *testing.T) {
	var buf bytes.Buffer

	logger := logging.New(&buf, slog.LevelInfo, "json", "moneyflow")

	userID := uuid.New()
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	ctx = identity.WithUserID(ctx, userID)

	logger.InfoContext(ctx, "loan created", "loan_id", "abc")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "loan created", record["msg"])
	assert.Equal(t, "moneyflow", record["app"])
	assert.Equal(t, "req-1", record["request_id"])
	assert.Equal(t, userID.String(), record["user_id"])
	assert.Equal(t, "abc", record["loan_id"])
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer

	logger := logging.New(&buf, slog.LevelWarn, "text", "moneyflow")

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "msg=kept")
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/queue"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/users"
	"github.com/google/uuid"
)

// WelcomeHandler greets freshly registered users. There is no mail transport
// wired up, so the greeting goes to the log; the handler still resolves the
// user to exercise the same vanished-record rules as any other job.
type WelcomeHandler struct {
	users  users.Repository
	logger logging.Logger
}

func NewWelcomeHandler(users users.Repository, logger logging.Logger) *WelcomeHandler {
	return &WelcomeHandler{users: users, logger: logger.With("component", "welcome")}
}

// Handle implements queue.Handler.
func (h *WelcomeHandler) Handle(ctx context.Context, payload json.RawMessage) error {
	var job models.WelcomeJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return queue.NoRetry(fmt.Errorf("malformed welcome job: %w", err))
	}

	id, err := uuid.Parse(job.UserID)
	if err != nil {
		return queue.NoRetry(fmt.Errorf("malformed user id %q: %w", job.UserID, err))
	}

	user, err := h.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return queue.NoRetry(err)
		}
		return err
	}

	h.logger.Info(ctx, fmt.Sprintf("Welcome %s!", user.Email))
	return nil
}

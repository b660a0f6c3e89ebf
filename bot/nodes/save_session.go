package dialognode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
	statex "github.com/tanpawarit/autocheck-bot/bot/state"
)

// SaveSession persists the session. Idle sessions carry nothing worth keeping
// and are removed from the store instead.
func SaveSession(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	if in.Session.Stage == statex.StageIdle {
		if err := store.Delete(ctx, in.UserID); err != nil {
			return nil, err
		}
		return in, nil
	}

	in.Session.Touch(in.Now)
	if err := in.Session.Validate(); err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}
	if err := store.Save(ctx, in.Session); err != nil {
		return nil, err
	}
	return in, nil
}

package dialognode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
	statex "github.com/tanpawarit/autocheck-bot/bot/state"
)

func LoadOrCreateSession(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	st, err := loadOrCreateSession(ctx, store, in.UserID, in.Now)
	if err != nil {
		return nil, err
	}
	in.Session = st
	return in, nil
}

func loadOrCreateSession(ctx context.Context, store statex.Store, userID int64, now time.Time) (*statex.Session, error) {
	st, err := store.Load(ctx, userID)
	if errors.Is(err, contractx.ErrSessionNotFound) {
		return statex.NewSession(userID, now), nil
	}
	if err != nil {
		return nil, err
	}

	// A stored processing stage means an earlier query never completed.
	if st.Stage == statex.StageProcessing {
		log.Warn().Int64("user_id", userID).Msg("resetting session left in processing")
		st.Reset(now)
	}
	return st, nil
}

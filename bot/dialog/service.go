package dialog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
	nodex "github.com/tanpawarit/autocheck-bot/bot/nodes"
	statex "github.com/tanpawarit/autocheck-bot/bot/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidUser    = nodex.ErrInvalidUser
)

type Service struct {
	store    statex.Store
	queries  contractx.QueryRunner
	notifier contractx.Notifier

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	// Events of one user are handled one at a time. Entries are dropped
	// once no event of that user is in flight.
	locksMu sync.Mutex
	locks   map[int64]*userLock

	now func() time.Time
}

func New(
	store statex.Store,
	queries contractx.QueryRunner,
	notifier contractx.Notifier,
) (*Service, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if queries == nil {
		return nil, errors.New("query runner is required")
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}

	s := &Service{
		store:    store,
		queries:  queries,
		notifier: notifier,
		locks:    make(map[int64]*userLock),
		now:      time.Now,
	}

	graphRunner, err := s.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	s.graphRunner = graphRunner

	return s, nil
}

// HandleMessage applies one chat event to the user's session and returns the
// reply to send back.
func (s *Service) HandleMessage(ctx context.Context, ev contractx.Event) (contractx.Reply, error) {
	unlock := s.lockUser(ev.UserID)
	defer unlock()

	out, err := s.graphRunner.Invoke(ctx, nodex.GraphInput{
		UserID: ev.UserID,
		ChatID: ev.ChatID,
		Text:   ev.Text,
		Action: ev.Action,
	})
	if err != nil {
		return contractx.Reply{}, err
	}
	return out.Reply, nil
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func (s *Service) lockUser(userID int64) func() {
	s.locksMu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, userID)
		}
		s.locksMu.Unlock()
	}
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, int64, contractx.Reply) error {
	return nil
}

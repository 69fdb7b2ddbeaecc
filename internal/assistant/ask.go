package assistant

import (
	"context"
	"errors"
	"strings"

	"quicksearch/internal/chat"
)

// ErrEmptyQuery is returned by Ask for blank input.
var ErrEmptyQuery = errors.New("empty query")

// Ask submits a typed query and blocks until its placeholder resolves,
// returning the entries that replaced it.
func (w *Widget) Ask(ctx context.Context, text string) ([]chat.Message, error) {
	changed := make(chan struct{}, 1)
	unsubscribe := w.store.Subscribe(func(chat.Change) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	loaderID, ok := w.engine.Submit(text, chat.SourceChat)
	if !ok {
		return nil, ErrEmptyQuery
	}
	w.view.Submitted()

	for w.store.Contains(loaderID) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-changed:
		}
	}

	prefix := loaderID + "-"
	var out []chat.Message
	for _, m := range w.store.Messages() {
		if strings.HasPrefix(m.MessageID(), prefix) {
			out = append(out, m)
		}
	}
	return out, nil
}

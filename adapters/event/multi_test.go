package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
)

type countingPublisher struct {
	calls int
	err   error
}

func (c *countingPublisher) Publish(context.Context, portfolio.Event) error {
	c.calls++
	return c.err
}

func (c *countingPublisher) Close() error { return nil }

func TestMultiPublisher_DeliversToAll(t *testing.T) {
	failing := &countingPublisher{err: errors.New("broker down")}
	ok := &countingPublisher{}

	err := NewMultiPublisher(failing, ok).Publish(context.Background(), portfolio.Event{Type: portfolio.EventSaved})

	require.Error(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)
}

func TestMultiPublisher_Degenerate(t *testing.T) {
	assert.NoError(t, NewMultiPublisher().Publish(context.Background(), portfolio.Event{}))

	single := &countingPublisher{}
	assert.Same(t, single, NewMultiPublisher(single))
}

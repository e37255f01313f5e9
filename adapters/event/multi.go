package event

import (
	"context"
	"errors"

	"github.com/khoahotran/portfolio-site/internal/application/service"
	"github.com/khoahotran/portfolio-site/internal/domain/portfolio"
)

type multiPublisher []service.EventPublisher

// NewMultiPublisher delivers every event to each publisher in turn. One
// failing publisher does not stop the others.
func NewMultiPublisher(publishers ...service.EventPublisher) service.EventPublisher {
	switch len(publishers) {
	case 0:
		return NewNoopPublisher()
	case 1:
		return publishers[0]
	}
	return multiPublisher(publishers)
}

func (m multiPublisher) Publish(ctx context.Context, evt portfolio.Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiPublisher) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type noopPublisher struct{}

func NewNoopPublisher() service.EventPublisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, portfolio.Event) error { return nil }
func (noopPublisher) Close() error                                   { return nil }

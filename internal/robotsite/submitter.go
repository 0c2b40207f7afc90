package robotsite

import (
	"context"
	"errors"
	"fmt"

	"robotorder/internal/assert"
	"robotorder/internal/browser"
	"robotorder/internal/components/failure"
	"robotorder/internal/components/telemetry"
	"robotorder/internal/order"
)

const (
	report_submitter_fill    = "fill"
	report_submitter_retry   = "retry"
	report_submitter_confirm = "confirmed"
)

type state int

const (
	stateNavigateForm state = iota
	stateFillFields
	stateSubmit
	stateCheck
	stateConfirmed
	stateDone
)

// ConfirmationHandler is run while the confirmation of an accepted order is
// on screen, before the form is reset for the next one.
type ConfirmationHandler func(ctx context.Context, o order.Order) error

// Submitter fills in and submits the order form, one order at a time.
type Submitter struct {
	site        Site
	page        browser.Page
	maxAttempts int
	tel         telemetry.API
}

// NewSubmitter creates a Submitter. maxAttempts bounds how often the order
// button is clicked for a single order, 0 retries until the site accepts.
func NewSubmitter(site Site, page browser.Page, maxAttempts int, tel telemetry.API) Submitter {
	assert.NotNil(page)
	assert.NotNil(tel)

	return Submitter{
		site:        site,
		page:        page,
		maxAttempts: maxAttempts,
		tel:         telemetry.NewScopedAPI("submitter", tel),
	}
}

// Submit places o. The site rejects orders at random without telling why, so
// the order button is clicked until the confirmation shows up. onConfirmed
// runs while the confirmation is shown, afterwards the form is reset for the
// next order.
//
// It returns how many times the order button was clicked.
func (s Submitter) Submit(ctx context.Context, o order.Order, onConfirmed ConfirmationHandler) (int, error) {
	attempts := 0
	current := stateNavigateForm

	for current != stateDone {
		if ctx.Err() != nil {
			return attempts, ctx.Err()
		}

		switch current {
		case stateNavigateForm:
			// the form resets in place after "order another", there is
			// nothing to load
			current = stateFillFields

		case stateFillFields:
			err := s.fill(ctx, o)
			if err != nil {
				return attempts, err
			}
			current = stateSubmit

		case stateSubmit:
			if s.maxAttempts > 0 && attempts >= s.maxAttempts {
				return attempts, failure.New(
					failure.ErrUIInteraction,
					"order %s: not confirmed after %d attempts", o.Number, attempts,
				)
			}
			err := s.page.Click(ctx, SelectorOrder)
			if err != nil {
				return attempts, s.interactionError(o, "click order", err)
			}
			attempts++
			current = stateCheck

		case stateCheck:
			confirmed, err := s.page.Exists(ctx, SelectorOrderAnother)
			if err != nil {
				return attempts, s.interactionError(o, "check confirmation", err)
			}
			if !confirmed {
				s.tel.ReportDebug(report_submitter_retry, o.Number, attempts)
				current = stateSubmit
				continue
			}
			current = stateConfirmed

		case stateConfirmed:
			s.tel.ReportDebug(report_submitter_confirm, o.Number, attempts)
			if onConfirmed != nil {
				err := onConfirmed(ctx, o)
				if err != nil {
					return attempts, err
				}
			}

			err := s.page.Click(ctx, SelectorOrderAnother)
			if err != nil {
				return attempts, s.interactionError(o, "click order another", err)
			}
			err = s.site.DismissConsent(ctx)
			if err != nil {
				return attempts, fmt.Errorf("order %s: %w", o.Number, err)
			}
			current = stateDone
		}
	}

	return attempts, nil
}

func (s Submitter) fill(ctx context.Context, o order.Order) error {
	s.tel.ReportDebug(report_submitter_fill, o.Number, o.Head, o.Body, o.Legs)

	err := s.page.SelectOption(ctx, SelectorHead, o.Head)
	if err != nil {
		return s.interactionError(o, "select head", err)
	}
	err = s.page.Click(ctx, SelectorBody(o.Body))
	if err != nil {
		return s.interactionError(o, "select body", err)
	}
	err = s.page.Fill(ctx, SelectorLegs, o.Legs)
	if err != nil {
		return s.interactionError(o, "fill legs", err)
	}
	err = s.page.Fill(ctx, SelectorAddress, o.Address)
	if err != nil {
		return s.interactionError(o, "fill address", err)
	}
	return nil
}

func (s Submitter) interactionError(o order.Order, op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return failure.Wrap(failure.ErrUIInteraction, fmt.Sprintf("order %s: %s", o.Number, op), err)
}

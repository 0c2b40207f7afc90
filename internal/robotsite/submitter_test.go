package robotsite_test

import (
	"context"
	"errors"
	"testing"

	"robotorder/internal/browser/browsertest"
	"robotorder/internal/components/failure"
	"robotorder/internal/components/telemetry/telemetrytest"
	"robotorder/internal/order"
	"robotorder/internal/robotsite"
	"robotorder/internal/robotsite/robotsitetest"

	"github.com/stretchr/testify/require"
)

var testOrder = order.Order{Number: "order1", Head: "1", Body: "2", Legs: "3", Address: "A"}

func openSite(t *testing.T, fake *robotsitetest.Site, maxAttempts int) robotsite.Submitter {
	rec := telemetrytest.NewRecorder()
	site := robotsite.NewSite(fake, "https://robotsparebinindustries.com/#/robot-order", rec)
	err := site.Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return robotsite.NewSubmitter(site, fake, maxAttempts, rec)
}

func TestOpenDismissesConsent(t *testing.T) {
	fake := robotsitetest.NewSite()
	openSite(t, fake, 0)

	require.Equal(t, []browsertest.Call{
		{Method: "navigate", Selector: "https://robotsparebinindustries.com/#/robot-order"},
		{Method: "click", Selector: robotsite.SelectorConsentOK},
	}, fake.Calls())
}

func TestSubmitRetriesUntilConfirmed(t *testing.T) {
	for _, k := range []int{0, 1, 4} {
		fake := robotsitetest.NewSite(k)
		submitter := openSite(t, fake, 0)

		handled := 0
		attempts, err := submitter.Submit(context.Background(), testOrder, func(ctx context.Context, o order.Order) error {
			handled++
			// the confirmation is still on screen
			require.True(t, fake.Present[robotsite.SelectorReceipt])
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}

		require.Equal(t, k+1, attempts)
		require.Equal(t, k+1, fake.Count("click", robotsite.SelectorOrder))
		require.Equal(t, 1, handled)
		require.Equal(t, 1, fake.Accepted())
		// once after opening, once after order another
		require.Equal(t, 2, fake.Count("click", robotsite.SelectorConsentOK))
	}
}

func TestSubmitFillsForm(t *testing.T) {
	fake := robotsitetest.NewSite()
	submitter := openSite(t, fake, 0)

	_, err := submitter.Submit(context.Background(), testOrder, nil)
	if err != nil {
		t.Fatal(err)
	}

	calls := fake.Calls()
	require.Equal(t, []browsertest.Call{
		{Method: "select", Selector: robotsite.SelectorHead, Value: "1"},
		{Method: "click", Selector: "#id-body-2"},
		{Method: "fill", Selector: robotsite.SelectorLegs, Value: "3"},
		{Method: "fill", Selector: robotsite.SelectorAddress, Value: "A"},
		{Method: "click", Selector: robotsite.SelectorOrder},
		{Method: "exists", Selector: robotsite.SelectorOrderAnother},
		{Method: "click", Selector: robotsite.SelectorOrderAnother},
		{Method: "click", Selector: robotsite.SelectorConsentOK},
	}, calls[2:])
}

func TestSubmitSequentialOrders(t *testing.T) {
	fake := robotsitetest.NewSite(2, 0, 1)
	submitter := openSite(t, fake, 0)

	total := 0
	for i, o := range []order.Order{
		{Number: "1", Head: "1", Body: "1", Legs: "1", Address: "A"},
		{Number: "2", Head: "2", Body: "2", Legs: "2", Address: "B"},
		{Number: "3", Head: "3", Body: "3", Legs: "3", Address: "C"},
	} {
		attempts, err := submitter.Submit(context.Background(), o, nil)
		if err != nil {
			t.Fatal(err)
		}
		require.Equal(t, []int{3, 1, 2}[i], attempts)
		total += attempts
	}
	require.Equal(t, 6, total)
	require.Equal(t, 6, fake.Count("click", robotsite.SelectorOrder))
	require.Equal(t, 3, fake.Accepted())
}

func TestSubmitBoundedAttempts(t *testing.T) {
	fake := robotsitetest.NewSite(10)
	submitter := openSite(t, fake, 3)

	attempts, err := submitter.Submit(context.Background(), testOrder, func(ctx context.Context, o order.Order) error {
		t.Fatal("confirmation handler must not run")
		return nil
	})
	require.ErrorIs(t, err, failure.ErrUIInteraction)
	require.Equal(t, 3, attempts)
	require.Equal(t, 3, fake.Count("click", robotsite.SelectorOrder))
}

func TestSubmitMissingElement(t *testing.T) {
	fake := robotsitetest.NewSite()
	submitter := openSite(t, fake, 0)
	fake.Present[robotsite.SelectorLegs] = false

	attempts, err := submitter.Submit(context.Background(), testOrder, nil)
	require.ErrorIs(t, err, failure.ErrUIInteraction)
	require.ErrorAs(t, err, &browsertest.ErrNotFound{})
	require.Equal(t, 0, attempts)
	require.Equal(t, 0, fake.Count("click", robotsite.SelectorOrder))
}

func TestSubmitHandlerError(t *testing.T) {
	fake := robotsitetest.NewSite()
	submitter := openSite(t, fake, 0)

	renderErr := failure.New(failure.ErrRender, "boom")
	_, err := submitter.Submit(context.Background(), testOrder, func(ctx context.Context, o order.Order) error {
		return renderErr
	})
	require.True(t, errors.Is(err, failure.ErrRender))
	require.Equal(t, 0, fake.Count("click", robotsite.SelectorOrderAnother))
}

func TestSubmitCancelled(t *testing.T) {
	fake := robotsitetest.NewSite()
	submitter := openSite(t, fake, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := submitter.Submit(ctx, testOrder, nil)
	require.ErrorIs(t, err, context.Canceled)
}

package checkout_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/cucumber/godog"

	"github.com/vladislavdragonenkov/foodhub/internal/cart"
	"github.com/vladislavdragonenkov/foodhub/internal/checkout"
	"github.com/vladislavdragonenkov/foodhub/internal/domain"
	"github.com/vladislavdragonenkov/foodhub/internal/identity"
	"github.com/vladislavdragonenkov/foodhub/internal/service/orderstub"
)

type checkoutFeature struct {
	menu     map[domain.ItemID]domain.MenuItem
	ledger   *cart.Ledger
	orders   *orderstub.Service
	workflow *checkout.Workflow
	ctx      context.Context
	attempt  checkout.Attempt
}

func (f *checkoutFeature) reset() {
	f.menu = make(map[domain.ItemID]domain.MenuItem)
	f.ledger = cart.NewLedger()
	f.orders = orderstub.NewService()
	f.workflow = checkout.NewWorkflow("feature-session", f.ledger, identity.ContextProvider{}, f.orders)
	f.ctx = context.Background()
	f.attempt = checkout.Attempt{}
}

func (f *checkoutFeature) theMenuItemPriced(id int64, name string, price int64) error {
	f.menu[domain.ItemID(id)] = domain.MenuItem{ID: domain.ItemID(id), Name: name, PriceMinor: price}
	return nil
}

func (f *checkoutFeature) iAddMenuItem(id int64) error {
	item, ok := f.menu[domain.ItemID(id)]
	if !ok {
		return fmt.Errorf("menu item %d is not defined", id)
	}
	f.ledger.Add(item)
	return nil
}

func (f *checkoutFeature) iSetTheQuantity(id int64, qty int32) error {
	f.ledger.SetQuantity(domain.ItemID(id), qty)
	return nil
}

func (f *checkoutFeature) iRemoveMenuItem(id int64) error {
	f.ledger.Remove(domain.ItemID(id))
	return nil
}

func (f *checkoutFeature) iAmLoggedInAs(userID string) error {
	f.ctx = identity.WithIdentity(context.Background(), domain.Identity{UserID: userID})
	return nil
}

func (f *checkoutFeature) theOrderServiceRejectsOrders() error {
	f.orders.SetError(&domain.SubmissionError{Kind: domain.SubmissionRejected, StatusCode: 422})
	return nil
}

func (f *checkoutFeature) theOrderServiceAcceptsOrders() error {
	f.orders.SetError(nil)
	return nil
}

func (f *checkoutFeature) iSubmitTheOrder() error {
	f.attempt = f.workflow.Submit(f.ctx)
	return nil
}

func (f *checkoutFeature) theCartHasLines(n int) error {
	if got := f.ledger.Len(); got != n {
		return fmt.Errorf("expected %d lines, got %d", n, got)
	}
	return nil
}

func (f *checkoutFeature) lineIsMenuItemWithQuantity(pos int, id int64, qty int32) error {
	items := f.ledger.Snapshot().Items
	if pos < 1 || pos > len(items) {
		return fmt.Errorf("line %d does not exist, cart has %d lines", pos, len(items))
	}
	line := items[pos-1]
	if line.ID != domain.ItemID(id) || line.Qty != qty {
		return fmt.Errorf("line %d is item %d x%d, want item %d x%d", pos, line.ID, line.Qty, id, qty)
	}
	return nil
}

func (f *checkoutFeature) theSubtotalIs(want int64) error {
	if got := f.ledger.Subtotal(); got != want {
		return fmt.Errorf("expected subtotal %d, got %d", want, got)
	}
	return nil
}

func (f *checkoutFeature) theItemCountIs(want int) error {
	if got := f.ledger.ItemCount(); got != want {
		return fmt.Errorf("expected item count %d, got %d", want, got)
	}
	return nil
}

func (f *checkoutFeature) theAttemptEndsInState(state string) error {
	if got := f.attempt.State(); got != domain.SubmissionState(state) {
		return fmt.Errorf("expected state %s, got %s", state, got)
	}
	if got := f.workflow.State(); got != domain.SubmissionState(state) {
		return fmt.Errorf("expected session state %s, got %s", state, got)
	}
	return nil
}

func (f *checkoutFeature) theStatusMessageIs(message string) error {
	status, ok := f.workflow.Status()
	if !ok {
		return fmt.Errorf("no status recorded")
	}
	if status.Message != message {
		return fmt.Errorf("expected status %q, got %q", message, status.Message)
	}
	return nil
}

func (f *checkoutFeature) theOrderServiceReceivedCalls(n int) error {
	if got := f.orders.Calls(); got != n {
		return fmt.Errorf("expected %d order service calls, got %d", n, got)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	f := &checkoutFeature{}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		f.reset()
		return ctx, nil
	})

	ctx.Step(`^the menu item (\d+) "([^"]*)" priced (\d+)$`, f.theMenuItemPriced)
	ctx.Step(`^I add menu item (\d+)$`, f.iAddMenuItem)
	ctx.Step(`^I set the quantity of menu item (\d+) to (-?\d+)$`, f.iSetTheQuantity)
	ctx.Step(`^I remove menu item (\d+)$`, f.iRemoveMenuItem)
	ctx.Step(`^I am logged in as "([^"]*)"$`, f.iAmLoggedInAs)
	ctx.Step(`^the order service rejects orders$`, f.theOrderServiceRejectsOrders)
	ctx.Step(`^the order service accepts orders$`, f.theOrderServiceAcceptsOrders)
	ctx.Step(`^I submit the order$`, f.iSubmitTheOrder)

	ctx.Step(`^the cart has (\d+) lines$`, f.theCartHasLines)
	ctx.Step(`^line (\d+) is menu item (\d+) with quantity (\d+)$`, f.lineIsMenuItemWithQuantity)
	ctx.Step(`^the subtotal is (\d+)$`, f.theSubtotalIs)
	ctx.Step(`^the item count is (\d+)$`, f.theItemCountIs)
	ctx.Step(`^the attempt ends in state "([^"]*)"$`, f.theAttemptEndsInState)
	ctx.Step(`^the status message is "([^"]*)"$`, f.theStatusMessageIs)
	ctx.Step(`^the order service received (\d+) calls?$`, f.theOrderServiceReceivedCalls)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/delloop-lab/taskorilla-sub000/internal/constants"
	"github.com/delloop-lab/taskorilla-sub000/internal/events"
	"github.com/delloop-lab/taskorilla-sub000/internal/filter"
	"github.com/delloop-lab/taskorilla-sub000/internal/gateways"
	"github.com/delloop-lab/taskorilla-sub000/internal/models"
	"github.com/delloop-lab/taskorilla-sub000/internal/notify"
	repository "github.com/delloop-lab/taskorilla-sub000/internal/repositories"
	"github.com/delloop-lab/taskorilla-sub000/internal/settings"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:?cache=shared"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Task{},
		&models.Bid{},
		&models.ProgressUpdate{},
		&models.Review{},
		&models.User{},
		&models.PlatformSetting{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	return db
}

type sentNote struct {
	Type      string
	Recipient string
	Fields    map[string]string
}

// fakeNotifier records everything the services try to send.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNote
}

func (n *fakeNotifier) Send(ctx context.Context, notificationType, recipientID string, fields map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, sentNote{Type: notificationType, Recipient: recipientID, Fields: fields})
	return nil
}

func (n *fakeNotifier) count(notificationType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	c := 0
	for _, s := range n.sent {
		if s.Type == notificationType {
			c++
		}
	}
	return c
}

type fakePaymentGateway struct {
	mu         sync.Mutex
	sessions   int
	lastAmount decimal.Decimal
	fail       bool
}

func (g *fakePaymentGateway) CreateCheckout(ctx context.Context, amount decimal.Decimal, currency, returnURL, cancelURL string) (*gateways.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fail {
		return nil, fmt.Errorf("card declined")
	}

	g.sessions++
	g.lastAmount = amount
	return &gateways.CheckoutSession{
		IntentID:    fmt.Sprintf("pi_test_%d", g.sessions),
		RedirectURL: fmt.Sprintf("https://pay.test/session/%d", g.sessions),
	}, nil
}

type payoutCall struct {
	Amount         decimal.Decimal
	Destination    string
	IdempotencyKey string
}

type fakePayoutGateway struct {
	mu    sync.Mutex
	fail  bool
	calls []payoutCall
}

func (g *fakePayoutGateway) CreatePayout(ctx context.Context, amount decimal.Decimal, currency, destination, idempotencyKey string) (*gateways.PayoutResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fail {
		return nil, fmt.Errorf("destination account closed")
	}

	g.calls = append(g.calls, payoutCall{Amount: amount, Destination: destination, IdempotencyKey: idempotencyKey})
	return &gateways.PayoutResult{PayoutID: fmt.Sprintf("po_test_%d", len(g.calls))}, nil
}

type testEnv struct {
	db       *gorm.DB
	tasks    *repository.TaskRepository
	bids     *repository.BidRepository
	progress *repository.ProgressRepository
	reviews  *repository.ReviewRepository
	users    *repository.UserRepository
	settings *settings.PlatformSettings

	notifier *fakeNotifier
	payGW    *fakePaymentGateway
	payoutGW *fakePayoutGateway

	registry    *BidRegistry
	fulfillment *FulfillmentTracker
	payments    *PaymentOrchestrator
	payouts     *PayoutEngine
	reviewGate  *ReviewGate
	lifecycle   *TaskLifecycleController
}

func newTestEnv(t *testing.T) *testEnv {
	db := setupTestDB(t)

	env := &testEnv{
		db:       db,
		tasks:    repository.NewTaskRepository(db),
		bids:     repository.NewBidRepository(db),
		progress: repository.NewProgressRepository(db),
		reviews:  repository.NewReviewRepository(db),
		users:    repository.NewUserRepository(db),
		settings: settings.New(db),
		notifier: &fakeNotifier{},
		payGW:    &fakePaymentGateway{},
		payoutGW: &fakePayoutGateway{},
	}

	contactFilter := filter.New()
	throttle := notify.NewThrottle(5 * time.Minute)
	publisher := events.NewPublisher(nil)

	env.registry = NewBidRegistry(db, env.tasks, env.bids, env.progress, env.users, contactFilter, env.notifier, publisher)
	env.fulfillment = NewFulfillmentTracker(env.tasks, env.progress, contactFilter, env.notifier, throttle)
	env.payments = NewPaymentOrchestrator(env.tasks, env.bids, env.payGW, decimal.NewFromInt(2)).
		WithBackoff([]time.Duration{10 * time.Millisecond, 10 * time.Millisecond, 10 * time.Millisecond})
	env.payouts = NewPayoutEngine(env.tasks, env.users, env.progress, env.settings, env.payoutGW, env.notifier)
	env.reviewGate = NewReviewGate(env.tasks, env.reviews, contactFilter)
	env.lifecycle = NewTaskLifecycleController(env.tasks, env.users, env.registry, env.payments, env.payouts, env.notifier)

	return env
}

func (e *testEnv) createUser(t *testing.T, name string, isHelper bool, payoutEmail string) *models.User {
	var email *string
	if payoutEmail != "" {
		email = &payoutEmail
	}

	user, err := e.users.Create(context.Background(), name, isHelper, nil, email)
	if err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}

func (e *testEnv) createOpenTask(t *testing.T, posterID string) *models.Task {
	task, err := e.tasks.Create(context.Background(), "Assemble shelf", "Flat-pack shelf needs assembling", posterID)
	if err != nil {
		t.Fatalf("failed to create task: %v", err)
	}
	return task
}

// acceptedTask runs a task through bidding to in_progress.
func (e *testEnv) acceptedTask(t *testing.T, posterID, helperID string, amount int64) *models.Task {
	task := e.createOpenTask(t, posterID)

	bid, err := e.registry.SubmitBid(context.Background(), task.ID, helperID, decimal.NewFromInt(amount), "happy to help")
	if err != nil {
		t.Fatalf("failed to submit bid: %v", err)
	}

	updated, _, err := e.registry.AcceptBid(context.Background(), task.ID, bid.ID, posterID)
	if err != nil {
		t.Fatalf("failed to accept bid: %v", err)
	}
	return updated
}

// paidTask additionally runs checkout and confirms the payment.
func (e *testEnv) paidTask(t *testing.T, posterID, helperID string, amount int64) *models.Task {
	task := e.acceptedTask(t, posterID, helperID, amount)

	session, err := e.payments.InitiateCheckout(context.Background(), task.ID, posterID, "https://app.test/return", "https://app.test/cancel")
	if err != nil {
		t.Fatalf("failed to initiate checkout: %v", err)
	}
	if err := e.payments.ConfirmPayment(context.Background(), session.IntentID); err != nil {
		t.Fatalf("failed to confirm payment: %v", err)
	}

	paid, err := e.tasks.FindByID(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("failed to reload task: %v", err)
	}
	if paid.PaymentStatus != constants.PaymentPaid {
		t.Fatalf("expected payment status paid, got %s", paid.PaymentStatus)
	}
	return paid
}

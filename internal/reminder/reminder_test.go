package reminder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"splittab/internal/models"
	"splittab/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "splittab-reminder-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func mustCreateUser(t *testing.T, store *sqlite.SQLiteStore, email, name string) *models.User {
	t.Helper()

	user := models.NewUser(email, name, "hashed-password")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func mustCreateGroup(t *testing.T, store *sqlite.SQLiteStore, name string, members ...*models.User) *models.Group {
	t.Helper()

	group := models.NewGroup(name, "")
	group.Members = members
	if err := store.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return group
}

type sentMail struct {
	to      string
	subject string
	body    string
}

// recordingMailer captures sends instead of dialing anywhere. Sends run
// concurrently, so it locks.
type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *recordingMailer) all() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

type failingMailer struct{}

func (failingMailer) Send(to, subject, body string) error {
	return errors.New("smtp unreachable")
}

func TestRunEmailsDebtors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice@example.com", "Alice")
	bob := mustCreateUser(t, store, "bob@example.com", "Bob")
	carol := mustCreateUser(t, store, "carol@example.com", "Carol")
	group := mustCreateGroup(t, store, "Trip", alice, bob)
	mustCreateGroup(t, store, "Quiet", carol)

	expense := models.NewExpense(group.ID, alice.ID, 100.0, "Hotel")
	expense.ParticipantIDs = []string{alice.ID, bob.ID}
	if err := store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	mailer := &recordingMailer{}
	if err := NewJob(store, mailer).Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	sent := mailer.all()
	if len(sent) != 1 {
		t.Fatalf("Expected 1 reminder, got %d: %+v", len(sent), sent)
	}

	mail := sent[0]
	if mail.to != "bob@example.com" {
		t.Errorf("Expected reminder for bob, got %s", mail.to)
	}
	if want := "Reminder: you owe $50.00 in 'Trip'"; mail.subject != want {
		t.Errorf("Expected subject %q, got %q", want, mail.subject)
	}
	if !strings.Contains(mail.body, "Hi Bob,") {
		t.Errorf("Expected greeting in body, got %q", mail.body)
	}
	if !strings.Contains(mail.body, "<strong>$50.00</strong>") {
		t.Errorf("Expected amount in body, got %q", mail.body)
	}
	if !strings.Contains(mail.body, "Pay Alice $50.00") {
		t.Errorf("Expected settlement suggestion in body, got %q", mail.body)
	}
}

func TestRunSkipsSettledGroups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice@example.com", "Alice")
	bob := mustCreateUser(t, store, "bob@example.com", "Bob")
	group := mustCreateGroup(t, store, "Trip", alice, bob)

	expense := models.NewExpense(group.ID, alice.ID, 100.0, "Hotel")
	expense.ParticipantIDs = []string{alice.ID, bob.ID}
	if err := store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	payment := models.NewPayment(group.ID, bob.ID, alice.ID, 50.0)
	if err := store.CreatePayment(ctx, payment); err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}

	mailer := &recordingMailer{}
	if err := NewJob(store, mailer).Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if sent := mailer.all(); len(sent) != 0 {
		t.Errorf("Expected no reminders for a settled group, got %+v", sent)
	}
}

func TestRunIgnoresCentDebts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice@example.com", "Alice")
	bob := mustCreateUser(t, store, "bob@example.com", "Bob")
	group := mustCreateGroup(t, store, "Trip", alice, bob)

	expense := models.NewExpense(group.ID, alice.ID, 0.02, "Gum")
	expense.ParticipantIDs = []string{alice.ID, bob.ID}
	if err := store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	mailer := &recordingMailer{}
	if err := NewJob(store, mailer).Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if sent := mailer.all(); len(sent) != 0 {
		t.Errorf("Expected no reminder for a one cent debt, got %+v", sent)
	}
}

func TestRunToleratesSendFailures(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, store, "alice@example.com", "Alice")
	bob := mustCreateUser(t, store, "bob@example.com", "Bob")
	group := mustCreateGroup(t, store, "Trip", alice, bob)

	expense := models.NewExpense(group.ID, alice.ID, 100.0, "Hotel")
	expense.ParticipantIDs = []string{alice.ID, bob.ID}
	if err := store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	if err := NewJob(store, failingMailer{}).Run(ctx); err != nil {
		t.Errorf("Expected send failures to be swallowed, got %v", err)
	}
}

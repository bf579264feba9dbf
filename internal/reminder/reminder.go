// Package reminder emails group members who still owe money.
package reminder

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"

	"splittab/internal/calculator"
	"splittab/internal/models"
	"splittab/internal/storage"
)

// debtFloor is the most negative balance that still counts as settled.
const debtFloor = -0.01

// Mailer sends a single HTML email.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer delivers mail through an SMTP server.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates a mailer for the given SMTP account.
func NewSMTPMailer(host string, port int, from, password string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, from, password),
		from:   from,
	}
}

// Send delivers one message. Each call dials a fresh connection.
func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// Job recomputes balances across all groups and nags the debtors.
type Job struct {
	store  storage.Store
	mailer Mailer
}

// NewJob creates a reminder job backed by the given store and mailer.
func NewJob(store storage.Store, mailer Mailer) *Job {
	return &Job{store: store, mailer: mailer}
}

// Start schedules the job on the given cron spec and starts the scheduler.
// The returned cron can be stopped on shutdown.
func (j *Job) Start(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := j.Run(ctx); err != nil {
			slog.Error("Reminder run failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule reminder job: %w", err)
	}

	c.Start()
	slog.Info("Reminder job scheduled", "cron", spec)
	return c, nil
}

// Run walks every group and emails each member owing more than a cent.
// Sends run concurrently; a failed send is logged and skipped, only a
// failed group listing aborts the run.
func (j *Job) Run(ctx context.Context) error {
	groups, err := j.store.ListGroups(ctx)
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}

	var wg sync.WaitGroup
	for _, group := range groups {
		debts, err := j.groupDebts(ctx, group)
		if err != nil {
			slog.Error("Reminder skipping group", "group_id", group.ID, "error", err)
			continue
		}

		for _, d := range debts {
			wg.Add(1)
			go func(d debt) {
				defer wg.Done()
				if err := j.mailer.Send(d.member.Email, d.subject(), d.body()); err != nil {
					slog.Error("Reminder send failed", "email", d.member.Email, "error", err)
					return
				}
				slog.Info("Reminder sent", "email", d.member.Email, "group", d.group.Name)
			}(d)
		}
	}
	wg.Wait()

	return nil
}

// debt is one member's outstanding balance in one group, along with the
// suggested transfers that would clear it.
type debt struct {
	group     *models.Group
	member    *models.User
	owed      float64
	transfers []calculator.Transfer
	names     map[string]string
}

func (j *Job) groupDebts(ctx context.Context, group *models.Group) ([]debt, error) {
	expenses, err := j.store.ListExpensesByGroup(ctx, group.ID, storage.ExpenseFilter{})
	if err != nil {
		return nil, err
	}
	payments, err := j.store.ListPaymentsByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	balanceExpenses := make([]calculator.Expense, len(expenses))
	for i, e := range expenses {
		balanceExpenses[i] = e.BalanceInput()
	}
	balancePayments := make([]calculator.Payment, len(payments))
	for i, p := range payments {
		balancePayments[i] = p.BalanceInput()
	}

	balances := calculator.ComputeBalances(group.MemberIDs(), balanceExpenses, balancePayments)
	settlements := calculator.ComputeSettlements(balances)

	names := make(map[string]string, len(group.Members))
	for _, m := range group.Members {
		names[m.ID] = m.DisplayName()
	}

	var debts []debt
	for _, member := range group.Members {
		balance := balances[member.ID]
		if balance >= debtFloor {
			continue
		}

		var transfers []calculator.Transfer
		for _, t := range settlements {
			if t.FromUserID == member.ID {
				transfers = append(transfers, t)
			}
		}

		debts = append(debts, debt{
			group:     group,
			member:    member,
			owed:      -balance,
			transfers: transfers,
			names:     names,
		})
	}

	return debts, nil
}

func (d debt) amount() string {
	return decimal.NewFromFloat(d.owed).StringFixed(2)
}

func (d debt) subject() string {
	return fmt.Sprintf("Reminder: you owe $%s in '%s'", d.amount(), d.group.Name)
}

func (d debt) body() string {
	var suggestions strings.Builder
	for _, t := range d.transfers {
		name, ok := d.names[t.ToUserID]
		if !ok {
			name = t.ToUserID
		}
		fmt.Fprintf(&suggestions, "<li>Pay %s $%s</li>",
			html.EscapeString(name), decimal.NewFromFloat(t.Amount).StringFixed(2))
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<html>
<body style="font-family: Arial, sans-serif; color: #333;">
<p>Hi %s,</p>
<p>You currently owe <strong>$%s</strong> in <strong>%s</strong>.</p>
`, html.EscapeString(d.member.DisplayName()), d.amount(), html.EscapeString(d.group.Name))
	if suggestions.Len() > 0 {
		b.WriteString("<p>To settle up:</p>\n<ul>" + suggestions.String() + "</ul>\n")
	}
	b.WriteString(`<p>Log in to record your payment once you have settled.</p>
</body>
</html>`)
	return b.String()
}

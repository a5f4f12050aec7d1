package usecase

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"mentor-booking/internal/data/entity"
	"mentor-booking/internal/data/repository"
	"mentor-booking/pkg/mailer"
	"mentor-booking/pkg/metrics"
	"mentor-booking/pkg/utils"

	"go.uber.org/zap"
)

// BookingCommitted is everything the reconciler wrote for one paid session.
type BookingCommitted struct {
	Plan    *entity.Plan
	Invoice *entity.Invoice
	Booking *entity.Booking
	Meeting *entity.Meeting
}

// Notifier is told about committed bookings. Implementations must not block
// the caller and never report delivery failures back.
type Notifier interface {
	BookingConfirmed(ctx context.Context, evt BookingCommitted)
}

// BookingConfirmation is the payload rendered into the confirmation email.
type BookingConfirmation struct {
	MenteeName      string
	MentorName      string
	PlanTitle       string
	PlanDescription string
	Date            time.Time
	Start           time.Time
	End             time.Time
	Location        string
	Subtotal        entity.Money
	DiscountAmount  entity.Money
	Total           entity.Money
	Currency        string
	DiscountName    string
}

type Dispatcher struct {
	users     repository.UserRepository
	discounts repository.DiscountRepository
	sender    mailer.Sender
	metrics   *metrics.Metrics
	timeout   time.Duration
	log       *zap.Logger
	wg        sync.WaitGroup
}

func NewDispatcher(repo *repository.Repository, sender mailer.Sender, m *metrics.Metrics, cfg utils.MailConfig, log *zap.Logger) *Dispatcher {
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		users:     repo.User,
		discounts: repo.Discount,
		sender:    sender,
		metrics:   m,
		timeout:   timeout,
		log:       log.With(zap.String("service", "notification")),
	}
}

// BookingConfirmed emails mentee and mentor in the background. The send is
// detached from ctx cancellation so a finished webhook request does not
// abort it.
func (d *Dispatcher) BookingConfirmed(ctx context.Context, evt BookingCommitted) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		d.dispatch(sendCtx, evt)
	}()
}

// Wait blocks until every in-flight notification has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(ctx context.Context, evt BookingCommitted) {
	log := d.log.With(zap.Stringer("meeting_id", evt.Meeting.ID))

	mentee, err := d.users.FindByID(ctx, evt.Booking.MenteeID)
	if err != nil || mentee == nil {
		log.Error("Failed to resolve mentee for notification", zap.Error(err), zap.Int64("mentee_id", evt.Booking.MenteeID))
		d.metrics.RecordNotification(false)
		return
	}
	mentor, err := d.users.FindByID(ctx, evt.Plan.MentorID)
	if err != nil || mentor == nil {
		log.Error("Failed to resolve mentor for notification", zap.Error(err), zap.Int64("mentor_id", evt.Plan.MentorID))
		d.metrics.RecordNotification(false)
		return
	}

	conf := BookingConfirmation{
		MenteeName:      mentee.FullName,
		MentorName:      mentor.FullName,
		PlanTitle:       evt.Plan.Title,
		PlanDescription: evt.Plan.Description,
		Date:            evt.Meeting.Slot.Date,
		Start:           evt.Meeting.Slot.Start,
		End:             evt.Meeting.Slot.End,
		Subtotal:        evt.Invoice.AmountSubtotal,
		DiscountAmount:  evt.Invoice.DiscountAmount,
		Total:           evt.Invoice.AmountTotal,
		Currency:        strings.ToUpper(evt.Invoice.Currency),
	}
	if evt.Meeting.Location != nil {
		conf.Location = *evt.Meeting.Location
	}
	if id, ok := evt.Booking.Discount.Get(); ok {
		discount, err := d.discounts.FindByID(ctx, id)
		if err != nil {
			log.Warn("Failed to resolve discount name", zap.Error(err), zap.Int64("discount_id", id))
		} else if discount != nil {
			conf.DiscountName = discount.Name
		}
	}

	for _, to := range []*entity.User{mentee, mentor} {
		msg := renderConfirmation(conf, to, to == mentor)
		if err := d.sender.Send(ctx, msg); err != nil {
			log.Error("Failed to send booking confirmation",
				zap.Error(err),
				zap.Int64("user_id", to.ID),
				zap.String("role", string(to.Role)),
			)
			d.metrics.RecordNotification(false)
			continue
		}
		d.metrics.RecordNotification(true)
	}
}

func renderConfirmation(c BookingConfirmation, to *entity.User, forMentor bool) mailer.Message {
	var b strings.Builder

	fmt.Fprintf(&b, "Hi %s,\n\n", to.FullName)
	if forMentor {
		fmt.Fprintf(&b, "%s booked your plan %q.\n", c.MenteeName, c.PlanTitle)
	} else {
		fmt.Fprintf(&b, "Your session with %s for %q is confirmed.\n", c.MentorName, c.PlanTitle)
	}
	if c.PlanDescription != "" {
		fmt.Fprintf(&b, "%s\n", c.PlanDescription)
	}
	fmt.Fprintf(&b, "\nDate: %s\nTime: %s-%s UTC\n",
		c.Date.Format(utils.DateLayout), c.Start.Format(utils.ClockLayout), c.End.Format(utils.ClockLayout))

	location := c.Location
	if location == "" {
		location = "to be shared by the mentor"
	}
	fmt.Fprintf(&b, "Location: %s\n", location)

	fmt.Fprintf(&b, "\nSubtotal: %s %s\n", c.Subtotal, c.Currency)
	if c.DiscountAmount > 0 {
		name := c.DiscountName
		if name == "" {
			name = "discount"
		}
		fmt.Fprintf(&b, "Discount (%s): -%s %s\n", name, c.DiscountAmount, c.Currency)
	}
	fmt.Fprintf(&b, "Total paid: %s %s\n", c.Total, c.Currency)

	text := b.String()
	return mailer.Message{
		ToEmail:   to.Email,
		ToName:    to.FullName,
		Subject:   fmt.Sprintf("Booking confirmed: %s on %s", c.PlanTitle, c.Date.Format(utils.DateLayout)),
		PlainText: text,
		HTML:      "<pre>" + html.EscapeString(text) + "</pre>",
	}
}

// Package formflow drives the five-step lead intake flow: per-step validation
// gating advancement, honeypot handling, advisory rate limiting and submit
// pacing. It is the in-process counterpart of the browser form; all checks it
// performs are UX only, the submit endpoint re-derives every decision.
package formflow

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/hrldev/portal-service/internal/models"
	"github.com/hrldev/portal-service/internal/ratelimit"
	"github.com/hrldev/portal-service/internal/validation"
)

// TotalSteps is the number of screens: projectType, budget, timeline,
// details, contact.
const TotalSteps = 5

// StepTitles in display order.
var StepTitles = []string{"Tip proiect", "Buget", "Termen", "Detalii", "Contact"}

const (
	// Minimum gap between consecutive submit attempts, to dampen
	// double-clicks.
	submitGap = 5 * time.Second

	rateLimitAction = "contact_form"
)

const (
	msgSuccess       = "Mulțumim! Cererea ta a fost trimisă. Te contactăm în curând!"
	msgHoneypotFake  = "Cererea ta a fost trimisă!"
	msgPacing        = "Te rugăm să aștepți câteva secunde."
	msgGenericError  = "A apărut o eroare. Te rugăm să încerci din nou."
	msgTooManyFormat = "Prea multe încercări. Încearcă din nou în %d minute."
)

// Submitter delivers a validated, sanitized submission to the backend.
type Submitter interface {
	Submit(ctx context.Context, sub *models.LeadSubmission) error
}

// ConsentRecorder records the GDPR consent that accompanies a successful
// submission. Failures are logged by the caller and never fail the flow.
type ConsentRecorder interface {
	RecordConsent(ctx context.Context, sub *models.LeadSubmission) error
}

// Outcome is the terminal result of a submit attempt.
type Outcome struct {
	Success bool
	Message string
}

// Config wires the controller's collaborators. Zero values get sensible
// defaults; tests inject fakes for every time- or randomness-dependent part.
type Config struct {
	Submitter Submitter
	Consents  ConsentRecorder
	Limiter   *ratelimit.MemoryLimiter
	Clock     ratelimit.Clock
	Sleep     func(time.Duration)
	RandInt   func(n int) int
}

// Controller holds the flow state for one form instance. Not safe for
// concurrent use; each form instance owns its controller.
type Controller struct {
	data       models.LeadSubmission
	step       int
	errors     map[string]string
	lastSubmit time.Time

	submitter Submitter
	consents  ConsentRecorder
	limiter   *ratelimit.MemoryLimiter
	clock     ratelimit.Clock
	sleep     func(time.Duration)
	randInt   func(n int) int
}

// New builds a controller positioned on step 1.
func New(cfg Config) *Controller {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	if cfg.RandInt == nil {
		cfg.RandInt = rand.Intn
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.NewMemoryLimiter(cfg.Clock)
	}
	return &Controller{
		step:      1,
		errors:    map[string]string{},
		submitter: cfg.Submitter,
		consents:  cfg.Consents,
		limiter:   cfg.Limiter,
		clock:     cfg.Clock,
		sleep:     cfg.Sleep,
		randInt:   cfg.RandInt,
	}
}

// Step returns the current 1-based step.
func (c *Controller) Step() int { return c.step }

// Errors returns the field errors from the last Next call.
func (c *Controller) Errors() map[string]string { return c.errors }

// Data returns a copy of the collected form data.
func (c *Controller) Data() models.LeadSubmission { return c.data }

// Update mutates the collected form data in place.
func (c *Controller) Update(fn func(*models.LeadSubmission)) { fn(&c.data) }

// Back moves one step back without re-validating. No-op on step 1.
func (c *Controller) Back() {
	if c.step > 1 {
		c.step--
	}
}

// Next validates the current step only. On failure the step is unchanged and
// Errors holds the field messages. On success it advances, except on the last
// step where it submits and returns the outcome.
func (c *Controller) Next(ctx context.Context) (*Outcome, error) {
	c.errors = validation.ValidateLeadStep(c.step, &c.data)
	if len(c.errors) > 0 {
		return nil, nil
	}
	if c.step < TotalSteps {
		c.step++
		return nil, nil
	}
	return c.submit(ctx)
}

func (c *Controller) submit(ctx context.Context) (*Outcome, error) {
	// Bots that fill the hidden fields get a believable success and
	// nothing else: a randomized delay, no network call, a fresh form.
	if validation.HoneypotTriggered(c.data.HoneypotValues()) {
		c.sleep(c.randDelay(500, 1500))
		c.reset()
		return &Outcome{Success: true, Message: msgHoneypotFake}, nil
	}

	if res := c.limiter.Check(rateLimitAction, ratelimit.ContactFormConfig()); !res.Allowed {
		minutes := int(res.RetryAfter.Minutes())
		if minutes < 1 {
			minutes = 1
		}
		return &Outcome{Message: fmt.Sprintf(msgTooManyFormat, minutes)}, nil
	}

	now := c.clock()
	if !c.lastSubmit.IsZero() && now.Sub(c.lastSubmit) < submitGap {
		return &Outcome{Message: msgPacing}, nil
	}
	c.lastSubmit = now

	// Randomized pre-dispatch delay to blunt timing-based enumeration.
	c.sleep(c.randDelay(200, 600))

	sub := c.data
	sub.Details = validation.SanitizeText(sub.Details)
	sub.Name = validation.SanitizeText(sub.Name)

	if err := c.submitter.Submit(ctx, &sub); err != nil {
		// Keep the entered data so the user can retry.
		return &Outcome{Message: msgGenericError}, err
	}

	if c.consents != nil {
		// Best effort; consent logging must not fail the submission.
		_ = c.consents.RecordConsent(ctx, &sub)
	}

	c.reset()
	return &Outcome{Success: true, Message: msgSuccess}, nil
}

func (c *Controller) randDelay(minMs, maxMs int) time.Duration {
	return time.Duration(minMs+c.randInt(maxMs-minMs+1)) * time.Millisecond
}

// reset restores the initial state, honeypot fields included.
func (c *Controller) reset() {
	c.data = models.LeadSubmission{}
	c.step = 1
	c.errors = map[string]string{}
}

package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/sirupsen/logrus"
)

// Human labels for the intake form enum values, used in notification emails.
var (
	projectTypeLabels = map[string]string{
		"prezentare": "Site de prezentare",
		"magazin":    "Magazin online",
		"aplicatie":  "Aplicație web",
		"saas":       "Platformă SaaS",
		"altele":     "Altele",
	}
	budgetLabels = map[string]string{
		"<300":     "Mai puțin de 300€",
		"300-800":  "300€ - 800€",
		"800-1700": "800€ - 1700€",
		">1700":    "Peste 1700€",
	}
	timelineLabels = map[string]string{
		"1-2saptamani": "1-2 săptămâni",
		"2-4saptamani": "2-4 săptămâni",
		"1-2luni":      "1-2 luni",
		">2luni":       "Peste 2 luni",
	}
)

func labelOr(labels map[string]string, key string) string {
	if label, ok := labels[key]; ok {
		return label
	}
	return key
}

// ContactNotification carries a validated form submission into the agency
// inbox email.
type ContactNotification struct {
	Name        string
	Email       string
	Phone       string
	ProjectType string
	Budget      string
	Timeline    string
	Details     string
}

// PurchaseConfirmation carries order details into the buyer confirmation email.
type PurchaseConfirmation struct {
	Email       string
	PackageName string
	Amount      float64
	OrderID     string
}

var contactTmpl = template.Must(template.New("contact").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #8B5CF6; border-bottom: 2px solid #8B5CF6; padding-bottom: 10px;">🚀 Nouă cerere de proiect</h1>
  <div style="margin-bottom: 16px;"><div style="font-weight: 600; color: #666; font-size: 12px; text-transform: uppercase;">Nume</div><div style="background: #f5f5f5; padding: 12px; border-radius: 8px;">{{.Name}}</div></div>
  <div style="margin-bottom: 16px;"><div style="font-weight: 600; color: #666; font-size: 12px; text-transform: uppercase;">Email</div><div style="background: #f5f5f5; padding: 12px; border-radius: 8px;"><a href="mailto:{{.Email}}">{{.Email}}</a></div></div>
  {{if .Phone}}<div style="margin-bottom: 16px;"><div style="font-weight: 600; color: #666; font-size: 12px; text-transform: uppercase;">Telefon</div><div style="background: #f5f5f5; padding: 12px; border-radius: 8px;"><a href="tel:{{.Phone}}">{{.Phone}}</a></div></div>{{end}}
  <div style="margin-bottom: 16px;"><div style="font-weight: 600; color: #666; font-size: 12px; text-transform: uppercase;">Tip proiect</div><div style="background: #f5f5f5; padding: 12px; border-radius: 8px;">{{.ProjectTypeLabel}}</div></div>
  <div style="margin-bottom: 16px;"><div style="font-weight: 600; color: #666; font-size: 12px; text-transform: uppercase;">Buget estimat</div><div style="background: #f5f5f5; padding: 12px; border-radius: 8px;">{{.BudgetLabel}}</div></div>
  <div style="margin-bottom: 16px;"><div style="font-weight: 600; color: #666; font-size: 12px; text-transform: uppercase;">Termen dorit</div><div style="background: #f5f5f5; padding: 12px; border-radius: 8px;">{{.TimelineLabel}}</div></div>
  <div style="margin-bottom: 16px;"><div style="font-weight: 600; color: #666; font-size: 12px; text-transform: uppercase;">Detalii proiect</div><div style="background: #f5f5f5; padding: 12px; border-radius: 8px; white-space: pre-wrap;">{{.Details}}</div></div>
  <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #888;">Cerere trimisă prin formularul de contact HRL.dev</div>
</body>
</html>`))

var purchaseTmpl = template.Must(template.New("purchase").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Confirmare achiziție</title></head>
<body style="font-family: 'Segoe UI', Tahoma, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f8fafc;">
  <div style="background: linear-gradient(135deg, #1a1a2e 0%, #16213e 100%); padding: 40px 30px; border-radius: 16px 16px 0 0; text-align: center;">
    <h1 style="color: #ffffff; margin: 0; font-size: 28px;">Mulțumim pentru achiziție! 🎉</h1>
  </div>
  <div style="background: #ffffff; padding: 40px 30px; border-radius: 0 0 16px 16px;">
    <p>Bună,</p>
    <p>Achiziția ta a fost procesată cu succes! Iată detaliile comenzii:</p>
    <div style="background: #f1f5f9; padding: 20px; border-radius: 12px; margin: 25px 0;">
      <table style="width: 100%; border-collapse: collapse;">
        <tr><td style="padding: 8px 0; color: #64748b;">Pachet:</td><td style="padding: 8px 0; text-align: right; font-weight: 600;">{{.PackageName}}</td></tr>
        <tr><td style="padding: 8px 0; color: #64748b;">Sumă plătită:</td><td style="padding: 8px 0; text-align: right; font-weight: 600;">{{.Amount}}€</td></tr>
        <tr><td style="padding: 8px 0; color: #64748b;">ID Comandă:</td><td style="padding: 8px 0; text-align: right; font-size: 12px; font-family: monospace;">{{.ShortOrderID}}...</td></tr>
      </table>
    </div>
    <h2 style="color: #1a1a2e; font-size: 20px;">📋 Pașii următori</h2>
    <p><strong>1. Programează o consultație</strong><br>Vom discuta detaliile proiectului tău și vom stabili un plan de acțiune.</p>
    <p><strong>2. Pregătește materialele</strong><br>Logo, texte, imagini sau orice alt material relevant pentru proiect.</p>
    <p><strong>3. Accesează dashboard-ul</strong><br>Urmărește progresul proiectului și comunică cu echipa noastră.</p>
    <div style="text-align: center; margin: 35px 0;">
      <a href="{{.DashboardURL}}" style="background: linear-gradient(135deg, #10b981 0%, #059669 100%); color: white; padding: 14px 32px; text-decoration: none; border-radius: 8px; font-weight: 600; display: inline-block;">📅 Programează consultația</a>
    </div>
    <p style="font-size: 14px; color: #64748b; text-align: center;">Ai întrebări? Răspunde direct la acest email sau contactează-ne la <a href="mailto:{{.ContactEmail}}" style="color: #3b82f6;">{{.ContactEmail}}</a></p>
  </div>
  <div style="text-align: center; padding: 20px; color: #94a3b8; font-size: 12px;"><p>© {{.Year}} HRL.dev. Toate drepturile rezervate.</p></div>
</body>
</html>`))

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #8B5CF6;">Bine ai venit la HRL.dev! 👋</h1>
  <p>Bună{{if .Name}}, {{.Name}}{{end}},</p>
  <p>Contul tău a fost creat cu succes. Din dashboard poți urmări cererile tale de proiect, pachetele achiziționate și mesajele de la echipa noastră.</p>
  <div style="text-align: center; margin: 35px 0;">
    <a href="{{.DashboardURL}}" style="background: #8B5CF6; color: white; padding: 14px 32px; text-decoration: none; border-radius: 8px; font-weight: 600; display: inline-block;">Deschide dashboard-ul</a>
  </div>
  <p style="font-size: 12px; color: #888;">Dacă nu tu ai creat acest cont, ignoră acest email.</p>
</body>
</html>`))

// Mailer renders and sends the portal's transactional emails.
type Mailer struct {
	provider     Provider
	contactInbox string
	siteOrigin   string
	logger       *logrus.Logger
}

func NewMailer(provider Provider, contactInbox, siteOrigin string, logger *logrus.Logger) *Mailer {
	return &Mailer{
		provider:     provider,
		contactInbox: contactInbox,
		siteOrigin:   siteOrigin,
		logger:       logger,
	}
}

// SendContactNotification mails a new submission to the agency inbox with the
// lead's address as Reply-To.
func (m *Mailer) SendContactNotification(ctx context.Context, n ContactNotification) error {
	data := struct {
		ContactNotification
		ProjectTypeLabel string
		BudgetLabel      string
		TimelineLabel    string
	}{
		ContactNotification: n,
		ProjectTypeLabel:    labelOr(projectTypeLabels, n.ProjectType),
		BudgetLabel:         labelOr(budgetLabels, n.Budget),
		TimelineLabel:       labelOr(timelineLabels, n.Timeline),
	}

	var body bytes.Buffer
	if err := contactTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render contact email: %w", err)
	}

	subject := fmt.Sprintf("[HRL.dev] Cerere nouă: %s - %s", data.ProjectTypeLabel, n.Name)
	return m.send(ctx, &Message{
		To:       m.contactInbox,
		Subject:  subject,
		BodyHTML: body.String(),
		ReplyTo:  n.Email,
	})
}

// SendPurchaseConfirmation mails order details to the buyer.
func (m *Mailer) SendPurchaseConfirmation(ctx context.Context, p PurchaseConfirmation) error {
	shortID := p.OrderID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	data := struct {
		PackageName  string
		Amount       float64
		ShortOrderID string
		DashboardURL string
		ContactEmail string
		Year         int
	}{
		PackageName:  p.PackageName,
		Amount:       p.Amount,
		ShortOrderID: shortID,
		DashboardURL: m.siteOrigin + "/#/dashboard/packages",
		ContactEmail: m.contactInbox,
		Year:         time.Now().Year(),
	}

	var body bytes.Buffer
	if err := purchaseTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render purchase email: %w", err)
	}

	return m.send(ctx, &Message{
		To:       p.Email,
		Subject:  fmt.Sprintf("Confirmare achiziție: %s", p.PackageName),
		BodyHTML: body.String(),
	})
}

// SendWelcome mails the onboarding email to a new portal user.
func (m *Mailer) SendWelcome(ctx context.Context, to, name string) error {
	data := struct {
		Name         string
		DashboardURL string
	}{
		Name:         name,
		DashboardURL: m.siteOrigin + "/#/dashboard",
	}

	var body bytes.Buffer
	if err := welcomeTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render welcome email: %w", err)
	}

	return m.send(ctx, &Message{
		To:       to,
		Subject:  "Bine ai venit la HRL.dev!",
		BodyHTML: body.String(),
	})
}

func (m *Mailer) send(ctx context.Context, msg *Message) error {
	result, err := m.provider.Send(ctx, msg)
	if err != nil {
		m.logger.WithFields(logrus.Fields{
			"to":      msg.To,
			"subject": msg.Subject,
			"error":   err,
		}).Error("Failed to send email")
		return err
	}
	m.logger.WithFields(logrus.Fields{
		"to":       msg.To,
		"subject":  msg.Subject,
		"provider": result.ProviderName,
	}).Info("Email sent")
	return nil
}

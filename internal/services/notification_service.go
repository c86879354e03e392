// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/vouchify/vouchify-backend/internal/config"
	"github.com/vouchify/vouchify-backend/internal/models"
)

type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(db *gorm.DB, cfg *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: cfg,
	}
}

// Authentication emails

func (s *NotificationService) SendWelcomeEmail(user *models.User, verificationToken string) error {
	tmpl := s.getEmailTemplate("welcome")

	data := map[string]interface{}{
		"Username":        user.Username,
		"VerificationURL": fmt.Sprintf("%s/verify-email?token=%s", s.config.Frontend.BaseURL, verificationToken),
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(user.Email, tmpl.Subject, body)
}

func (s *NotificationService) SendPasswordResetEmail(user *models.User, resetToken string) error {
	tmpl := s.getEmailTemplate("password_reset")

	data := map[string]interface{}{
		"Username":  user.Username,
		"ResetURL":  fmt.Sprintf("%s/reset-password?token=%s", s.config.Frontend.BaseURL, resetToken),
		"ExpiresIn": "1 hour",
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(user.Email, tmpl.Subject, body)
}

// Listing lifecycle

func (s *NotificationService) NotifyAdminsVoucherReview(voucher *models.Voucher) {
	id := voucher.ID
	notification := &models.AdminNotification{
		Type:                "voucher_review",
		Title:               "New voucher awaiting review",
		Message:             fmt.Sprintf("Voucher '%s' (%s) was listed and needs approval", voucher.Title, voucher.Brand),
		Priority:            "medium",
		RelatedResourceType: "voucher",
		RelatedResourceID:   &id,
	}
	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).Error("Failed to create voucher review notification")
	}
}

func (s *NotificationService) NotifyVoucherApproved(voucher *models.Voucher) {
	seller, err := s.loadUser(voucher.SellerID)
	if err != nil {
		return
	}

	tmpl := s.getEmailTemplate("voucher_approved")
	data := map[string]interface{}{
		"SellerName":   seller.Username,
		"VoucherTitle": voucher.Title,
		"VoucherURL":   fmt.Sprintf("%s/vouchers/%s", s.config.Frontend.BaseURL, voucher.ID),
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		logrus.WithError(err).Error("Failed to render voucher approved email")
		return
	}
	if err := s.sendEmail(seller.Email, tmpl.Subject+" - "+voucher.Title, body); err != nil {
		logrus.WithError(err).Error("Failed to send voucher approved email")
	}
}

func (s *NotificationService) NotifyVoucherRejected(voucher *models.Voucher, reason string) {
	seller, err := s.loadUser(voucher.SellerID)
	if err != nil {
		return
	}

	tmpl := s.getEmailTemplate("voucher_rejected")
	data := map[string]interface{}{
		"SellerName":   seller.Username,
		"VoucherTitle": voucher.Title,
		"Reason":       reason,
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		logrus.WithError(err).Error("Failed to render voucher rejected email")
		return
	}
	if err := s.sendEmail(seller.Email, tmpl.Subject+" - "+voucher.Title, body); err != nil {
		logrus.WithError(err).Error("Failed to send voucher rejected email")
	}
}

// Purchase lifecycle. These run in goroutines off the request path, so
// they log failures instead of returning them.

func (s *NotificationService) NotifyPurchaseInitiated(transaction *models.Transaction) {
	buyer, err := s.loadUser(transaction.BuyerID)
	if err != nil {
		return
	}
	voucher, err := s.loadVoucher(transaction.VoucherID)
	if err != nil {
		return
	}

	tmpl := s.getEmailTemplate("purchase_initiated")
	data := map[string]interface{}{
		"BuyerName":     buyer.Username,
		"VoucherTitle":  voucher.Title,
		"Amount":        transaction.AmountPaid,
		"Status":        transaction.Status,
		"TransactionID": transaction.ID,
		"OrderURL":      fmt.Sprintf("%s/transactions/%s", s.config.Frontend.BaseURL, transaction.ID),
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		logrus.WithError(err).Error("Failed to render purchase email")
		return
	}
	if err := s.sendEmail(buyer.Email, tmpl.Subject+" - "+voucher.Title, body); err != nil {
		logrus.WithError(err).Error("Failed to send purchase email")
	}
}

func (s *NotificationService) NotifyAdminsPaymentReview(transaction *models.Transaction) {
	id := transaction.ID
	notification := &models.AdminNotification{
		Type:                "payment_review",
		Title:               "Manual payment awaiting confirmation",
		Message:             fmt.Sprintf("Transaction %s is waiting for payment verification", transaction.ID),
		Priority:            "high",
		RelatedResourceType: "transaction",
		RelatedResourceID:   &id,
	}
	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).Error("Failed to create payment review notification")
	}
}

// NotifySaleSettled emails both parties: the buyer that the code is
// available, the seller that the sale went through.
func (s *NotificationService) NotifySaleSettled(transaction *models.Transaction) {
	voucher, err := s.loadVoucher(transaction.VoucherID)
	if err != nil {
		return
	}

	if buyer, err := s.loadUser(transaction.BuyerID); err == nil {
		tmpl := s.getEmailTemplate("purchase_confirmed")
		data := map[string]interface{}{
			"BuyerName":    buyer.Username,
			"VoucherTitle": voucher.Title,
			"RevealURL":    fmt.Sprintf("%s/transactions/%s/code", s.config.Frontend.BaseURL, transaction.ID),
		}
		if body, err := s.renderTemplate(tmpl.Body, data); err == nil {
			if err := s.sendEmail(buyer.Email, tmpl.Subject+" - "+voucher.Title, body); err != nil {
				logrus.WithError(err).Error("Failed to send purchase confirmed email")
			}
		}
	}

	if seller, err := s.loadUser(transaction.SellerID); err == nil {
		tmpl := s.getEmailTemplate("sale_settled")
		data := map[string]interface{}{
			"SellerName":   seller.Username,
			"VoucherTitle": voucher.Title,
			"Payout":       transaction.SellerPayout,
		}
		if body, err := s.renderTemplate(tmpl.Body, data); err == nil {
			if err := s.sendEmail(seller.Email, tmpl.Subject+" - "+voucher.Title, body); err != nil {
				logrus.WithError(err).Error("Failed to send sale settled email")
			}
		}
	}
}

func (s *NotificationService) NotifyPurchaseRejected(transaction *models.Transaction, reason string) {
	buyer, err := s.loadUser(transaction.BuyerID)
	if err != nil {
		return
	}
	voucher, err := s.loadVoucher(transaction.VoucherID)
	if err != nil {
		return
	}

	tmpl := s.getEmailTemplate("purchase_rejected")
	data := map[string]interface{}{
		"BuyerName":    buyer.Username,
		"VoucherTitle": voucher.Title,
		"Reason":       reason,
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		logrus.WithError(err).Error("Failed to render purchase rejected email")
		return
	}
	if err := s.sendEmail(buyer.Email, tmpl.Subject+" - "+voucher.Title, body); err != nil {
		logrus.WithError(err).Error("Failed to send purchase rejected email")
	}
}

func (s *NotificationService) NotifyRefund(transaction *models.Transaction) {
	buyer, err := s.loadUser(transaction.BuyerID)
	if err != nil {
		return
	}
	voucher, err := s.loadVoucher(transaction.VoucherID)
	if err != nil {
		return
	}

	tmpl := s.getEmailTemplate("refund")
	data := map[string]interface{}{
		"BuyerName":     buyer.Username,
		"VoucherTitle":  voucher.Title,
		"Amount":        transaction.AmountPaid,
		"TransactionID": transaction.ID,
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		logrus.WithError(err).Error("Failed to render refund email")
		return
	}
	if err := s.sendEmail(buyer.Email, tmpl.Subject+" - "+voucher.Title, body); err != nil {
		logrus.WithError(err).Error("Failed to send refund email")
	}
}

func (s *NotificationService) NotifyPayoutPaid(payout *models.Payout) {
	seller, err := s.loadUser(payout.SellerID)
	if err != nil {
		return
	}

	tmpl := s.getEmailTemplate("payout_paid")
	data := map[string]interface{}{
		"SellerName": seller.Username,
		"Amount":     payout.Amount,
		"Reference":  payout.AdminReference,
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		logrus.WithError(err).Error("Failed to render payout email")
		return
	}
	if err := s.sendEmail(seller.Email, tmpl.Subject, body); err != nil {
		logrus.WithError(err).Error("Failed to send payout email")
	}
}

// Helper methods

func (s *NotificationService) loadUser(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		logrus.WithError(err).WithField("user_id", id).Error("Failed to load user for notification")
		return nil, err
	}
	return &user, nil
}

func (s *NotificationService) loadVoucher(id uuid.UUID) (*models.Voucher, error) {
	var voucher models.Voucher
	if err := s.db.First(&voucher, "id = ?", id).Error; err != nil {
		logrus.WithError(err).WithField("voucher_id", id).Error("Failed to load voucher for notification")
		return nil, err
	}
	return &voucher, nil
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPUsername == "" {
		logrus.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Debug("SMTP not configured, skipping email")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s <%s>\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		to, s.config.Email.FromName, s.config.Email.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"welcome": {
			Subject: "Welcome to Vouchify",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Welcome {{.Username}}!</h2>
	<p>Thanks for joining Vouchify. Please verify your email address:</p>
	<a href="{{.VerificationURL}}">Verify Email</a>
	<p>The Vouchify Team</p>
</body>
</html>`,
		},
		"password_reset": {
			Subject: "Password Reset Request",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Password Reset</h2>
	<p>Hello {{.Username}},</p>
	<p>Click the link below to reset your password. It expires in {{.ExpiresIn}}.</p>
	<a href="{{.ResetURL}}">Reset Password</a>
	<p>If you did not request this, you can ignore this email.</p>
</body>
</html>`,
		},
		"voucher_approved": {
			Subject: "Voucher Approved",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Your voucher is live!</h2>
	<p>Hello {{.SellerName}},</p>
	<p>"{{.VoucherTitle}}" has been approved and is now listed for sale.</p>
	<a href="{{.VoucherURL}}">View Listing</a>
</body>
</html>`,
		},
		"voucher_rejected": {
			Subject: "Voucher Rejected",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Voucher listing rejected</h2>
	<p>Hello {{.SellerName}},</p>
	<p>"{{.VoucherTitle}}" was not approved for listing.</p>
	<p>Reason: {{.Reason}}</p>
</body>
</html>`,
		},
		"purchase_initiated": {
			Subject: "Order Received",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Order received</h2>
	<p>Hello {{.BuyerName}},</p>
	<p>Your order for "{{.VoucherTitle}}" ({{.Amount}}) is {{.Status}}.</p>
	<a href="{{.OrderURL}}">View Order</a>
</body>
</html>`,
		},
		"purchase_confirmed": {
			Subject: "Payment Confirmed",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Your voucher code is ready</h2>
	<p>Hello {{.BuyerName}},</p>
	<p>Your payment for "{{.VoucherTitle}}" has been confirmed.</p>
	<a href="{{.RevealURL}}">Reveal Your Code</a>
</body>
</html>`,
		},
		"sale_settled": {
			Subject: "You Made a Sale",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Sale confirmed</h2>
	<p>Hello {{.SellerName}},</p>
	<p>"{{.VoucherTitle}}" sold. Your payout of {{.Payout}} is queued for disbursement.</p>
</body>
</html>`,
		},
		"purchase_rejected": {
			Subject: "Order Cancelled",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Order cancelled</h2>
	<p>Hello {{.BuyerName}},</p>
	<p>Your order for "{{.VoucherTitle}}" was cancelled.</p>
	<p>Reason: {{.Reason}}</p>
</body>
</html>`,
		},
		"refund": {
			Subject: "Refund Processed",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Refund processed</h2>
	<p>Hello {{.BuyerName}},</p>
	<p>Your payment of {{.Amount}} for "{{.VoucherTitle}}" has been refunded.</p>
	<p>Reference: {{.TransactionID}}</p>
</body>
</html>`,
		},
		"payout_paid": {
			Subject: "Payout Sent",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Payout sent</h2>
	<p>Hello {{.SellerName}},</p>
	<p>Your payout of {{.Amount}} has been transferred.</p>
	<p>Reference: {{.Reference}}</p>
</body>
</html>`,
		},
	}

	if tmpl, ok := templates[templateType]; ok {
		return tmpl
	}
	return EmailTemplate{Subject: "Vouchify Notification", Body: "<p>{{.}}</p>"}
}

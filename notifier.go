package identity

import "context"

// Notifier receives the outbound notifications the lifecycle flows trigger.
// Delivery is out of scope for this core: implementations run best-effort and
// their failures never reach the caller of the triggering operation.
type Notifier interface {
	SignupConfirmation(ctx context.Context, email, confirmToken string) error
	Invite(ctx context.Context, email, inviteToken string) error
	PasswordReset(ctx context.Context, email, resetToken string) error
}

type noopNotifier struct{}

func (noopNotifier) SignupConfirmation(ctx context.Context, email, confirmToken string) error {
	return nil
}

func (noopNotifier) Invite(ctx context.Context, email, inviteToken string) error {
	return nil
}

func (noopNotifier) PasswordReset(ctx context.Context, email, resetToken string) error {
	return nil
}

// LogNotifier writes notification intents to the logger. Useful in
// development where no mailer is wired.
type LogNotifier struct {
	Logger Logger
}

func (n LogNotifier) logger() Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return defLogger{}
}

func (n LogNotifier) SignupConfirmation(ctx context.Context, email, confirmToken string) error {
	n.logger().Info("signup confirmation for %s link=/confirm-email/%s", email, confirmToken)
	return nil
}

func (n LogNotifier) Invite(ctx context.Context, email, inviteToken string) error {
	n.logger().Info("invite for %s link=/accept-invite/%s", email, inviteToken)
	return nil
}

func (n LogNotifier) PasswordReset(ctx context.Context, email, resetToken string) error {
	n.logger().Info("password reset for %s link=/password-reset/%s", email, resetToken)
	return nil
}

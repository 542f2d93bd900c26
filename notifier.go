package auth

import "context"

type noopNotifier struct{}

func (noopNotifier) AccountActivation(context.Context, ActivationNotice) error { return nil }

func (noopNotifier) PasswordReset(context.Context, ResetNotice) error { return nil }

// NoopNotifier returns a Notifier that drops every notice.
func NoopNotifier() Notifier { return noopNotifier{} }

// LogNotifier writes notices through the logger. Useful in development
// before a real mailer is wired in.
type LogNotifier struct {
	Logger Logger
}

var _ Notifier = LogNotifier{}

func (n LogNotifier) AccountActivation(_ context.Context, notice ActivationNotice) error {
	n.getLogger().Info("account activation notice", "email", notice.Email, "token", notice.Token)
	return nil
}

func (n LogNotifier) PasswordReset(_ context.Context, notice ResetNotice) error {
	n.getLogger().Info("password reset notice", "email", notice.Email, "token", notice.Token)
	return nil
}

func (n LogNotifier) getLogger() Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return defLogger{}
}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

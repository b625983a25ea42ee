package mail

import "github.com/cg505/ocflib/internal/account"

// RejectionNotifier sends rejection mail through a MailSender.
type RejectionNotifier struct {
	sender MailSender
}

func NewRejectionNotifier(sender MailSender) *RejectionNotifier {
	return &RejectionNotifier{sender: sender}
}

func (n *RejectionNotifier) SendRejected(req account.NewAccountRequest, reason string) error {
	return SendRejectedMail(n.sender, req, reason)
}

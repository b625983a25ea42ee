package mail

import (
	"fmt"

	"github.com/cg505/ocflib/internal/account"
)

// SendRejectedMail informs the requester that staff rejected their
// account request. The reason is whatever human-readable string the
// rejecting decision carried.
func SendRejectedMail(sender MailSender, req account.NewAccountRequest, reason string) error {
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"Your account request for the username %q was reviewed by staff "+
			"and could not be approved: %s\n\n"+
			"You are welcome to submit a new request.\n",
		req.RealName, req.Username, reason,
	)
	return sender.Send(&Message{
		To:      []string{req.Email},
		Subject: fmt.Sprintf("Account request %q rejected", req.Username),
		Body:    body,
	})
}

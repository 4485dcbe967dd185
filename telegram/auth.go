package telegram

import (
	"context"
	"errors"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"

	"github.com/honganh1206/tgterm/termio"
)

// termAuth feeds the gotd login flow from the IO boundary. The password
// prompt is only reached when the account has two-step verification
// enabled.
type termAuth struct {
	io termio.IO
}

var _ auth.UserAuthenticator = termAuth{}

func (a termAuth) Phone(ctx context.Context) (string, error) {
	phone, err := a.io.Read("Enter your phone number (international format): ")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(phone), nil
}

func (a termAuth) Code(ctx context.Context, sentCode *tg.AuthSentCode) (string, error) {
	code, err := a.io.Read("Enter the login code you received: ")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(code), nil
}

func (a termAuth) Password(ctx context.Context) (string, error) {
	return a.io.ReadSecret("Two-step password: ")
}

func (a termAuth) AcceptTermsOfService(ctx context.Context, tos tg.HelpTermsOfService) error {
	return nil
}

func (a termAuth) SignUp(ctx context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, errors.New("sign-up is not supported; register the account from an official client first")
}

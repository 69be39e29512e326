package account

import (
	"context"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-followup/errors"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
	"github.com/johnquangdev/meeting-followup/internal/domain/repositories"
	"github.com/johnquangdev/meeting-followup/internal/infrastructure/external/oauth"
)

// ConnectService runs the calendar connection flow. An account that
// completes Google consent is flagged calendar-connected, which opts it in
// to reconciliation polling.
type ConnectService struct {
	accounts repositories.AccountRepository
	provider *oauth.CalendarProvider
	states   *oauth.StateManager
	logger   *zap.Logger
}

// NewConnectService constructs the calendar connect service
func NewConnectService(
	accounts repositories.AccountRepository,
	provider *oauth.CalendarProvider,
	states *oauth.StateManager,
	logger *zap.Logger,
) *ConnectService {
	return &ConnectService{
		accounts: accounts,
		provider: provider,
		states:   states,
		logger:   logger,
	}
}

// AuthURL generates the consent URL with a one-time CSRF state
func (s *ConnectService) AuthURL(ctx context.Context) (string, error) {
	state, err := s.states.GenerateState()
	if err != nil {
		return "", errors.ErrInternal(err)
	}
	return s.provider.GetAuthURL(state), nil
}

// HandleCallback completes the consent flow: validates state, exchanges the
// code, resolves the Google identity to an account, and marks the account
// calendar-connected.
func (s *ConnectService) HandleCallback(ctx context.Context, code, state string) (*entities.Account, error) {
	if code == "" || state == "" {
		return nil, errors.ErrInvalidArgument("code and state are required")
	}
	if !s.states.ValidateState(state) {
		return nil, errors.ErrForbidden("invalid or expired state")
	}

	token, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, errors.ErrExternalAPI("google_oauth", err)
	}

	info, err := s.provider.GetUserInfo(ctx, token)
	if err != nil {
		return nil, errors.ErrExternalAPI("google_oauth", err)
	}
	if !info.VerifiedEmail {
		return nil, errors.ErrForbidden("google account email is not verified")
	}

	account, err := s.accounts.FindByEmail(ctx, info.Email)
	if err != nil {
		return nil, errors.ErrDBQuery(err)
	}
	if account == nil {
		return nil, errors.ErrNotFound("account")
	}

	if !account.CalendarConnected {
		account.CalendarConnected = true
		if err := s.accounts.Update(ctx, account); err != nil {
			return nil, errors.ErrDBQuery(err)
		}
	}

	s.logger.Info("calendar connected",
		zap.String("account_id", account.ID),
		zap.String("email", account.Email),
	)
	return account, nil
}

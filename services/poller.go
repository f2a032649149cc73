package services

import (
	"context"
	"time"

	"github.com/mbenaiss/lexchat/auth"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// WalletPoller refreshes the wallet balance on a cron schedule while a user
// is logged in
type WalletPoller struct {
	cron    *cron.Cron
	service Service
	timeout time.Duration
	logger  zerolog.Logger
}

// NewWalletPoller registers the refresh job on spec, e.g. "@every 30s"
func NewWalletPoller(service Service, spec string, timeout time.Duration, logger zerolog.Logger) (*WalletPoller, error) {
	p := &WalletPoller{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		service: service,
		timeout: timeout,
		logger:  logger.With().Str("component", "wallet-poller").Logger(),
	}

	if _, err := p.cron.AddFunc(spec, p.poll); err != nil {
		return nil, errors.Wrapf(err, "invalid wallet poll spec %q", spec)
	}
	return p, nil
}

// Start begins polling
func (p *WalletPoller) Start() {
	p.cron.Start()
	p.logger.Debug().Msg("wallet poller started")
}

// Stop waits for a running refresh to finish
func (p *WalletPoller) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
	p.logger.Debug().Msg("wallet poller stopped")
}

func (p *WalletPoller) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	wallet, err := p.service.RefreshWallet(ctx)
	if errors.Is(err, auth.ErrNotAuthenticated) {
		return
	}
	if err != nil {
		p.logger.Warn().Err(err).Msg("wallet refresh failed")
		return
	}
	p.logger.Debug().Float64("balance", wallet.Balance).Msg("wallet refreshed")
}

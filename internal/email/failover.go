package email

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// FailoverProvider tries providers in order, skipping any whose circuit
// breaker is open. Providers are wrapped individually so a flapping SendGrid
// does not take SMTP down with it.
type FailoverProvider struct {
	providers []Provider
	breakers  []*gobreaker.CircuitBreaker
	logger    *logrus.Logger
}

func NewFailoverProvider(logger *logrus.Logger, providers ...Provider) *FailoverProvider {
	valid := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			valid = append(valid, p)
		}
	}

	breakers := make([]*gobreaker.CircuitBreaker, len(valid))
	for i, p := range valid {
		breakers[i] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        fmt.Sprintf("email-%s", p.GetName()),
			MaxRequests: 1,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("Email circuit breaker state changed")
			},
		})
	}

	return &FailoverProvider{providers: valid, breakers: breakers, logger: logger}
}

func (f *FailoverProvider) Send(ctx context.Context, message *Message) (*SendResult, error) {
	if len(f.providers) == 0 {
		err := fmt.Errorf("no email providers configured")
		return &SendResult{ProviderName: f.GetName(), Success: false, Error: err}, err
	}

	var lastErr error
	for i, provider := range f.providers {
		if err := ctx.Err(); err != nil {
			return &SendResult{ProviderName: f.GetName(), Success: false, Error: err}, err
		}

		result, err := f.breakers[i].Execute(func() (interface{}, error) {
			return provider.Send(ctx, message)
		})
		if err == nil {
			if res, ok := result.(*SendResult); ok && res.Success {
				if i > 0 {
					f.logger.WithField("provider", provider.GetName()).
						Info("Email delivered via fallback provider")
				}
				return res, nil
			}
		}

		lastErr = err
		f.logger.WithFields(logrus.Fields{
			"provider": provider.GetName(),
			"error":    err,
		}).Warn("Email provider failed, trying next")
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("all email providers failed")
	}
	return &SendResult{ProviderName: f.GetName(), Success: false, Error: lastErr}, lastErr
}

func (f *FailoverProvider) GetName() string {
	return "Failover"
}

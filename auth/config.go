package auth

import (
	"fmt"

	"github.com/jonwraymond/selfheal/observe"
)

// Config configures operator authentication.
type Config struct {
	// Enabled turns authentication on. When false every request is admitted.
	Enabled bool `yaml:"enabled"`

	JWT     *JWTConfig `yaml:"jwt"`
	APIKeys []APIKey   `yaml:"api_keys"`

	// Policy overrides DefaultPolicy when set.
	Policy Policy `yaml:"policy"`
}

// Validate rejects an enabled config without any credential source.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.JWT == nil && len(c.APIKeys) == 0 {
		return fmt.Errorf("%w: enabled without jwt or api_keys", ErrInvalidConfig)
	}
	if c.JWT != nil && c.JWT.Secret == "" {
		return fmt.Errorf("%w: jwt secret is required", ErrInvalidConfig)
	}
	for i, k := range c.APIKeys {
		if len(k.Hash) != 64 {
			return fmt.Errorf("%w: api_keys[%d] hash must be hex sha256", ErrInvalidConfig, i)
		}
		if k.Principal == "" {
			return fmt.Errorf("%w: api_keys[%d] principal is required", ErrInvalidConfig, i)
		}
	}
	return nil
}

// NewAuthenticator builds the authenticator described by c, or nil when
// authentication is disabled.
func (c Config) NewAuthenticator() (Authenticator, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if !c.Enabled {
		return nil, nil
	}

	var chain Chain
	if c.JWT != nil {
		j, err := NewJWTAuthenticator(*c.JWT)
		if err != nil {
			return nil, err
		}
		chain = append(chain, j)
	}
	if len(c.APIKeys) > 0 {
		chain = append(chain, NewAPIKeyAuthenticator(NewMemoryAPIKeyStore(c.APIKeys...)))
	}
	return chain, nil
}

// NewGuard builds a Guard from c.
func (c Config) NewGuard(logger observe.Logger) (*Guard, error) {
	authn, err := c.NewAuthenticator()
	if err != nil {
		return nil, err
	}
	policy := c.Policy
	if policy == nil {
		policy = DefaultPolicy()
	}
	if authn == nil {
		return NewGuard(nil, nil, logger), nil
	}
	return NewGuard(authn, policy, logger), nil
}

package config_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/selfheal/config"
)

func ExampleParse() {
	cfg, err := config.Parse(context.Background(), []byte(`
root: /srv/app
healer:
  max_auto_fix_tier: 2
  fix_timeout: 10s
`))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(cfg.Healer.MaxAutoFixTier, cfg.Healer.FixTimeout)
	fmt.Println(cfg.BackupDir)
	// Output:
	// prompted 10s
	// /srv/app/.selfheal/backups
}

package cmd

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
	"github.com/tanpawarit/autocheck-bot/bot/provider"
	configx "github.com/tanpawarit/autocheck-bot/pkg/config"
)

// configSet loads prefixed configs and collects every problem so a
// misconfigured deployment reports all missing variables at once.
type configSet struct {
	missing []string
	errs    []string
}

func loadInto[T any](cs *configSet, prefix string, dst *T) {
	cfg, err := configx.New[T](prefix)
	if err != nil {
		cs.errs = append(cs.errs, fmt.Sprintf("%s: %v", prefix, err))
		return
	}
	*dst = *cfg
}

func (cs *configSet) require(name, value string) {
	if strings.TrimSpace(value) == "" {
		cs.missing = append(cs.missing, name)
	}
}

func (cs *configSet) err() error {
	var parts []string
	if len(cs.missing) > 0 {
		parts = append(parts, "missing "+strings.Join(cs.missing, ", "))
	}
	parts = append(parts, cs.errs...)
	if len(parts) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", contractx.ErrConfiguration, strings.Join(parts, "; "))
}

// providerConfigs loads GIBDD_*, NSIS_* and EAISTO_* variables.
func (cs *configSet) providerConfigs() provider.Configs {
	var cfgs provider.Configs
	for _, item := range []struct {
		prefix string
		dst    *provider.Config
	}{
		{prefix: "GIBDD", dst: &cfgs.Registration},
		{prefix: "NSIS", dst: &cfgs.Insurance},
		{prefix: "EAISTO", dst: &cfgs.Inspection},
	} {
		loadInto(cs, item.prefix, item.dst)
		cs.require(item.prefix+"_API_KEY", item.dst.APIKey)
	}
	return cfgs
}

// loadRegistry builds the three provider clients.
func loadRegistry() (contractx.Registry, error) {
	cs := &configSet{}
	cfgs := cs.providerConfigs()
	if err := cs.err(); err != nil {
		return nil, err
	}
	return provider.NewRegistry(cfgs)
}

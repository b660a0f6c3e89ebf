package provider

import (
	contractx "github.com/tanpawarit/autocheck-bot/bot/contract"
)

type registryImpl struct {
	registration contractx.Provider
	insurance    contractx.Provider
	inspection   contractx.Provider
}

func (r *registryImpl) Registration() contractx.Provider {
	return r.registration
}

func (r *registryImpl) Insurance() contractx.Provider {
	return r.insurance
}

func (r *registryImpl) Inspection() contractx.Provider {
	return r.inspection
}

// Configs groups the per-provider configuration.
type Configs struct {
	Registration Config
	Insurance    Config
	Inspection   Config
}

func NewRegistry(cfgs Configs, opts ...Option) (contractx.Registry, error) {
	registration, err := NewRegistrationClient(cfgs.Registration, opts...)
	if err != nil {
		return nil, err
	}
	insurance, err := NewInsuranceClient(cfgs.Insurance, opts...)
	if err != nil {
		return nil, err
	}
	inspection, err := NewInspectionClient(cfgs.Inspection, opts...)
	if err != nil {
		return nil, err
	}
	return NewStaticRegistry(registration, insurance, inspection), nil
}

// NewStaticRegistry wraps already constructed providers.
func NewStaticRegistry(registration, insurance, inspection contractx.Provider) contractx.Registry {
	return &registryImpl{
		registration: registration,
		insurance:    insurance,
		inspection:   inspection,
	}
}

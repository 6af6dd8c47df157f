package initargs

import (
	"fmt"
	"reflect"
)

// Installer is the interface that must be implemented by installers.
// Installers encapsulate related catalog registrations.
//
// Example:
//
//	type AudioInstaller struct{}
//
//	func (i *AudioInstaller) Install(c *initargs.Catalog) error {
//	    if err := initargs.AddType[Audio](c, "Audio"); err != nil {
//	        return err
//	    }
//	    return c.RegisterConstructor("audio.mixer", NewMixer)
//	}
type Installer interface {
	Install(c *Catalog) error
}

// BootableInstaller is an optional interface for installers that need a
// boot phase. Boot is called after the services of a session have been
// created and injected.
//
// Example:
//
//	func (i *AudioInstaller) Boot(in *initargs.Injector) error {
//	    mixer, _ := registry.TryGetT[Audio](in.Registry(), nil, registry.MainThread)
//	    return mixer.Open()
//	}
type BootableInstaller interface {
	Installer
	Boot(in *Injector) error
}

// ConditionalInstaller is an optional interface for installers that should
// only be installed under some condition.
type ConditionalInstaller interface {
	Installer
	ShouldInstall(c *Catalog) bool
}

// Install installs an installer into the catalog. Installing a second
// installer of the same type is a no-op.
func (c *Catalog) Install(installer Installer) error {
	if installer == nil {
		return fmt.Errorf("installer cannot be nil")
	}

	if conditional, ok := installer.(ConditionalInstaller); ok && !conditional.ShouldInstall(c) {
		return nil
	}

	installerType := reflect.TypeOf(installer)
	c.mu.RLock()
	for _, existing := range c.installers {
		if reflect.TypeOf(existing) == installerType {
			c.mu.RUnlock()
			return nil
		}
	}
	c.mu.RUnlock()

	if err := installer.Install(c); err != nil {
		return fmt.Errorf("installer %T failed: %w", installer, err)
	}

	c.mu.Lock()
	c.installers = append(c.installers, installer)
	c.mu.Unlock()
	return nil
}

// Installers returns the installed installers in installation order.
func (c *Catalog) Installers() []Installer {
	c.mu.RLock()
	defer c.mu.RUnlock()

	installers := make([]Installer, len(c.installers))
	copy(installers, c.installers)
	return installers
}

// boot calls Boot on every bootable installer. A failing installer does
// not stop the others.
func (c *Catalog) boot(in *Injector) []error {
	var errs []error
	for _, installer := range c.Installers() {
		bootable, ok := installer.(BootableInstaller)
		if !ok {
			continue
		}
		if err := bootable.Boot(in); err != nil {
			errs = append(errs, fmt.Errorf("installer %T boot failed: %w", installer, err))
		}
	}
	return errs
}

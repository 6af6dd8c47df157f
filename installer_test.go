package initargs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pancake-llc/foundation-sub024/registry"
)

// Test installers

type audioInstaller struct {
	installs int
}

func (i *audioInstaller) Install(c *Catalog) error {
	i.installs++
	if err := AddType[Audio](c, "Audio"); err != nil {
		return err
	}
	return c.RegisterConstructor("audio.mixer", newMixer)
}

type bootableInstaller struct {
	log      *journal
	bootErr  error
	bootSeen bool
}

func (i *bootableInstaller) Install(c *Catalog) error {
	return AddType[Input](c, "Input")
}

func (i *bootableInstaller) Boot(in *Injector) error {
	_, i.bootSeen = registry.TryGetT[Audio](in.Registry(), nil, MainThread)
	if i.log != nil {
		i.log.add("boot")
	}
	return i.bootErr
}

type failingInstaller struct{}

func (failingInstaller) Install(*Catalog) error {
	return errors.New("install failed")
}

type conditionalInstaller struct {
	enabled   bool
	installed bool
}

func (i *conditionalInstaller) ShouldInstall(*Catalog) bool { return i.enabled }

func (i *conditionalInstaller) Install(*Catalog) error {
	i.installed = true
	return nil
}

type compositeInstaller struct{}

func (compositeInstaller) Install(c *Catalog) error {
	return c.Install(&audioInstaller{})
}

func TestCatalog_Install(t *testing.T) {
	c := NewCatalog()
	installer := &audioInstaller{}
	require.NoError(t, c.Install(installer))

	assert.Equal(t, 1, installer.installs)
	audio, ok := c.Type("Audio")
	require.True(t, ok)
	assert.Equal(t, typeOf[Audio](), audio)
	assert.Len(t, c.Installers(), 1)
}

func TestCatalog_InstallNil(t *testing.T) {
	assert.Error(t, NewCatalog().Install(nil))
}

func TestCatalog_InstallFailure(t *testing.T) {
	c := NewCatalog()
	err := c.Install(failingInstaller{})
	assert.ErrorContains(t, err, "install failed")
	assert.Empty(t, c.Installers())
}

func TestCatalog_InstallDuplicate(t *testing.T) {
	c := NewCatalog()
	first := &audioInstaller{}
	require.NoError(t, c.Install(first))
	require.NoError(t, c.Install(&audioInstaller{}))

	assert.Equal(t, 1, first.installs)
	assert.Len(t, c.Installers(), 1)
}

func TestCatalog_InstallConditional(t *testing.T) {
	c := NewCatalog()

	skipped := &conditionalInstaller{}
	require.NoError(t, c.Install(skipped))
	assert.False(t, skipped.installed)
	assert.Empty(t, c.Installers())

	enabled := &conditionalInstaller{enabled: true}
	require.NoError(t, c.Install(enabled))
	assert.True(t, enabled.installed)
}

func TestCatalog_InstallComposite(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Install(compositeInstaller{}))

	_, ok := c.Type("Audio")
	assert.True(t, ok)
	assert.Len(t, c.Installers(), 2)
}

func TestCatalog_BootCollectsErrors(t *testing.T) {
	c := NewCatalog()
	first := &bootableInstaller{bootErr: errors.New("boot failed")}
	require.NoError(t, c.Install(first))
	require.NoError(t, c.Install(&audioInstaller{}))

	in := NewInjector(nil)
	require.NoError(t, RegisterT[Audio](in, &mixer{}))

	errs := c.boot(in)
	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "boot failed")
	assert.True(t, first.bootSeen)
}

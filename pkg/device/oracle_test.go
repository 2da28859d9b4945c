/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: oracle_test.go
Description: Tests for the adb-backed installed package oracle using a stubbed process runner.
*/

package device_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kleascm/intentscout/pkg/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParsePackageList tests pm output parsing
func TestParsePackageList(t *testing.T) {
	output := []byte("package:com.android.settings\r\n" +
		"package:/data/app/~~x/com.acme.x-1/base.apk=com.acme.x\n" +
		"\n" +
		"WARNING: linker: something\n" +
		"package:\n" +
		"package:com.other.app\n")

	set := device.ParsePackageList(output)
	assert.Equal(t, []string{"com.acme.x", "com.android.settings", "com.other.app"}, set.Sorted())
	assert.True(t, set.Contains("com.acme.x"))
	assert.False(t, set.Contains("com.missing"))
}

// TestADBOracleArgs tests serial handling
func TestADBOracleArgs(t *testing.T) {
	assert.Equal(t, []string{"shell", "pm", "list", "packages"}, device.NewADBOracle("").Args())
	assert.Equal(t, []string{"-s", "emulator-5554", "shell", "pm", "list", "packages"}, device.NewADBOracle("emulator-5554").Args())
}

// TestADBOracleList tests the oracle against a stubbed adb
func TestADBOracleList(t *testing.T) {
	var gotName string
	var gotArgs []string
	oracle := device.NewADBOracle("serial-1").WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return []byte("package:com.acme.x\npackage:com.other.app\n"), nil
	})

	set, err := oracle.ListInstalledPackages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "adb", gotName)
	assert.Equal(t, []string{"-s", "serial-1", "shell", "pm", "list", "packages"}, gotArgs)
	assert.Len(t, set, 2)
}

// TestADBOracleUnavailable tests failure wrapping
func TestADBOracleUnavailable(t *testing.T) {
	oracle := device.NewADBOracle("").WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("error: no devices/emulators found"), errors.New("exit status 1")
	})

	_, err := oracle.ListInstalledPackages(context.Background())
	var unavailable *device.OracleUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Contains(t, err.Error(), "no devices/emulators found")

	empty := device.NewADBOracle("").WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("\n"), nil
	})
	_, err = empty.ListInstalledPackages(context.Background())
	assert.True(t, errors.As(err, &unavailable))
}

// TestStaticOracle tests the fixed oracle
func TestStaticOracle(t *testing.T) {
	set, err := device.StaticOracle{Packages: device.NewPackageSet("a.b")}.ListInstalledPackages(context.Background())
	require.NoError(t, err)
	assert.True(t, set.Contains("a.b"))

	_, err = device.StaticOracle{Err: errors.New("offline")}.ListInstalledPackages(context.Background())
	var unavailable *device.OracleUnavailableError
	assert.True(t, errors.As(err, &unavailable))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = device.StaticOracle{Packages: device.NewPackageSet("a.b")}.ListInstalledPackages(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: command_test.go
Description: Tests for verb mapping, intent filter selection, extras flags and shell quoting.
*/

package synth_test

import (
	"testing"

	"github.com/kleascm/intentscout/pkg/intent"
	"github.com/kleascm/intentscout/pkg/manifest"
	"github.com/kleascm/intentscout/pkg/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSynthesizeLoginScenario tests the exported launcher activity with no enrichment
func TestSynthesizeLoginScenario(t *testing.T) {
	content := `<manifest xmlns:android="http://schemas.android.com/apk/res/android" package="com.acme.x">
  <application>
    <activity android:name=".Login" android:exported="true"><intent-filter><action android:name="android.intent.action.MAIN"/></intent-filter></activity>
  </application>
</manifest>`
	record, err := manifest.Parse("AndroidManifest.xml", []byte(content))
	require.NoError(t, err)
	require.Len(t, record.Components, 1)

	comp := record.Components[0]
	assert.Equal(t, manifest.KindActivity, comp.Kind)
	assert.Equal(t, "com.acme.x.Login", comp.Name)
	assert.Equal(t, manifest.ExportedTrue, comp.Exported)

	cmd := synth.Synthesize(comp, nil)
	assert.Equal(t, synth.VerbStartActivity, cmd.Verb)
	assert.Equal(t, "com.acme.x/com.acme.x.Login", cmd.Target)
	assert.Equal(t, "android.intent.action.MAIN", cmd.Action)
	assert.Empty(t, cmd.Extras)
	assert.Equal(t, 0, cmd.FilterIndex)
	assert.Equal(t, "adb shell am start -n com.acme.x/com.acme.x.Login -a android.intent.action.MAIN", cmd.Text)
}

// TestVerbFor tests the kind to verb mapping
func TestVerbFor(t *testing.T) {
	assert.Equal(t, synth.VerbStartActivity, synth.VerbFor(manifest.KindActivity))
	assert.Equal(t, synth.VerbStartService, synth.VerbFor(manifest.KindService))
	assert.Equal(t, synth.VerbSendBroadcast, synth.VerbFor(manifest.KindReceiver))
	assert.Equal(t, synth.VerbQueryProvider, synth.VerbFor(manifest.KindProvider))
	assert.Equal(t, "send-broadcast", synth.VerbSendBroadcast.String())
}

// TestSelectFilter tests first-match selection
func TestSelectFilter(t *testing.T) {
	assert.Equal(t, -1, synth.SelectFilter(nil))
	assert.Equal(t, -1, synth.SelectFilter([]manifest.IntentFilter{{Categories: []string{"c"}}}))
	assert.Equal(t, 1, synth.SelectFilter([]manifest.IntentFilter{
		{Categories: []string{"c"}},
		{Actions: []string{"a.FIRST"}},
		{Actions: []string{"a.SECOND"}},
	}))
}

// TestSynthesizeFilterData tests categories, data and mime rendering
func TestSynthesizeFilterData(t *testing.T) {
	comp := manifest.ComponentRecord{
		Kind:    manifest.KindActivity,
		Name:    "com.acme.x.Deep",
		Package: "com.acme.x",
		Filters: []manifest.IntentFilter{
			{Data: []manifest.DataSpec{{Scheme: "ignored"}}},
			{
				Actions:    []string{"android.intent.action.VIEW"},
				Categories: []string{"android.intent.category.DEFAULT", "android.intent.category.BROWSABLE"},
				Data: []manifest.DataSpec{
					{Scheme: "https", Host: "acme.example"},
					{Path: "/open"},
				},
			},
		},
	}

	cmd := synth.Synthesize(comp, nil)
	assert.Equal(t, 1, cmd.FilterIndex)
	assert.Equal(t, "https://acme.example/open", cmd.DataURI)
	assert.Equal(t, []string{
		"adb", "shell", "am", "start", "-n", "com.acme.x/com.acme.x.Deep",
		"-a", "android.intent.action.VIEW",
		"-c", "android.intent.category.DEFAULT",
		"-c", "android.intent.category.BROWSABLE",
		"-d", "https://acme.example/open",
	}, cmd.Args())

	mime := manifest.ComponentRecord{
		Kind:    manifest.KindActivity,
		Name:    "com.acme.x.Share",
		Package: "com.acme.x",
		Filters: []manifest.IntentFilter{{
			Actions: []string{"android.intent.action.SEND"},
			Data:    []manifest.DataSpec{{MimeType: "text/plain"}},
		}},
	}
	assert.Equal(t, "adb shell am start -n com.acme.x/com.acme.x.Share -a android.intent.action.SEND -t text/plain", synth.Synthesize(mime, nil).Text)
}

// TestSynthesizeBareTarget tests components without a usable filter
func TestSynthesizeBareTarget(t *testing.T) {
	comp := manifest.ComponentRecord{
		Kind:     manifest.KindService,
		Name:     "com.acme.x.Sync",
		Package:  "com.acme.x",
		Exported: manifest.ExportedTrue,
		Filters:  []manifest.IntentFilter{{Categories: []string{"c.ONLY"}}},
	}
	cmd := synth.Synthesize(comp, nil)
	assert.Equal(t, -1, cmd.FilterIndex)
	assert.Empty(t, cmd.Action)
	assert.Empty(t, cmd.Categories)
	assert.Equal(t, "adb shell am startservice -n com.acme.x/com.acme.x.Sync", cmd.Text)

	comp.Kind = manifest.KindReceiver
	assert.Equal(t, "adb shell am broadcast -n com.acme.x/com.acme.x.Sync", synth.Synthesize(comp, nil).Text)
}

// TestSynthesizeProvider tests content query rendering
func TestSynthesizeProvider(t *testing.T) {
	comp := manifest.ComponentRecord{
		Kind:        manifest.KindProvider,
		Name:        "com.acme.x.Data",
		Package:     "com.acme.x",
		Authorities: []string{"com.acme.x.data", "com.acme.x.alt"},
	}
	extras := []intent.ExtraParameter{{Key: "k", Type: intent.ExtraString, Example: "v"}}
	cmd := synth.Synthesize(comp, extras)
	assert.Equal(t, synth.VerbQueryProvider, cmd.Verb)
	assert.Equal(t, "content://com.acme.x.data", cmd.Target)
	assert.Equal(t, "adb shell content query --uri content://com.acme.x.data", cmd.Text)
	assert.Equal(t, extras, cmd.Extras, "extras stay on the command even when not rendered")

	comp.Authorities = nil
	assert.Equal(t, "content://com.acme.x.Data", synth.Synthesize(comp, nil).Target)
}

// TestSynthesizeExtras tests typed flags, normalization and quoting
func TestSynthesizeExtras(t *testing.T) {
	comp := manifest.ComponentRecord{
		Kind:    manifest.KindReceiver,
		Name:    "com.acme.x.Push",
		Package: "com.acme.x",
		Filters: []manifest.IntentFilter{{Actions: []string{"com.acme.x.PUSH"}}},
	}
	extras := []intent.ExtraParameter{
		{Key: "title", Type: intent.ExtraString, Example: "hello world"},
		{Key: "count", Type: intent.ExtraInt, Example: "3"},
		{Key: "since", Type: intent.ExtraLong, Example: "-1L"},
		{Key: "ratio", Type: intent.ExtraDouble, Example: "0.5d"},
		{Key: "force", Type: intent.ExtraBool, Example: "Yes"},
		{Key: "link", Type: intent.ExtraURI, Example: "https://a.example/p?q=1&r=2"},
		{Key: "quote", Type: intent.ExtraString, Example: "it's"},
		{Key: "empty", Type: intent.ExtraString, Example: ""},
	}

	cmd := synth.Synthesize(comp, extras)
	assert.Equal(t, "adb shell am broadcast -n com.acme.x/com.acme.x.Push -a com.acme.x.PUSH"+
		` --es title "'hello world'"`+
		" --ei count 3"+
		" --el since -1"+
		" --ef ratio 0.5"+
		" --ez force true"+
		` --eu link "'https://a.example/p?q=1&r=2'"`+
		` --es quote "\"it's\""`+
		` --es empty "''"`, cmd.Text)

	// The caller's slice is copied
	extras[0].Example = "changed"
	assert.Equal(t, "hello world", cmd.Extras[0].Example)
}

// TestArgsQuotedForDevice tests that adb shell hands am one word per value
func TestArgsQuotedForDevice(t *testing.T) {
	comp := manifest.ComponentRecord{
		Kind:    manifest.KindActivity,
		Name:    "com.acme.x.Login",
		Package: "com.acme.x",
		Filters: []manifest.IntentFilter{{Actions: []string{"android.intent.action.MAIN"}}},
	}
	cmd := synth.Synthesize(comp, []intent.ExtraParameter{
		{Key: "user", Type: intent.ExtraString, Example: "alice smith"},
		{Key: "name", Type: intent.ExtraString, Example: "o'brien"},
		{Key: "home", Type: intent.ExtraString, Example: "$HOME"},
	})

	words := cmd.Words()
	assert.Equal(t, []string{"--es", "user", "alice smith", "--es", "name", "o'brien", "--es", "home", "$HOME"}, words[len(words)-9:])

	args := cmd.Args()
	assert.Equal(t, []string{"adb", "shell", "am", "start"}, args[:4])
	assert.Equal(t, []string{"--es", "user", "'alice smith'", "--es", "name", `"o'brien"`, "--es", "home", "'$HOME'"}, args[len(args)-9:])

	// adb joins the device words with spaces; the host line must keep each one intact
	assert.Equal(t, "adb shell am start -n com.acme.x/com.acme.x.Login -a android.intent.action.MAIN"+
		` --es user "'alice smith'"`+
		` --es name "\"o'brien\""`+
		` --es home "'\$HOME'"`, cmd.Text)

	data := manifest.ComponentRecord{
		Kind:    manifest.KindActivity,
		Name:    "com.acme.x.Deep",
		Package: "com.acme.x",
		Filters: []manifest.IntentFilter{{
			Actions: []string{"android.intent.action.VIEW"},
			Data:    []manifest.DataSpec{{Scheme: "acme", Host: "open", Path: "/a b;c"}},
		}},
	}
	dcmd := synth.Synthesize(data, nil)
	assert.Equal(t, "acme://open/a b;c", dcmd.DataURI)
	assert.Equal(t, "'acme://open/a b;c'", dcmd.Args()[len(dcmd.Args())-1])
	assert.Equal(t, "adb shell am start -n com.acme.x/com.acme.x.Deep -a android.intent.action.VIEW -d \"'acme://open/a b;c'\"", dcmd.Text)
}

// TestSynthesizeDeterministic tests that identical input renders identically
func TestSynthesizeDeterministic(t *testing.T) {
	comp := manifest.ComponentRecord{
		Kind:    manifest.KindActivity,
		Name:    "com.acme.x.A",
		Package: "com.acme.x",
		Filters: []manifest.IntentFilter{{Actions: []string{"a.B"}, Categories: []string{"c.1", "c.2"}}},
	}
	extras := []intent.ExtraParameter{{Key: "z", Type: intent.ExtraInt, Example: "1"}, {Key: "a", Type: intent.ExtraBool, Example: "false"}}

	first := synth.Synthesize(comp, extras)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, synth.Synthesize(comp, extras))
	}
}

// TestQuote tests shell quoting fallbacks
func TestQuote(t *testing.T) {
	assert.Equal(t, "plain.value", synth.Quote("plain.value"))
	assert.Equal(t, "''", synth.Quote(""))
	assert.Equal(t, "'a b'", synth.Quote("a b"))
	assert.Equal(t, "'$HOME'", synth.Quote("$HOME"))
	assert.Equal(t, "'ab c'", synth.Quote("ab\x00 c"))
	assert.Equal(t, "'a b'", synth.QuoteDevice("a b"))
	assert.Equal(t, `"it's"`, synth.QuoteDevice("it's"))
}

// Command jsonfmt is a notos plugin that formats JSON.
//
// It acts on the selection when one is present and the whole document
// otherwise. Invalid JSON is left untouched. Build it with:
//
//	go build -buildmode=plugin -o jsonfmt.so ./plugins/jsonfmt
package main

import (
	"errors"
	"strings"
	"unsafe"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/dshills/notos/pkg/sdk"
)

const (
	menuPlugins = "Plugins"
	itemFormat  = "Format JSON"
	itemSort    = "Format JSON (Sorted Keys)"
	itemMinify  = "Minify JSON"
)

var errInvalidJSON = errors.New("invalid JSON")

// Width 0 keeps every array element on its own line.
var (
	formatOptions = &pretty.Options{Indent: "  "}
	sortedOptions = &pretty.Options{Indent: "  ", SortKeys: true}
)

type jsonPlugin struct {
	sdk.Base
	log *logrus.Entry
}

func newPlugin() *jsonPlugin {
	return &jsonPlugin{
		log: logrus.WithField("plugin", "notos_json_format"),
	}
}

func (p *jsonPlugin) ID() string   { return "notos_json_format" }
func (p *jsonPlugin) Name() string { return "JSON Formatter" }

func (p *jsonPlugin) MenuUI(menu sdk.MenuContext, ed sdk.EditorContext) sdk.Action {
	action := sdk.None()

	menu.Menu(menuPlugins, func(m sdk.MenuContext) {
		formatClicked := m.Button(itemFormat)
		sortClicked := m.Button(itemSort)
		minifyClicked := m.Button(itemMinify)

		var fn func(string) (string, error)
		switch {
		case formatClicked:
			fn = indenter(formatOptions)
		case sortClicked:
			fn = indenter(sortedOptions)
		case minifyClicked:
			fn = minify
		default:
			return
		}

		var err error
		action, err = sdk.Transform(ed, fn)
		if err != nil {
			p.log.WithError(err).Warn("Cannot format JSON")
		}
		m.CloseMenu()
	})

	return action
}

// indenter re-indents a single JSON value with opts.
func indenter(opts *pretty.Options) func(string) (string, error) {
	return func(text string) (string, error) {
		if !gjson.Valid(text) {
			return "", errInvalidJSON
		}
		out := pretty.PrettyOptions([]byte(text), opts)
		return strings.TrimSuffix(string(out), "\n"), nil
	}
}

// minify strips insignificant whitespace from a single JSON value.
func minify(text string) (string, error) {
	if !gjson.Valid(text) {
		return "", errInvalidJSON
	}
	return string(pretty.Ugly([]byte(text))), nil
}

var create, destroy = sdk.Export(func() sdk.Plugin { return newPlugin() })

// CreatePlugin constructs the plugin for the editor.
func CreatePlugin() unsafe.Pointer { return create() }

// DestroyPlugin releases a handle returned by CreatePlugin.
func DestroyPlugin(ptr unsafe.Pointer) { destroy(ptr) }

func main() {}

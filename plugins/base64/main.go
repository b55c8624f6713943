// Command base64 is a notos plugin that Base64-encodes and decodes text.
//
// It acts on the selection when one is present and on the whole document
// otherwise. Build it with:
//
//	go build -buildmode=plugin -o base64.so ./plugins/base64
package main

import (
	"encoding/base64"
	"errors"
	"strings"
	"unicode/utf8"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/dshills/notos/pkg/sdk"
)

// Menu labels.
const (
	menuPlugins = "Plugins"
	itemEncode  = "Base64 Encode"
	itemDecode  = "Base64 Decode"
)

type base64Plugin struct {
	sdk.Base
	log *logrus.Entry
}

func newPlugin() *base64Plugin {
	return &base64Plugin{
		log: logrus.WithField("plugin", "notos_base64"),
	}
}

func (p *base64Plugin) ID() string   { return "notos_base64" }
func (p *base64Plugin) Name() string { return "Base64 Tool" }

func (p *base64Plugin) MenuUI(menu sdk.MenuContext, ed sdk.EditorContext) sdk.Action {
	action := sdk.None()

	menu.Menu(menuPlugins, func(m sdk.MenuContext) {
		if m.Button(itemEncode) {
			action, _ = sdk.Transform(ed, encode)
			m.CloseMenu()
		}
		if m.Button(itemDecode) {
			var err error
			action, err = sdk.Transform(ed, decode)
			if err != nil {
				p.log.WithError(err).Warn("Base64 decode failed")
			}
			m.CloseMenu()
		}
	})

	return action
}

func encode(text string) (string, error) {
	return base64.StdEncoding.EncodeToString([]byte(text)), nil
}

// decode decodes standard Base64, ignoring surrounding whitespace. The
// decoded bytes must be valid UTF-8.
func decode(text string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", errors.New("decoded data is not UTF-8 text")
	}
	return string(raw), nil
}

var create, destroy = sdk.Export(func() sdk.Plugin { return newPlugin() })

// CreatePlugin constructs the plugin for the editor.
func CreatePlugin() unsafe.Pointer { return create() }

// DestroyPlugin releases a handle returned by CreatePlugin.
func DestroyPlugin(ptr unsafe.Pointer) { destroy(ptr) }

func main() {}

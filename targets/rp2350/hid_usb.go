//go:build rp2350

package main

import (
	"machine/usb/hid/keyboard"
	"machine/usb/hid/mouse"
)

// keyboardEndpoint and mouseEndpoint adapt TinyGo's built-in USB HID boot
// keyboard/mouse ports to core.Endpoint, so core.Tick can write reports
// without knowing anything about the underlying USB stack.

type keyboardEndpoint struct {
	port keyboard.Port
}

func newKeyboardEndpoint() *keyboardEndpoint {
	return &keyboardEndpoint{port: keyboard.Port()}
}

func (k *keyboardEndpoint) IsReadWriteAllowed() bool {
	return k.port.IsReadWriteAllowed()
}

func (k *keyboardEndpoint) Write(data []byte) (int, error) {
	return k.port.Write(data)
}

func (k *keyboardEndpoint) Read(data []byte) (int, error) {
	return k.port.Read(data)
}

type mouseEndpoint struct {
	port mouse.Port
}

func newMouseEndpoint() *mouseEndpoint {
	return &mouseEndpoint{port: mouse.Port()}
}

func (m *mouseEndpoint) IsReadWriteAllowed() bool {
	return m.port.IsReadWriteAllowed()
}

func (m *mouseEndpoint) Write(data []byte) (int, error) {
	return m.port.Write(data)
}

func (m *mouseEndpoint) Read(data []byte) (int, error) {
	return m.port.Read(data)
}

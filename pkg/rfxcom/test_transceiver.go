package rfxcom

import (
	"errors"
	"strings"
	"sync"
)

func CreateTestTransceiver() (Transceiver, error) {
	return &TestTransceiver{}, nil
}

// TestCommand is a command recorded by TestTransceiver.
type TestCommand struct {
	DeviceType  string
	Subtype     string
	Function    string
	EntityTopic string
}

// TestTransceiver records sent commands and echoes them back as lighting
// events, as a transceiver hearing its own transmission would.
type TestTransceiver struct {
	mu       sync.Mutex
	open     bool
	handler  func(Event)
	commands []TestCommand
}

func (t *TestTransceiver) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open = true
	return nil
}

func (t *TestTransceiver) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open = false
	return nil
}

func (t *TestTransceiver) OnEvent(handler func(Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = handler
}

func (t *TestTransceiver) SendCommand(deviceType string, subtype string, function string, entityTopic string) error {
	t.mu.Lock()
	if !t.open {
		t.mu.Unlock()
		return errors.New("transceiver is closed")
	}
	t.commands = append(t.commands, TestCommand{
		DeviceType:  deviceType,
		Subtype:     subtype,
		Function:    function,
		EntityTopic: entityTopic,
	})
	handler := t.handler
	t.mu.Unlock()

	if handler != nil && IsSwitchable(deviceType) {
		handler(t.echo(deviceType, subtype, function, entityTopic))
	}
	return nil
}

func (t *TestTransceiver) echo(deviceType string, subtype string, function string, entityTopic string) Event {
	id, unit, hasUnit := strings.Cut(entityTopic, "/")
	event := Event{
		"type":    deviceType,
		"subtype": subtype,
		"id":      id,
		"command": function,
		"rssi":    6,
	}
	if hasUnit {
		event["unitCode"] = unit
	}
	if code, ok := FunctionCode(deviceType, function); ok {
		event["commandNumber"] = code
	}
	return event
}

func (t *TestTransceiver) Status() (*Status, error) {
	return &Status{
		ReceiverTypeCode: 83,
		ReceiverType:     "433.92MHz transceiver",
		HardwareVersion:  "1.2",
		FirmwareVersion:  242,
		FirmwareType:     "Ext",
		EnabledProtocols: []string{"LACROSSE", "OREGON", "AC", "ARC", "X10"},
		TransmitterPower: 10,
	}, nil
}

// Emit delivers event to the registered handler.
func (t *TestTransceiver) Emit(event Event) {
	t.mu.Lock()
	handler := t.handler
	t.mu.Unlock()
	if handler != nil {
		handler(event)
	}
}

func (t *TestTransceiver) Commands() []TestCommand {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]TestCommand(nil), t.commands...)
}

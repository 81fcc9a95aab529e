package rfxcom

const (
	LIGHTING1 = "lighting1"
	LIGHTING2 = "lighting2"
	LIGHTING3 = "lighting3"
	LIGHTING4 = "lighting4"
	LIGHTING5 = "lighting5"
	LIGHTING6 = "lighting6"
	CHIME1    = "chime1"

	FUNCTION_SWITCH_OFF = "switchOff"
	FUNCTION_SWITCH_ON  = "switchOn"
	FUNCTION_GROUP_OFF  = "groupOff"
	FUNCTION_GROUP_ON   = "groupOn"
	FUNCTION_SET_LEVEL  = "setLevel"
	FUNCTION_SEND_DATA  = "sendData"
	FUNCTION_CHIME      = "chime"
)

// command codes as they appear in the commandNumber field of lighting events
var functionCodes = map[string]map[string]int{
	LIGHTING1: {
		FUNCTION_SWITCH_OFF: 0,
		FUNCTION_SWITCH_ON:  1,
		FUNCTION_GROUP_OFF:  5,
		FUNCTION_GROUP_ON:   6,
	},
	LIGHTING2: {
		FUNCTION_SWITCH_OFF: 0,
		FUNCTION_SWITCH_ON:  1,
		FUNCTION_SET_LEVEL:  2,
		FUNCTION_GROUP_OFF:  3,
		FUNCTION_GROUP_ON:   4,
	},
	LIGHTING3: {
		FUNCTION_SWITCH_ON:  0x10,
		FUNCTION_SWITCH_OFF: 0x1A,
	},
	LIGHTING5: {
		FUNCTION_SWITCH_OFF: 0,
		FUNCTION_SWITCH_ON:  1,
		FUNCTION_GROUP_OFF:  2,
		FUNCTION_SET_LEVEL:  0x10,
	},
	LIGHTING6: {
		FUNCTION_SWITCH_ON:  0,
		FUNCTION_SWITCH_OFF: 1,
		FUNCTION_GROUP_ON:   2,
		FUNCTION_GROUP_OFF:  3,
	},
}

// IsSwitchable reports whether deviceType is a lighting family that can be
// driven with on/off/level commands.
func IsSwitchable(deviceType string) bool {
	switch deviceType {
	case LIGHTING1, LIGHTING2, LIGHTING3, LIGHTING5, LIGHTING6:
		return true
	}
	return false
}

func FunctionCode(deviceType string, function string) (int, bool) {
	codes, ok := functionCodes[deviceType]
	if !ok {
		return 0, false
	}
	code, ok := codes[function]
	return code, ok
}

// IsGroup reports whether event was addressed to every unit of a device.
func IsGroup(event Event) bool {
	command, ok := event.CommandNumber()
	if !ok {
		return false
	}
	switch event.Type() {
	case LIGHTING1:
		return command == 5 || command == 6
	case LIGHTING2:
		return command == 3 || command == 4
	case LIGHTING5:
		return command == 2
	case LIGHTING6:
		return command == 2 || command == 3
	}
	return false
}

package config

import "companion-mcu/types"

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device/board ID (the value placed in ctx under CtxDeviceKey).
// Val: raw JSON bytes for that board, decoded via tinyjson.
// -----------------------------------------------------------------------------

// cfgHandheldRev2 is the current board revision: TX/RX on the
// lower-numbered pin pair.
const cfgHandheldRev2 = `{
  "board": {
    "board": "handheld-rev2",
    "uart_tx_pin": 0,
    "uart_rx_pin": 1,
    "uart_baud": 115200,
    "led_count": 7,
    "mux_pin": 2,
    "eink_power_pin": 3,
    "usb_switch_pin": 6,
    "i2c_addr": 104
  },
  "heartbeat": {
    "interval": 2
  }
}`

// cfgHandheldRev1 is the superseded revision with TX/RX on the
// higher-numbered pair. Kept only as a selectable embedded config,
// never the default.
const cfgHandheldRev1 = `{
  "board": {
    "board": "handheld-rev1",
    "uart_tx_pin": 8,
    "uart_rx_pin": 9,
    "uart_baud": 115200,
    "led_count": 7,
    "mux_pin": 2,
    "eink_power_pin": 3,
    "usb_switch_pin": 6,
    "i2c_addr": 104
  },
  "heartbeat": {
    "interval": 2
  }
}`

var embeddedConfigs = map[string][]byte{
	DefaultBoard:    []byte(cfgHandheldRev2),
	"handheld-rev1": []byte(cfgHandheldRev1),
}

// DefaultBoardConfig returns the fallback BoardConfig used when a
// board's embedded JSON omits a field, keeping the lower-numbered
// TX/RX pin pair as the implicit default.
func DefaultBoardConfig() types.BoardConfig {
	return types.BoardConfig{
		Board:      DefaultBoard,
		UARTTxPin:  0,
		UARTRxPin:  1,
		UARTBaud:   115200,
		LEDCount:   7,
		MuxPin:     2,
		EinkPwrPin: 3,
		USBSwPin:   6,
		I2CAddr:    0x68,
	}
}

// Package ulcd implements the serial protocol core for 4D Systems uLCD
// display modules.
//
// The host sends a command frame made of a 16-bit opcode and 16-bit
// parameters, all big-endian, and the display answers with a single
// acknowledgment byte, optionally followed by a payload whose size is fixed
// by the command:
//
//   - ACK (0x06) - command accepted
//   - NAK (0x15) - command rejected
//
// Any other reply byte is a protocol error.
//
// # Connection
//
// A [Connection] owns one serial device. It is configured with
// [NewConnectionConfig] and functional options (or [LoadConnectionConfig] for
// YAML), opened with [Connection.Open] and released with [Connection.Close].
// Exchanges are synchronous and one at a time; the connection holds no lock.
//
// # Timeouts
//
// The read timeout bounds each read call by default ([PerAttemptTimeout]), so
// a reply arriving in several chunks may take longer than the timeout in total.
// [WholeCallTimeout] turns the timeout into a deadline for the complete read.
//
// # Baud rate
//
// [Connection.SetBaudRate] negotiates a new line speed with SET_BAUD_RATE.
// By default the acknowledgment is read at the new speed after the settle
// delay ([BaudAckAtNewSpeed]); [BaudAckAtOldSpeed] reads it before switching.
//
// # Resynchronization
//
// A malformed command can leave the display waiting for parameters that never
// come. [Connection.Reset] feeds it zero bytes until it answers 06 00 09.
//
// # Errors
//
// All operations return an [*Error] whose [Kind] matches one of the sentinel
// errors (ErrNak, ErrTimeout, ...) with errors.Is. The connection keeps the
// last error, see [Connection.LastError].
package ulcd

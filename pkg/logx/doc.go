// Package logx configures homework-bot's structured logging.
//
// It is a small wrapper (logx.Logger) on top of zerolog that keeps:
//   - Console output in the classic "<time> - [<LEVEL>] - <message>" layout
//   - File output JSON-structured, with size based rotation
//   - Sinks swappable at runtime (Service.Apply) for config hot reload
package logx

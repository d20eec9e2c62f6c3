// Package logx configures the kiosk's structured logging.
//
// A small wrapper (logx.Logger) on top of zerolog keeps:
//   - Console output readable (short timestamp + short caller), or JSON for journald
//   - File output JSON-structured
//   - Optional Telegram alert sink (min-level + rate limiting + bounded queue)
package logx

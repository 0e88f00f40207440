package storage

// Package storage provides the optional persistence layer of alertwatch.
//
// It currently supports:
//   - Notification delivery audit appends
//   - Optional persisted shown-set (alert ids already notified), so the
//     notify-once guarantee can survive restarts when configured

// Package infra contains technical adapters: the sqlite rule store, the
// JSON configuration directory, websocket and MQTT push channels, metrics
// exporters and the weather client. These packages should depend only on
// the interfaces defined in the core packages.
package infra

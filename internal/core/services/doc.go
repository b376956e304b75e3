// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
//   - DocumentRecordStore: processed-document index and private directory
//   - SettingsService: typed access to the configuration store
//
// Services are pure Go with no CGO or external dependencies.
package services

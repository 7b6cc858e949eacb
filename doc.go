// Package courier provides pluggable driver resolution with a fluent,
// single-use command builder for dispatching payloads to swappable
// backends.
//
// The package consists of three main components:
//
//   - Registry: holds named driver configurations and lazily builds
//     cached driver instances
//   - Command: a chainable accumulator of operation parameters that
//     dispatches to a driver exactly once
//   - Manager: top-level entry point that tracks the active driver
//
// # Usage
//
// Drivers are enumerated in a YAML configuration and bound to their
// factories at startup:
//
//	import (
//		"context"
//		"os"
//
//		"github.com/dmitrymomot/courier"
//		"github.com/dmitrymomot/courier/fs"
//		"github.com/dmitrymomot/courier/smtp"
//	)
//
//	func main() {
//		ctx := context.Background()
//
//		cfg, err := courier.LoadConfigFile("courier.yml")
//		if err != nil {
//			panic(err)
//		}
//
//		m, err := courier.New(cfg, map[string]courier.Factory{
//			"smtp": smtp.Factory,
//			"fs":   fs.Factory,
//		})
//		if err != nil {
//			panic(err)
//		}
//
//		// Dispatch through the default driver.
//		cmd, err := m.Command()
//		if err != nil {
//			panic(err)
//		}
//		result, err := cmd.
//			To("user@example.com").
//			Subject("Welcome").
//			Content("Hello!").
//			Dispatch(ctx)
//		if err != nil {
//			panic(err)
//		}
//		_ = result.Reference
//	}
//
// Switching backends resolves the named driver and makes it the
// active one; the returned builder is bound at creation:
//
//	cmd, err := m.Driver("uploads")
//	if err != nil {
//		panic(err)
//	}
//	result, err := cmd.
//		To("avatars").
//		Name("avatar.png").
//		Prefix("user_42_").
//		AllowTypes("png", "jpg").
//		Body(data).
//		Dispatch(ctx)
//
// # Commands are single-use
//
// A Command belongs to one logical operation. Configuration calls
// validate their arguments immediately; the first violation is
// surfaced by Dispatch before the driver is ever invoked. Calling
// Dispatch a second time fails with ErrAlreadyExecuted.
//
// # Custom drivers
//
// Implement the Driver interface and register a Factory that
// validates required configuration keys:
//
//	func Factory(cfg courier.DriverConfig) (courier.Driver, error) {
//		if err := cfg.Require("token"); err != nil {
//			return nil, err
//		}
//		token, _ := cfg.String("token")
//		return &myDriver{token: token}, nil
//	}
//
// # Errors
//
// The package defines sentinel errors for specific failure cases:
//
//   - ErrUnknownDriver: registry lookup for an unregistered name
//   - ErrMissingConfig: driver resolved without a required option
//   - ErrInvalidConfig: malformed configuration document
//   - ErrInvalidArgument: builder call given a malformed argument
//   - ErrNoDestination: dispatch without a destination
//   - ErrNoContent: dispatch without body or template
//   - ErrUnsupportedType: payload type failed the allowlist check
//   - ErrAlreadyExecuted: reuse of a spent command builder
//   - ErrDispatchFailed: underlying driver failed to deliver
package courier

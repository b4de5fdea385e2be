// Package interfaces holds compile-time checks that the concrete services,
// repositories and clients satisfy the narrow interfaces their consumers
// declare.
//
// # Where the interfaces live
//
// Interfaces are declared by the package that consumes them, not the one that
// implements them:
//
//   - AuditLogger, ImageRemover: internal/services/interfaces.go
//   - FieldSealer: internal/database/guests/repository.go
//   - Renderer, AuthAuditor, GuestResolver: internal/auth/handlers.go
//   - TaskAuditor, StaleBookingCanceller, AuditEventCleaner: internal/tasks
//   - Enqueuer: internal/scheduler/scheduler.go
//   - TaskQueue: internal/http/tasks.go
//   - storage.Client: internal/storage/client.go (checked next to each provider)
//   - oauth2.Provider: internal/oauth2/provider.go (checked next to each provider)
//
// # Adding a New Background Task
//
//  1. Add the task type and its backlite queue in internal/tasks/, taking its
//     dependencies as an interface declared in the same file.
//  2. Register the queue in internal/entrypoint/entrypoint.go.
//  3. Add it to the scheduler's DefaultJobs if it should run on a cron schedule,
//     and to the task type list in internal/http/tasks.go if staff may run it.
//  4. Add the compile-time check for its dependency here.
//
// # Adding a New Storage Provider
//
//  1. Create internal/storage/providers/<name>/client.go implementing storage.Client.
//  2. Add the provider constant in internal/config/config.go.
//  3. Select it in newStore in internal/entrypoint/app.go.
package interfaces

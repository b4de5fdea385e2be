package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/wildoasis/booking/internal/audit"
	"github.com/wildoasis/booking/internal/auth"
	"github.com/wildoasis/booking/internal/crypto"
	"github.com/wildoasis/booking/internal/database/guests"
	"github.com/wildoasis/booking/internal/http"
	"github.com/wildoasis/booking/internal/scheduler"
	"github.com/wildoasis/booking/internal/services"
	"github.com/wildoasis/booking/internal/tasks"
)

// =============================================================================
// Domain Services
// =============================================================================

// AuditLogger implementations
var _ services.AuditLogger = (*audit.Service)(nil)

// ImageRemover implementations
var _ services.ImageRemover = (*tasks.ImageRemover)(nil)

// FieldSealer implementations
var _ guests.FieldSealer = (*crypto.FieldCipher)(nil)

// =============================================================================
// Authentication
// =============================================================================

var _ auth.Renderer = (*http.TemplateRenderer)(nil)
var _ auth.AuthAuditor = (*audit.Service)(nil)
var _ auth.GuestResolver = (*services.GuestService)(nil)

// =============================================================================
// Background Tasks
// =============================================================================

var _ tasks.TaskAuditor = (*audit.Service)(nil)
var _ tasks.StaleBookingCanceller = (*services.BookingService)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)

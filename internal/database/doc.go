// Package database provides the data access layer for the booking site.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, settings row
//	├── cabins/          # Cabin CRUD and capacity filtering
//	├── guests/          # Guest profiles (national ID sealed at rest)
//	├── bookings/        # Reservations and the date-overlap query
//	├── settings/        # Hotel-wide booking rules
//	├── users/           # Staff accounts
//	└── audit/           # Audit trail
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./wildoasis.db")
//
//	cabinRepo := cabins.NewRepository(db.DB)
//	bookingRepo := bookings.NewRepository(db.DB)
//
//	n, err := bookingRepo.CountOverlapping(cabinID, checkIn, checkOut, 0)
//
// Availability is never computed in Go. The overlap predicate lives in
// bookings.Repository and runs inside the database, so two requests racing for
// the same nights are serialized by SQLite's write lock when wrapped in
// bookings.Repository.Transaction.
package database

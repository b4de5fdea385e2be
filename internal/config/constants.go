package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./wildoasis.db"

	// DefaultUploadsDir is where the local image store keeps cabin photos
	DefaultUploadsDir = "./uploads"

	// DefaultStorageBucket is the Supabase Storage bucket holding cabin photos
	DefaultStorageBucket = "cabin-images"
)

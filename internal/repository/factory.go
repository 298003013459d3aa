package repository

// Repositories holds all repository implementations.
// This struct provides a single point of access to all data access layers.
type Repositories struct {
	Sessions      SessionRepository
	Uploads       UploadRepository
	Verifications VerificationRepository
	Health        HealthRepository

	// Cleanup releases the underlying database connection.
	Cleanup func()
}

// Close runs Cleanup if set.
func (r *Repositories) Close() {
	if r != nil && r.Cleanup != nil {
		r.Cleanup()
	}
}
